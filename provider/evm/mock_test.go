package evm

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/vaultmesh/checkout/provider"
)

func TestMockTxHashIsUniquePerCall(t *testing.T) {
	a := mockTxHash("order-1", "plan-1")
	b := mockTxHash("order-1", "plan-1")
	if a == b {
		t.Error("mockTxHash should never repeat within a process, even for identical inputs")
	}
	if !strings.HasPrefix(a, "0x") {
		t.Errorf("mockTxHash = %q, want 0x-prefixed", a)
	}
	if len(a) != len("0x")+64 {
		t.Errorf("mockTxHash length = %d, want %d (0x + 32-byte hex)", len(a), len("0x")+64)
	}
}

func TestFilecoinMockModeExecuteStorageTransaction(t *testing.T) {
	f := NewFilecoin(Config{Mode: ModeMock}, "https://explorer.example.com")
	if err := f.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	result, err := f.ExecuteStorageTransaction(context.Background(), provider.TxParams{
		OrderID: "order-mock",
		PlanID:  "plan-1",
	})
	if err != nil {
		t.Fatalf("ExecuteStorageTransaction: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if !strings.HasPrefix(result.TxHash, "0x") {
		t.Errorf("TxHash = %q, want 0x-prefixed", result.TxHash)
	}
}

func TestFilecoinRefusesMockModeInProduction(t *testing.T) {
	os.Setenv("NODE_ENV", "production")
	defer os.Unsetenv("NODE_ENV")

	f := NewFilecoin(Config{Mode: ModeMock}, "")
	if err := f.Initialize(context.Background()); err == nil {
		t.Error("expected Initialize to refuse mock mode when NODE_ENV=production")
	}
}
