package apiadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/provider"
)

func TestStorjExecuteStorageTransaction(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/buckets" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req storjBucketReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotName = req.Name
		json.NewEncoder(w).Encode(storjBucketResp{Name: req.Name})
	}))
	defer srv.Close()

	s := NewStorj(StorjConfig{APIBaseURL: srv.URL, GatewayURL: "https://gw.example.com", APIKey: "k"})

	result, err := s.ExecuteStorageTransaction(context.Background(), provider.TxParams{
		OrderID:          "order-1",
		StorageSizeBytes: 1 << 30,
		DurationDays:     30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if gotName != bucketName("order-1") {
		t.Errorf("bucket name = %q, want %q", gotName, bucketName("order-1"))
	}
	if result.TxHash != gotName {
		t.Errorf("TxHash = %q, want %q", result.TxHash, gotName)
	}
	if result.Status != orm.TransactionStatusSubmitted {
		t.Errorf("Status = %v, want SUBMITTED", result.Status)
	}
}

func TestStorjBucketNameIsDeterministicOnOrderID(t *testing.T) {
	first := bucketName("order-42")
	second := bucketName("order-42")
	if first != second {
		t.Errorf("bucketName should be deterministic: %q != %q", first, second)
	}
}

func TestStorjExecuteStorageTransactionUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewStorj(StorjConfig{APIBaseURL: srv.URL})
	result, err := s.ExecuteStorageTransaction(context.Background(), provider.TxParams{OrderID: "order-2"})
	if err != nil {
		t.Fatalf("ExecuteStorageTransaction should report failure via TxResult, not error: %v", err)
	}
	if result.Success {
		t.Error("expected Success = false on upstream 500")
	}
}

func TestStorjCheckTransactionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/confirmed-bucket" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewStorj(StorjConfig{APIBaseURL: srv.URL})

	confirmed, err := s.CheckTransactionStatus(context.Background(), "confirmed-bucket")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmed.Status != orm.TransactionStatusConfirmed {
		t.Errorf("Status = %v, want CONFIRMED", confirmed.Status)
	}

	pending, err := s.CheckTransactionStatus(context.Background(), "missing-bucket")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending.Status != orm.TransactionStatusConfirming {
		t.Errorf("Status = %v, want CONFIRMING", pending.Status)
	}
}

func TestStorjInitializeRequiresAPIKey(t *testing.T) {
	s := NewStorj(StorjConfig{APIBaseURL: "http://example.com"})
	if err := s.Initialize(context.Background()); err == nil {
		t.Error("expected Initialize to fail without an API key")
	}
}
