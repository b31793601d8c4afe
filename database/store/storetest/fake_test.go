package storetest

import (
	"context"
	"testing"

	"github.com/vaultmesh/checkout/database/orm"
)

func TestUpdateOrderStatusRejectsIllegalTransition(t *testing.T) {
	f := New()
	order := &orm.Order{ID: "order-1", Status: orm.OrderStatusPaymentCompleted}
	if err := f.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// PAYMENT_COMPLETED -> COMPLETED is not a legal DAG edge, even
	// though the row is genuinely in PAYMENT_COMPLETED.
	err := f.UpdateOrderStatus(context.Background(), order.ID, orm.OrderStatusPaymentCompleted, orm.OrderStatusCompleted, nil)
	if err == nil {
		t.Fatal("expected an error for an illegal transition")
	}

	got, err := f.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != orm.OrderStatusPaymentCompleted {
		t.Errorf("order status = %v, want unchanged PAYMENT_COMPLETED", got.Status)
	}
}

func TestGetSystemConfigReturnsNotFoundForMissingKey(t *testing.T) {
	f := New()
	if _, err := f.GetSystemConfig(context.Background(), "maintenance_mode"); err == nil {
		t.Fatal("expected an error for a missing config key")
	}
}

func TestGetSystemConfigReturnsSeededValue(t *testing.T) {
	f := New()
	f.SeedSystemConfig(&orm.SystemConfig{Key: "maintenance_mode", Value: "true"})

	c, err := f.GetSystemConfig(context.Background(), "maintenance_mode")
	if err != nil {
		t.Fatalf("GetSystemConfig: %v", err)
	}
	if c.Value != "true" {
		t.Errorf("Value = %q, want %q", c.Value, "true")
	}
}

func TestUpdateOrderStatusAllowsLegalTransition(t *testing.T) {
	f := New()
	order := &orm.Order{ID: "order-2", Status: orm.OrderStatusBlockchainProcessing}
	if err := f.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := f.UpdateOrderStatus(context.Background(), order.ID, orm.OrderStatusBlockchainProcessing, orm.OrderStatusCompleted, nil); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}

	got, err := f.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != orm.OrderStatusCompleted {
		t.Errorf("order status = %v, want COMPLETED", got.Status)
	}
}
