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

func TestLighthouseExecuteStorageTransactionUsesOrderIDAsClientRef(t *testing.T) {
	var gotRef string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req dealReq
		json.NewDecoder(r.Body).Decode(&req)
		gotRef = req.ClientRef
		json.NewEncoder(w).Encode(dealResp{Cid: "bafy123", DealID: "deal-1"})
	}))
	defer srv.Close()

	l := NewLighthouse(LighthouseConfig{APIBaseURL: srv.URL, GatewayURL: "https://gw.example.com", APIKey: "k"})

	result, err := l.ExecuteStorageTransaction(context.Background(), provider.TxParams{OrderID: "order-9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotRef != "order-9" {
		t.Errorf("client_ref = %q, want order-9", gotRef)
	}
	if result.TxHash != "bafy123" {
		t.Errorf("TxHash = %q, want bafy123", result.TxHash)
	}
	if result.StorageEndpoint != "https://gw.example.com/ipfs/bafy123" {
		t.Errorf("StorageEndpoint = %q", result.StorageEndpoint)
	}
	if result.Status != orm.TransactionStatusSubmitted {
		t.Errorf("Status = %v, want SUBMITTED", result.Status)
	}
}

func TestLighthouseGetTransactionExplorerURL(t *testing.T) {
	l := NewLighthouse(LighthouseConfig{GatewayURL: "https://gw.example.com"})
	if got := l.GetTransactionExplorerURL("bafy123"); got != "https://gw.example.com/ipfs/bafy123" {
		t.Errorf("GetTransactionExplorerURL = %q", got)
	}
}
