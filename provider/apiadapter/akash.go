package apiadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/provider"
)

// AkashConfig configures the Akash adapter.
type AkashConfig struct {
	LCDBaseURL string
	APIKey     string
}

// Akash is an API-style adapter that creates a deployment lease
// through a Cosmos LCD/REST gateway. The lease ID doubles as the
// pseudo-txHash since Akash settlements are lease-scoped, not
// single-transaction.
type Akash struct {
	cfg    AkashConfig
	client *Client
}

// NewAkash returns an Akash adapter.
func NewAkash(cfg AkashConfig) *Akash {
	return &Akash{
		cfg:    cfg,
		client: NewClient(cfg.LCDBaseURL, cfg.APIKey),
	}
}

func (a *Akash) Slug() string { return "akash" }

func (a *Akash) Initialize(ctx context.Context) error {
	ok, err := a.client.Head(ctx, "node_info")
	if err != nil {
		return fmt.Errorf("akash: lcd unreachable: %w", err)
	}
	if !ok {
		return fmt.Errorf("akash: lcd node_info probe failed")
	}
	return nil
}

func (a *Akash) IsAvailable(ctx context.Context) bool {
	ok, err := a.client.Head(ctx, "node_info")
	return err == nil && ok
}

type akashPlan struct {
	ID           string `json:"id"`
	SizeGB       uint64 `json:"size_gb"`
	DurationDays uint32 `json:"duration_days"`
	PriceCents   int64  `json:"price_cents"`
	PriceUAKT    string `json:"price_uakt"`
}

func (a *Akash) GetAvailablePlans(ctx context.Context) ([]provider.PlanInfo, error) {
	var resp struct {
		Plans []akashPlan `json:"plans"`
	}
	if err := a.client.Get(ctx, "vaultmesh/plans", &resp); err != nil {
		return nil, err
	}

	out := make([]provider.PlanInfo, 0, len(resp.Plans))
	for _, p := range resp.Plans {
		out = append(out, provider.PlanInfo{
			ExternalPlanID: p.ID,
			SizeGB:         p.SizeGB,
			SizeBytes:      p.SizeGB * 1 << 30,
			DurationDays:   p.DurationDays,
			PriceCents:     p.PriceCents,
			PriceNative:    p.PriceUAKT,
			Currency:       "USD",
		})
	}

	return out, nil
}

type akashDeploymentReq struct {
	OrderRef     string `json:"order_ref"`
	SizeBytes    uint64 `json:"size_bytes"`
	DurationDays uint32 `json:"duration_days"`
	Owner        string `json:"owner,omitempty"`
}

type akashDeploymentResp struct {
	LeaseID string `json:"lease_id"`
	DSeq    string `json:"dseq"`
	Provider string `json:"provider"`
}

func (a *Akash) ExecuteStorageTransaction(
	ctx context.Context,
	params provider.TxParams,
) (*provider.TxResult, error) {
	var resp akashDeploymentResp
	// order_ref is deterministic in orderID: the LCD gateway is expected
	// to resolve a duplicate order_ref to the existing lease rather than
	// opening a second deployment.
	if err := a.client.PostJSON(ctx, "vaultmesh/deployments", akashDeploymentReq{
		OrderRef:     params.OrderID,
		SizeBytes:    params.StorageSizeBytes,
		DurationDays: params.DurationDays,
		Owner:        params.UserWalletAddress,
	}, &resp); err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	raw, _ := json.Marshal(resp)
	return &provider.TxResult{
		Success:         true,
		TxHash:          resp.LeaseID,
		Status:          orm.TransactionStatusSubmitted,
		ToAddress:       resp.Provider,
		StorageID:       resp.DSeq,
		StorageEndpoint: fmt.Sprintf("%s/vaultmesh/deployments/%s", a.cfg.LCDBaseURL, resp.DSeq),
		StorageMetadata: string(raw),
		RawResponse:     string(raw),
	}, nil
}

func (a *Akash) CheckTransactionStatus(ctx context.Context, txHash string) (*provider.StatusResult, error) {
	var resp struct {
		State string `json:"state"`
	}
	if err := a.client.Get(ctx, fmt.Sprintf("vaultmesh/leases/%s", txHash), &resp); err != nil {
		return &provider.StatusResult{
			Status:        orm.TransactionStatusConfirming,
			StatusMessage: err.Error(),
		}, nil
	}

	switch resp.State {
	case "active":
		return &provider.StatusResult{Status: orm.TransactionStatusConfirmed, Confirmations: 1}, nil
	case "closed", "insufficient_funds":
		return &provider.StatusResult{Status: orm.TransactionStatusFailed, StatusMessage: resp.State}, nil
	default:
		return &provider.StatusResult{Status: orm.TransactionStatusConfirming, StatusMessage: resp.State}, nil
	}
}

func (a *Akash) GetTransactionExplorerURL(txHash string) string {
	return fmt.Sprintf("%s/vaultmesh/leases/%s", a.cfg.LCDBaseURL, txHash)
}

var _ provider.Adapter = (*Akash)(nil)
