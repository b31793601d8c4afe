package apiadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/provider"
)

// LighthouseConfig configures the Lighthouse adapter.
type LighthouseConfig struct {
	APIBaseURL string
	GatewayURL string
	APIKey     string
}

// Lighthouse is an API-style adapter whose "allocation" is a deal
// reservation returning an IPFS content identifier, used as the
// pseudo-txHash. Kept a distinct slug from the EVM filecoin adapter
// per SPEC_FULL.md §9's Open Question resolution.
type Lighthouse struct {
	cfg    LighthouseConfig
	client *Client
}

// NewLighthouse returns a Lighthouse adapter.
func NewLighthouse(cfg LighthouseConfig) *Lighthouse {
	return &Lighthouse{
		cfg:    cfg,
		client: NewClient(cfg.APIBaseURL, cfg.APIKey),
	}
}

func (l *Lighthouse) Slug() string { return "lighthouse" }

func (l *Lighthouse) Initialize(_ context.Context) error {
	if l.cfg.APIKey == "" {
		return fmt.Errorf("lighthouse: no api key configured")
	}
	return nil
}

func (l *Lighthouse) IsAvailable(ctx context.Context) bool {
	ok, err := l.client.Head(ctx, "status")
	return err == nil && ok
}

type lighthousePlan struct {
	ID           string `json:"id"`
	SizeGB       uint64 `json:"size_gb"`
	DurationDays uint32 `json:"duration_days"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
}

func (l *Lighthouse) GetAvailablePlans(ctx context.Context) ([]provider.PlanInfo, error) {
	var resp struct {
		Plans []lighthousePlan `json:"plans"`
	}
	if err := l.client.Get(ctx, "plans", &resp); err != nil {
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
			Currency:       p.Currency,
		})
	}

	return out, nil
}

type dealReq struct {
	ClientRef    string `json:"client_ref"`
	SizeBytes    uint64 `json:"size_bytes"`
	DurationDays uint32 `json:"duration_days"`
}

type dealResp struct {
	Cid    string `json:"cid"`
	DealID string `json:"deal_id"`
}

func (l *Lighthouse) ExecuteStorageTransaction(
	ctx context.Context,
	params provider.TxParams,
) (*provider.TxResult, error) {
	var resp dealResp
	// client_ref is deterministic in orderID: a redelivered webhook
	// that resubmits resolves to the same deal server-side.
	if err := l.client.PostJSON(ctx, "deals", dealReq{
		ClientRef:    params.OrderID,
		SizeBytes:    params.StorageSizeBytes,
		DurationDays: params.DurationDays,
	}, &resp); err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	raw, _ := json.Marshal(resp)
	return &provider.TxResult{
		Success:         true,
		TxHash:          resp.Cid,
		Status:          orm.TransactionStatusSubmitted,
		StorageID:       resp.DealID,
		StorageEndpoint: fmt.Sprintf("%s/ipfs/%s", l.cfg.GatewayURL, resp.Cid),
		StorageMetadata: string(raw),
		RawResponse:     string(raw),
	}, nil
}

func (l *Lighthouse) CheckTransactionStatus(ctx context.Context, txHash string) (*provider.StatusResult, error) {
	ok, err := l.client.Head(ctx, fmt.Sprintf("ipfs/%s", txHash))
	if err != nil {
		return &provider.StatusResult{
			Status:        orm.TransactionStatusConfirming,
			StatusMessage: err.Error(),
		}, nil
	}

	if !ok {
		return &provider.StatusResult{Status: orm.TransactionStatusConfirming}, nil
	}

	return &provider.StatusResult{Status: orm.TransactionStatusConfirmed, Confirmations: 1}, nil
}

func (l *Lighthouse) GetTransactionExplorerURL(txHash string) string {
	return fmt.Sprintf("%s/ipfs/%s", l.cfg.GatewayURL, txHash)
}

var _ provider.Adapter = (*Lighthouse)(nil)
