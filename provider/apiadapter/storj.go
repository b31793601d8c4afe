package apiadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/provider"
)

// StorjConfig configures the Storj adapter.
type StorjConfig struct {
	APIBaseURL string
	GatewayURL string
	APIKey     string
}

// Storj is an API-style adapter that provisions an S3-compatible
// bucket per order and reports confirmation via a HEAD probe of the
// bucket name on the API base URL, per SPEC_FULL.md §4.1's API-style
// family description. GatewayURL is used only to format endpoints.
type Storj struct {
	cfg    StorjConfig
	client *Client
	ready  bool
}

// NewStorj returns a Storj adapter.
func NewStorj(cfg StorjConfig) *Storj {
	return &Storj{
		cfg:    cfg,
		client: NewClient(cfg.APIBaseURL, cfg.APIKey),
	}
}

func (s *Storj) Slug() string { return "storj" }

func (s *Storj) Initialize(_ context.Context) error {
	if s.cfg.APIKey == "" {
		return fmt.Errorf("storj: no api key configured")
	}
	s.ready = true
	return nil
}

func (s *Storj) IsAvailable(ctx context.Context) bool {
	ok, err := s.client.Head(ctx, "health")
	return err == nil && ok
}

type storjPlan struct {
	ID           string `json:"id"`
	SizeGB       uint64 `json:"size_gb"`
	DurationDays uint32 `json:"duration_days"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
}

func (s *Storj) GetAvailablePlans(ctx context.Context) ([]provider.PlanInfo, error) {
	var resp struct {
		Plans []storjPlan `json:"plans"`
	}
	if err := s.client.Get(ctx, "plans", &resp); err != nil {
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

type storjBucketReq struct {
	Name          string `json:"name"`
	SizeBytes     uint64 `json:"size_bytes"`
	RetentionDays uint32 `json:"retention_days"`
}

type storjBucketResp struct {
	Name string `json:"name"`
}

// bucketName is deterministic in orderID so a redelivered webhook that
// re-invokes ExecuteStorageTransaction resolves to the same bucket
// rather than creating a second one.
func bucketName(orderID string) string {
	return fmt.Sprintf("vaultmesh-%s", orderID)
}

func (s *Storj) ExecuteStorageTransaction(
	ctx context.Context,
	params provider.TxParams,
) (*provider.TxResult, error) {
	name := bucketName(params.OrderID)
	var resp storjBucketResp
	if err := s.client.PostJSON(ctx, "buckets", storjBucketReq{
		Name:          name,
		SizeBytes:     params.StorageSizeBytes,
		RetentionDays: params.DurationDays,
	}, &resp); err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	raw, _ := json.Marshal(resp)
	endpoint := fmt.Sprintf("%s/%s", s.cfg.GatewayURL, resp.Name)
	return &provider.TxResult{
		Success:         true,
		TxHash:          resp.Name,
		Status:          orm.TransactionStatusSubmitted,
		StorageID:       resp.Name,
		StorageEndpoint: endpoint,
		StorageMetadata: string(raw),
		RawResponse:     string(raw),
	}, nil
}

func (s *Storj) CheckTransactionStatus(ctx context.Context, txHash string) (*provider.StatusResult, error) {
	ok, err := s.client.Head(ctx, txHash)
	if err != nil {
		return &provider.StatusResult{
			Status:        orm.TransactionStatusConfirming,
			StatusMessage: err.Error(),
		}, nil
	}

	if !ok {
		return &provider.StatusResult{Status: orm.TransactionStatusConfirming}, nil
	}

	return &provider.StatusResult{
		Status:        orm.TransactionStatusConfirmed,
		Confirmations: 1,
	}, nil
}

func (s *Storj) GetTransactionExplorerURL(txHash string) string {
	return fmt.Sprintf("%s/%s", s.cfg.GatewayURL, txHash)
}

var _ provider.Adapter = (*Storj)(nil)
