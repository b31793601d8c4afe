package evm

import (
	"context"
	"fmt"
	"os"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/provider"
)

// Greenfield is an EVM-style adapter that submits object-storage
// allocations through BNB Greenfield's EVM-compatible precompile
// wrapper, reusing the same allocate() ABI as Filecoin's deal-market
// contract.
type Greenfield struct {
	cfg      Config
	client   *Client
	explorer string
}

// NewGreenfield returns a Greenfield adapter.
func NewGreenfield(cfg Config, explorerBaseURL string) *Greenfield {
	return &Greenfield{cfg: cfg, explorer: explorerBaseURL}
}

func (g *Greenfield) Slug() string { return "greenfield" }

func (g *Greenfield) Initialize(ctx context.Context) error {
	if g.cfg.Mode == ModeMock && os.Getenv("NODE_ENV") == "production" {
		return fmt.Errorf("greenfield: mock mode refused in production")
	}

	client, err := NewClient(ctx, g.cfg)
	if err != nil {
		return err
	}
	g.client = client

	return nil
}

func (g *Greenfield) IsAvailable(ctx context.Context) bool {
	return g.client != nil && g.client.IsAvailable(ctx)
}

func (g *Greenfield) GetAvailablePlans(_ context.Context) ([]provider.PlanInfo, error) {
	// Same rationale as Filecoin: bucket quotas are negotiated per
	// deployment rather than published through a catalog endpoint.
	return nil, nil
}

func (g *Greenfield) ExecuteStorageTransaction(
	ctx context.Context,
	params provider.TxParams,
) (*provider.TxResult, error) {
	if g.cfg.Mode == ModeMock {
		hash := mockTxHash(params.OrderID, params.PlanID)
		return &provider.TxResult{
			Success:     true,
			TxHash:      hash,
			Status:      orm.TransactionStatusSubmitted,
			FromAddress: g.client.FromAddress(),
			ToAddress:   g.client.ContractAddress(),
		}, nil
	}

	data, err := encodeStorageDealCall(params)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	gas, err := g.client.EstimateGas(ctx, data, nil)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	opts, err := g.client.TransactOpts(ctx, nil)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}
	opts.GasLimit = gas

	tx, err := buildAndSignTx(g.client, opts, data)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	hash, err := g.client.SendRawTx(ctx, tx)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	return &provider.TxResult{
		Success:     true,
		TxHash:      hash,
		Status:      orm.TransactionStatusSubmitted,
		FromAddress: g.client.FromAddress(),
		ToAddress:   g.client.ContractAddress(),
		GasUsed:     gas,
	}, nil
}

func (g *Greenfield) CheckTransactionStatus(ctx context.Context, txHash string) (*provider.StatusResult, error) {
	if g.cfg.Mode == ModeMock {
		return &provider.StatusResult{
			Status:        orm.TransactionStatusConfirmed,
			Confirmations: RequiredConfirmations,
		}, nil
	}

	status, confirmations, receipt, err := g.client.PollReceipt(ctx, txHash)
	if err != nil {
		return &provider.StatusResult{Err: err}, nil
	}

	res := &provider.StatusResult{Status: *status, Confirmations: confirmations}
	if receipt != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
		res.BlockHash = receipt.BlockHash.Hex()
		res.GasUsed = receipt.GasUsed
	}

	return res, nil
}

func (g *Greenfield) GetTransactionExplorerURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", g.explorer, txHash)
}

var _ provider.Adapter = (*Greenfield)(nil)
