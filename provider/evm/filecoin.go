package evm

import (
	"context"
	"fmt"
	"os"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/provider"
)

// Filecoin is an EVM-style adapter that submits storage deals through
// an FEVM-deployed market contract. Kept a distinct slug from the
// API-style lighthouse adapter per SPEC_FULL.md §9's Open Question
// resolution: they represent genuinely different settlement paths
// even though both ultimately land data on Filecoin.
type Filecoin struct {
	cfg      Config
	client   *Client
	explorer string
}

// NewFilecoin returns a Filecoin adapter. explorerBaseURL formats the
// human-facing transaction link.
func NewFilecoin(cfg Config, explorerBaseURL string) *Filecoin {
	return &Filecoin{cfg: cfg, explorer: explorerBaseURL}
}

func (f *Filecoin) Slug() string { return "filecoin" }

func (f *Filecoin) Initialize(ctx context.Context) error {
	if f.cfg.Mode == ModeMock && os.Getenv("NODE_ENV") == "production" {
		return fmt.Errorf("filecoin: mock mode refused in production")
	}

	client, err := NewClient(ctx, f.cfg)
	if err != nil {
		return err
	}
	f.client = client

	return nil
}

func (f *Filecoin) IsAvailable(ctx context.Context) bool {
	return f.client != nil && f.client.IsAvailable(ctx)
}

func (f *Filecoin) GetAvailablePlans(_ context.Context) ([]provider.PlanInfo, error) {
	// Filecoin deal terms are negotiated on-chain per deployment rather
	// than published through a catalog endpoint; plan rows for this
	// provider are seeded/updated by operators, not synced.
	return nil, nil
}

func (f *Filecoin) ExecuteStorageTransaction(
	ctx context.Context,
	params provider.TxParams,
) (*provider.TxResult, error) {
	if f.cfg.Mode == ModeMock {
		hash := mockTxHash(params.OrderID, params.PlanID)
		return &provider.TxResult{
			Success:     true,
			TxHash:      hash,
			Status:      orm.TransactionStatusSubmitted,
			FromAddress: f.client.FromAddress(),
			ToAddress:   f.client.ContractAddress(),
		}, nil
	}

	data, err := encodeStorageDealCall(params)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	gas, err := f.client.EstimateGas(ctx, data, nil)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	opts, err := f.client.TransactOpts(ctx, nil)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}
	opts.GasLimit = gas

	tx, err := buildAndSignTx(f.client, opts, data)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	hash, err := f.client.SendRawTx(ctx, tx)
	if err != nil {
		return &provider.TxResult{Success: false, Error: err.Error()}, nil
	}

	return &provider.TxResult{
		Success:     true,
		TxHash:      hash,
		Status:      orm.TransactionStatusSubmitted,
		FromAddress: f.client.FromAddress(),
		ToAddress:   f.client.ContractAddress(),
		GasUsed:     gas,
	}, nil
}

func (f *Filecoin) CheckTransactionStatus(ctx context.Context, txHash string) (*provider.StatusResult, error) {
	if f.cfg.Mode == ModeMock {
		return &provider.StatusResult{
			Status:        orm.TransactionStatusConfirmed,
			Confirmations: RequiredConfirmations,
		}, nil
	}

	status, confirmations, receipt, err := f.client.PollReceipt(ctx, txHash)
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

func (f *Filecoin) GetTransactionExplorerURL(txHash string) string {
	return fmt.Sprintf("%s/message/%s", f.explorer, txHash)
}

var _ provider.Adapter = (*Filecoin)(nil)
