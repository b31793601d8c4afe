// Package evm implements the JSON-RPC/EVM-style provider family
// (Filecoin's FEVM, BNB Greenfield): allocations are contract calls
// submitted through go-ethereum's client, confirmed by polling
// receipts for a confirmation-count threshold. Generalizes the
// teacher's single chain.NodeClient into a shared ethclient wrapper
// reused by every EVM-compatible backend.
package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/vaultmesh/checkout/database/orm"
)

// RequiredConfirmations is the block-depth threshold at which a
// submitted transaction is considered final. Shared by every EVM
// adapter: PollReceipt reports CONFIRMED at this depth, and mock mode
// reports it as the confirmation count.
const RequiredConfirmations = 5

// gasBufferMultiplier doubles the estimated gas limit before submission,
// matching the 2x buffer every EVM-style adapter requires.
const gasBufferMultiplier = 2

// Mode selects whether an adapter talks to a real RPC endpoint or
// fabricates deterministic responses for local/staging environments.
type Mode string

const (
	ModeLive Mode = "live"
	ModeMock Mode = "mock"
)

// Config configures a Client.
type Config struct {
	RPCEndpoint    string
	ChainID        int64
	PrivateKeyHex  string // hex-encoded ECDSA key, no 0x prefix
	ContractAddr   string
	Mode           Mode
}

// Client wraps an ethclient.Client with the signing key and contract
// address needed to submit and poll a storage-allocation transaction.
type Client struct {
	cfg     Config
	eth     *ethclient.Client
	key     *ecdsa.PrivateKey
	from    common.Address
	contract common.Address
}

// NewClient dials the configured RPC endpoint and parses the signing
// key. In ModeMock, dialing is skipped; callers must not invoke any
// method other than Mode-aware ones.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{cfg: cfg, contract: common.HexToAddress(cfg.ContractAddr)}

	if cfg.PrivateKeyHex != "" {
		key, err := crypto.HexToECDSA(cfg.PrivateKeyHex)
		if err != nil {
			return nil, fmt.Errorf("evm: parse private key: %w", err)
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	if cfg.Mode == ModeMock {
		return c, nil
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("evm: dial %s: %w", cfg.RPCEndpoint, err)
	}
	c.eth = eth

	return c, nil
}

// IsAvailable pings the RPC endpoint for the current block number.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c.cfg.Mode == ModeMock {
		return true
	}
	if c.eth == nil {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.eth.BlockNumber(probeCtx)
	return err == nil
}

// TransactOpts builds signer options for the configured key and chain,
// with the pending nonce and suggested gas price filled in. The gas
// limit is left unset; callers take it from EstimateGas.
func (c *Client) TransactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, fmt.Errorf("evm: no signing key configured")
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, big.NewInt(c.cfg.ChainID))
	if err != nil {
		return nil, fmt.Errorf("evm: build transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = value

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("evm: fetch nonce: %w", err)
	}
	opts.Nonce = big.NewInt(int64(nonce))

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("evm: suggest gas price: %w", err)
	}
	opts.GasPrice = gasPrice

	return opts, nil
}

// EstimateGas estimates gas for a call against the configured contract
// and doubles it before returning.
func (c *Client) EstimateGas(ctx context.Context, data []byte, value *big.Int) (uint64, error) {
	est, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.from,
		To:    &c.contract,
		Data:  data,
		Value: value,
	})
	if err != nil {
		return 0, fmt.Errorf("evm: estimate gas: %w", err)
	}

	return est * gasBufferMultiplier, nil
}

// SendRawTx submits a signed transaction and returns its hash.
func (c *Client) SendRawTx(ctx context.Context, tx *types.Transaction) (string, error) {
	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("evm: send transaction: %w", err)
	}
	return tx.Hash().Hex(), nil
}

// FromAddress returns the signer's address.
func (c *Client) FromAddress() string {
	return c.from.Hex()
}

// ContractAddress returns the configured contract address.
func (c *Client) ContractAddress() string {
	return c.contract.Hex()
}

// PollReceipt fetches the receipt and current chain head to compute a
// confirmation count. Returns orm.TransactionStatusConfirming while the
// receipt is absent or below RequiredConfirmations, Confirmed once the
// threshold is met, and Failed if the receipt's status is 0.
func (c *Client) PollReceipt(ctx context.Context, txHash string) (*orm.TransactionStatus, uint64, *types.Receipt, error) {
	hash := common.HexToHash(txHash)

	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		confirming := orm.TransactionStatusConfirming
		return &confirming, 0, nil, nil //nolint:nilerr // not-yet-mined is not an error condition
	}

	head, err := c.eth.BlockNumber(ctx)
	if err != nil {
		logrus.WithError(err).Warn("evm: failed to fetch chain head while polling receipt")
		confirming := orm.TransactionStatusConfirming
		return &confirming, 0, receipt, nil
	}

	if receipt.Status == types.ReceiptStatusFailed {
		failed := orm.TransactionStatusFailed
		return &failed, 0, receipt, nil
	}

	var confirmations uint64
	if head >= receipt.BlockNumber.Uint64() {
		confirmations = head - receipt.BlockNumber.Uint64() + 1
	}

	status := orm.TransactionStatusConfirming
	if confirmations >= RequiredConfirmations {
		status = orm.TransactionStatusConfirmed
	}

	return &status, confirmations, receipt, nil
}
