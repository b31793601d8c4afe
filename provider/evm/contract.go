package evm

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vaultmesh/checkout/provider"
)

// commonAddressOrZero parses addr, falling back to the zero address
// when the order was placed without a wallet on file.
func commonAddressOrZero(addr string) common.Address {
	if addr == "" {
		return common.Address{}
	}
	return common.HexToAddress(addr)
}

// storageDealABI describes the single method every EVM adapter's
// market contract exposes: allocate(bytes32 orderRef, uint256
// sizeBytes, uint256 durationDays, address recipient). Both Filecoin's
// FEVM deal-market contract and Greenfield's object-storage precompile
// wrapper are deployed with this signature in vaultmesh's fixtures.
const storageDealABI = `[{
	"name": "allocate",
	"type": "function",
	"inputs": [
		{"name": "orderRef", "type": "bytes32"},
		{"name": "sizeBytes", "type": "uint256"},
		{"name": "durationDays", "type": "uint256"},
		{"name": "recipient", "type": "address"}
	],
	"outputs": []
}]`

func dealABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(storageDealABI))
}

// orderRefBytes32 copies an order ID into the start of a bytes32 slot,
// zero-filling the rest and truncating IDs longer than 32 bytes.
func orderRefBytes32(orderID string) [32]byte {
	var out [32]byte
	copy(out[:], orderID)
	return out
}

// encodeStorageDealCall ABI-encodes a call to allocate() for params.
func encodeStorageDealCall(params provider.TxParams) ([]byte, error) {
	a, err := dealABI()
	if err != nil {
		return nil, err
	}

	recipient := commonAddressOrZero(params.UserWalletAddress)

	return a.Pack(
		"allocate",
		orderRefBytes32(params.OrderID),
		new(big.Int).SetUint64(params.StorageSizeBytes),
		new(big.Int).SetUint64(uint64(params.DurationDays)),
		recipient,
	)
}

// buildAndSignTx wraps data in a signed legacy (gas-price) transaction
// against the client's configured contract.
func buildAndSignTx(c *Client, opts *bind.TransactOpts, data []byte) (*types.Transaction, error) {
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    opts.Nonce.Uint64(),
		To:       &c.contract,
		Value:    big.NewInt(0),
		Gas:      opts.GasLimit,
		GasPrice: opts.GasPrice,
		Data:     data,
	})

	return opts.Signer(c.from, tx)
}
