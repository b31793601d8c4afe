package evm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
)

// mockNonce is cycled deterministically the way the teacher's account
// service cycles a fixed key set (see api/service/key.go's nextSk):
// no randomness, just an atomically incrementing counter folded into
// the hash input so repeated calls within a process never collide.
var mockNonce uint64

// mockTxHash fabricates a deterministic, unique-looking 32-byte hash
// for local/staging runs where Mode is ModeMock and no real RPC
// endpoint is reachable. sha256 replaces go-photon's BLS signing,
// which is not an available dependency outside the photon chain.
func mockTxHash(orderID, planID string) string {
	n := atomic.AddUint64(&mockNonce, 1)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", orderID, planID, n)))
	return "0x" + hex.EncodeToString(sum[:])
}
