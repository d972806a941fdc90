// Package types holds the wire and domain types shared by every controller:
// account identifiers, asset identifiers, transactions, and the canonical
// digest/serialization rules they're signed and stored under.
package types

import (
	"encoding/hex"
	"strconv"
)

// AccountPubKeySize is the length of an Ed25519 public key in bytes.
const AccountPubKeySize = 32

// AccountPubKey identifies an account by its raw Ed25519 public key.
// An account "exists" in the bank iff the ledger has an entry for it,
// even one holding no asset balances; the key itself carries no other state.
type AccountPubKey [AccountPubKeySize]byte

func (k AccountPubKey) String() string {
	return hex.EncodeToString(k[:])
}

// IsZero reports whether the key is the all-zero placeholder, used by
// tests and genesis wiring before a real key is assigned.
func (k AccountPubKey) IsZero() bool {
	return k == AccountPubKey{}
}

// AssetId is a monotonically increasing identifier minted by CreateAsset.
type AssetId uint64

// AssetPairKey is the canonical string key for an orderbook: "{base}_{quote}".
func AssetPairKey(base, quote AssetId) string {
	return strconv.FormatUint(uint64(base), 10) + "_" + strconv.FormatUint(uint64(quote), 10)
}
