package params

import "github.com/vaultline/spotchain/pkg/types"

// SpotControllerAccount is the fixed escrow account every orderbook settles
// through. It is created once at bootstrap, like any other bank account.
var SpotControllerAccount = types.AccountPubKey{
	'S', 'P', 'O', 'T', '_', 'C', 'O', 'N', 'T', 'R', 'O', 'L', 'L', 'E', 'R',
}

// CreatedAssetBalance is minted to the creator of a new asset.
const CreatedAssetBalance uint64 = 1_000_000_000

// OrderbookDepthFrequency is how often (in blocks) each orderbook snapshots
// its depth to the kv-store.
const OrderbookDepthFrequency uint64 = 100

// GCDepth bounds how many recent consensus indices the validator store
// keeps in its dedup caches before pruning.
const GCDepth uint64 = 50
