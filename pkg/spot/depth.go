package spot

import "github.com/vaultline/spotchain/pkg/orderqueue"

// OrderbookDepth is the aggregated snapshot of one pair's live orders,
// both sides sorted by price ascending, written to the kv-store every
// params.OrderbookDepthFrequency blocks.
type OrderbookDepth struct {
	Bids []orderqueue.PriceLevel
	Asks []orderqueue.PriceLevel
}

// Depths snapshots every registered pair's current depth under its
// AssetPairKey. The caller is responsible for persisting the result and
// for doing so without holding any controller lock across the write —
// this method itself only holds the lock for the duration of the copy.
func (c *Controller) Depths() map[string]OrderbookDepth {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]OrderbookDepth, len(c.orderbooks))
	for key, sob := range c.orderbooks {
		out[key] = OrderbookDepth{
			Bids: sob.book.BidLevels(),
			Asks: sob.book.AskLevels(),
		}
	}
	return out
}
