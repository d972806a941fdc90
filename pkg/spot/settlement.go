package spot

import (
	"github.com/vaultline/spotchain/pkg/orderbook"
	"github.com/vaultline/spotchain/pkg/orderqueue"
	"github.com/vaultline/spotchain/pkg/types"
)

// worstCaseQuoteCost sums the notional cost of filling quantity against
// ask levels in ascending price order, capping the filled amount at
// quantity. This is the most a market bid for quantity could possibly
// owe against the book as it stands at submission time.
func worstCaseQuoteCost(askLevels []orderqueue.PriceLevel, quantity uint64) uint64 {
	var cost uint64
	remaining := quantity
	for _, lvl := range askLevels {
		if remaining == 0 {
			break
		}
		take := lvl.Quantity
		if take > remaining {
			take = remaining
		}
		cost += take * lvl.Price
		remaining -= take
	}
	return cost
}

// acceptedOrderID returns the order id of the Accepted event in events,
// or 0 if there is none.
func acceptedOrderID(events orderbook.OrderProcessingResult) uint64 {
	for _, ev := range events {
		if a, ok := ev.(orderbook.Accepted); ok {
			return a.OrderID
		}
	}
	return 0
}

// sumQuantityForSide totals the filled quantity attributed to orderID
// across events tagged with side, used to compute the realized base
// quantity a market ask actually sold.
func sumQuantityForSide(events orderbook.OrderProcessingResult, orderID uint64, side types.Side) uint64 {
	var total uint64
	for _, ev := range events {
		switch e := ev.(type) {
		case orderbook.Filled:
			if e.OrderID == orderID && e.Side == side {
				total += e.Quantity
			}
		case orderbook.PartiallyFilled:
			if e.OrderID == orderID && e.Side == side {
				total += e.Quantity
			}
		}
	}
	return total
}

// sumNotionalForSide totals quantity*price attributed to orderID across
// events tagged with side, used to compute the realized quote cost a
// market bid actually paid.
func sumNotionalForSide(events orderbook.OrderProcessingResult, orderID uint64, side types.Side) uint64 {
	var total uint64
	for _, ev := range events {
		switch e := ev.(type) {
		case orderbook.Filled:
			if e.OrderID == orderID && e.Side == side {
				total += e.Quantity * e.Price
			}
		case orderbook.PartiallyFilled:
			if e.OrderID == orderID && e.Side == side {
				total += e.Quantity * e.Price
			}
		}
	}
	return total
}
