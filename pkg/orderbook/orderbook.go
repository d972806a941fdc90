package orderbook

import (
	"github.com/vaultline/spotchain/pkg/orderqueue"
	"github.com/vaultline/spotchain/pkg/types"
)

// Orderbook is the matching engine for one (base, quote) asset pair.
type Orderbook struct {
	Base  types.AssetId
	Quote types.AssetId

	bids *orderqueue.OrderQueue
	asks *orderqueue.OrderQueue
	seq  *sequence
}

// New constructs an empty orderbook for the given pair.
func New(base, quote types.AssetId) *Orderbook {
	return &Orderbook{
		Base:  base,
		Quote: quote,
		bids:  orderqueue.New(types.Bid),
		asks:  orderqueue.New(types.Ask),
		seq:   newSequence(),
	}
}

func (b *Orderbook) queueFor(side types.Side) *orderqueue.OrderQueue {
	if side == types.Bid {
		return b.bids
	}
	return b.asks
}

func (b *Orderbook) oppositeOf(side types.Side) *orderqueue.OrderQueue {
	if side == types.Bid {
		return b.asks
	}
	return b.bids
}

func (b *Orderbook) isLive(orderID uint64) bool {
	if _, ok := b.bids.Get(orderID); ok {
		return true
	}
	_, ok := b.asks.Get(orderID)
	return ok
}

func (b *Orderbook) nextOrderID() (uint64, error) {
	return b.seq.nextID(b.isLive)
}

// match walks the opposite queue, consuming quantity against resting
// orders per the price-time priority rule (§4.2.1 of the matching
// algorithm): best price first, FIFO within a price level, trade at the
// resting order's price. Returns the fill events, the unfilled remainder,
// and whether the opposite queue was empty before any matching occurred.
func (b *Orderbook) match(side types.Side, incomingID, price, quantity uint64, isMarket bool) (OrderProcessingResult, uint64, bool) {
	opposite := b.oppositeOf(side)
	emptyAtEntry := opposite.Peek() == nil

	var events OrderProcessingResult
	remaining := quantity
	for remaining > 0 {
		resting := opposite.Peek()
		if resting == nil {
			break
		}
		if !isMarket {
			crossing := price >= resting.Price
			if side == types.Ask {
				crossing = price <= resting.Price
			}
			if !crossing {
				break
			}
		}

		switch {
		case remaining < resting.Quantity:
			events = append(events,
				Filled{OrderID: incomingID, Side: side, Price: resting.Price, Quantity: remaining},
				PartiallyFilled{OrderID: resting.OrderID, Side: resting.Side, Price: resting.Price, Quantity: remaining},
			)
			opposite.ModifyCurrentOrder(resting.Quantity - remaining)
			remaining = 0
		case remaining == resting.Quantity:
			events = append(events,
				Filled{OrderID: incomingID, Side: side, Price: resting.Price, Quantity: resting.Quantity},
				Filled{OrderID: resting.OrderID, Side: resting.Side, Price: resting.Price, Quantity: resting.Quantity},
			)
			opposite.Pop()
			remaining = 0
		default:
			events = append(events,
				PartiallyFilled{OrderID: incomingID, Side: side, Price: resting.Price, Quantity: resting.Quantity},
				Filled{OrderID: resting.OrderID, Side: resting.Side, Price: resting.Price, Quantity: resting.Quantity},
			)
			opposite.Pop()
			remaining -= resting.Quantity
		}
	}
	return events, remaining, emptyAtEntry
}

// ProcessLimit places a limit order. Any residual after matching rests.
func (b *Orderbook) ProcessLimit(side types.Side, price, quantity, tsMillis uint64) (OrderProcessingResult, error) {
	if price == 0 || quantity == 0 {
		return OrderProcessingResult{Failed{Reason: Validation, Message: "price and quantity must be greater than zero"}}, nil
	}
	orderID, err := b.nextOrderID()
	if err != nil {
		return nil, err
	}
	events := OrderProcessingResult{Accepted{OrderID: orderID, Side: side, Price: price, Quantity: quantity, Kind: OrderKindLimit, TimestampMillis: tsMillis}}

	fills, remaining, _ := b.match(side, orderID, price, quantity, false)
	events = append(events, fills...)

	if remaining > 0 {
		resting := &orderqueue.Order{OrderID: orderID, Base: b.Base, Quote: b.Quote, Side: side, Price: price, Quantity: remaining, TimestampMillis: tsMillis}
		if !b.queueFor(side).Insert(resting) {
			return nil, types.Errorf(types.InvariantViolation, "order id %d collided with a live order on insert", orderID)
		}
	}
	return events, nil
}

// ProcessMarket crosses the opposite side until filled or the book runs
// dry. Unfilled remainder is dropped — market orders never rest.
func (b *Orderbook) ProcessMarket(side types.Side, quantity, tsMillis uint64) (OrderProcessingResult, error) {
	if quantity == 0 {
		return OrderProcessingResult{Failed{Reason: Validation, Message: "quantity must be greater than zero"}}, nil
	}
	orderID, err := b.nextOrderID()
	if err != nil {
		return nil, err
	}
	events := OrderProcessingResult{Accepted{OrderID: orderID, Side: side, Quantity: quantity, Kind: OrderKindMarket, TimestampMillis: tsMillis}}

	fills, _, emptyAtEntry := b.match(side, orderID, 0, quantity, true)
	if emptyAtEntry {
		events = append(events, Failed{Reason: NoMatch, OrderID: orderID})
		return events, nil
	}
	events = append(events, fills...)
	return events, nil
}

// ProcessUpdate replaces the price/quantity of a live order without
// re-matching it, even if the new price would now be marketable.
func (b *Orderbook) ProcessUpdate(orderID uint64, side types.Side, price, quantity, tsMillis uint64) (OrderProcessingResult, error) {
	if price == 0 || quantity == 0 {
		return OrderProcessingResult{Failed{Reason: Validation, OrderID: orderID, Message: "price and quantity must be greater than zero"}}, nil
	}
	q := b.queueFor(side)
	prev, ok := q.Get(orderID)
	if !ok {
		return OrderProcessingResult{Failed{Reason: OrderNotFound, OrderID: orderID}}, nil
	}
	prevPrice, prevQty := prev.Price, prev.Quantity
	next := &orderqueue.Order{OrderID: orderID, Base: b.Base, Quote: b.Quote, Side: side, Price: price, Quantity: quantity, TimestampMillis: tsMillis}
	if !q.Update(next) {
		return nil, types.Errorf(types.InvariantViolation, "order %d vanished between lookup and update", orderID)
	}
	return OrderProcessingResult{Updated{
		OrderID: orderID, Side: side,
		PreviousPrice: prevPrice, PreviousQuantity: prevQty,
		Price: price, Quantity: quantity,
	}}, nil
}

// ProcessCancel removes a live order, reporting its live price/quantity.
func (b *Orderbook) ProcessCancel(orderID uint64, side types.Side) (OrderProcessingResult, error) {
	q := b.queueFor(side)
	o, ok := q.Get(orderID)
	if !ok {
		return OrderProcessingResult{Failed{Reason: OrderNotFound, OrderID: orderID}}, nil
	}
	price, qty := o.Price, o.Quantity
	if !q.Cancel(orderID) {
		return nil, types.Errorf(types.InvariantViolation, "order %d vanished between lookup and cancel", orderID)
	}
	return OrderProcessingResult{Cancelled{OrderID: orderID, Side: side, Price: price, Quantity: qty}}, nil
}

// Live returns the current price and quantity of a live order, for
// callers that need to gate a request (e.g. an Update's balance check)
// before mutating the book.
func (b *Orderbook) Live(side types.Side, orderID uint64) (price, quantity uint64, ok bool) {
	o, found := b.queueFor(side).Get(orderID)
	if !found {
		return 0, 0, false
	}
	return o.Price, o.Quantity, true
}

// BidLevels and AskLevels return live (price, total quantity) pairs sorted
// ascending by price, the layout SpotController snapshots as depth.
func (b *Orderbook) BidLevels() []orderqueue.PriceLevel { return b.bids.Levels() }
func (b *Orderbook) AskLevels() []orderqueue.PriceLevel { return b.asks.Levels() }
