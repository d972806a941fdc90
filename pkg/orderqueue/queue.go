// Package orderqueue implements the price-time priority queue that backs
// one side of one orderbook.
package orderqueue

import (
	"container/heap"

	"github.com/vaultline/spotchain/pkg/types"
)

// Order is a single resting or in-flight limit order.
type Order struct {
	OrderID         uint64
	Base            types.AssetId
	Quote           types.AssetId
	Side            types.Side
	Price           uint64
	Quantity        uint64
	TimestampMillis uint64
}

type priceHeap interface {
	heap.Interface
	Peek() uint64
	Empty() bool
	removePrice(p uint64)
}

// OrderQueue holds the live orders of one book side, price-indexed by a
// heap and FIFO-ordered within each price level.
type OrderQueue struct {
	side   types.Side
	prices priceHeap
	levels map[uint64][]*Order
	byID   map[uint64]uint64 // orderID -> price
}

// New constructs an OrderQueue for the given side. Bids prioritize the
// highest price; asks the lowest; both break ties FIFO by insertion order.
func New(side types.Side) *OrderQueue {
	var h priceHeap
	if side == types.Bid {
		h = &maxPriceHeapIdx{index: map[uint64]int{}}
	} else {
		h = &minPriceHeapIdx{index: map[uint64]int{}}
	}
	heap.Init(h)
	return &OrderQueue{
		side:   side,
		prices: h,
		levels: map[uint64][]*Order{},
		byID:   map[uint64]uint64{},
	}
}

// Len reports the number of live orders in the queue.
func (q *OrderQueue) Len() int {
	return len(q.byID)
}

// Insert places o into the queue. Returns false if its order id is
// already live in this queue.
func (q *OrderQueue) Insert(o *Order) bool {
	if _, exists := q.byID[o.OrderID]; exists {
		return false
	}
	if _, hasLevel := q.levels[o.Price]; !hasLevel {
		heap.Push(q.prices, o.Price)
	}
	q.levels[o.Price] = append(q.levels[o.Price], o)
	q.byID[o.OrderID] = o.Price
	return true
}

// Peek returns the best order by (price, FIFO), or nil if the queue is empty.
func (q *OrderQueue) Peek() *Order {
	if q.prices.Empty() {
		return nil
	}
	level := q.levels[q.prices.Peek()]
	if len(level) == 0 {
		return nil
	}
	return level[0]
}

// Pop removes and returns the best order, or nil if the queue is empty.
func (q *OrderQueue) Pop() *Order {
	o := q.Peek()
	if o == nil {
		return nil
	}
	level := q.levels[o.Price][1:]
	if len(level) == 0 {
		delete(q.levels, o.Price)
		heap.Pop(q.prices)
	} else {
		q.levels[o.Price] = level
	}
	delete(q.byID, o.OrderID)
	return o
}

// Get looks up a live order by id.
func (q *OrderQueue) Get(orderID uint64) (*Order, bool) {
	price, ok := q.byID[orderID]
	if !ok {
		return nil, false
	}
	for _, o := range q.levels[price] {
		if o.OrderID == orderID {
			return o, true
		}
	}
	return nil, false
}

// Cancel removes a live order by id. Returns false if it was not live.
func (q *OrderQueue) Cancel(orderID uint64) bool {
	price, ok := q.byID[orderID]
	if !ok {
		return false
	}
	level := q.levels[price]
	for i, o := range level {
		if o.OrderID == orderID {
			level = append(level[:i:i], level[i+1:]...)
			break
		}
	}
	if len(level) == 0 {
		delete(q.levels, price)
		q.prices.removePrice(price)
	} else {
		q.levels[price] = level
	}
	delete(q.byID, orderID)
	return true
}

// Update removes the live order matching o.OrderID and re-inserts o at its
// new price/timestamp, preserving the id. Returns false if no order with
// that id was live.
func (q *OrderQueue) Update(o *Order) bool {
	if !q.Cancel(o.OrderID) {
		return false
	}
	return q.Insert(o)
}

// ModifyCurrentOrder mutates the head order's quantity in place, without
// re-sorting. Legal only when the price does not change, since in-place
// mutation never moves an order between price levels.
func (q *OrderQueue) ModifyCurrentOrder(quantity uint64) {
	if o := q.Peek(); o != nil {
		o.Quantity = quantity
	}
}

// Levels returns, sorted by price ascending, the (price, total live quantity) pairs
// across this side. Used for orderbook depth snapshots.
func (q *OrderQueue) Levels() []PriceLevel {
	prices := make([]uint64, 0, len(q.levels))
	for p := range q.levels {
		prices = append(prices, p)
	}
	sortPrices(prices)
	out := make([]PriceLevel, 0, len(prices))
	for _, p := range prices {
		var total uint64
		for _, o := range q.levels[p] {
			total += o.Quantity
		}
		out = append(out, PriceLevel{Price: p, Quantity: total})
	}
	return out
}

// PriceLevel is an aggregated (price, quantity) pair for depth reporting.
type PriceLevel struct {
	Price    uint64
	Quantity uint64
}

func sortPrices(prices []uint64) {
	for i := 1; i < len(prices); i++ {
		for j := i; j > 0 && prices[j] < prices[j-1]; j-- {
			prices[j], prices[j-1] = prices[j-1], prices[j]
		}
	}
}
