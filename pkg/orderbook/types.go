// Package orderbook implements the matching engine for a single asset
// pair: two order queues, an order-id sequence, and the crossing algorithm
// that turns a request into an ordered sequence of events.
package orderbook

import "github.com/vaultline/spotchain/pkg/types"

// OrderKind distinguishes a Market request from a Limit request in an
// Accepted event.
type OrderKind uint8

const (
	OrderKindLimit OrderKind = iota
	OrderKindMarket
)

// FailureReason tags a Failed event.
type FailureReason uint8

const (
	Validation FailureReason = iota
	NoMatch
	OrderNotFound
	DuplicateOrderID
)

// Event is one element of an OrderProcessingResult. Concrete types are
// Accepted, PartiallyFilled, Filled, Updated, Cancelled, and Failed.
type Event interface {
	EventKind() string
}

// Accepted records that a new order entered the book.
type Accepted struct {
	OrderID         uint64
	Side            types.Side
	Price           uint64
	Quantity        uint64
	Kind            OrderKind
	TimestampMillis uint64
}

func (Accepted) EventKind() string { return "Accepted" }

// PartiallyFilled records a partial match against order OrderID.
type PartiallyFilled struct {
	OrderID  uint64
	Side     types.Side
	Price    uint64
	Quantity uint64
}

func (PartiallyFilled) EventKind() string { return "PartiallyFilled" }

// Filled records a complete match against order OrderID.
type Filled struct {
	OrderID  uint64
	Side     types.Side
	Price    uint64
	Quantity uint64
}

func (Filled) EventKind() string { return "Filled" }

// Updated records an in-place price/quantity replacement.
type Updated struct {
	OrderID          uint64
	Side             types.Side
	PreviousPrice    uint64
	PreviousQuantity uint64
	Price            uint64
	Quantity         uint64
}

func (Updated) EventKind() string { return "Updated" }

// Cancelled records removal of a live order, carrying its live values.
type Cancelled struct {
	OrderID  uint64
	Side     types.Side
	Price    uint64
	Quantity uint64
}

func (Cancelled) EventKind() string { return "Cancelled" }

// Failed records a request that could not be applied.
type Failed struct {
	Reason  FailureReason
	OrderID uint64
	Message string
}

func (Failed) EventKind() string { return "Failed" }

// OrderProcessingResult is the total, ordered description of every state
// change a single request caused.
type OrderProcessingResult []Event
