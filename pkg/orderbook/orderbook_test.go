package orderbook

import (
	"testing"

	"github.com/vaultline/spotchain/pkg/types"
)

func lastEvent(r OrderProcessingResult) Event {
	if len(r) == 0 {
		return nil
	}
	return r[len(r)-1]
}

func TestLimitRestsWhenNoCross(t *testing.T) {
	book := New(1, 2)
	result, err := book.ProcessLimit(types.Bid, 100, 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected only an Accepted event, got %d events", len(result))
	}
	if _, ok := result[0].(Accepted); !ok {
		t.Fatalf("expected Accepted, got %T", result[0])
	}
	if book.BidLevels()[0].Price != 100 || book.BidLevels()[0].Quantity != 10 {
		t.Fatalf("expected resting bid level (100,10), got %+v", book.BidLevels())
	}
}

func TestLimitExactFill(t *testing.T) {
	book := New(1, 2)
	if _, err := book.ProcessLimit(types.Ask, 100, 10, 1); err != nil {
		t.Fatalf("ask: %v", err)
	}
	result, err := book.ProcessLimit(types.Bid, 100, 10, 2)
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected Accepted+2 Filled, got %d: %+v", len(result), result)
	}
	f1, ok := result[1].(Filled)
	if !ok || f1.OrderID == 0 {
		t.Fatalf("expected second event Filled for taker, got %+v", result[1])
	}
	f2, ok := result[2].(Filled)
	if !ok || f2.Quantity != 10 {
		t.Fatalf("expected third event Filled qty 10 for maker, got %+v", result[2])
	}
	if len(book.AskLevels()) != 0 {
		t.Fatalf("expected ask side drained, got %+v", book.AskLevels())
	}
}

func TestLimitPartialFillOfIncoming(t *testing.T) {
	book := New(1, 2)
	book.ProcessLimit(types.Ask, 100, 10, 1)
	result, err := book.ProcessLimit(types.Bid, 100, 4, 2)
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(result), result)
	}
	if _, ok := result[1].(Filled); !ok {
		t.Fatalf("expected taker Filled event, got %T", result[1])
	}
	pf, ok := result[2].(PartiallyFilled)
	if !ok || pf.Quantity != 4 {
		t.Fatalf("expected maker PartiallyFilled qty 4, got %+v", result[2])
	}
	if book.AskLevels()[0].Quantity != 6 {
		t.Fatalf("expected resting ask reduced to 6, got %+v", book.AskLevels())
	}
}

func TestLimitPartialFillOfResting(t *testing.T) {
	book := New(1, 2)
	book.ProcessLimit(types.Ask, 100, 4, 1)
	result, err := book.ProcessLimit(types.Bid, 100, 10, 2)
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	pf, ok := result[1].(PartiallyFilled)
	if !ok || pf.Quantity != 4 {
		t.Fatalf("expected taker PartiallyFilled qty 4, got %+v", result[1])
	}
	if _, ok := result[2].(Filled); !ok {
		t.Fatalf("expected maker Filled, got %T", result[2])
	}
	if book.BidLevels()[0].Quantity != 6 {
		t.Fatalf("expected residual bid resting with qty 6, got %+v", book.BidLevels())
	}
}

func TestTradePriceIsRestingOrderPrice(t *testing.T) {
	book := New(1, 2)
	book.ProcessLimit(types.Ask, 90, 10, 1)
	result, err := book.ProcessLimit(types.Bid, 100, 10, 2)
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	f := result[1].(Filled)
	if f.Price != 90 {
		t.Fatalf("expected trade price 90 (resting order's price), got %d", f.Price)
	}
}

func TestMarketNoMatchOnEmptyBook(t *testing.T) {
	book := New(1, 2)
	result, err := book.ProcessMarket(types.Bid, 5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, ok := lastEvent(result).(Failed)
	if !ok || f.Reason != NoMatch {
		t.Fatalf("expected Failed(NoMatch), got %+v", lastEvent(result))
	}
}

func TestMarketDoesNotRest(t *testing.T) {
	book := New(1, 2)
	book.ProcessLimit(types.Ask, 100, 4, 1)
	_, err := book.ProcessMarket(types.Bid, 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(book.BidLevels()) != 0 {
		t.Fatalf("expected no resting bid after market order, got %+v", book.BidLevels())
	}
	if len(book.AskLevels()) != 0 {
		t.Fatalf("expected ask side consumed, got %+v", book.AskLevels())
	}
}

func TestCancelLiveOrder(t *testing.T) {
	book := New(1, 2)
	book.ProcessLimit(types.Bid, 100, 10, 1)
	orderID := uint64(1)
	result, err := book.ProcessCancel(orderID, types.Bid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, ok := result[0].(Cancelled)
	if !ok || c.Price != 100 || c.Quantity != 10 {
		t.Fatalf("expected Cancelled(100,10), got %+v", result[0])
	}
	if len(book.BidLevels()) != 0 {
		t.Fatalf("expected book empty after cancel")
	}
}

func TestCancelUnknownOrderFails(t *testing.T) {
	book := New(1, 2)
	result, err := book.ProcessCancel(999, types.Bid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, ok := result[0].(Failed)
	if !ok || f.Reason != OrderNotFound {
		t.Fatalf("expected Failed(OrderNotFound), got %+v", result[0])
	}
}

func TestUpdateDoesNotImmediatelyRematch(t *testing.T) {
	book := New(1, 2)
	book.ProcessLimit(types.Bid, 90, 10, 1)
	book.ProcessLimit(types.Ask, 100, 10, 2)
	result, err := book.ProcessUpdate(1, types.Bid, 150, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := result[0].(Updated)
	if !ok || u.Price != 150 {
		t.Fatalf("expected Updated to price 150, got %+v", result[0])
	}
	if len(book.AskLevels()) != 1 {
		t.Fatalf("expected resting ask untouched by update (no immediate re-match), got %+v", book.AskLevels())
	}
}

func TestUpdateUnknownOrderFails(t *testing.T) {
	book := New(1, 2)
	result, err := book.ProcessUpdate(42, types.Bid, 100, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result[0].(Failed); !ok {
		t.Fatalf("expected Failed(OrderNotFound), got %+v", result[0])
	}
}

func TestSequenceAssignsDistinctIDs(t *testing.T) {
	book := New(1, 2)
	r1, _ := book.ProcessLimit(types.Bid, 100, 1, 1)
	r2, _ := book.ProcessLimit(types.Bid, 99, 1, 2)
	a1 := r1[0].(Accepted)
	a2 := r2[0].(Accepted)
	if a1.OrderID == a2.OrderID {
		t.Fatalf("expected distinct order ids, got both %d", a1.OrderID)
	}
}
