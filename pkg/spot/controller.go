// Package spot implements the escrow-backed orderbook controller: a
// registry of per-pair matching engines whose events are translated into
// bank transfers against a single controller-owned escrow account.
package spot

import (
	"sync"

	"github.com/vaultline/spotchain/pkg/bank"
	"github.com/vaultline/spotchain/pkg/orderbook"
	"github.com/vaultline/spotchain/pkg/orderqueue"
	"github.com/vaultline/spotchain/pkg/types"
)

// spotOrderbook pairs a matching engine with the per-user accounts that
// have ever touched it, lazily created on first contact.
type spotOrderbook struct {
	book      *orderbook.Orderbook
	ownerOf   map[uint64]types.AccountPubKey // order id -> owner, until Filled/Cancelled
	touched   map[types.AccountPubKey]bool
}

// Controller is the SpotController of spec.md §4.4: a registry of
// orderbooks sharing one escrow account and one bank handle.
type Controller struct {
	mu         sync.Mutex
	bank       *bank.Controller
	escrow     types.AccountPubKey
	orderbooks map[string]*spotOrderbook
}

// New constructs a SpotController bound to bank and escrowed through
// escrowAccount. InitializeControllerAccount must be called once before
// any orderbook activity.
func New(bankController *bank.Controller, escrowAccount types.AccountPubKey) *Controller {
	return &Controller{
		bank:       bankController,
		escrow:     escrowAccount,
		orderbooks: make(map[string]*spotOrderbook),
	}
}

// InitializeControllerAccount creates the escrow account in the bank. It
// is idempotent: an AccountCreation error from an already-existing escrow
// account is swallowed, since bootstrap may run this more than once.
func (c *Controller) InitializeControllerAccount() error {
	err := c.bank.CreateAccount(c.escrow)
	if err != nil && types.KindOf(err) != types.AccountCreation {
		return err
	}
	return nil
}

// CreateOrderbook registers a new (base, quote) pair. Fails with
// OrderBookCreation if the pair already exists.
func (c *Controller) CreateOrderbook(base, quote types.AssetId) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := types.AssetPairKey(base, quote)
	if _, exists := c.orderbooks[key]; exists {
		return types.Errorf(types.OrderBookCreation, "orderbook %s already exists", key)
	}
	c.orderbooks[key] = &spotOrderbook{
		book:    orderbook.New(base, quote),
		ownerOf: make(map[uint64]types.AccountPubKey),
		touched: make(map[types.AccountPubKey]bool),
	}
	return nil
}

func (c *Controller) lookupLocked(base, quote types.AssetId) (*spotOrderbook, error) {
	key := types.AssetPairKey(base, quote)
	sob, exists := c.orderbooks[key]
	if !exists {
		return nil, types.Errorf(types.OrderRequestError, "no orderbook for pair %s", key)
	}
	return sob, nil
}

// touch lazily creates the user's bank account the first time they
// interact with a given book, per §4.4's account-creation side effect.
func (c *Controller) touch(sob *spotOrderbook, user types.AccountPubKey) {
	if sob.touched[user] {
		return
	}
	sob.touched[user] = true
	if !c.bank.Exists(user) {
		c.bank.CreateAccount(user)
	}
}

// checkExceedsBalance applies the monotonic pre-trade gate of §4.4: a
// request is only rejected when its new exposure exceeds whatever was
// already committed for the order being replaced (zero for a fresh
// order). Placing an order of equal or smaller size than what it
// replaces never fails this gate, even if the user's balance alone
// would not cover the full new size from scratch.
func (c *Controller) checkExceedsBalance(user types.AccountPubKey, base, quote types.AssetId, side types.Side, prevPrice, prevQty, newPrice, newQty uint64) error {
	if side == types.Ask {
		var required uint64
		if newQty > prevQty {
			required = newQty - prevQty
		}
		if required == 0 {
			return nil
		}
		bal, err := c.bank.GetBalance(user, base)
		if err != nil {
			return err
		}
		if bal < required {
			return types.Errorf(types.OrderExceedsBalance, "user %s has %d of asset %d, needs %d more", user, bal, base, required)
		}
		return nil
	}

	prevNotional := prevQty * prevPrice
	newNotional := newQty * newPrice
	var required uint64
	if newNotional > prevNotional {
		required = newNotional - prevNotional
	}
	if required == 0 {
		return nil
	}
	bal, err := c.bank.GetBalance(user, quote)
	if err != nil {
		return err
	}
	if bal < required {
		return types.Errorf(types.OrderExceedsBalance, "user %s has %d of asset %d, needs %d more", user, bal, quote, required)
	}
	return nil
}

// settle walks an OrderProcessingResult and applies every bank transfer
// the settlement table of §4.4 prescribes. It is symmetric in event.Side:
// a trade always produces one event tagged with the incoming side and one
// with the resting side, so dispatching purely on that tag settles both
// legs without distinguishing taker from maker.
func (c *Controller) settle(sob *spotOrderbook, base, quote types.AssetId, ownerOf func(orderID uint64) (types.AccountPubKey, bool)) func(orderbook.Event) error {
	return func(ev orderbook.Event) error {
		switch e := ev.(type) {
		case orderbook.Accepted:
			if e.Kind == orderbook.OrderKindMarket {
				return nil
			}
			owner, ok := ownerOf(e.OrderID)
			if !ok {
				return types.Errorf(types.InvariantViolation, "no owner recorded for accepted order %d", e.OrderID)
			}
			if e.Side == types.Ask {
				return c.bank.Transfer(owner, c.escrow, base, e.Quantity)
			}
			return c.bank.Transfer(owner, c.escrow, quote, e.Quantity*e.Price)

		case orderbook.Filled:
			owner, ok := ownerOf(e.OrderID)
			if !ok {
				return types.Errorf(types.InvariantViolation, "no owner recorded for filled order %d", e.OrderID)
			}
			if e.Side == types.Ask {
				return c.bank.Transfer(c.escrow, owner, quote, e.Quantity*e.Price)
			}
			return c.bank.Transfer(c.escrow, owner, base, e.Quantity)

		case orderbook.PartiallyFilled:
			owner, ok := ownerOf(e.OrderID)
			if !ok {
				return types.Errorf(types.InvariantViolation, "no owner recorded for partially filled order %d", e.OrderID)
			}
			if e.Side == types.Ask {
				return c.bank.Transfer(c.escrow, owner, quote, e.Quantity*e.Price)
			}
			return c.bank.Transfer(c.escrow, owner, base, e.Quantity)

		case orderbook.Updated:
			owner, ok := ownerOf(e.OrderID)
			if !ok {
				return types.Errorf(types.InvariantViolation, "no owner recorded for updated order %d", e.OrderID)
			}
			if e.Side == types.Ask {
				if e.Quantity > e.PreviousQuantity {
					return c.bank.Transfer(owner, c.escrow, base, e.Quantity-e.PreviousQuantity)
				}
				if e.Quantity < e.PreviousQuantity {
					return c.bank.Transfer(c.escrow, owner, base, e.PreviousQuantity-e.Quantity)
				}
				return nil
			}
			prevNotional := e.PreviousQuantity * e.PreviousPrice
			newNotional := e.Quantity * e.Price
			if newNotional > prevNotional {
				return c.bank.Transfer(owner, c.escrow, quote, newNotional-prevNotional)
			}
			if newNotional < prevNotional {
				return c.bank.Transfer(c.escrow, owner, quote, prevNotional-newNotional)
			}
			return nil

		case orderbook.Cancelled:
			owner, ok := ownerOf(e.OrderID)
			if !ok {
				return types.Errorf(types.InvariantViolation, "no owner recorded for cancelled order %d", e.OrderID)
			}
			if e.Side == types.Ask {
				return c.bank.Transfer(c.escrow, owner, base, e.Quantity)
			}
			return c.bank.Transfer(c.escrow, owner, quote, e.Quantity*e.Price)

		case orderbook.Failed:
			return nil
		}
		return nil
	}
}

// settleEvents walks events in order, resolving each one's owner against
// sob.ownerOf, settling it, and only then applying the ownership
// bookkeeping that event implies. The order matters: a maker order
// Filled within this same call must still be found in the map when its
// Filled event settles, so the map entry is removed only after — never
// before — that event's transfer has been applied. Accepted is the
// mirror case: the map entry must exist before settling it, since
// settlement of a Limit Accepted needs the owner to pull escrow from.
func (c *Controller) settleEvents(sob *spotOrderbook, base, quote types.AssetId, user types.AccountPubKey, events orderbook.OrderProcessingResult) error {
	settle := c.settle(sob, base, quote, func(id uint64) (types.AccountPubKey, bool) {
		owner, ok := sob.ownerOf[id]
		return owner, ok
	})
	for _, ev := range events {
		switch e := ev.(type) {
		case orderbook.Accepted:
			sob.ownerOf[e.OrderID] = user
			if err := settle(ev); err != nil {
				return err
			}
		case orderbook.Filled:
			if err := settle(ev); err != nil {
				return err
			}
			delete(sob.ownerOf, e.OrderID)
		case orderbook.Cancelled:
			if err := settle(ev); err != nil {
				return err
			}
			delete(sob.ownerOf, e.OrderID)
		default:
			if err := settle(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// PlaceLimit places a limit order for user, gating on balance, settling
// every emitted event, and recording ownership for future lifecycle
// events (fills, updates, cancels) against the resting order.
func (c *Controller) PlaceLimit(user types.AccountPubKey, base, quote types.AssetId, side types.Side, price, quantity, tsMillis uint64) (orderbook.OrderProcessingResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sob, err := c.lookupLocked(base, quote)
	if err != nil {
		return nil, err
	}
	c.touch(sob, user)

	if err := c.checkExceedsBalance(user, base, quote, side, 0, 0, price, quantity); err != nil {
		return nil, err
	}

	events, err := sob.book.ProcessLimit(side, price, quantity, tsMillis)
	if err != nil {
		return nil, err
	}
	if err := c.settleEvents(sob, base, quote, user, events); err != nil {
		return nil, err
	}
	return events, nil
}

// PlaceMarket places a market order for user. Because a market order
// never rests, its notional cost is not known until matching completes;
// the controller pre-escrows a worst-case reservation (the cost of
// filling quantity entirely against the current book, capped at
// quantity) for a market bid, or the exact base quantity for a market
// ask, then refunds any difference once the real fills are known. Under
// this controller's single-mutex serialization no other order can
// intervene between reservation and match, so the worst-case reservation
// always equals the realized cost and the refund is zero in practice;
// it is still computed explicitly for correctness.
func (c *Controller) PlaceMarket(user types.AccountPubKey, base, quote types.AssetId, side types.Side, quantity, tsMillis uint64) (orderbook.OrderProcessingResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sob, err := c.lookupLocked(base, quote)
	if err != nil {
		return nil, err
	}
	c.touch(sob, user)

	var reserved uint64
	if side == types.Bid {
		reserved = worstCaseQuoteCost(sob.book.AskLevels(), quantity)
		bal, err := c.bank.GetBalance(user, quote)
		if err != nil {
			return nil, err
		}
		if bal < reserved {
			return nil, types.Errorf(types.OrderExceedsBalance, "user %s has %d of asset %d, needs %d", user, bal, quote, reserved)
		}
		if reserved > 0 {
			if err := c.bank.Transfer(user, c.escrow, quote, reserved); err != nil {
				return nil, err
			}
		}
	} else {
		reserved = quantity
		bal, err := c.bank.GetBalance(user, base)
		if err != nil {
			return nil, err
		}
		if bal < reserved {
			return nil, types.Errorf(types.OrderExceedsBalance, "user %s has %d of asset %d, needs %d", user, bal, base, reserved)
		}
		if err := c.bank.Transfer(user, c.escrow, base, reserved); err != nil {
			return nil, err
		}
	}

	events, err := sob.book.ProcessMarket(side, quantity, tsMillis)
	if err != nil {
		return nil, err
	}

	orderID := acceptedOrderID(events)
	var actualCost uint64
	if side == types.Bid {
		actualCost = sumNotionalForSide(events, orderID, types.Bid)
	} else {
		actualCost = sumQuantityForSide(events, orderID, types.Ask)
	}

	// The reservation above only moved the taker's payment-in leg; a
	// market Accepted never settles (table row "Accepted (Market) — no
	// escrow movement"). Every Filled/PartiallyFilled, taker's own
	// included, still settles the receiving leg exactly as for a limit
	// order: the dispatch is symmetric in event.Side regardless of which
	// party is the resting maker.
	if err := c.settleEvents(sob, base, quote, user, events); err != nil {
		return nil, err
	}
	// A market order never rests, but it does not always end on a
	// terminal Filled event either — it can stop mid-match on a dangling
	// PartiallyFilled once the opposite side runs dry. settleEvents only
	// deletes the ownerOf entry on Filled/Cancelled, so clear it
	// unconditionally here; order ids wrap and get reused, and a stale
	// entry would otherwise resolve to the wrong owner for a later order.
	delete(sob.ownerOf, orderID)

	if reserved > actualCost {
		refundAsset := quote
		if side == types.Ask {
			refundAsset = base
		}
		if err := c.bank.Transfer(c.escrow, user, refundAsset, reserved-actualCost); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// PlaceUpdate replaces the price/quantity of a live order owned by user.
func (c *Controller) PlaceUpdate(user types.AccountPubKey, base, quote types.AssetId, orderID uint64, side types.Side, price, quantity, tsMillis uint64) (orderbook.OrderProcessingResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sob, err := c.lookupLocked(base, quote)
	if err != nil {
		return nil, err
	}
	c.touch(sob, user)

	prevPrice, prevQty, ok := sob.book.Live(side, orderID)
	if !ok {
		return orderbook.OrderProcessingResult{orderbook.Failed{Reason: orderbook.OrderNotFound, OrderID: orderID}}, nil
	}
	if owner, known := sob.ownerOf[orderID]; known && owner != user {
		return orderbook.OrderProcessingResult{orderbook.Failed{Reason: orderbook.OrderNotFound, OrderID: orderID}}, nil
	}

	if err := c.checkExceedsBalance(user, base, quote, side, prevPrice, prevQty, price, quantity); err != nil {
		return nil, err
	}

	events, err := sob.book.ProcessUpdate(orderID, side, price, quantity, tsMillis)
	if err != nil {
		return nil, err
	}
	if err := c.settleEvents(sob, base, quote, user, events); err != nil {
		return nil, err
	}
	return events, nil
}

// PlaceCancel removes a live order owned by user.
func (c *Controller) PlaceCancel(user types.AccountPubKey, base, quote types.AssetId, orderID uint64, side types.Side) (orderbook.OrderProcessingResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sob, err := c.lookupLocked(base, quote)
	if err != nil {
		return nil, err
	}
	c.touch(sob, user)

	if owner, known := sob.ownerOf[orderID]; known && owner != user {
		return orderbook.OrderProcessingResult{orderbook.Failed{Reason: orderbook.OrderNotFound, OrderID: orderID}}, nil
	}

	events, err := sob.book.ProcessCancel(orderID, side)
	if err != nil {
		return nil, err
	}
	if err := c.settleEvents(sob, base, quote, user, events); err != nil {
		return nil, err
	}
	return events, nil
}

// BidLevels and AskLevels expose a pair's live depth for snapshotting.
func (c *Controller) BidLevels(base, quote types.AssetId) ([]orderqueue.PriceLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sob, err := c.lookupLocked(base, quote)
	if err != nil {
		return nil, err
	}
	return sob.book.BidLevels(), nil
}

func (c *Controller) AskLevels(base, quote types.AssetId) ([]orderqueue.PriceLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sob, err := c.lookupLocked(base, quote)
	if err != nil {
		return nil, err
	}
	return sob.book.AskLevels(), nil
}

// Pairs returns every registered (base, quote) pair key, for the
// end-of-block depth snapshot sweep.
func (c *Controller) Pairs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.orderbooks))
	for k := range c.orderbooks {
		out = append(out, k)
	}
	return out
}
