package types

// Side is which book side an order request or a live order sits on.
type Side uint8

const (
	Bid Side = 1
	Ask Side = 2
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

// RequestType tags the payload carried in Transaction.RequestBytes. Values
// are stable wire tags (spec.md §6) — never renumber a shipped tag.
type RequestType uint64

const (
	RequestCreateAsset     RequestType = 1
	RequestPayment         RequestType = 2
	RequestCreateOrderbook RequestType = 3
	RequestMarketOrder     RequestType = 4
	RequestLimitOrder      RequestType = 5
	RequestUpdateOrder     RequestType = 6
	RequestCancelOrder     RequestType = 7
)

func (t RequestType) String() string {
	switch t {
	case RequestCreateAsset:
		return "CreateAsset"
	case RequestPayment:
		return "Payment"
	case RequestCreateOrderbook:
		return "CreateOrderbook"
	case RequestMarketOrder:
		return "MarketOrder"
	case RequestLimitOrder:
		return "LimitOrder"
	case RequestUpdateOrder:
		return "UpdateOrder"
	case RequestCancelOrder:
		return "CancelOrder"
	default:
		return "Unknown"
	}
}

// CreateAssetRequest mints CREATED_ASSET_BALANCE of a new asset to the sender.
// Carries no fields of its own; the asset id is assigned by the bank.
type CreateAssetRequest struct{}

// PaymentRequest moves amount of asset from the sender to receiver.
type PaymentRequest struct {
	Receiver AccountPubKey
	AssetId  AssetId
	Amount   uint64
}

// CreateOrderbookRequest registers a new (base, quote) pair.
type CreateOrderbookRequest struct {
	Base  AssetId
	Quote AssetId
}

// LimitOrderRequest places a limit order, resting any unfilled residual.
type LimitOrderRequest struct {
	Base            AssetId
	Quote           AssetId
	Side            Side
	Price           uint64
	Quantity        uint64
	TimestampMillis uint64
}

// MarketOrderRequest crosses the book until filled or the book is empty.
type MarketOrderRequest struct {
	Base            AssetId
	Quote           AssetId
	Side            Side
	Quantity        uint64
	TimestampMillis uint64
}

// CancelOrderRequest removes a live order. Base/Quote route it to the
// right orderbook; they are not part of the signing digest (spec.md §4.8).
type CancelOrderRequest struct {
	Base    AssetId
	Quote   AssetId
	OrderId uint64
	Side    Side
}

// UpdateOrderRequest replaces the price/quantity of a live order in place.
// Base/Quote route it to the right orderbook; they are not part of the
// signing digest (spec.md §4.8).
type UpdateOrderRequest struct {
	Base            AssetId
	Quote           AssetId
	OrderId         uint64
	Side            Side
	Price           uint64
	Quantity        uint64
	TimestampMillis uint64
}
