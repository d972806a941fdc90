// Package router dispatches a decoded transaction request to the
// controller that owns it: bank for assets and payments, spot for
// orderbooks and order lifecycle.
package router

import (
	"github.com/vaultline/spotchain/pkg/bank"
	"github.com/vaultline/spotchain/params"
	"github.com/vaultline/spotchain/pkg/spot"
	"github.com/vaultline/spotchain/pkg/types"
)

// Router holds shared handles to every controller a transaction might
// touch. It owns no state of its own.
type Router struct {
	Bank *bank.Controller
	Spot *spot.Controller
}

// New constructs a Router over the given controllers.
func New(bankController *bank.Controller, spotController *spot.Controller) *Router {
	return &Router{Bank: bankController, Spot: spotController}
}

// HandleConsensusTransaction decodes tx.RequestBytes per tx.RequestType
// and dispatches it to the owning controller. Anything it cannot route
// is InvalidRequestType.
func (r *Router) HandleConsensusTransaction(tx types.Transaction) error {
	switch tx.RequestType {
	case types.RequestCreateAsset:
		_, err := r.Bank.CreateAsset(tx.Sender, params.CreatedAssetBalance)
		return err

	case types.RequestPayment:
		req, err := types.UnmarshalPayment(tx.RequestBytes)
		if err != nil {
			return types.Errorf(types.PaymentRequestError, "malformed payment request: %v", err)
		}
		if err := r.Bank.Transfer(tx.Sender, req.Receiver, req.AssetId, req.Amount); err != nil {
			return types.Errorf(types.PaymentRequestError, "payment from %s to %s failed: %v", tx.Sender, req.Receiver, err)
		}
		return nil

	case types.RequestCreateOrderbook:
		req, err := types.UnmarshalCreateOrderbook(tx.RequestBytes)
		if err != nil {
			return types.Errorf(types.OrderBookCreation, "malformed create-orderbook request: %v", err)
		}
		return r.Spot.CreateOrderbook(req.Base, req.Quote)

	case types.RequestLimitOrder:
		req, err := types.UnmarshalLimitOrder(tx.RequestBytes)
		if err != nil {
			return types.Errorf(types.OrderRequestError, "malformed limit order request: %v", err)
		}
		_, err = r.Spot.PlaceLimit(tx.Sender, req.Base, req.Quote, req.Side, req.Price, req.Quantity, req.TimestampMillis)
		return err

	case types.RequestMarketOrder:
		req, err := types.UnmarshalMarketOrder(tx.RequestBytes)
		if err != nil {
			return types.Errorf(types.OrderRequestError, "malformed market order request: %v", err)
		}
		_, err = r.Spot.PlaceMarket(tx.Sender, req.Base, req.Quote, req.Side, req.Quantity, req.TimestampMillis)
		return err

	case types.RequestUpdateOrder:
		req, err := types.UnmarshalUpdateOrder(tx.RequestBytes)
		if err != nil {
			return types.Errorf(types.OrderRequestError, "malformed update order request: %v", err)
		}
		_, err = r.Spot.PlaceUpdate(tx.Sender, req.Base, req.Quote, req.OrderId, req.Side, req.Price, req.Quantity, req.TimestampMillis)
		return err

	case types.RequestCancelOrder:
		req, err := types.UnmarshalCancelOrder(tx.RequestBytes)
		if err != nil {
			return types.Errorf(types.OrderRequestError, "malformed cancel order request: %v", err)
		}
		_, err = r.Spot.PlaceCancel(tx.Sender, req.Base, req.Quote, req.OrderId, req.Side)
		return err

	default:
		return types.Errorf(types.InvalidRequestType, "unrecognized request type %d", tx.RequestType)
	}
}

// ProcessEndOfBlock invokes every controller's end-of-block hook. Only
// the spot controller has one today: every params.OrderbookDepthFrequency
// blocks it snapshots depth for every pair. The snapshot is taken under
// lock and returned for the caller to persist after releasing it, so no
// controller lock is ever held across a store write.
func (r *Router) ProcessEndOfBlock(blockNumber uint64) map[string]spot.OrderbookDepth {
	if blockNumber%params.OrderbookDepthFrequency != 0 {
		return nil
	}
	return r.Spot.Depths()
}
