package router

import (
	"testing"

	"github.com/vaultline/spotchain/pkg/bank"
	"github.com/vaultline/spotchain/params"
	"github.com/vaultline/spotchain/pkg/spot"
	"github.com/vaultline/spotchain/pkg/types"
)

func pk(b byte) types.AccountPubKey {
	var k types.AccountPubKey
	k[0] = b
	return k
}

func newFixture(t *testing.T) *Router {
	t.Helper()
	bc := bank.New()
	sc := spot.New(bc, params.SpotControllerAccount)
	if err := sc.InitializeControllerAccount(); err != nil {
		t.Fatalf("init escrow: %v", err)
	}
	return New(bc, sc)
}

func mustMarshal(t *testing.T, req any) []byte {
	t.Helper()
	b, err := types.MarshalRequest(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestRouteCreateAssetCreditsSender(t *testing.T) {
	r := newFixture(t)
	sender := pk(1)
	r.Bank.CreateAccount(sender)
	tx := types.Transaction{Sender: sender, RequestType: types.RequestCreateAsset, RequestBytes: mustMarshal(t, types.CreateAssetRequest{})}
	if err := r.HandleConsensusTransaction(tx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bal, err := r.Bank.GetBalance(sender, 0)
	if err != nil {
		t.Fatalf("balance lookup: %v", err)
	}
	if bal != params.CreatedAssetBalance {
		t.Fatalf("expected %d, got %d", params.CreatedAssetBalance, bal)
	}
}

func TestRoutePaymentTransfersFunds(t *testing.T) {
	r := newFixture(t)
	sender := pk(1)
	receiver := pk(2)
	r.Bank.CreateAccount(sender)
	asset, _ := r.Bank.CreateAsset(sender, 1000)

	tx := types.Transaction{
		Sender:       sender,
		RequestType:  types.RequestPayment,
		RequestBytes: mustMarshal(t, types.PaymentRequest{Receiver: receiver, AssetId: asset, Amount: 250}),
	}
	if err := r.HandleConsensusTransaction(tx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bal, _ := r.Bank.GetBalance(receiver, asset)
	if bal != 250 {
		t.Fatalf("expected receiver balance 250, got %d", bal)
	}
}

func TestRouteCreateOrderbookThenLimitOrder(t *testing.T) {
	r := newFixture(t)
	sender := pk(1)
	r.Bank.CreateAccount(sender)
	base, _ := r.Bank.CreateAsset(pk(250), 0)
	quote, _ := r.Bank.CreateAsset(pk(251), 0)
	r.Bank.UpdateBalance(sender, quote, 10_000, true)

	createTx := types.Transaction{
		Sender:       sender,
		RequestType:  types.RequestCreateOrderbook,
		RequestBytes: mustMarshal(t, types.CreateOrderbookRequest{Base: base, Quote: quote}),
	}
	if err := r.HandleConsensusTransaction(createTx); err != nil {
		t.Fatalf("create orderbook: %v", err)
	}

	limitTx := types.Transaction{
		Sender:      sender,
		RequestType: types.RequestLimitOrder,
		RequestBytes: mustMarshal(t, types.LimitOrderRequest{
			Base: base, Quote: quote, Side: types.Bid, Price: 100, Quantity: 10, TimestampMillis: 1,
		}),
	}
	if err := r.HandleConsensusTransaction(limitTx); err != nil {
		t.Fatalf("place limit: %v", err)
	}
	bal, _ := r.Bank.GetBalance(sender, quote)
	if bal != 10_000-1_000 {
		t.Fatalf("expected quote balance %d, got %d", 10_000-1_000, bal)
	}
}

func TestRoutePaymentInsufficientFundsWrapsAsPaymentRequestError(t *testing.T) {
	r := newFixture(t)
	sender := pk(1)
	receiver := pk(2)
	asset, _ := r.Bank.CreateAsset(sender, 100)

	tx := types.Transaction{
		Sender:       sender,
		RequestType:  types.RequestPayment,
		RequestBytes: mustMarshal(t, types.PaymentRequest{Receiver: receiver, AssetId: asset, Amount: 500}),
	}
	err := r.HandleConsensusTransaction(tx)
	if types.KindOf(err) != types.PaymentRequestError {
		t.Fatalf("expected PaymentRequestError, got %v", err)
	}
}

func TestRouteUnknownRequestTypeFails(t *testing.T) {
	r := newFixture(t)
	tx := types.Transaction{Sender: pk(1), RequestType: types.RequestType(99)}
	err := r.HandleConsensusTransaction(tx)
	if types.KindOf(err) != types.InvalidRequestType {
		t.Fatalf("expected InvalidRequestType, got %v", err)
	}
}

func TestProcessEndOfBlockOnlyFiresOnFrequency(t *testing.T) {
	r := newFixture(t)
	sender := pk(1)
	r.Bank.CreateAccount(sender)
	base, _ := r.Bank.CreateAsset(pk(250), 0)
	quote, _ := r.Bank.CreateAsset(pk(251), 0)
	r.Spot.CreateOrderbook(base, quote)

	if d := r.ProcessEndOfBlock(1); d != nil {
		t.Fatalf("expected nil depth snapshot off-frequency, got %v", d)
	}
	d := r.ProcessEndOfBlock(params.OrderbookDepthFrequency)
	if d == nil {
		t.Fatalf("expected depth snapshot on frequency boundary")
	}
	if _, ok := d[types.AssetPairKey(base, quote)]; !ok {
		t.Fatalf("expected pair key present in snapshot, got %v", d)
	}
}
