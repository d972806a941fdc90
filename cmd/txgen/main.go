// Command txgen builds and signs a single spot-exchange transaction and
// prints it as hex, optionally submitting it straight to a running
// validator's rpcapi. It is the devnet equivalent of a wallet: there is
// no key management beyond a hex seed passed on the command line.
package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/vaultline/spotchain/pkg/crypto"
	"github.com/vaultline/spotchain/pkg/types"
)

func main() {
	var (
		request  = flag.String("request", "", "create-asset|payment|create-orderbook|limit|market|cancel|update")
		seedHex  = flag.String("seed", "", "hex-encoded Ed25519 seed; a fresh key is generated if empty")
		recent   = flag.String("recent", "", "hex-encoded recent certificate digest (32 bytes); defaults to all-zero")
		apiAddr  = flag.String("submit", "", "if set, POST the signed transaction to this validator rpcapi base URL (e.g. http://localhost:8080)")
		receiver = flag.String("receiver", "", "payment: hex-encoded receiver pubkey")
		assetID  = flag.Uint64("asset", 0, "payment: asset id")
		amount   = flag.Uint64("amount", 0, "payment: amount")
		base     = flag.Uint64("base", 0, "create-orderbook|limit|market|cancel|update: base asset id")
		quote    = flag.Uint64("quote", 0, "create-orderbook|limit|market|cancel|update: quote asset id")
		side     = flag.String("side", "bid", "limit|market|cancel|update: bid|ask")
		price    = flag.Uint64("price", 0, "limit|update: price")
		quantity = flag.Uint64("quantity", 0, "limit|market|update: quantity")
		ts       = flag.Uint64("ts", 0, "limit|market|update: timestamp millis")
		orderID  = flag.Uint64("order", 0, "cancel|update: order id")
	)
	flag.Parse()

	signer, err := loadOrGenerateSigner(*seedHex)
	if err != nil {
		fatalf("key: %v", err)
	}

	var recentDigest [32]byte
	if *recent != "" {
		b, err := hex.DecodeString(*recent)
		if err != nil || len(b) != 32 {
			fatalf("recent: must be 32 bytes of hex")
		}
		copy(recentDigest[:], b)
	}

	sideVal, err := parseSide(*side)
	if err != nil && requestNeedsSide(*request) {
		fatalf("side: %v", err)
	}

	reqType, payload, err := buildRequest(*request, buildArgs{
		receiverHex: *receiver,
		assetID:     types.AssetId(*assetID),
		amount:      *amount,
		base:        types.AssetId(*base),
		quote:       types.AssetId(*quote),
		side:        sideVal,
		price:       *price,
		quantity:    *quantity,
		ts:          *ts,
		orderID:     *orderID,
	})
	if err != nil {
		fatalf("request: %v", err)
	}

	tx := types.Transaction{
		Sender:                  signer.PubKey(),
		RecentCertificateDigest: recentDigest,
		RequestType:             reqType,
		RequestBytes:            payload,
	}
	digest, err := tx.Digest()
	if err != nil {
		fatalf("digest: %v", err)
	}
	sig := signer.Sign(digest)

	stx := types.SignedTransaction{
		SenderPubKey:     signer.PubKey(),
		TransactionBytes: types.MarshalTransaction(tx),
		Signature:        sig,
	}
	raw := types.MarshalSignedTransaction(stx)
	rawHex := hex.EncodeToString(raw)

	fmt.Printf("sender:    %s\n", signer.PubKey())
	fmt.Printf("seed:      %s\n", signer.SeedHex())
	fmt.Printf("type:      %s\n", reqType)
	fmt.Printf("digest:    %x\n", digest)
	fmt.Printf("signed_tx: %s\n", rawHex)

	if *apiAddr != "" {
		if err := submit(*apiAddr, rawHex); err != nil {
			fatalf("submit: %v", err)
		}
		fmt.Println("submitted: ok")
	}
}

func loadOrGenerateSigner(seedHex string) (*crypto.Signer, error) {
	if seedHex == "" {
		return crypto.GenerateKey()
	}
	return crypto.FromSeedHex(seedHex)
}

func parseSide(s string) (types.Side, error) {
	switch s {
	case "bid":
		return types.Bid, nil
	case "ask":
		return types.Ask, nil
	default:
		return 0, fmt.Errorf("side must be bid or ask, got %q", s)
	}
}

func requestNeedsSide(request string) bool {
	switch request {
	case "limit", "market", "cancel", "update":
		return true
	default:
		return false
	}
}

type buildArgs struct {
	receiverHex string
	assetID     types.AssetId
	amount      uint64
	base        types.AssetId
	quote       types.AssetId
	side        types.Side
	price       uint64
	quantity    uint64
	ts          uint64
	orderID     uint64
}

func buildRequest(request string, a buildArgs) (types.RequestType, []byte, error) {
	var (
		reqType types.RequestType
		req     any
	)
	switch request {
	case "create-asset":
		reqType, req = types.RequestCreateAsset, types.CreateAssetRequest{}
	case "payment":
		receiver, err := parsePubKey(a.receiverHex)
		if err != nil {
			return 0, nil, fmt.Errorf("receiver: %w", err)
		}
		reqType, req = types.RequestPayment, types.PaymentRequest{
			Receiver: receiver,
			AssetId:  a.assetID,
			Amount:   a.amount,
		}
	case "create-orderbook":
		reqType, req = types.RequestCreateOrderbook, types.CreateOrderbookRequest{
			Base:  a.base,
			Quote: a.quote,
		}
	case "limit":
		reqType, req = types.RequestLimitOrder, types.LimitOrderRequest{
			Base:            a.base,
			Quote:           a.quote,
			Side:            a.side,
			Price:           a.price,
			Quantity:        a.quantity,
			TimestampMillis: a.ts,
		}
	case "market":
		reqType, req = types.RequestMarketOrder, types.MarketOrderRequest{
			Base:            a.base,
			Quote:           a.quote,
			Side:            a.side,
			Quantity:        a.quantity,
			TimestampMillis: a.ts,
		}
	case "cancel":
		reqType, req = types.RequestCancelOrder, types.CancelOrderRequest{
			Base:    a.base,
			Quote:   a.quote,
			OrderId: a.orderID,
			Side:    a.side,
		}
	case "update":
		reqType, req = types.RequestUpdateOrder, types.UpdateOrderRequest{
			Base:            a.base,
			Quote:           a.quote,
			OrderId:         a.orderID,
			Side:            a.side,
			Price:           a.price,
			Quantity:        a.quantity,
			TimestampMillis: a.ts,
		}
	default:
		return 0, nil, fmt.Errorf("unknown -request %q", request)
	}

	payload, err := types.MarshalRequest(req)
	if err != nil {
		return 0, nil, err
	}
	return reqType, payload, nil
}

func parsePubKey(s string) (types.AccountPubKey, error) {
	var out types.AccountPubKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != types.AccountPubKeySize {
		return out, fmt.Errorf("want %d bytes, got %d", types.AccountPubKeySize, len(b))
	}
	copy(out[:], b)
	return out, nil
}

func submit(apiAddr, signedTxHex string) error {
	body, err := json.Marshal(map[string]string{"signedTransactionHex": signedTxHex})
	if err != nil {
		return err
	}
	resp, err := http.Post(apiAddr+"/v1/transactions", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
