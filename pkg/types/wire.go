package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Canonical protobuf field numbers for each request payload (spec.md §6).
// These are wire contracts: never renumber a field once shipped.
const (
	fieldPaymentReceiver = protowire.Number(1)
	fieldPaymentAsset    = protowire.Number(2)
	fieldPaymentAmount   = protowire.Number(3)

	fieldOrderbookBase  = protowire.Number(1)
	fieldOrderbookQuote = protowire.Number(2)

	fieldLimitBase  = protowire.Number(1)
	fieldLimitQuote = protowire.Number(2)
	fieldLimitSide  = protowire.Number(3)
	fieldLimitPrice = protowire.Number(4)
	fieldLimitQty   = protowire.Number(5)
	fieldLimitTs    = protowire.Number(6)

	fieldMarketBase  = protowire.Number(1)
	fieldMarketQuote = protowire.Number(2)
	fieldMarketSide  = protowire.Number(3)
	fieldMarketQty   = protowire.Number(4)
	fieldMarketTs    = protowire.Number(5)

	fieldCancelBase    = protowire.Number(1)
	fieldCancelQuote   = protowire.Number(2)
	fieldCancelOrderID = protowire.Number(3)
	fieldCancelSide    = protowire.Number(4)

	fieldUpdateBase    = protowire.Number(1)
	fieldUpdateQuote   = protowire.Number(2)
	fieldUpdateOrderID = protowire.Number(3)
	fieldUpdateSide    = protowire.Number(4)
	fieldUpdatePrice   = protowire.Number(5)
	fieldUpdateQty     = protowire.Number(6)
	fieldUpdateTs      = protowire.Number(7)

	fieldTxSender      = protowire.Number(1)
	fieldTxRecentCert  = protowire.Number(2)
	fieldTxRequestType = protowire.Number(3)
	fieldTxRequestBody = protowire.Number(4)

	fieldSignedTxTransaction = protowire.Number(1)
	fieldSignedTxSignature   = protowire.Number(2)
	fieldSignedTxSender      = protowire.Number(3)
)

func appendBytes32(b []byte, num protowire.Number, v [32]byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v[:])
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// wireField is one (field number, varint or length-delimited value) entry
// of a protobuf wire-format message. consumeFields walks a message and
// returns its fields in order; callers decode each field inline.
type wireField struct {
	num     protowire.Number
	typ     protowire.Type
	varint  uint64
	bytes   []byte
}

func consumeFields(b []byte) ([]wireField, error) {
	var fields []wireField
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			fields = append(fields, wireField{num: num, typ: typ, varint: v})
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			fields = append(fields, wireField{num: num, typ: typ, bytes: v})
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return fields, nil
}

func bytes32Of(v []byte) ([32]byte, error) {
	var out [32]byte
	if len(v) != 32 {
		return out, fmt.Errorf("types: expected 32-byte field, got %d", len(v))
	}
	copy(out[:], v)
	return out, nil
}

// MarshalRequest encodes a request payload into the protobuf wire-format
// bytes carried as Transaction.RequestBytes.
func MarshalRequest(req any) ([]byte, error) {
	switch r := req.(type) {
	case CreateAssetRequest:
		return nil, nil
	case PaymentRequest:
		var b []byte
		b = appendBytes32(b, fieldPaymentReceiver, r.Receiver)
		b = appendVarint(b, fieldPaymentAsset, uint64(r.AssetId))
		b = appendVarint(b, fieldPaymentAmount, r.Amount)
		return b, nil
	case CreateOrderbookRequest:
		var b []byte
		b = appendVarint(b, fieldOrderbookBase, uint64(r.Base))
		b = appendVarint(b, fieldOrderbookQuote, uint64(r.Quote))
		return b, nil
	case LimitOrderRequest:
		var b []byte
		b = appendVarint(b, fieldLimitBase, uint64(r.Base))
		b = appendVarint(b, fieldLimitQuote, uint64(r.Quote))
		b = appendVarint(b, fieldLimitSide, uint64(r.Side))
		b = appendVarint(b, fieldLimitPrice, r.Price)
		b = appendVarint(b, fieldLimitQty, r.Quantity)
		b = appendVarint(b, fieldLimitTs, r.TimestampMillis)
		return b, nil
	case MarketOrderRequest:
		var b []byte
		b = appendVarint(b, fieldMarketBase, uint64(r.Base))
		b = appendVarint(b, fieldMarketQuote, uint64(r.Quote))
		b = appendVarint(b, fieldMarketSide, uint64(r.Side))
		b = appendVarint(b, fieldMarketQty, r.Quantity)
		b = appendVarint(b, fieldMarketTs, r.TimestampMillis)
		return b, nil
	case CancelOrderRequest:
		var b []byte
		b = appendVarint(b, fieldCancelBase, uint64(r.Base))
		b = appendVarint(b, fieldCancelQuote, uint64(r.Quote))
		b = appendVarint(b, fieldCancelOrderID, r.OrderId)
		b = appendVarint(b, fieldCancelSide, uint64(r.Side))
		return b, nil
	case UpdateOrderRequest:
		var b []byte
		b = appendVarint(b, fieldUpdateBase, uint64(r.Base))
		b = appendVarint(b, fieldUpdateQuote, uint64(r.Quote))
		b = appendVarint(b, fieldUpdateOrderID, r.OrderId)
		b = appendVarint(b, fieldUpdateSide, uint64(r.Side))
		b = appendVarint(b, fieldUpdatePrice, r.Price)
		b = appendVarint(b, fieldUpdateQty, r.Quantity)
		b = appendVarint(b, fieldUpdateTs, r.TimestampMillis)
		return b, nil
	default:
		return nil, fmt.Errorf("types: unknown request payload %T", req)
	}
}

// UnmarshalPayment decodes a PaymentRequest from wire bytes.
func UnmarshalPayment(b []byte) (PaymentRequest, error) {
	fields, err := consumeFields(b)
	if err != nil {
		return PaymentRequest{}, err
	}
	var out PaymentRequest
	for _, f := range fields {
		switch f.num {
		case fieldPaymentReceiver:
			k, err := bytes32Of(f.bytes)
			if err != nil {
				return PaymentRequest{}, err
			}
			out.Receiver = AccountPubKey(k)
		case fieldPaymentAsset:
			out.AssetId = AssetId(f.varint)
		case fieldPaymentAmount:
			out.Amount = f.varint
		}
	}
	return out, nil
}

// UnmarshalCreateOrderbook decodes a CreateOrderbookRequest from wire bytes.
func UnmarshalCreateOrderbook(b []byte) (CreateOrderbookRequest, error) {
	fields, err := consumeFields(b)
	if err != nil {
		return CreateOrderbookRequest{}, err
	}
	var out CreateOrderbookRequest
	for _, f := range fields {
		switch f.num {
		case fieldOrderbookBase:
			out.Base = AssetId(f.varint)
		case fieldOrderbookQuote:
			out.Quote = AssetId(f.varint)
		}
	}
	return out, nil
}

// UnmarshalLimitOrder decodes a LimitOrderRequest from wire bytes.
func UnmarshalLimitOrder(b []byte) (LimitOrderRequest, error) {
	fields, err := consumeFields(b)
	if err != nil {
		return LimitOrderRequest{}, err
	}
	var out LimitOrderRequest
	for _, f := range fields {
		switch f.num {
		case fieldLimitBase:
			out.Base = AssetId(f.varint)
		case fieldLimitQuote:
			out.Quote = AssetId(f.varint)
		case fieldLimitSide:
			out.Side = Side(f.varint)
		case fieldLimitPrice:
			out.Price = f.varint
		case fieldLimitQty:
			out.Quantity = f.varint
		case fieldLimitTs:
			out.TimestampMillis = f.varint
		}
	}
	return out, nil
}

// UnmarshalMarketOrder decodes a MarketOrderRequest from wire bytes.
func UnmarshalMarketOrder(b []byte) (MarketOrderRequest, error) {
	fields, err := consumeFields(b)
	if err != nil {
		return MarketOrderRequest{}, err
	}
	var out MarketOrderRequest
	for _, f := range fields {
		switch f.num {
		case fieldMarketBase:
			out.Base = AssetId(f.varint)
		case fieldMarketQuote:
			out.Quote = AssetId(f.varint)
		case fieldMarketSide:
			out.Side = Side(f.varint)
		case fieldMarketQty:
			out.Quantity = f.varint
		case fieldMarketTs:
			out.TimestampMillis = f.varint
		}
	}
	return out, nil
}

// UnmarshalCancelOrder decodes a CancelOrderRequest from wire bytes.
func UnmarshalCancelOrder(b []byte) (CancelOrderRequest, error) {
	fields, err := consumeFields(b)
	if err != nil {
		return CancelOrderRequest{}, err
	}
	var out CancelOrderRequest
	for _, f := range fields {
		switch f.num {
		case fieldCancelBase:
			out.Base = AssetId(f.varint)
		case fieldCancelQuote:
			out.Quote = AssetId(f.varint)
		case fieldCancelOrderID:
			out.OrderId = f.varint
		case fieldCancelSide:
			out.Side = Side(f.varint)
		}
	}
	return out, nil
}

// MarshalTransaction encodes tx per the wire layout of spec.md §6.
func MarshalTransaction(tx Transaction) []byte {
	var b []byte
	b = appendBytes32(b, fieldTxSender, tx.Sender)
	b = appendBytes32(b, fieldTxRecentCert, tx.RecentCertificateDigest)
	b = appendVarint(b, fieldTxRequestType, uint64(tx.RequestType))
	b = protowire.AppendTag(b, fieldTxRequestBody, protowire.BytesType)
	b = protowire.AppendBytes(b, tx.RequestBytes)
	return b
}

// UnmarshalTransaction decodes a Transaction from wire bytes.
func UnmarshalTransaction(b []byte) (Transaction, error) {
	fields, err := consumeFields(b)
	if err != nil {
		return Transaction{}, err
	}
	var out Transaction
	for _, f := range fields {
		switch f.num {
		case fieldTxSender:
			k, err := bytes32Of(f.bytes)
			if err != nil {
				return Transaction{}, err
			}
			out.Sender = AccountPubKey(k)
		case fieldTxRecentCert:
			k, err := bytes32Of(f.bytes)
			if err != nil {
				return Transaction{}, err
			}
			out.RecentCertificateDigest = k
		case fieldTxRequestType:
			out.RequestType = RequestType(f.varint)
		case fieldTxRequestBody:
			out.RequestBytes = f.bytes
		}
	}
	return out, nil
}

// MarshalSignedTransaction encodes a SignedTransaction per spec.md §6.
func MarshalSignedTransaction(stx SignedTransaction) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldSignedTxTransaction, protowire.BytesType)
	b = protowire.AppendBytes(b, stx.TransactionBytes)
	b = protowire.AppendTag(b, fieldSignedTxSignature, protowire.BytesType)
	b = protowire.AppendBytes(b, stx.Signature[:])
	b = appendBytes32(b, fieldSignedTxSender, stx.SenderPubKey)
	return b
}

// UnmarshalSignedTransaction decodes a SignedTransaction from wire bytes.
func UnmarshalSignedTransaction(b []byte) (SignedTransaction, error) {
	fields, err := consumeFields(b)
	if err != nil {
		return SignedTransaction{}, err
	}
	var out SignedTransaction
	for _, f := range fields {
		switch f.num {
		case fieldSignedTxTransaction:
			out.TransactionBytes = f.bytes
		case fieldSignedTxSignature:
			if len(f.bytes) != SignatureSize {
				return SignedTransaction{}, fmt.Errorf("types: expected %d-byte signature, got %d", SignatureSize, len(f.bytes))
			}
			copy(out.Signature[:], f.bytes)
		case fieldSignedTxSender:
			k, err := bytes32Of(f.bytes)
			if err != nil {
				return SignedTransaction{}, err
			}
			out.SenderPubKey = AccountPubKey(k)
		}
	}
	return out, nil
}

// UnmarshalUpdateOrder decodes an UpdateOrderRequest from wire bytes.
func UnmarshalUpdateOrder(b []byte) (UpdateOrderRequest, error) {
	fields, err := consumeFields(b)
	if err != nil {
		return UpdateOrderRequest{}, err
	}
	var out UpdateOrderRequest
	for _, f := range fields {
		switch f.num {
		case fieldUpdateBase:
			out.Base = AssetId(f.varint)
		case fieldUpdateQuote:
			out.Quote = AssetId(f.varint)
		case fieldUpdateOrderID:
			out.OrderId = f.varint
		case fieldUpdateSide:
			out.Side = Side(f.varint)
		case fieldUpdatePrice:
			out.Price = f.varint
		case fieldUpdateQty:
			out.Quantity = f.varint
		case fieldUpdateTs:
			out.TimestampMillis = f.varint
		}
	}
	return out, nil
}
