package types

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// SignatureSize is the length of an Ed25519 signature in bytes.
const SignatureSize = 64

// Transaction is the unsigned envelope every request travels in.
// RequestBytes is the protobuf-wire-format payload for RequestType.
type Transaction struct {
	Sender                  AccountPubKey
	RecentCertificateDigest [32]byte
	RequestType             RequestType
	RequestBytes            []byte
}

// SignedTransaction pairs a Transaction with the signature over its digest.
type SignedTransaction struct {
	SenderPubKey     AccountPubKey
	TransactionBytes []byte
	Signature        [SignatureSize]byte
}

func le64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

// digest hashes the concatenation of parts with BLAKE2b-256, matching
// spec.md's field-concatenation formula.
func digest(parts ...[]byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic("types: blake2b.New256: " + err.Error())
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DigestPayment computes digest(Payment) per spec.md §4.8.
func DigestPayment(sender, receiver AccountPubKey, assetID AssetId, amount uint64, recent [32]byte) [32]byte {
	return digest(sender[:], receiver[:], le64(uint64(assetID)), le64(amount), recent[:])
}

// DigestCreateAsset computes digest(CreateAsset).
func DigestCreateAsset(sender AccountPubKey, recent [32]byte) [32]byte {
	return digest(sender[:], recent[:])
}

// DigestCreateOrderbook computes digest(CreateOrderbook).
func DigestCreateOrderbook(sender AccountPubKey, base, quote AssetId, recent [32]byte) [32]byte {
	return digest(sender[:], le64(uint64(base)), le64(uint64(quote)), recent[:])
}

// DigestLimit computes digest(Limit).
func DigestLimit(sender AccountPubKey, base, quote AssetId, side Side, price, quantity, tsMillis uint64, recent [32]byte) [32]byte {
	return digest(sender[:], le64(uint64(base)), le64(uint64(quote)), []byte{byte(side)}, le64(price), le64(quantity), le64(tsMillis), recent[:])
}

// DigestMarket computes digest(Market).
func DigestMarket(sender AccountPubKey, base, quote AssetId, side Side, quantity, tsMillis uint64, recent [32]byte) [32]byte {
	return digest(sender[:], le64(uint64(base)), le64(uint64(quote)), []byte{byte(side)}, le64(quantity), le64(tsMillis), recent[:])
}

// DigestCancel computes digest(Cancel).
func DigestCancel(sender AccountPubKey, orderID uint64, side Side, recent [32]byte) [32]byte {
	return digest(sender[:], le64(orderID), []byte{byte(side)}, recent[:])
}

// DigestUpdate computes digest(Update).
func DigestUpdate(sender AccountPubKey, orderID uint64, side Side, price, quantity, tsMillis uint64, recent [32]byte) [32]byte {
	return digest(sender[:], le64(orderID), []byte{byte(side)}, le64(price), le64(quantity), le64(tsMillis), recent[:])
}

// Digest computes the spec.md §4.8 signing digest for tx, dispatching on
// its RequestType and decoding RequestBytes as needed.
func (tx Transaction) Digest() ([32]byte, error) {
	recent := tx.RecentCertificateDigest
	switch tx.RequestType {
	case RequestCreateAsset:
		return DigestCreateAsset(tx.Sender, recent), nil
	case RequestPayment:
		r, err := UnmarshalPayment(tx.RequestBytes)
		if err != nil {
			return [32]byte{}, err
		}
		return DigestPayment(tx.Sender, r.Receiver, r.AssetId, r.Amount, recent), nil
	case RequestCreateOrderbook:
		r, err := UnmarshalCreateOrderbook(tx.RequestBytes)
		if err != nil {
			return [32]byte{}, err
		}
		return DigestCreateOrderbook(tx.Sender, r.Base, r.Quote, recent), nil
	case RequestLimitOrder:
		r, err := UnmarshalLimitOrder(tx.RequestBytes)
		if err != nil {
			return [32]byte{}, err
		}
		return DigestLimit(tx.Sender, r.Base, r.Quote, r.Side, r.Price, r.Quantity, r.TimestampMillis, recent), nil
	case RequestMarketOrder:
		r, err := UnmarshalMarketOrder(tx.RequestBytes)
		if err != nil {
			return [32]byte{}, err
		}
		return DigestMarket(tx.Sender, r.Base, r.Quote, r.Side, r.Quantity, r.TimestampMillis, recent), nil
	case RequestCancelOrder:
		r, err := UnmarshalCancelOrder(tx.RequestBytes)
		if err != nil {
			return [32]byte{}, err
		}
		return DigestCancel(tx.Sender, r.OrderId, r.Side, recent), nil
	case RequestUpdateOrder:
		r, err := UnmarshalUpdateOrder(tx.RequestBytes)
		if err != nil {
			return [32]byte{}, err
		}
		return DigestUpdate(tx.Sender, r.OrderId, r.Side, r.Price, r.Quantity, r.TimestampMillis, recent), nil
	default:
		return [32]byte{}, Errorf(InvalidRequestType, "unknown request type %d", tx.RequestType)
	}
}
