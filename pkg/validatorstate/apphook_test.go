package validatorstate

import (
	"testing"

	"github.com/vaultline/spotchain/pkg/consensus"
	"github.com/vaultline/spotchain/pkg/crypto"
	"github.com/vaultline/spotchain/pkg/types"
)

func TestAppHookPreparePayloadDrainsMempool(t *testing.T) {
	vs, signer := newFixture(t)
	mp := NewMempool()
	hook := NewAppHook(vs, mp, nil, nil)

	raw := signedCreateAssetBytes(t, signer)
	mp.Submit(raw)

	payload := hook.PreparePayload(consensus.Block{}, 1)
	txs, err := decodeBatch(payload)
	if err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 tx in payload, got %d", len(txs))
	}
	if mp.Len() != 0 {
		t.Fatalf("expected mempool drained, got %d remaining", mp.Len())
	}
}

func TestAppHookOnCommitExecutesAndSealsBlock(t *testing.T) {
	vs, signer := newFixture(t)
	mp := NewMempool()
	hook := NewAppHook(vs, mp, nil, nil)

	raw := signedCreateAssetBytes(t, signer)
	payload := encodeBatch([][]byte{raw})

	block := consensus.Block{Height: 1, Payload: payload}
	appHash1 := hook.OnCommit(block)

	if vs.Store().BlockNumber() != 1 {
		t.Fatalf("expected sealed block number 1, got %d", vs.Store().BlockNumber())
	}
	sealed, ok, err := vs.Store().GetBlock(0)
	if err != nil || !ok {
		t.Fatalf("expected sealed block readable: ok=%v err=%v", ok, err)
	}
	if len(sealed.Executed) != 1 || !sealed.Executed[0].Result.Ok() {
		t.Fatalf("expected one successful executed tx, got %+v", sealed.Executed)
	}

	// Re-running OnCommit against an identically-shaped block (same
	// height, same payload) from a second, independently-constructed
	// ValidatorState must reproduce the same AppHash: determinism.
	vs2, _ := newFixture(t)
	hook2 := NewAppHook(vs2, NewMempool(), nil, nil)
	vs2raw := types.MarshalSignedTransaction(mustUnmarshalSigned(t, raw))
	appHash2 := hook2.OnCommit(consensus.Block{Height: 1, Payload: encodeBatch([][]byte{vs2raw})})

	if appHash1 != appHash2 {
		t.Fatalf("expected deterministic AppHash across independent validator states")
	}
}

func mustUnmarshalSigned(t *testing.T, raw []byte) types.SignedTransaction {
	t.Helper()
	stx, err := types.UnmarshalSignedTransaction(raw)
	if err != nil {
		t.Fatalf("unmarshal signed tx: %v", err)
	}
	return stx
}

func TestAppHookOnCommitPersistsOrderbookDepthSnapshot(t *testing.T) {
	vs, signer := newFixture(t)
	mp := NewMempool()
	hook := NewAppHook(vs, mp, nil, nil)

	raw := signedCreateOrderbookBytes(t, signer, 0, 1)
	payload := encodeBatch([][]byte{raw})

	// Block number 0 is on the OrderbookDepthFrequency boundary (0 mod
	// anything is 0), so this first commit must already snapshot depth.
	hook.OnCommit(consensus.Block{Height: 1, Payload: payload})

	depth, ok, err := vs.Store().GetLatestOrderbookDepth(types.AssetPairKey(0, 1))
	if err != nil || !ok {
		t.Fatalf("expected a persisted depth snapshot: ok=%v err=%v", ok, err)
	}
	if len(depth.Bids) != 0 || len(depth.Asks) != 0 {
		t.Fatalf("expected an empty freshly-created orderbook, got %+v", depth)
	}
}

func signedCreateOrderbookBytes(t *testing.T, signer *crypto.Signer, base, quote types.AssetId) []byte {
	t.Helper()
	payload, err := types.MarshalRequest(types.CreateOrderbookRequest{Base: base, Quote: quote})
	if err != nil {
		t.Fatalf("marshal create-orderbook request: %v", err)
	}
	tx := types.Transaction{
		Sender:       signer.PubKey(),
		RequestType:  types.RequestCreateOrderbook,
		RequestBytes: payload,
	}
	digest, err := tx.Digest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	stx := types.SignedTransaction{
		SenderPubKey:     signer.PubKey(),
		TransactionBytes: types.MarshalTransaction(tx),
		Signature:        signer.Sign(digest),
	}
	return types.MarshalSignedTransaction(stx)
}

func TestAppHookOnCommitRejectsMalformedPayload(t *testing.T) {
	vs, _ := newFixture(t)
	hook := NewAppHook(vs, NewMempool(), nil, nil)

	hook.OnCommit(consensus.Block{Height: 1, Payload: []byte{0x01}})
	if !vs.Halted() {
		t.Fatalf("expected validator to halt on malformed block payload")
	}
}
