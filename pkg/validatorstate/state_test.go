package validatorstate

import (
	"testing"

	"github.com/vaultline/spotchain/pkg/bank"
	"github.com/vaultline/spotchain/pkg/crypto"
	"github.com/vaultline/spotchain/params"
	"github.com/vaultline/spotchain/pkg/router"
	"github.com/vaultline/spotchain/pkg/spot"
	"github.com/vaultline/spotchain/pkg/store"
	"github.com/vaultline/spotchain/pkg/types"
)

func newFixture(t *testing.T) (*ValidatorState, *crypto.Signer) {
	t.Helper()
	bankController := bank.New()
	spotController := spot.New(bankController, params.SpotControllerAccount)
	if err := spotController.InitializeControllerAccount(); err != nil {
		t.Fatalf("init escrow account: %v", err)
	}
	r := router.New(bankController, spotController)
	s, err := store.New(store.NewMemKV(), 50)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	signer, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return New(r, s), signer
}

func signedCreateAssetBytes(t *testing.T, signer *crypto.Signer) []byte {
	t.Helper()
	tx := types.Transaction{
		Sender:      signer.PubKey(),
		RequestType: types.RequestCreateAsset,
	}
	digest, err := tx.Digest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	sig := signer.Sign(digest)
	stx := types.SignedTransaction{
		SenderPubKey:     signer.PubKey(),
		TransactionBytes: types.MarshalTransaction(tx),
		Signature:        sig,
	}
	return types.MarshalSignedTransaction(stx)
}

func TestHandleConsensusTransactionSucceeds(t *testing.T) {
	vs, signer := newFixture(t)
	raw := signedCreateAssetBytes(t, signer)

	result := vs.HandleConsensusTransaction(raw, types.ConsensusIndex{TransactionIndex: 1}, types.BlockDigest{1})
	if !result.Ok() {
		t.Fatalf("expected success, got %+v", result)
	}
	if vs.Metrics().TransactionsExecuted != 1 {
		t.Fatalf("expected 1 executed, got %d", vs.Metrics().TransactionsExecuted)
	}
	if vs.Metrics().TransactionsFailed != 0 {
		t.Fatalf("expected 0 failed, got %d", vs.Metrics().TransactionsFailed)
	}
}

func TestHandleConsensusTransactionRejectsBadSignature(t *testing.T) {
	vs, signer := newFixture(t)
	tx := types.Transaction{
		Sender:      signer.PubKey(),
		RequestType: types.RequestCreateAsset,
	}
	stx := types.SignedTransaction{
		SenderPubKey:     signer.PubKey(),
		TransactionBytes: types.MarshalTransaction(tx),
		Signature:        [types.SignatureSize]byte{},
	}
	raw := types.MarshalSignedTransaction(stx)

	result := vs.HandleConsensusTransaction(raw, types.ConsensusIndex{TransactionIndex: 1}, types.BlockDigest{1})
	if result.Ok() {
		t.Fatalf("expected failure for bad signature")
	}
	if result.Kind != types.InvalidSignature {
		t.Fatalf("expected InvalidSignature, got %v", result.Kind)
	}
	if vs.Metrics().TransactionsFailed != 1 {
		t.Fatalf("expected 1 failed, got %d", vs.Metrics().TransactionsFailed)
	}
}

func TestHandleConsensusTransactionRejectsMalformedBytes(t *testing.T) {
	vs, _ := newFixture(t)
	result := vs.HandleConsensusTransaction([]byte{0xff, 0xff, 0xff}, types.ConsensusIndex{}, types.BlockDigest{})
	if result.Ok() {
		t.Fatalf("expected failure for malformed bytes")
	}
}

func TestHandleConsensusTransactionRejectsDuplicate(t *testing.T) {
	vs, signer := newFixture(t)
	raw := signedCreateAssetBytes(t, signer)

	first := vs.HandleConsensusTransaction(raw, types.ConsensusIndex{TransactionIndex: 1}, types.BlockDigest{1})
	if !first.Ok() {
		t.Fatalf("expected first submission to succeed, got %+v", first)
	}

	second := vs.HandleConsensusTransaction(raw, types.ConsensusIndex{TransactionIndex: 2}, types.BlockDigest{2})
	if second.Ok() {
		t.Fatalf("expected duplicate to report failure in its ExecutionResult")
	}
	if second.Kind != types.TransactionDuplicate {
		t.Fatalf("expected TransactionDuplicate, got %v", second.Kind)
	}
	if vs.Metrics().TransactionsExecuted != 2 {
		t.Fatalf("expected both submissions counted as executed, got %d", vs.Metrics().TransactionsExecuted)
	}
}

func TestHandleConsensusTransactionRoutesControllerError(t *testing.T) {
	vs, signer := newFixture(t)
	receiver, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	payload, err := types.MarshalRequest(types.PaymentRequest{Receiver: receiver.PubKey(), AssetId: 1, Amount: 10})
	if err != nil {
		t.Fatalf("marshal payment: %v", err)
	}
	tx := types.Transaction{
		Sender:       signer.PubKey(),
		RequestType:  types.RequestPayment,
		RequestBytes: payload, // sender has never been funded, transfer must fail
	}
	digest, err := tx.Digest()
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	sig := signer.Sign(digest)
	stx := types.SignedTransaction{
		SenderPubKey:     signer.PubKey(),
		TransactionBytes: types.MarshalTransaction(tx),
		Signature:        sig,
	}
	raw := types.MarshalSignedTransaction(stx)

	result := vs.HandleConsensusTransaction(raw, types.ConsensusIndex{TransactionIndex: 1}, types.BlockDigest{1})
	if result.Ok() {
		t.Fatalf("expected payment from an unfunded sender to fail routing")
	}
}

func TestHaltSwitch(t *testing.T) {
	vs, _ := newFixture(t)
	if vs.Halted() {
		t.Fatalf("expected not halted initially")
	}
	vs.Halt()
	if !vs.Halted() {
		t.Fatalf("expected halted after Halt()")
	}
}
