// Package validatorstate glues the consensus layer to the core state
// machine: it verifies each committed transaction's signature, dedups
// it against the ValidatorStore, and hands it to the ControllerRouter.
package validatorstate

import (
	"sync/atomic"
	"time"

	"github.com/vaultline/spotchain/pkg/crypto"
	"github.com/vaultline/spotchain/pkg/router"
	"github.com/vaultline/spotchain/pkg/store"
	"github.com/vaultline/spotchain/pkg/types"
)

// ValidatorState is the top-level per-validator object: owned router,
// owned store, a halt switch, and execution metrics.
type ValidatorState struct {
	router  *router.Router
	store   *store.ValidatorStore
	halted  atomic.Bool
	metrics *Metrics
}

// New constructs a ValidatorState over the given router and store.
func New(r *router.Router, s *store.ValidatorStore) *ValidatorState {
	return &ValidatorState{router: r, store: s, metrics: NewMetrics()}
}

// Halt sets the advisory halt switch. It does not synchronously stop
// in-flight work; a caller that halts the validator must drain pending
// calls and then discard this ValidatorState.
func (vs *ValidatorState) Halt() { vs.halted.Store(true) }

// Halted reports the current value of the halt switch.
func (vs *ValidatorState) Halted() bool { return vs.halted.Load() }

// Metrics returns a point-in-time snapshot of execution counters.
func (vs *ValidatorState) Metrics() Snapshot { return vs.metrics.Snapshot() }

// Store exposes the underlying ValidatorStore, e.g. for RPC block reads.
func (vs *ValidatorState) Store() *store.ValidatorStore { return vs.store }

// Router exposes the underlying ControllerRouter, e.g. for the
// end-of-block depth sweep.
func (vs *ValidatorState) Router() *router.Router { return vs.router }

// HandleConsensusTransaction runs the five-step procedure of spec.md
// §4.7: verify, dedup, execute. It never returns a transport-level
// error — every signed transaction it is handed produces exactly one
// ExecutionResult, including malformed input and a duplicate hit, so
// that consensus always continues regardless of the outcome.
func (vs *ValidatorState) HandleConsensusTransaction(signedTxBytes []byte, index types.ConsensusIndex, blockDigest types.BlockDigest) types.ExecutionResult {
	start := time.Now()
	defer func() { vs.metrics.recordLatency(time.Since(start)) }()

	vs.metrics.incExecuted()

	stx, err := types.UnmarshalSignedTransaction(signedTxBytes)
	if err != nil {
		vs.metrics.incFailed()
		return types.ResultFromError(types.Errorf(types.TransactionDeserial, "malformed signed transaction: %v", err))
	}

	tx, err := types.UnmarshalTransaction(stx.TransactionBytes)
	if err != nil {
		vs.metrics.incFailed()
		return types.ResultFromError(types.Errorf(types.TransactionDeserial, "malformed transaction: %v", err))
	}

	digest, err := tx.Digest()
	if err != nil {
		vs.metrics.incFailed()
		return types.ResultFromError(err)
	}

	if !crypto.Verify(stx.SenderPubKey, digest, stx.Signature) {
		vs.metrics.incFailed()
		return types.ResultFromError(types.Errorf(types.InvalidSignature, "signature verification failed for sender %s", stx.SenderPubKey))
	}

	txDigest := types.TransactionDigest(digest)
	if err := vs.store.InsertConfirmedTransaction(txDigest, blockDigest, index); err != nil {
		vs.metrics.incFailed()
		return types.ResultFromError(err)
	}

	if err := vs.router.HandleConsensusTransaction(tx); err != nil {
		vs.metrics.incFailed()
		return types.ResultFromError(err)
	}
	return types.ExecutionResult{}
}
