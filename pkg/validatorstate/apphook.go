package validatorstate

import (
	"crypto/sha256"
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/vaultline/spotchain/pkg/consensus"
	"github.com/vaultline/spotchain/pkg/types"
	"github.com/vaultline/spotchain/pkg/util"
)

// MaxBatchTransactions caps how many mempool entries PreparePayload packs
// into a single proposal.
const MaxBatchTransactions = 2000

// AppHook wires a ValidatorState into a consensus.Engine: it drains the
// mempool into proposals and executes committed blocks one transaction
// at a time, in order, exactly as spec.md §4.7 describes for a single
// consensus transaction.
type AppHook struct {
	State   *ValidatorState
	Mempool *Mempool
	Clock   util.Clock
	Logger  *zap.SugaredLogger

	// OnBlockSealed, if set, is invoked after every successful
	// WriteLatestBlock, e.g. to push the new BlockInfo to rpcapi's
	// WebSocket subscribers.
	OnBlockSealed func(types.BlockInfo)
}

// NewAppHook constructs an AppHook. clock defaults to util.RealClock{}
// if nil.
func NewAppHook(state *ValidatorState, mempool *Mempool, clock util.Clock, logger *zap.SugaredLogger) *AppHook {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &AppHook{State: state, Mempool: mempool, Clock: clock, Logger: logger}
}

// PreparePayload drains up to MaxBatchTransactions pending transactions
// from the mempool and frames them as the next block's payload.
func (h *AppHook) PreparePayload(parent consensus.Block, next consensus.Height) []byte {
	txs := h.Mempool.Drain(MaxBatchTransactions)
	return encodeBatch(txs)
}

// OnCommit executes every transaction in committed's payload against
// ValidatorState, seals the resulting block in the ValidatorStore, and
// returns a hash of the execution outcome for cross-validator AppHash
// comparison (spec.md §8 property 5: same input, same result everywhere).
func (h *AppHook) OnCommit(committed consensus.Block) consensus.Hash {
	txs, err := decodeBatch(committed.Payload)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Errorw("malformed block payload", "height", committed.Height, "err", err)
		}
		h.State.Halt()
		return consensus.Hash{}
	}

	blockDigest := types.BlockDigest(consensus.HashOfBlock(committed))
	executed := make([]types.ExecutedTransaction, 0, len(txs))
	for i, raw := range txs {
		idx := types.ConsensusIndex{
			CertificateIndex: uint64(committed.Height),
			TransactionIndex: uint64(i),
		}
		result := h.State.HandleConsensusTransaction(raw, idx, blockDigest)
		executed = append(executed, types.ExecutedTransaction{
			SignedTransactionBytes: raw,
			Result:                 result,
		})
		if types.IsInvariantViolation(resultError(result)) {
			if h.Logger != nil {
				h.Logger.Errorw("invariant violation, halting validator", "height", committed.Height, "tx_index", i, "message", result.Message)
			}
			h.State.Halt()
		}
	}

	block, info, err := h.State.Store().WriteLatestBlock(blockDigest, executed, uint64(h.Clock.Now().UnixMicro()))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Errorw("failed to seal block", "height", committed.Height, "err", err)
		}
		h.State.Halt()
		return consensus.Hash{}
	}
	if h.OnBlockSealed != nil {
		h.OnBlockSealed(info)
	}

	if depths := h.State.Router().ProcessEndOfBlock(block.BlockNumber); depths != nil {
		if err := h.State.Store().WriteOrderbookDepths(depths); err != nil {
			if h.Logger != nil {
				h.Logger.Errorw("failed to persist orderbook depth snapshot", "block_number", block.BlockNumber, "err", err)
			}
			h.State.Halt()
		} else if h.Logger != nil {
			h.Logger.Infow("orderbook_depth_snapshot", "block_number", block.BlockNumber, "pairs", len(depths))
		}
	}

	return appHashOf(block)
}

// resultError turns a non-ok ExecutionResult back into an error carrying
// its Kind, purely so IsInvariantViolation can inspect it.
func resultError(r types.ExecutionResult) error {
	if r.Ok() {
		return nil
	}
	return types.NewExecutionError(r.Kind, r.Message)
}

// appHashOf deterministically summarizes a sealed block's outcome: its
// number, digest, and every executed transaction's result kind, in
// order. Two validators that executed the same transactions in the same
// order always produce the same AppHash.
func appHashOf(b types.Block) consensus.Hash {
	h := sha256.New()
	var numBuf [8]byte
	binary.BigEndian.PutUint64(numBuf[:], b.BlockNumber)
	h.Write(numBuf[:])
	h.Write(b.CertificateDigest[:])
	for _, tx := range b.Executed {
		h.Write([]byte(tx.Result.Kind))
	}
	var out consensus.Hash
	copy(out[:], h.Sum(nil))
	return out
}
