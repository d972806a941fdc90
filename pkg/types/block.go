package types

// TransactionDigest identifies a SignedTransaction by the BLAKE2b-256
// digest of its inner Transaction (Transaction.Digest).
type TransactionDigest [32]byte

// BlockDigest identifies a sealed block by the digest of its consensus
// certificate.
type BlockDigest [32]byte

// ConsensusIndex is a transaction's position in the total order handed
// down by the external BFT layer.
type ConsensusIndex struct {
	CertificateIndex uint64
	BatchIndex       uint64
	TransactionIndex uint64
}

// ExecutionResult is the single outcome every executed transaction
// produces: either an empty Kind (success) or the ErrorKind it failed with, plus
// a human-readable message for logs/RPC.
type ExecutionResult struct {
	Kind    ErrorKind
	Message string
}

// Ok reports whether the transaction executed without error.
func (r ExecutionResult) Ok() bool { return r.Kind == "" }

// ResultFromError converts the error returned by a controller call into
// an ExecutionResult, preserving its ErrorKind when it is tagged.
func ResultFromError(err error) ExecutionResult {
	if err == nil {
		return ExecutionResult{}
	}
	kind := KindOf(err)
	if kind == "" {
		kind = InvariantViolation
	}
	return ExecutionResult{Kind: kind, Message: err.Error()}
}

// ExecutedTransaction pairs a committed transaction's wire bytes with
// the result of executing it, the unit Block stores per spec.md §3.
type ExecutedTransaction struct {
	SignedTransactionBytes []byte
	Result                 ExecutionResult
}

// Block is the sealed record of one consensus round: the certificate
// that ordered it and every transaction executed under that order.
type Block struct {
	BlockNumber       uint64
	CertificateDigest BlockDigest
	Executed          []ExecutedTransaction
}

// BlockInfo is the lightweight index entry written alongside each Block,
// and the sole piece of state read back on restart to rehydrate the
// block-number counter.
type BlockInfo struct {
	BlockNumber     uint64
	BlockDigest     BlockDigest
	WallClockMicros uint64
}
