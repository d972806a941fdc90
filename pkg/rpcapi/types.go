package rpcapi

// API response/request types for the REST and WebSocket surfaces of
// spec.md §6 ("External interfaces"). These are thin JSON renderings of
// the underlying types.Block/BlockInfo/ExecutionResult values; the wire
// protocol the core actually signs and executes stays the hand-rolled
// protobuf format in pkg/types.

// SubmitTransactionRequest carries one hex-encoded wire-marshaled
// SignedTransaction.
type SubmitTransactionRequest struct {
	SignedTransactionHex string `json:"signedTransactionHex"`
}

// SubmitTransactionResponse acknowledges mempool admission. It is not the
// execution result: execution happens later, at block-commit time.
type SubmitTransactionResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// BlockInfoResponse mirrors spec.md §6's BlockInfoResponse{successful, block_info}.
type BlockInfoResponse struct {
	Successful bool       `json:"successful"`
	BlockInfo  *BlockInfo `json:"blockInfo,omitempty"`
}

// BlockInfo is the JSON rendering of types.BlockInfo.
type BlockInfo struct {
	BlockNumber     uint64 `json:"blockNumber"`
	BlockDigestHex  string `json:"blockDigestHex"`
	WallClockMicros uint64 `json:"wallClockMicros"`
}

// BlockResponse mirrors spec.md §6's BlockResponse{successful, block bytes}.
type BlockResponse struct {
	Successful bool   `json:"successful"`
	Block      *Block `json:"block,omitempty"`
}

// Block is the JSON rendering of types.Block.
type Block struct {
	BlockNumber        uint64              `json:"blockNumber"`
	CertificateDigestHex string            `json:"certificateDigestHex"`
	Executed           []ExecutedTransaction `json:"executed"`
}

// ExecutedTransaction is the JSON rendering of one types.ExecutedTransaction.
type ExecutedTransaction struct {
	SignedTransactionHex string `json:"signedTransactionHex"`
	ResultKind           string `json:"resultKind,omitempty"`
	ResultMessage        string `json:"resultMessage,omitempty"`
}

// PriceLevel is a single [price, quantity] row of a depth snapshot.
type PriceLevel struct {
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// OrderbookDepthResponse mirrors GetLatestOrderbookDepth's {bids[], asks[]}.
type OrderbookDepthResponse struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// MetricsResponse mirrors GetLatestMetrics's
// {average_latency_micros, average_tps}.
type MetricsResponse struct {
	AverageLatencyMicros uint64  `json:"averageLatencyMicros"`
	AverageTPS           float64 `json:"averageTps"`
	TransactionsExecuted uint64  `json:"transactionsExecuted"`
	TransactionsFailed   uint64  `json:"transactionsFailed"`
}

// ErrorResponse is returned for all handler errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
