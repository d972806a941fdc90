// Package rpcapi exposes the core state machine over HTTP/WebSocket,
// mirroring the request-submission and read-side RPCs of spec.md §6.
package rpcapi

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/vaultline/spotchain/pkg/types"
	"github.com/vaultline/spotchain/pkg/validatorstate"
)

// Server is the HTTP front door onto a single validator's state.
type Server struct {
	state   *validatorstate.ValidatorState
	mempool *validatorstate.Mempool
	logger  *zap.SugaredLogger
	router  *mux.Router
	hub     *Hub
}

// NewServer wires a Server over a validator's state and the mempool its
// consensus AppHook drains proposals from.
func NewServer(state *validatorstate.ValidatorState, mempool *validatorstate.Mempool, logger *zap.SugaredLogger) *Server {
	s := &Server{
		state:   state,
		mempool: mempool,
		logger:  logger,
		router:  mux.NewRouter(),
		hub:     NewHub(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/transactions", s.handleSubmitTransaction).Methods("POST")
	v1.HandleFunc("/blocks/latest", s.handleGetLatestBlockInfo).Methods("GET")
	v1.HandleFunc("/blocks/{number}/info", s.handleGetBlockInfo).Methods("GET")
	v1.HandleFunc("/blocks/{number}", s.handleGetBlock).Methods("GET")
	v1.HandleFunc("/orderbooks/{base}/{quote}/depth", s.handleGetLatestOrderbookDepth).Methods("GET")
	v1.HandleFunc("/metrics", s.handleGetLatestMetrics).Methods("GET")

	s.router.HandleFunc("/v1/transactions/stream", s.handleSubmitTransactionStream)
	s.router.HandleFunc("/v1/blocks/stream", s.handleBlockStream)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the CORS-wrapped http.Handler to pass to http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(s.router)
}

// ListenAndServe starts the hub's broadcast loop and serves HTTP on addr.
func (s *Server) ListenAndServe(addr string) error {
	go s.hub.Run()
	if s.logger != nil {
		s.logger.Infow("rpcapi listening", "addr", addr)
	}
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubmitTransaction implements SubmitTransaction(SignedTransaction) -> Empty:
// it only validates hex-decodability and enqueues into the mempool. The
// transaction's actual ExecutionResult is only known once it is committed
// and executed; callers poll GetBlock/GetBlockInfo for that.
func (s *Server) handleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var req SubmitTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	raw, err := hex.DecodeString(req.SignedTransactionHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hex encoding", err)
		return
	}
	s.mempool.Submit(raw)
	writeJSON(w, http.StatusAccepted, SubmitTransactionResponse{Accepted: true})
}

// handleSubmitTransactionStream implements SubmitTransactionStream(stream
// SignedTransaction) -> Empty over a WebSocket connection: every text
// frame received is hex-decoded and submitted; the connection is closed
// once the client disconnects. There is no per-transaction ack, matching
// the streaming RPC's single trailing Empty.
func (s *Server) handleSubmitTransactionStream(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warnw("websocket upgrade failed", "err", err)
		}
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		raw, err := hex.DecodeString(string(msg))
		if err != nil {
			continue
		}
		s.mempool.Submit(raw)
	}
}

// handleBlockStream registers a WebSocket client to receive a JSON
// BlockInfo push every time NotifyBlockCommitted is called. It never
// reads from the connection beyond detecting its close.
func (s *Server) handleBlockStream(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warnw("websocket upgrade failed", "err", err)
		}
		return
	}
	s.hub.register(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.unregister(conn)
			return
		}
	}
}

// NotifyBlockCommitted pushes info to every subscribed /v1/blocks/stream
// client. The caller (typically the consensus AppHook, after sealing a
// block) is responsible for invoking this once per committed block.
func (s *Server) NotifyBlockCommitted(info types.BlockInfo) {
	data, err := json.Marshal(toBlockInfo(info))
	if err != nil {
		return
	}
	s.hub.Broadcast(data)
}

func (s *Server) handleGetLatestBlockInfo(w http.ResponseWriter, r *http.Request) {
	info, ok, err := s.state.Store().GetLatestBlockInfo()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store error", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, BlockInfoResponse{Successful: false})
		return
	}
	writeJSON(w, http.StatusOK, BlockInfoResponse{Successful: true, BlockInfo: toBlockInfo(info)})
}

func (s *Server) handleGetBlockInfo(w http.ResponseWriter, r *http.Request) {
	number, err := blockNumberParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid block number", err)
		return
	}
	info, ok, err := s.state.Store().GetBlockInfo(number)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store error", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, BlockInfoResponse{Successful: false})
		return
	}
	writeJSON(w, http.StatusOK, BlockInfoResponse{Successful: true, BlockInfo: toBlockInfo(info)})
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	number, err := blockNumberParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid block number", err)
		return
	}
	block, ok, err := s.state.Store().GetBlock(number)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store error", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, BlockResponse{Successful: false})
		return
	}
	writeJSON(w, http.StatusOK, BlockResponse{Successful: true, Block: toBlock(block)})
}

func (s *Server) handleGetLatestOrderbookDepth(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	base, err := strconv.ParseUint(vars["base"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base asset id", err)
		return
	}
	quote, err := strconv.ParseUint(vars["quote"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quote asset id", err)
		return
	}
	depth := 0
	if v := r.URL.Query().Get("depth"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid depth", err)
			return
		}
		depth = parsed
	}

	bids, err := s.state.Router().Spot.BidLevels(types.AssetId(base), types.AssetId(quote))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown orderbook", err)
		return
	}
	asks, err := s.state.Router().Spot.AskLevels(types.AssetId(base), types.AssetId(quote))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown orderbook", err)
		return
	}
	writeJSON(w, http.StatusOK, OrderbookDepthResponse{
		Bids: truncateLevels(bids, depth),
		Asks: truncateLevels(asks, depth),
	})
}

func (s *Server) handleGetLatestMetrics(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Metrics()
	writeJSON(w, http.StatusOK, MetricsResponse{
		AverageLatencyMicros: snap.AverageLatencyMicros,
		AverageTPS:           snap.AverageTPS,
		TransactionsExecuted: snap.TransactionsExecuted,
		TransactionsFailed:   snap.TransactionsFailed,
	})
}

func blockNumberParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["number"], 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Message: message})
}
