package rpcapi

import (
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vaultline/spotchain/pkg/orderqueue"
	"github.com/vaultline/spotchain/pkg/types"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans committed-block notifications out to subscribed WebSocket
// clients, mirroring the teacher's broadcast-channel pattern.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	publish chan []byte
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		publish: make(chan []byte, 256),
	}
}

// Run drains the publish channel and fans messages out to every
// registered client, dropping any client whose write fails.
func (h *Hub) Run() {
	for msg := range h.publish {
		h.mu.RLock()
		for conn := range h.clients {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				go h.unregister(conn)
			}
		}
		h.mu.RUnlock()
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Broadcast queues msg for every connected client; when 256 messages are
// already queued, msg is dropped.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.publish <- msg:
	default:
	}
}

func toBlockInfo(info types.BlockInfo) *BlockInfo {
	return &BlockInfo{
		BlockNumber:     info.BlockNumber,
		BlockDigestHex:  hex.EncodeToString(info.BlockDigest[:]),
		WallClockMicros: info.WallClockMicros,
	}
}

func toBlock(b types.Block) *Block {
	executed := make([]ExecutedTransaction, 0, len(b.Executed))
	for _, tx := range b.Executed {
		executed = append(executed, ExecutedTransaction{
			SignedTransactionHex: hex.EncodeToString(tx.SignedTransactionBytes),
			ResultKind:           string(tx.Result.Kind),
			ResultMessage:        tx.Result.Message,
		})
	}
	return &Block{
		BlockNumber:          b.BlockNumber,
		CertificateDigestHex: hex.EncodeToString(b.CertificateDigest[:]),
		Executed:             executed,
	}
}

func truncateLevels(levels []orderqueue.PriceLevel, depth int) []PriceLevel {
	if depth > 0 && depth < len(levels) {
		levels = levels[:depth]
	}
	out := make([]PriceLevel, len(levels))
	for i, lvl := range levels {
		out[i] = PriceLevel{Price: lvl.Price, Quantity: lvl.Quantity}
	}
	return out
}
