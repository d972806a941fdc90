package validatorstate

import "sync"

// Mempool is the FIFO staging area AppHook.PreparePayload drains from.
// It holds raw wire-encoded SignedTransaction bytes, unparsed: classifying
// and executing them is ValidatorState's job, not the mempool's.
type Mempool struct {
	mu      sync.Mutex
	pending [][]byte
}

// NewMempool constructs an empty mempool.
func NewMempool() *Mempool {
	return &Mempool{}
}

// Submit enqueues a raw signed transaction for the next proposal.
func (m *Mempool) Submit(raw []byte) {
	cp := append([]byte(nil), raw...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, cp)
}

// Drain removes and returns up to maxCount pending transactions, oldest
// first. A maxCount of 0 means unbounded.
func (m *Mempool) Drain(maxCount int) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if maxCount <= 0 || maxCount >= len(m.pending) {
		out := m.pending
		m.pending = nil
		return out
	}
	out := m.pending[:maxCount]
	m.pending = m.pending[maxCount:]
	return out
}

// Len reports the number of pending transactions.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
