package orderqueue

import "container/heap"

// maxPriceHeapIdx is a container/heap of distinct prices with the highest
// on top, used by the bid side. It tracks each price's array position so
// an arbitrary price can be removed via heap.Remove when its level empties.
type maxPriceHeapIdx struct {
	prices []uint64
	index  map[uint64]int
}

func (h *maxPriceHeapIdx) Len() int           { return len(h.prices) }
func (h *maxPriceHeapIdx) Less(i, j int) bool { return h.prices[i] > h.prices[j] }

func (h *maxPriceHeapIdx) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
	h.index[h.prices[i]] = i
	h.index[h.prices[j]] = j
}

func (h *maxPriceHeapIdx) Push(x any) {
	p := x.(uint64)
	h.index[p] = len(h.prices)
	h.prices = append(h.prices, p)
}

func (h *maxPriceHeapIdx) Pop() any {
	old := h.prices
	n := len(old)
	p := old[n-1]
	h.prices = old[:n-1]
	delete(h.index, p)
	return p
}

func (h *maxPriceHeapIdx) Peek() uint64 {
	if len(h.prices) == 0 {
		return 0
	}
	return h.prices[0]
}

func (h *maxPriceHeapIdx) Empty() bool { return len(h.prices) == 0 }

func (h *maxPriceHeapIdx) removePrice(p uint64) {
	idx, ok := h.index[p]
	if !ok {
		return
	}
	heap.Remove(h, idx)
}

// minPriceHeapIdx is the ask-side counterpart: lowest price on top.
type minPriceHeapIdx struct {
	prices []uint64
	index  map[uint64]int
}

func (h *minPriceHeapIdx) Len() int           { return len(h.prices) }
func (h *minPriceHeapIdx) Less(i, j int) bool { return h.prices[i] < h.prices[j] }

func (h *minPriceHeapIdx) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
	h.index[h.prices[i]] = i
	h.index[h.prices[j]] = j
}

func (h *minPriceHeapIdx) Push(x any) {
	p := x.(uint64)
	h.index[p] = len(h.prices)
	h.prices = append(h.prices, p)
}

func (h *minPriceHeapIdx) Pop() any {
	old := h.prices
	n := len(old)
	p := old[n-1]
	h.prices = old[:n-1]
	delete(h.index, p)
	return p
}

func (h *minPriceHeapIdx) Peek() uint64 {
	if len(h.prices) == 0 {
		return 0
	}
	return h.prices[0]
}

func (h *minPriceHeapIdx) Empty() bool { return len(h.prices) == 0 }

func (h *minPriceHeapIdx) removePrice(p uint64) {
	idx, ok := h.index[p]
	if !ok {
		return
	}
	heap.Remove(h, idx)
}
