package orderbook

import "github.com/vaultline/spotchain/pkg/types"

// MinSequenceID and MaxSequenceID bound the order-id space for every book.
const (
	MinSequenceID uint64 = 1
	MaxSequenceID uint64 = 1_000_000
)

// sequence hands out order ids in [MinSequenceID, MaxSequenceID], wrapping
// around but never a candidate that isLive reports as currently held by a
// live order.
type sequence struct {
	next uint64
}

func newSequence() *sequence {
	return &sequence{next: MinSequenceID}
}

func (s *sequence) nextID(isLive func(uint64) bool) (uint64, error) {
	span := MaxSequenceID - MinSequenceID + 1
	for i := uint64(0); i < span; i++ {
		candidate := s.next
		s.next++
		if s.next > MaxSequenceID {
			s.next = MinSequenceID
		}
		if !isLive(candidate) {
			return candidate, nil
		}
	}
	return 0, types.Errorf(types.InvariantViolation, "order id sequence exhausted: every id in [%d,%d] is live", MinSequenceID, MaxSequenceID)
}
