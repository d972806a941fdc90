package consensus

import (
	"context"
	"fmt"
	"sync"
)

// LoopbackNet is a single-process Network: it delivers every broadcast
// straight back to its own registered handlers, synchronously, instead
// of going out over a wire. It is the swappable stand-in used by
// cmd/validator's single-validator devnet, where quorum is trivially
// N=1/T=0 and there is no peer to actually talk to.
type LoopbackNet struct {
	mu       sync.Mutex
	handlers Handlers
	votes    map[voteKey][]Vote
}

type voteKey struct {
	view View
	hash Hash
}

// NewLoopbackNet constructs an empty LoopbackNet.
func NewLoopbackNet() *LoopbackNet {
	return &LoopbackNet{votes: make(map[voteKey][]Vote)}
}

func (n *LoopbackNet) SetHandlers(h Handlers) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = h
}

// BroadcastPropose delivers p to the local OnPropose handler inline: a
// single validator is both leader and the only follower.
func (n *LoopbackNet) BroadcastPropose(ctx context.Context, p Propose) error {
	n.mu.Lock()
	h := n.handlers
	n.mu.Unlock()
	if h.OnPropose != nil {
		h.OnPropose(ctx, p)
	}
	return nil
}

// BroadcastPrepare delivers cert to the local OnPrepare handler inline.
func (n *LoopbackNet) BroadcastPrepare(ctx context.Context, cert Certificate) error {
	n.mu.Lock()
	h := n.handlers
	n.mu.Unlock()
	if h.OnPrepare != nil {
		h.OnPrepare(ctx, cert, Block{})
	}
	return nil
}

// SendVote records v for a later CollectVotes call.
func (n *LoopbackNet) SendVote(ctx context.Context, to NodeID, v Vote) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := voteKey{view: v.View, hash: v.H}
	n.votes[key] = append(n.votes[key], v)
	return nil
}

// CollectVotes blocks until need votes for (view, h) have been recorded
// or ctx is done.
func (n *LoopbackNet) CollectVotes(ctx context.Context, view View, h Hash, need int) ([]Vote, error) {
	key := voteKey{view: view, hash: h}
	for {
		n.mu.Lock()
		votes := n.votes[key]
		n.mu.Unlock()
		if len(votes) >= need {
			return votes, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("loopback: collect votes: %w", ctx.Err())
		default:
		}
	}
}
