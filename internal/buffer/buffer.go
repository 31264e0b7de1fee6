// Package buffer implements the bounded, insertion-ordered transition store
// backing the replay sampler.
package buffer

import (
	"fmt"
	"math/rand"
)

// Transition is a single (state, action, reward) tuple produced by an agent
// step. The successor state is not stored per transition; it is the state of
// the next buffer index, which is why insertion order must be preserved.
type Transition struct {
	State  []float32 `json:"state"`
	Action int       `json:"action"`
	Reward float32   `json:"reward"`
}

// Buffer is a fixed-capacity transition store addressed by absolute indices.
// Indices increase monotonically for the lifetime of the buffer and are never
// reused: trimming advances the start offset instead of shifting entries, so
// a reference to a discarded transition stays identifiable as stale rather
// than silently aliasing a newer one.
type Buffer struct {
	capacity    int
	start       int // absolute index of the oldest retained transition
	transitions []Transition
	terminals   map[int]struct{} // absolute indices whose episode ends there
}

// New creates a buffer holding at most capacity transitions.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer: capacity must be positive, got %d", capacity)
	}
	return &Buffer{
		capacity:  capacity,
		terminals: make(map[int]struct{}),
	}, nil
}

// Add appends a transition and returns its absolute index. The buffer may
// temporarily exceed capacity; callers restore the bound with Trim.
func (b *Buffer) Add(state []float32, action int, reward float32) int {
	idx := b.start + len(b.transitions)
	b.transitions = append(b.transitions, Transition{State: state, Action: action, Reward: reward})
	return idx
}

// MarkTerminal flags the newest transition as the end of its episode and
// returns its index. Returns false on an empty buffer.
func (b *Buffer) MarkTerminal() (int, bool) {
	if len(b.transitions) == 0 {
		return 0, false
	}
	idx := b.start + len(b.transitions) - 1
	b.terminals[idx] = struct{}{}
	return idx, true
}

// Trim discards oldest transitions until length <= capacity and returns the
// number discarded. Terminal markers for discarded indices are dropped with
// them; outstanding references elsewhere become stale.
func (b *Buffer) Trim() int {
	excess := len(b.transitions) - b.capacity
	if excess <= 0 {
		return 0
	}
	for i := b.start; i < b.start+excess; i++ {
		delete(b.terminals, i)
	}
	b.transitions = b.transitions[excess:]
	b.start += excess
	return excess
}

// At returns the transition at an absolute index. ok is false for indices
// that were trimmed away or never assigned.
func (b *Buffer) At(index int) (Transition, bool) {
	if !b.Contains(index) {
		return Transition{}, false
	}
	return b.transitions[index-b.start], true
}

// Retrieve returns the transition at index together with its successor
// state and terminal flag. next is nil when the transition is terminal or
// its successor has not been appended yet; ok is false for stale indices.
func (b *Buffer) Retrieve(index int) (tr Transition, next []float32, terminal, ok bool) {
	tr, ok = b.At(index)
	if !ok {
		return Transition{}, nil, false, false
	}
	if b.IsTerminal(index) {
		return tr, nil, true, true
	}
	if succ, found := b.At(index + 1); found {
		next = succ.State
	}
	return tr, next, false, true
}

// Contains reports whether index refers to a retained transition.
func (b *Buffer) Contains(index int) bool {
	return index >= b.start && index < b.start+len(b.transitions)
}

// IsTerminal reports whether the transition at index ends its episode.
func (b *Buffer) IsTerminal(index int) bool {
	_, ok := b.terminals[index]
	return ok
}

// Random returns a uniformly chosen retained transition and its index.
// Returns false on an empty buffer.
func (b *Buffer) Random(rng *rand.Rand) (int, Transition, bool) {
	if len(b.transitions) == 0 {
		return 0, Transition{}, false
	}
	i := rng.Intn(len(b.transitions))
	return b.start + i, b.transitions[i], true
}

// Len returns the number of retained transitions.
func (b *Buffer) Len() int {
	return len(b.transitions)
}

// Capacity returns the configured maximum length.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Start returns the absolute index of the oldest retained transition.
func (b *Buffer) Start() int {
	return b.start
}

// End returns one past the absolute index of the newest transition.
func (b *Buffer) End() int {
	return b.start + len(b.transitions)
}

// Rewards returns a snapshot of retained rewards, oldest first.
func (b *Buffer) Rewards() []float64 {
	out := make([]float64, len(b.transitions))
	for i, tr := range b.transitions {
		out[i] = float64(tr.Reward)
	}
	return out
}
