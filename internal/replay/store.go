// Package replay composes the priority tree and the experience buffer into
// the prioritized sampler consumed by a training loop.
package replay

import (
	"fmt"
	"math"

	"github.com/cartridge/experience/internal/buffer"
	"github.com/cartridge/experience/internal/tree"
)

// Batch holds one sampled mini-batch as parallel arrays. NextStates is
// zero-filled where Terminals is true. Indices lists the buffer indices the
// entries were resolved from; the training step must report refined
// priorities back through UpdatePriorities using exactly these indices.
type Batch struct {
	States     [][]float32 `json:"states"`
	Actions    []int       `json:"actions"`
	Rewards    []float32   `json:"rewards"`
	NextStates [][]float32 `json:"next_states"`
	Terminals  []bool      `json:"terminals"`
	Indices    []int       `json:"indices"`
}

// Len returns the number of transitions in the batch.
func (b *Batch) Len() int {
	return len(b.Indices)
}

// Store is the prioritized experience store. Every transition enters the
// tree at +Inf priority so it is guaranteed to be sampled at least once;
// sampling removes entries from the tree, and they only become eligible
// again when the training step reinserts them with a computed priority.
//
// The store is not safe for concurrent use; callers that share it across
// goroutines must serialize access (see service.Sampler).
type Store struct {
	buf      *buffer.Buffer
	tree     *tree.Tree
	treeSize int
	stale    uint64 // cumulative stale entries skipped during sampling
}

// New creates a store bounded to capacity transitions.
func New(capacity int) (*Store, error) {
	buf, err := buffer.New(capacity)
	if err != nil {
		return nil, err
	}
	return &Store{buf: buf, tree: tree.New()}, nil
}

// Add appends a transition and returns its buffer index. The index
// registered for sampling is the predecessor's, not the new one: an entry is
// only eligible once the transition after it exists to serve as the
// successor state. The predecessor is skipped when it is no longer resident
// or when it is terminal (terminal indices are registered by AddTerminal).
func (s *Store) Add(state []float32, action int, reward float32) int {
	idx := s.buf.Add(state, action, reward)
	prev := idx - 1
	if prev >= 0 && s.buf.Contains(prev) && !s.buf.IsTerminal(prev) {
		s.tree.Insert(math.Inf(1), prev)
		s.treeSize++
	}
	return idx
}

// AddTerminal marks the newest transition as the end of its episode and
// registers it for sampling immediately; a terminal entry needs no
// successor. Returns false when the buffer is empty.
func (s *Store) AddTerminal() (int, bool) {
	idx, ok := s.buf.MarkTerminal()
	if !ok {
		return 0, false
	}
	s.tree.Insert(math.Inf(1), idx)
	s.treeSize++
	return idx, true
}

// Sample draws up to n transitions in descending priority order. It returns
// nil when the buffer does not yet hold more than n transitions; callers
// poll until enough experience accumulates. Popped entries leave the tree
// and are not drawn again until reinserted via UpdatePriorities.
//
// Entries whose buffer index was trimmed away are skipped silently; if the
// tree runs dry mid-assembly the partial batch is returned.
func (s *Store) Sample(n int) *Batch {
	if n <= 0 || s.buf.Len() <= n {
		return nil
	}

	batch := &Batch{
		States:     make([][]float32, 0, n),
		Actions:    make([]int, 0, n),
		Rewards:    make([]float32, 0, n),
		NextStates: make([][]float32, 0, n),
		Terminals:  make([]bool, 0, n),
		Indices:    make([]int, 0, n),
	}

	for len(batch.Indices) < n && s.treeSize > 0 {
		_, idx := s.tree.PopMax()
		s.treeSize--

		tr, ok := s.buf.At(idx)
		if !ok {
			s.stale++
			continue
		}

		var next []float32
		terminal := s.buf.IsTerminal(idx)
		if terminal {
			next = make([]float32, len(tr.State))
		} else {
			succ, ok := s.buf.At(idx + 1)
			if !ok {
				// Registered without a successor and not terminal: only
				// reachable through a caller-supplied index, treat as stale.
				s.stale++
				continue
			}
			next = succ.State
		}

		batch.States = append(batch.States, tr.State)
		batch.Actions = append(batch.Actions, tr.Action)
		batch.Rewards = append(batch.Rewards, tr.Reward)
		batch.NextStates = append(batch.NextStates, next)
		batch.Terminals = append(batch.Terminals, terminal)
		batch.Indices = append(batch.Indices, idx)
	}

	if len(batch.Indices) == 0 {
		return nil
	}
	return batch
}

// UpdatePriorities reinserts sampled entries with their freshly computed
// priorities (typically |TD-error|). Indices pointing at trimmed-away
// transitions are still inserted and get skipped on the next draw, the same
// path any reference outliving a trim takes.
func (s *Store) UpdatePriorities(priorities []float64, indices []int) error {
	if len(priorities) != len(indices) {
		return fmt.Errorf("replay: mismatched lengths: %d priorities vs %d indices", len(priorities), len(indices))
	}
	for i, idx := range indices {
		s.tree.Insert(priorities[i], idx)
		s.treeSize++
	}
	return nil
}

// Trim restores the buffer's capacity bound, discarding oldest transitions.
// Tree entries referencing discarded indices become stale and are skipped
// during sampling. Returns the number of transitions discarded.
func (s *Store) Trim() int {
	return s.buf.Trim()
}

// Len returns the number of retained transitions.
func (s *Store) Len() int {
	return s.buf.Len()
}

// Capacity returns the configured buffer bound.
func (s *Store) Capacity() int {
	return s.buf.Capacity()
}

// TreeSize returns the number of entries currently eligible for sampling.
func (s *Store) TreeSize() int {
	return s.treeSize
}

// TreeDepth returns the current depth of the priority tree.
func (s *Store) TreeDepth() int {
	return s.tree.Depth()
}

// StaleSkipped returns the cumulative count of stale entries skipped during
// sampling.
func (s *Store) StaleSkipped() uint64 {
	return s.stale
}

// Rewards returns a snapshot of retained rewards, oldest first.
func (s *Store) Rewards() []float64 {
	return s.buf.Rewards()
}
