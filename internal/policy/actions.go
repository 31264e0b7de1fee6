package policy

import "fmt"

// ActionSet maps between learner action indices (positions in the value
// vector) and the environment's action IDs, which are usually sparse.
type ActionSet struct {
	ids     []int
	indexOf map[int]int
}

// NewActionSet builds the mapping from the environment's legal action IDs,
// in learner-index order.
func NewActionSet(ids []int) (*ActionSet, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("policy: action set requires at least one action")
	}
	indexOf := make(map[int]int, len(ids))
	for i, id := range ids {
		if _, dup := indexOf[id]; dup {
			return nil, fmt.Errorf("policy: duplicate action id %d", id)
		}
		indexOf[id] = i
	}
	return &ActionSet{ids: append([]int(nil), ids...), indexOf: indexOf}, nil
}

// Len returns the number of legal actions.
func (a *ActionSet) Len() int {
	return len(a.ids)
}

// ID converts a learner index to the environment action ID.
func (a *ActionSet) ID(index int) (int, error) {
	if index < 0 || index >= len(a.ids) {
		return 0, fmt.Errorf("policy: action index %d out of range [0, %d)", index, len(a.ids))
	}
	return a.ids[index], nil
}

// Index converts an environment action ID to its learner index.
func (a *ActionSet) Index(id int) (int, bool) {
	i, ok := a.indexOf[id]
	return i, ok
}

// Select runs the policy over the value vector and returns the chosen
// environment action ID.
func (a *ActionSet) Select(p Policy, values []float32) (int, error) {
	if len(values) != len(a.ids) {
		return 0, fmt.Errorf("policy: value vector length %d does not match %d legal actions", len(values), len(a.ids))
	}
	return a.ID(p.SelectAction(values))
}
