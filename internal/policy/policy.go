// Package policy provides action selection strategies over learner
// action-value vectors.
package policy

// Policy interface for action selection. Implementations map a vector of
// action values (one per legal action) to the index of the chosen action.
type Policy interface {
	SelectAction(values []float32) int
}

// Argmax returns the index of the first maximum in values, -1 for an empty
// vector.
func Argmax(values []float32) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
