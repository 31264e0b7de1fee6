package policy

import (
	"fmt"
	"math/rand"
)

// schedule linearly anneals an exploration parameter from start to end over
// a fixed number of Anneal calls, then clamps at end.
type schedule struct {
	value float64
	floor float64
	step  float64
}

func newSchedule(start, end float64, steps int) (schedule, error) {
	if steps < 2 {
		return schedule{}, fmt.Errorf("policy: anneal steps must be >= 2, got %d", steps)
	}
	if end > start {
		return schedule{}, fmt.Errorf("policy: anneal end %v exceeds start %v", end, start)
	}
	return schedule{
		value: start,
		floor: end,
		step:  (start - end) / float64(steps-1),
	}, nil
}

func (s *schedule) anneal() {
	s.value -= s.step
	if s.value < s.floor {
		s.value = s.floor
	}
}

// EpsilonGreedy selects the greedy action except with probability epsilon,
// where it picks a uniformly random action instead. Epsilon anneals linearly
// toward its floor as training progresses.
type EpsilonGreedy struct {
	rng        *rand.Rand
	sched      schedule
	numActions int

	randomCount int
	actionCount int
}

// NewEpsilonGreedy creates an epsilon-greedy policy annealing epsilon from
// start to end over steps calls to Anneal.
func NewEpsilonGreedy(start, end float64, steps, numActions int, rng *rand.Rand) (*EpsilonGreedy, error) {
	if numActions <= 0 {
		return nil, fmt.Errorf("policy: numActions must be positive, got %d", numActions)
	}
	if start < 0 || start > 1 || end < 0 {
		return nil, fmt.Errorf("policy: epsilon range [%v, %v] outside [0, 1]", end, start)
	}
	sched, err := newSchedule(start, end, steps)
	if err != nil {
		return nil, err
	}
	return &EpsilonGreedy{rng: rng, sched: sched, numActions: numActions}, nil
}

// SelectAction implements Policy.
func (p *EpsilonGreedy) SelectAction(values []float32) int {
	p.actionCount++
	if p.rng.Float64() <= p.sched.value {
		p.randomCount++
		return p.rng.Intn(p.numActions)
	}
	return Argmax(values)
}

// Anneal moves epsilon one step toward its floor.
func (p *EpsilonGreedy) Anneal() {
	p.sched.anneal()
}

// Epsilon returns the current exploration probability.
func (p *EpsilonGreedy) Epsilon() float64 {
	return p.sched.value
}

// RandomActions returns how many selections were exploratory.
func (p *EpsilonGreedy) RandomActions() int {
	return p.randomCount
}

// ActionsTaken returns the total number of selections made.
func (p *EpsilonGreedy) ActionsTaken() int {
	return p.actionCount
}

// NoisyValues perturbs the value vector with gaussian noise before taking
// the argmax, an alternative exploration scheme to epsilon-greedy. The noise
// scale anneals linearly toward its floor.
type NoisyValues struct {
	rng   *rand.Rand
	sched schedule
}

// NewNoisyValues creates a noisy-values policy annealing the noise scale
// from start to end over steps calls to Anneal.
func NewNoisyValues(start, end float64, steps int, rng *rand.Rand) (*NoisyValues, error) {
	sched, err := newSchedule(start, end, steps)
	if err != nil {
		return nil, err
	}
	return &NoisyValues{rng: rng, sched: sched}, nil
}

// SelectAction implements Policy.
func (p *NoisyValues) SelectAction(values []float32) int {
	noisy := make([]float32, len(values))
	for i, v := range values {
		noisy[i] = v + float32(p.rng.NormFloat64()*p.sched.value)
	}
	return Argmax(noisy)
}

// Anneal moves the noise scale one step toward its floor.
func (p *NoisyValues) Anneal() {
	p.sched.anneal()
}

// Scale returns the current noise scale.
func (p *NoisyValues) Scale() float64 {
	return p.sched.value
}
