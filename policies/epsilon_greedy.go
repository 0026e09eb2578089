package policies

import (
	"golang.org/x/exp/rand"
)

// EpsilonGreedy picks a uniformly random action with probability epsilon
// and the greedy action otherwise. It never modifies the table.
type EpsilonGreedy struct {
	rand *rand.Rand
}

func NewEpsilonGreedy(seed uint64) *EpsilonGreedy {
	return &EpsilonGreedy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// NextAction for the given state, epsilon is expected in [0, 1]
func (e *EpsilonGreedy) NextAction(table *QTable, state int, epsilon float64) int {
	if e.rand.Float64() < epsilon {
		return e.rand.Intn(table.Actions())
	}
	return Greedy(table, state)
}

// Greedy returns the action with the highest value, lowest id on ties
func Greedy(table *QTable, state int) int {
	action, _ := table.Max(state)
	return action
}
