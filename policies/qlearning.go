package policies

// QLearning holds the hyper parameters of the tabular update
type QLearning struct {
	// learning rate
	Alpha float64
	// discount factor
	Gamma float64
}

func DefaultQLearning() QLearning {
	return QLearning{Alpha: 0.8, Gamma: 0.95}
}

// Target computes (1-alpha)*old + alpha*(reward + gamma*nextMax)
func (l QLearning) Target(old, reward, nextMax float64) float64 {
	return (1-l.Alpha)*old + l.Alpha*(reward+l.Gamma*nextMax)
}

// Update applies the Q-learning rule to table[state][action] and returns the new value.
// The next state maximum is read before writing, so state == next is fine.
func (l QLearning) Update(table *QTable, state, action int, reward float64, next int) (float64, error) {
	if err := table.Check(state, action); err != nil {
		return 0, err
	}
	if err := table.Check(next, 0); err != nil {
		return 0, err
	}
	_, nextMax := table.Max(next)
	updated := l.Target(table.Get(state, action), reward, nextMax)
	table.Set(state, action, updated)
	return updated, nil
}
