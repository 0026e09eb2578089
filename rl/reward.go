package rl

const (
	FoodReward = 50.0
	MoveReward = -1.0
)

// Reward for a step given the food count before and after the action.
// The size of the increase does not matter.
func Reward(before, after int) float64 {
	if after > before {
		return FoodReward
	}
	return MoveReward
}

// Shaping is a constant bonus added on top of Reward depending on the action taken.
// The defaults favour turning right over turning left.
type Shaping struct {
	Forward float64 `mapstructure:"forward"`
	Left    float64 `mapstructure:"left"`
	Right   float64 `mapstructure:"right"`
}

func DefaultShaping() Shaping {
	return Shaping{Forward: 2, Left: 0, Right: 3}
}

func (s Shaping) Bonus(a Action) float64 {
	switch a {
	case Forward:
		return s.Forward
	case Left:
		return s.Left
	case Right:
		return s.Right
	}
	return 0
}
