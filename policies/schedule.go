package policies

import "math"

// ExponentialSchedule decays the exploration rate from Start towards End,
// eps(i) = End + (Start - End) * exp(-i / Decay)
type ExponentialSchedule struct {
	Start float64 `mapstructure:"start"`
	End   float64 `mapstructure:"end"`
	Decay float64 `mapstructure:"decay"`
}

func DefaultSchedule() ExponentialSchedule {
	return ExponentialSchedule{
		Start: 0.9,
		End:   0.05,
		Decay: 3000,
	}
}

// Epsilon at iteration i
func (e ExponentialSchedule) Epsilon(i int) float64 {
	if e.Decay <= 0 {
		return e.End
	}
	return e.End + (e.Start-e.End)*math.Exp(-1*float64(i)/e.Decay)
}
