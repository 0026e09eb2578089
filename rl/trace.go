package rl

// Step is one transition observed by the loop
type Step struct {
	Iteration int     `json:"iteration"`
	State     int     `json:"state"`
	Action    Action  `json:"action"`
	Reward    float64 `json:"reward"`
	NextState int     `json:"next_state"`
	Epsilon   float64 `json:"epsilon"`
	Food      int     `json:"food"`
}

// Trace of an episode as a sequence of steps
type Trace struct {
	steps []Step
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]Step, 0),
	}
}

func (t *Trace) Append(s Step) {
	t.steps = append(t.steps, s)
}

func (t *Trace) Len() int {
	return len(t.steps)
}

func (t *Trace) Get(i int) (Step, bool) {
	if i < 0 || i >= len(t.steps) {
		return Step{}, false
	}
	return t.steps[i], true
}

func (t *Trace) Last() (Step, bool) {
	return t.Get(len(t.steps) - 1)
}

// Return is the undiscounted sum of rewards
func (t *Trace) Return() float64 {
	sum := 0.0
	for _, s := range t.steps {
		sum += s.Reward
	}
	return sum
}

func (t *Trace) Slice(from, to int) *Trace {
	sliced := NewTrace()
	for i := from; i < to && i < len(t.steps); i++ {
		sliced.Append(t.steps[i])
	}
	return sliced
}

// Episode summarizes a finished (or interrupted) episode
type Episode struct {
	Number int     `json:"episode"`
	Steps  int     `json:"steps"`
	Food   int     `json:"food"`
	Return float64 `json:"return"`
	// Global iteration at which the episode ended
	EndIteration int    `json:"end_iteration"`
	Trace        *Trace `json:"-"`
}

// Recorder observes the loop, analysis.Recorder implements it
type Recorder interface {
	RecordStep(Step)
	RecordEpisode(Episode)
}
