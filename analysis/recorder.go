// Package analysis records learning progress and plots it
package analysis

import (
	"fmt"
	"path/filepath"
	"sync"

	vfs "github.com/twpayne/go-vfs"
	"github.com/zeu5/forage-rl/rl"
	"github.com/zeu5/forage-rl/types"
	"github.com/zeu5/forage-rl/util"
)

const (
	EpisodesFile = "episodes.jsonl"
	StepsFile    = "steps.jsonl"
)

// Recorder keeps every step in memory for plotting and appends finished
// episodes to dir/episodes.jsonl as they happen
type Recorder struct {
	fs       vfs.FS
	dir      string
	logger   types.Logger
	logSteps bool

	lock     *sync.Mutex
	steps    []rl.Step
	episodes []rl.Episode
}

var _ rl.Recorder = &Recorder{}

// NewRecorder writing under dir, with logSteps every step is also appended
// to dir/steps.jsonl
func NewRecorder(fs vfs.FS, dir string, logSteps bool, logger types.Logger) *Recorder {
	if fs == nil {
		fs = vfs.OSFS
	}
	if logger == nil {
		logger = types.NewNullLogger()
	}
	return &Recorder{
		fs:       fs,
		dir:      dir,
		logger:   logger,
		logSteps: logSteps,
		lock:     new(sync.Mutex),
		steps:    make([]rl.Step, 0),
		episodes: make([]rl.Episode, 0),
	}
}

// RecordStep never fails the loop, write errors are logged
func (r *Recorder) RecordStep(s rl.Step) {
	r.lock.Lock()
	r.steps = append(r.steps, s)
	r.lock.Unlock()
	if r.logSteps {
		if err := util.AppendJSONLine(r.fs, filepath.Join(r.dir, StepsFile), s); err != nil {
			r.logger.Warnf("Failed to record step %d: %s", s.Iteration, err)
		}
	}
}

func (r *Recorder) RecordEpisode(e rl.Episode) {
	r.lock.Lock()
	r.episodes = append(r.episodes, e)
	r.lock.Unlock()
	if err := util.AppendJSONLine(r.fs, filepath.Join(r.dir, EpisodesFile), e); err != nil {
		r.logger.Warnf("Failed to record episode %d: %s", e.Number, err)
	}
	r.logger.WithField("episode", e.Number).Infof("Episode finished after %d steps with %d food, return %.1f", e.Steps, e.Food, e.Return)
}

func (r *Recorder) Steps() []rl.Step {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]rl.Step, len(r.steps))
	copy(out, r.steps)
	return out
}

func (r *Recorder) Episodes() []rl.Episode {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]rl.Episode, len(r.episodes))
	copy(out, r.episodes)
	return out
}

// Summary of the recorded run
type Summary struct {
	Steps        int
	Episodes     int
	TotalFood    int
	MeanReturn   float64
	MeanSteps    float64
	FinalEpsilon float64
}

func (s Summary) String() string {
	return fmt.Sprintf("steps=%d episodes=%d food=%d mean_return=%.2f mean_episode_length=%.1f epsilon=%.3f",
		s.Steps, s.Episodes, s.TotalFood, s.MeanReturn, s.MeanSteps, s.FinalEpsilon)
}

func (r *Recorder) Summary() Summary {
	r.lock.Lock()
	defer r.lock.Unlock()
	s := Summary{
		Steps:    len(r.steps),
		Episodes: len(r.episodes),
	}
	if len(r.steps) > 0 {
		s.FinalEpsilon = r.steps[len(r.steps)-1].Epsilon
	}
	if len(r.episodes) == 0 {
		return s
	}
	returns, lengths := 0.0, 0
	for _, e := range r.episodes {
		s.TotalFood += e.Food
		returns += e.Return
		lengths += e.Steps
	}
	s.MeanReturn = returns / float64(len(r.episodes))
	s.MeanSteps = float64(lengths) / float64(len(r.episodes))
	return s
}
