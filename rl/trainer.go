package rl

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeu5/forage-rl/checkpoint"
	"github.com/zeu5/forage-rl/policies"
	"github.com/zeu5/forage-rl/types"
)

// FinalCheckpoint is the name the table is saved under when training ends
const FinalCheckpoint = "final"

// Phase of the loop state machine
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseStepping
	PhaseEpisodeResetting
	PhaseCheckpointing
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseStepping:
		return "stepping"
	case PhaseEpisodeResetting:
		return "episode-resetting"
	case PhaseCheckpointing:
		return "checkpointing"
	case PhaseTerminated:
		return "terminated"
	}
	return "unknown"
}

// TableStore persists value tables by name, checkpoint.Store implements it
type TableStore interface {
	Save(ctx context.Context, name string, table *policies.QTable) error
	Load(ctx context.Context, name string) (*policies.QTable, error)
}

type TrainerConfig struct {
	Params   Params
	Driver   types.Driver
	Detector types.Detector
	Store    TableStore
	Logger   types.Logger
	// optional
	Recorder Recorder
	// Checkpoint to start from, empty starts from a zero table
	Load string
}

// Trainer owns the value table and the episode counters and drives the
// encode, select, act, observe, reward, update cycle
type Trainer struct {
	params   Params
	driver   types.Driver
	observer *Observer
	executor *Executor
	store    TableStore
	logger   types.Logger
	recorder Recorder
	load     string

	policy   *policies.EpsilonGreedy
	schedule policies.ExponentialSchedule
	learner  policies.QLearning
	table    *policies.QTable

	phase   Phase
	step    int
	episode int
	food    int
	// last cumulative count reported by the driver
	reading int
	state   int
	trace   *Trace
}

func NewTrainer(config *TrainerConfig) (*Trainer, error) {
	if err := config.Params.Validate(); err != nil {
		return nil, err
	}
	if config.Driver == nil || config.Detector == nil || config.Store == nil {
		return nil, errors.New("trainer needs a driver, a detector and a store")
	}
	logger := config.Logger
	if logger == nil {
		logger = types.NewNullLogger()
	}
	return &Trainer{
		params:   config.Params,
		driver:   config.Driver,
		observer: NewObserver(config.Driver, config.Detector, config.Params.Features),
		executor: NewExecutor(config.Driver, config.Params.Movements),
		store:    config.Store,
		logger:   logger,
		recorder: config.Recorder,
		load:     config.Load,
		policy:   policies.NewEpsilonGreedy(config.Params.Seed),
		schedule: config.Params.Epsilon,
		learner:  config.Params.learner(),
		phase:    PhaseInitializing,
		trace:    NewTrace(),
	}, nil
}

func (t *Trainer) Phase() Phase {
	return t.phase
}

func (t *Trainer) Table() *policies.QTable {
	return t.table
}

// Steps is the global iteration counter
func (t *Trainer) Steps() int {
	return t.step
}

// Episodes recorded so far, a trailing partial episode counts once training ends
func (t *Trainer) Episodes() int {
	return t.episode
}

// Food collected in the current episode
func (t *Trainer) Food() int {
	return t.food
}

// Train runs Params.Iterations learning steps and saves the final table
func (t *Trainer) Train(ctx context.Context) error {
	return t.Loop(ctx, true)
}

// Run follows the greedy policy of a trained table without learning.
// It only returns on error, cancellation or after Params.MaxSteps.
func (t *Trainer) Run(ctx context.Context) error {
	return t.Loop(ctx, false)
}

// Loop is the shared state machine, training enables exploration,
// updates, checkpoints and episode resets
func (t *Trainer) Loop(ctx context.Context, training bool) error {
	if err := t.initialize(ctx, training); err != nil {
		return err
	}

	for {
		if training && t.step >= t.params.Iterations {
			break
		}
		if !training && t.params.MaxSteps > 0 && t.step >= t.params.MaxSteps {
			t.phase = PhaseTerminated
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		iteration := t.step
		if err := t.runStep(ctx, training); err != nil {
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}
		if !training {
			continue
		}

		if iteration%t.params.CheckpointInterval == 0 {
			if err := t.checkpoint(ctx, checkpoint.StepName(iteration)); err != nil {
				return err
			}
		}
		if t.food >= t.params.FoodTarget {
			if err := t.resetEpisode(ctx); err != nil {
				return err
			}
		}
	}

	if err := t.checkpoint(ctx, FinalCheckpoint); err != nil {
		return err
	}
	if t.trace.Len() > 0 {
		t.recordEpisode()
	}
	t.phase = PhaseTerminated
	t.logger.Infof("Training finished after %d iterations and %d episodes", t.step, t.episode)
	return nil
}

func (t *Trainer) initialize(ctx context.Context, training bool) error {
	t.phase = PhaseInitializing
	table, err := t.loadTable(ctx, training)
	if err != nil {
		return err
	}
	t.table = table
	t.food = 0
	t.trace = NewTrace()
	if training {
		if err := t.readFood(ctx); err != nil {
			return err
		}
	}

	state, err := t.observer.State(ctx)
	if err != nil {
		return err
	}
	t.state = state
	t.phase = PhaseStepping
	return nil
}

func (t *Trainer) loadTable(ctx context.Context, training bool) (*policies.QTable, error) {
	states := t.params.States()
	if t.load == "" {
		if !training {
			return nil, types.ErrMissingTable
		}
		t.logger.Infof("Starting from a zero value table (%d x %d)", states, NumActions)
		return policies.NewQTable(states, NumActions), nil
	}

	table, err := t.store.Load(ctx, t.load)
	if errors.Is(err, types.ErrCheckpointAbsent) && training {
		t.logger.Warnf("Checkpoint %s not found, starting from a zero value table", t.load)
		return policies.NewQTable(states, NumActions), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint %s: %w", t.load, err)
	}
	if r, c := table.Dims(); r != states || c != NumActions {
		return nil, fmt.Errorf("%w: checkpoint %s is %d x %d, expected %d x %d",
			types.ErrTableShape, t.load, r, c, states, NumActions)
	}
	t.logger.Infof("Loaded value table from checkpoint %s", t.load)
	return table, nil
}

// runStep executes a single transition from the current state
func (t *Trainer) runStep(ctx context.Context, training bool) error {
	iteration := t.step
	state := t.state

	epsilon := 0.0
	if training {
		epsilon = t.schedule.Epsilon(iteration)
	}
	action := Action(t.policy.NextAction(t.table, state, epsilon))
	if training && t.params.LogEvery > 0 && iteration%t.params.LogEvery == 0 {
		t.logger.Infof("Iteration %d/%d, epsilon %.4f", iteration+1, t.params.Iterations, epsilon)
	} else if !training && t.params.LogEvery > 0 && iteration%t.params.LogEvery == 0 {
		t.logger.Infof("Step %d", iteration)
	}

	if err := t.executor.Execute(ctx, action); err != nil {
		return err
	}

	reward := 0.0
	if training {
		before := t.reading
		if err := t.readFood(ctx); err != nil {
			return err
		}
		t.food += t.reading - before
		reward = Reward(before, t.reading) + t.params.Shaping.Bonus(action)
	}

	next, err := t.observer.State(ctx)
	if err != nil {
		return err
	}

	if training {
		if _, err := t.learner.Update(t.table, state, int(action), reward, next); err != nil {
			return err
		}
	}

	step := Step{
		Iteration: iteration,
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: next,
		Epsilon:   epsilon,
		Food:      t.food,
	}
	t.trace.Append(step)
	if t.recorder != nil {
		t.recorder.RecordStep(step)
	}
	t.logger.Debugf("state %d, action %s, reward %.1f, next %d", state, action, reward, next)

	t.state = next
	t.step++
	return nil
}

// checkpoint saves the table without touching any counter
func (t *Trainer) checkpoint(ctx context.Context, name string) error {
	previous := t.phase
	t.phase = PhaseCheckpointing
	if err := t.store.Save(ctx, name, t.table); err != nil {
		return fmt.Errorf("%w: saving %s: %w", types.ErrCheckpoint, name, err)
	}
	t.logger.Infof("Saved checkpoint %s", name)
	t.phase = previous
	return nil
}

// resetEpisode restarts the world once the food target is reached.
// The simulation must have acknowledged the stop before it is started again.
func (t *Trainer) resetEpisode(ctx context.Context) error {
	t.phase = PhaseEpisodeResetting
	t.logger.Infof("Collected %d food in %d steps, resetting", t.food, t.trace.Len())
	t.recordEpisode()
	t.food = 0

	if t.params.Simulated {
		if err := t.driver.StopSimulation(ctx); err != nil {
			return fmt.Errorf("stopping simulation: %w", err)
		}
		t.logger.Info("Waiting for stop")
		waitCtx := ctx
		if t.params.StopTimeout > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, t.params.StopTimeout)
			defer cancel()
		}
		if err := t.driver.WaitForStop(waitCtx); err != nil {
			return fmt.Errorf("%w: %w", types.ErrStopNotAcknowledged, err)
		}
		t.logger.Info("Stopped")
		if err := t.driver.StartSimulation(ctx); err != nil {
			return fmt.Errorf("restarting simulation: %w", err)
		}
		t.logger.Info("Continue with simulation")
	}
	if err := t.driver.SetPhoneTilt(ctx, t.params.PhoneTilt, t.params.TiltSpeed); err != nil {
		return fmt.Errorf("setting phone tilt: %w", err)
	}
	// a restarted simulation counts from zero, a robot that was never
	// stopped keeps its count
	if err := t.readFood(ctx); err != nil {
		return err
	}

	state, err := t.observer.State(ctx)
	if err != nil {
		return err
	}
	t.state = state
	t.phase = PhaseStepping
	return nil
}

// readFood refreshes the cumulative driver count the episode food is
// measured against
func (t *Trainer) readFood(ctx context.Context) error {
	count, err := t.driver.CollectedFood(ctx)
	if err != nil {
		return fmt.Errorf("reading collected food: %w", err)
	}
	t.reading = count
	return nil
}

func (t *Trainer) recordEpisode() {
	t.episode++
	episode := Episode{
		Number:       t.episode,
		Steps:        t.trace.Len(),
		Food:         t.food,
		Return:       t.trace.Return(),
		EndIteration: t.step,
		Trace:        t.trace,
	}
	if t.recorder != nil {
		t.recorder.RecordEpisode(episode)
	}
	t.trace = NewTrace()
}
