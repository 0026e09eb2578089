package rl

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/zeu5/forage-rl/policies"
	"github.com/zeu5/forage-rl/types"
)

func testParams() Params {
	p := DefaultParams()
	p.Features = 2
	p.Epsilon = policies.ExponentialSchedule{Start: 0, End: 0, Decay: 1}
	p.LogEvery = 0
	return p
}

func newTestTrainer(t *testing.T, p Params, driver *fakeDriver, frames [][]bool, store *memoryStore, load string) (*Trainer, *memoryRecorder) {
	t.Helper()
	if frames == nil {
		frames = [][]bool{{false, false}}
	}
	recorder := &memoryRecorder{}
	trainer, err := NewTrainer(&TrainerConfig{
		Params:   p,
		Driver:   driver,
		Detector: &fakeDetector{frames: frames},
		Store:    store,
		Logger:   types.NewNullLogger(),
		Recorder: recorder,
		Load:     load,
	})
	if err != nil {
		t.Fatal(err)
	}
	return trainer, recorder
}

func TestSingleStepUpdate(t *testing.T) {
	p := testParams()
	p.Iterations = 1
	driver := &fakeDriver{gains: []int{1}}
	store := newMemoryStore()
	trainer, recorder := newTestTrainer(t, p, driver, nil, store, "")

	if err := trainer.Train(context.Background()); err != nil {
		t.Fatal(err)
	}
	table := trainer.Table()
	if r, c := table.Dims(); r != 4 || c != 3 {
		t.Fatalf("expected a 4 x 3 table, got %d x %d", r, c)
	}
	if got := table.Get(0, int(Forward)); math.Abs(got-41.6) > 1e-9 {
		t.Errorf("expected table[0][forward] = 41.6, got %f", got)
	}
	for s := 0; s < 4; s++ {
		for a := 0; a < 3; a++ {
			if s == 0 && a == int(Forward) {
				continue
			}
			if table.Get(s, a) != 0 {
				t.Errorf("table[%d][%d] changed to %f", s, a, table.Get(s, a))
			}
		}
	}
	if len(recorder.steps) != 1 || recorder.steps[0].Reward != 52 {
		t.Errorf("expected one step with reward 52, got %+v", recorder.steps)
	}
	if trainer.Phase() != PhaseTerminated {
		t.Errorf("expected terminated, got %s", trainer.Phase())
	}
	if !reflect.DeepEqual(store.saved, []string{"0", FinalCheckpoint}) {
		t.Errorf("unexpected checkpoints %v", store.saved)
	}
}

func TestEpisodeReset(t *testing.T) {
	p := testParams()
	p.Iterations = 4
	p.FoodTarget = 2
	p.CheckpointInterval = 100
	driver := &fakeDriver{gains: []int{1, 1, 1, 1}}
	trainer, recorder := newTestTrainer(t, p, driver, nil, newMemoryStore(), "")

	if err := trainer.Train(context.Background()); err != nil {
		t.Fatal(err)
	}
	if driver.count("stop") != 2 || driver.count("wait") != 2 || driver.count("start") != 2 {
		t.Fatalf("expected two resets, calls %v", driver.calls)
	}

	// every stop is acknowledged before the restart
	var resets [][]string
	for i, c := range driver.calls {
		if c == "stop" {
			resets = append(resets, driver.calls[i:i+4])
		}
	}
	want := []string{"stop", "wait", "start", "tilt 0.5 100"}
	for _, r := range resets {
		if !reflect.DeepEqual(r, want) {
			t.Errorf("expected reset sequence %v, got %v", want, r)
		}
	}

	// the counter is back to zero before the first reward of the new episode
	if len(recorder.steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(recorder.steps))
	}
	if recorder.steps[2].Reward != 52 {
		t.Errorf("expected food reward after reset, got %f", recorder.steps[2].Reward)
	}
	if len(recorder.episodes) != 2 || trainer.Episodes() != 2 {
		t.Errorf("expected 2 episodes, got %d", len(recorder.episodes))
	}
	if recorder.episodes[0].Food != 2 || recorder.episodes[0].Steps != 2 {
		t.Errorf("unexpected episode %+v", recorder.episodes[0])
	}
	if trainer.Food() != 0 {
		t.Errorf("expected food counter reset, got %d", trainer.Food())
	}
}

func TestEpisodeResetWithoutSimulation(t *testing.T) {
	p := testParams()
	p.Simulated = false
	p.Iterations = 6
	p.FoodTarget = 2
	p.CheckpointInterval = 100
	// the robot already reports food collected before training started
	driver := &fakeDriver{food: 3, gains: []int{1, 1, 0, 0, 0, 0}}
	trainer, recorder := newTestTrainer(t, p, driver, nil, newMemoryStore(), "")

	if err := trainer.Train(context.Background()); err != nil {
		t.Fatal(err)
	}
	if driver.count("stop") != 0 || driver.count("start") != 0 {
		t.Errorf("a robot that is not simulated should not be restarted, calls %v", driver.calls)
	}
	if driver.count("tilt 0.5 100") != 1 {
		t.Errorf("expected a single reset, calls %v", driver.calls)
	}

	var rewards []float64
	for _, s := range recorder.steps {
		rewards = append(rewards, s.Reward)
	}
	want := []float64{52, 52, 1, 1, 1, 1}
	if !reflect.DeepEqual(rewards, want) {
		t.Errorf("expected rewards %v, got %v", want, rewards)
	}
	if len(recorder.episodes) != 2 {
		t.Fatalf("expected the reset episode and the trailing one, got %+v", recorder.episodes)
	}
	if recorder.episodes[0].Food != 2 || recorder.episodes[0].Steps != 2 {
		t.Errorf("unexpected first episode %+v", recorder.episodes[0])
	}
	if recorder.episodes[1].Food != 0 || recorder.episodes[1].Steps != 4 {
		t.Errorf("unexpected trailing episode %+v", recorder.episodes[1])
	}
}

func TestStopNotAcknowledged(t *testing.T) {
	p := testParams()
	p.Iterations = 3
	p.FoodTarget = 1
	p.StopTimeout = 20 * time.Millisecond
	driver := &fakeDriver{gains: []int{1}, neverStops: true}
	trainer, _ := newTestTrainer(t, p, driver, nil, newMemoryStore(), "")

	err := trainer.Train(context.Background())
	if !errors.Is(err, types.ErrStopNotAcknowledged) {
		t.Fatalf("expected ErrStopNotAcknowledged, got %v", err)
	}
	if driver.count("start") != 0 {
		t.Errorf("simulation restarted without acknowledgment")
	}
	if trainer.Phase() != PhaseEpisodeResetting {
		t.Errorf("expected to halt while resetting, got %s", trainer.Phase())
	}
}

func TestCheckpointInterval(t *testing.T) {
	p := testParams()
	p.Iterations = 5
	p.CheckpointInterval = 2
	store := newMemoryStore()
	trainer, _ := newTestTrainer(t, p, &fakeDriver{}, nil, store, "")

	if err := trainer.Train(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{"0", "2", "4", FinalCheckpoint}
	if !reflect.DeepEqual(store.saved, want) {
		t.Errorf("expected checkpoints %v, got %v", want, store.saved)
	}
	if trainer.Steps() != 5 {
		t.Errorf("expected 5 steps, got %d", trainer.Steps())
	}
}

func TestCheckpointFailureIsFatal(t *testing.T) {
	p := testParams()
	p.Iterations = 5
	store := newMemoryStore()
	store.saveErr = errFake
	trainer, _ := newTestTrainer(t, p, &fakeDriver{}, nil, store, "")

	err := trainer.Train(context.Background())
	if !errors.Is(err, types.ErrCheckpoint) || !errors.Is(err, errFake) {
		t.Fatalf("expected checkpoint error, got %v", err)
	}
	if trainer.Steps() != 1 {
		t.Errorf("expected to stop after the first step, got %d", trainer.Steps())
	}
}

func TestRunFollowsGreedyPolicy(t *testing.T) {
	p := testParams()
	p.MaxSteps = 3
	store := newMemoryStore()
	trained := policies.NewQTable(4, NumActions)
	trained.Set(0, int(Right), 5)
	trained.Set(3, int(Left), 1)
	store.tables["trained"] = trained
	driver := &fakeDriver{gains: []int{1, 1, 1}}
	trainer, recorder := newTestTrainer(t, p, driver, nil, store, "trained")

	if err := trainer.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(driver.moves) != 3 {
		t.Fatalf("expected 3 moves, got %d", len(driver.moves))
	}
	for _, m := range driver.moves {
		if m != p.Movements.Right {
			t.Errorf("expected right turns only, got %+v", m)
		}
	}
	if !trainer.Table().Equal(trained) {
		t.Errorf("run mode modified the table")
	}
	if driver.count("food") != 0 || len(store.saved) != 0 {
		t.Errorf("run mode should neither read rewards nor checkpoint")
	}
	for _, s := range recorder.steps {
		if s.Epsilon != 0 {
			t.Errorf("run mode explored with epsilon %f", s.Epsilon)
		}
	}
}

func TestRunRequiresTable(t *testing.T) {
	p := testParams()
	trainer, _ := newTestTrainer(t, p, &fakeDriver{}, nil, newMemoryStore(), "")
	if err := trainer.Run(context.Background()); !errors.Is(err, types.ErrMissingTable) {
		t.Errorf("expected ErrMissingTable, got %v", err)
	}

	trainer, _ = newTestTrainer(t, p, &fakeDriver{}, nil, newMemoryStore(), "missing")
	if err := trainer.Run(context.Background()); !errors.Is(err, types.ErrCheckpointAbsent) {
		t.Errorf("expected ErrCheckpointAbsent, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	p := testParams()
	store := newMemoryStore()
	store.tables["trained"] = policies.NewQTable(4, NumActions)
	trainer, _ := newTestTrainer(t, p, &fakeDriver{}, nil, store, "trained")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := trainer.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTrainLoadsOrCreates(t *testing.T) {
	p := testParams()
	p.Iterations = 0
	store := newMemoryStore()
	trainer, _ := newTestTrainer(t, p, &fakeDriver{}, nil, store, "missing")
	if err := trainer.Train(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !trainer.Table().Equal(policies.NewQTable(4, NumActions)) {
		t.Errorf("expected a zero table")
	}

	store.tables["wrong"] = policies.NewQTable(8, NumActions)
	trainer, _ = newTestTrainer(t, p, &fakeDriver{}, nil, store, "wrong")
	if err := trainer.Train(context.Background()); !errors.Is(err, types.ErrTableShape) {
		t.Errorf("expected ErrTableShape, got %v", err)
	}
}

func TestMalformedObservation(t *testing.T) {
	p := testParams()
	p.Iterations = 2
	frames := [][]bool{{false, false}, {true, false, true}}
	trainer, _ := newTestTrainer(t, p, &fakeDriver{}, frames, newMemoryStore(), "")
	if err := trainer.Train(context.Background()); !errors.Is(err, types.ErrFeatureLength) {
		t.Errorf("expected ErrFeatureLength, got %v", err)
	}
}

func TestMoveFailureSurfaces(t *testing.T) {
	p := testParams()
	p.Iterations = 2
	trainer, _ := newTestTrainer(t, p, &fakeDriver{moveErr: errFake}, nil, newMemoryStore(), "")
	if err := trainer.Train(context.Background()); !errors.Is(err, errFake) {
		t.Errorf("expected the driver error, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	p := testParams()
	driver := &fakeDriver{}
	session, err := OpenSession(context.Background(), driver, p, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"connect", "start", "tilt 0.5 100"}
	if !reflect.DeepEqual(driver.calls, want) {
		t.Errorf("expected %v, got %v", want, driver.calls)
	}

	driver.disconnect = errFake
	if err := session.Close(context.Background()); !errors.Is(err, errFake) {
		t.Errorf("expected the disconnect error, got %v", err)
	}

	_, err = OpenSession(context.Background(), &fakeDriver{connectErr: errFake}, p, nil)
	if !errors.Is(err, types.ErrConnect) {
		t.Errorf("expected ErrConnect, got %v", err)
	}
}
