package rl

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/zeu5/forage-rl/policies"
	"github.com/zeu5/forage-rl/types"
)

// fakeDriver scripts the robot: every move collects food according to gains
type fakeDriver struct {
	calls []string
	moves []types.Movement

	food  int
	gains []int
	moveN int

	connectErr error
	moveErr    error
	// block WaitForStop until the context is done
	neverStops bool
	disconnect error
}

var _ types.Driver = &fakeDriver{}

func (f *fakeDriver) Connect(context.Context) error {
	f.calls = append(f.calls, "connect")
	return f.connectErr
}

func (f *fakeDriver) Disconnect(context.Context) error {
	f.calls = append(f.calls, "disconnect")
	return f.disconnect
}

func (f *fakeDriver) StartSimulation(context.Context) error {
	f.calls = append(f.calls, "start")
	f.food = 0
	return nil
}

func (f *fakeDriver) StopSimulation(context.Context) error {
	f.calls = append(f.calls, "stop")
	return nil
}

func (f *fakeDriver) WaitForStop(ctx context.Context) error {
	f.calls = append(f.calls, "wait")
	if f.neverStops {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeDriver) SetPhoneTilt(_ context.Context, position float64, speed int) error {
	f.calls = append(f.calls, fmt.Sprintf("tilt %.1f %d", position, speed))
	return nil
}

func (f *fakeDriver) ImageFront(context.Context) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func (f *fakeDriver) CollectedFood(context.Context) (int, error) {
	f.calls = append(f.calls, "food")
	return f.food, nil
}

func (f *fakeDriver) Move(_ context.Context, left, right int, duration time.Duration) error {
	f.calls = append(f.calls, "move")
	if f.moveErr != nil {
		return f.moveErr
	}
	f.moves = append(f.moves, types.Movement{Left: left, Right: right, Duration: duration})
	if f.moveN < len(f.gains) {
		f.food += f.gains[f.moveN]
	}
	f.moveN++
	return nil
}

func (f *fakeDriver) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// fakeDetector replays frames, repeating the last one
type fakeDetector struct {
	frames [][]bool
	i      int
}

func (d *fakeDetector) Detect(image.Image) []bool {
	frame := d.frames[d.i]
	if d.i < len(d.frames)-1 {
		d.i++
	}
	return frame
}

type memoryStore struct {
	tables  map[string]*policies.QTable
	saved   []string
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tables: make(map[string]*policies.QTable)}
}

func (m *memoryStore) Save(_ context.Context, name string, table *policies.QTable) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, name)
	m.tables[name] = table.Clone()
	return nil
}

func (m *memoryStore) Load(_ context.Context, name string) (*policies.QTable, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrCheckpointAbsent, name)
	}
	return t.Clone(), nil
}

type memoryRecorder struct {
	steps    []Step
	episodes []Episode
}

func (m *memoryRecorder) RecordStep(s Step) {
	m.steps = append(m.steps, s)
}

func (m *memoryRecorder) RecordEpisode(e Episode) {
	m.episodes = append(m.episodes, e)
}

var errFake = errors.New("fake failure")
