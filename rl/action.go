package rl

import (
	"context"
	"fmt"
	"time"

	"github.com/zeu5/forage-rl/types"
)

// Action is one of the discrete motions the controller can take.
// The numeric value is the column of the action in the value table.
type Action int

const (
	Forward Action = iota
	Left
	Right
)

// NumActions is the number of columns of the value table
const NumActions = 3

var AllActions = []Action{Forward, Left, Right}

func (a Action) String() string {
	switch a {
	case Forward:
		return "forward"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a Action) Valid() bool {
	return a >= Forward && a <= Right
}

// Movements binds every action to a wheel command
type Movements struct {
	Forward types.Movement `mapstructure:"forward"`
	Left    types.Movement `mapstructure:"left"`
	Right   types.Movement `mapstructure:"right"`
}

func DefaultMovements() Movements {
	return Movements{
		Forward: types.Movement{Left: 15, Right: 15, Duration: 1000 * time.Millisecond},
		Left:    types.Movement{Left: -10, Right: 10, Duration: 1000 * time.Millisecond},
		Right:   types.Movement{Left: 10, Right: -10, Duration: 1000 * time.Millisecond},
	}
}

func (m Movements) Of(a Action) (types.Movement, error) {
	switch a {
	case Forward:
		return m.Forward, nil
	case Left:
		return m.Left, nil
	case Right:
		return m.Right, nil
	}
	return types.Movement{}, fmt.Errorf("%w: %d", types.ErrUnknownAction, int(a))
}

// Executor turns actions into driver movements
type Executor struct {
	driver    types.Driver
	movements Movements
}

func NewExecutor(driver types.Driver, movements Movements) *Executor {
	return &Executor{
		driver:    driver,
		movements: movements,
	}
}

// Execute blocks until the driver reports the movement done.
// Driver errors are returned as is, there is no retry.
func (e *Executor) Execute(ctx context.Context, a Action) error {
	m, err := e.movements.Of(a)
	if err != nil {
		return err
	}
	if err := e.driver.Move(ctx, m.Left, m.Right, m.Duration); err != nil {
		return fmt.Errorf("executing %s: %w", a, err)
	}
	return nil
}
