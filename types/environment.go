package types

import (
	"context"
	"image"
	"time"
)

// Movement is a timed differential-drive command
type Movement struct {
	Left     int           `mapstructure:"left" json:"left"`
	Right    int           `mapstructure:"right" json:"right"`
	Duration time.Duration `mapstructure:"duration" json:"duration"`
}

// Driver is the robot the controller talks to, either the simulator or
// the hardware bridge. All calls are blocking.
type Driver interface {
	Connect(context.Context) error
	Disconnect(context.Context) error

	// Simulation lifecycle, only meaningful for simulated robots
	StartSimulation(context.Context) error
	StopSimulation(context.Context) error
	// WaitForStop blocks until a previous StopSimulation has taken effect
	WaitForStop(context.Context) error

	SetPhoneTilt(ctx context.Context, position float64, speed int) error
	ImageFront(context.Context) (image.Image, error)
	// CollectedFood is cumulative since the simulation was last started
	CollectedFood(context.Context) (int, error)
	// Move returns once the movement has been carried out
	Move(ctx context.Context, left, right int, duration time.Duration) error
}

// Detector turns a camera image into a fixed length vector of blob indicators.
// Should be deterministic
type Detector interface {
	Detect(image.Image) []bool
}
