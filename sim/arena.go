// Package sim is an in-process foraging arena that can stand in for the robot
package sim

import (
	"context"
	"image"
	"math"
	"sync"
	"time"

	"github.com/zeu5/forage-rl/types"
	"golang.org/x/exp/rand"
)

// Config of the arena, distances are in meters and angles in radians
type Config struct {
	Size         float64 `mapstructure:"size"`
	Food         int     `mapstructure:"food"`
	FoodRadius   float64 `mapstructure:"food_radius"`
	RobotRadius  float64 `mapstructure:"robot_radius"`
	FieldOfView  float64 `mapstructure:"field_of_view"`
	ViewDistance float64 `mapstructure:"view_distance"`
	ImageWidth   int     `mapstructure:"image_width"`
	ImageHeight  int     `mapstructure:"image_height"`
	// meters per second for one unit of wheel speed
	SpeedScale float64 `mapstructure:"speed_scale"`
	WheelBase  float64 `mapstructure:"wheel_base"`
	Seed       uint64  `mapstructure:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Size:         2,
		Food:         7,
		FoodRadius:   0.05,
		RobotRadius:  0.08,
		FieldOfView:  math.Pi / 3,
		ViewDistance: 1.5,
		ImageWidth:   160,
		ImageHeight:  40,
		SpeedScale:   0.01,
		WheelBase:    0.2,
		Seed:         1,
	}
}

const substep = 50 * time.Millisecond

// Point in arena coordinates
type Point struct {
	X, Y float64
}

// Pose of the robot, Heading is measured counter clockwise from the x axis
type Pose struct {
	Point
	Heading float64
}

type pellet struct {
	Point
	collected bool
}

// Arena implements types.Driver. Time is simulated, Move returns as soon as
// the movement has been integrated.
type Arena struct {
	config Config
	rand   *rand.Rand

	lock      sync.Mutex
	connected bool
	running   bool
	stopped   chan struct{}
	pose      Pose
	food      []*pellet
	collected int
	tilt      float64
	tiltSpeed int
}

var _ types.Driver = &Arena{}

func NewArena(config Config) *Arena {
	stopped := make(chan struct{})
	close(stopped)
	return &Arena{
		config:  config,
		rand:    rand.New(rand.NewSource(config.Seed)),
		stopped: stopped,
	}
}

func (a *Arena) Connect(_ context.Context) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.connected = true
	return nil
}

func (a *Arena) Disconnect(_ context.Context) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.connected = false
	return nil
}

// StartSimulation puts the robot back in the middle and scatters fresh food
func (a *Arena) StartSimulation(_ context.Context) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if !a.connected {
		return types.ErrNotConnected
	}
	if a.running {
		return nil
	}
	a.reset()
	a.running = true
	a.stopped = make(chan struct{})
	return nil
}

func (a *Arena) StopSimulation(_ context.Context) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if !a.connected {
		return types.ErrNotConnected
	}
	if a.running {
		a.running = false
		close(a.stopped)
	}
	return nil
}

// WaitForStop returns once the simulation is not running. While it runs the
// call blocks until someone stops it or the context is done.
func (a *Arena) WaitForStop(ctx context.Context) error {
	a.lock.Lock()
	if !a.connected {
		a.lock.Unlock()
		return types.ErrNotConnected
	}
	stopped := a.stopped
	a.lock.Unlock()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Arena) SetPhoneTilt(_ context.Context, position float64, speed int) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if !a.connected {
		return types.ErrNotConnected
	}
	a.tilt = position
	a.tiltSpeed = speed
	return nil
}

func (a *Arena) ImageFront(_ context.Context) (image.Image, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.render(), nil
}

func (a *Arena) CollectedFood(_ context.Context) (int, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if !a.connected {
		return 0, types.ErrNotConnected
	}
	return a.collected, nil
}

// Move integrates the differential drive kinematics over the duration,
// collecting every pellet the robot touches on the way
func (a *Arena) Move(ctx context.Context, left, right int, duration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	if err := a.ready(); err != nil {
		return err
	}
	vl := float64(left) * a.config.SpeedScale
	vr := float64(right) * a.config.SpeedScale
	v := (vl + vr) / 2
	w := (vr - vl) / a.config.WheelBase

	for remaining := duration; remaining > 0; remaining -= substep {
		dt := substep
		if remaining < dt {
			dt = remaining
		}
		secs := dt.Seconds()
		a.pose.Heading = normalizeAngle(a.pose.Heading + w*secs)
		a.pose.X = a.clamp(a.pose.X + v*math.Cos(a.pose.Heading)*secs)
		a.pose.Y = a.clamp(a.pose.Y + v*math.Sin(a.pose.Heading)*secs)
		a.collect()
	}
	return nil
}

// Pose of the robot
func (a *Arena) Pose() Pose {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.pose
}

// SetPose moves the robot, the position is clamped to the arena
func (a *Arena) SetPose(p Pose) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.pose = Pose{
		Point:   Point{X: a.clamp(p.X), Y: a.clamp(p.Y)},
		Heading: normalizeAngle(p.Heading),
	}
}

// PlaceFood replaces the remaining pellets
func (a *Arena) PlaceFood(points ...Point) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.food = make([]*pellet, len(points))
	for i, p := range points {
		a.food[i] = &pellet{Point: p}
	}
}

// Remaining is the number of pellets not collected yet
func (a *Arena) Remaining() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	count := 0
	for _, p := range a.food {
		if !p.collected {
			count++
		}
	}
	return count
}

func (a *Arena) Tilt() (float64, int) {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.tilt, a.tiltSpeed
}

func (a *Arena) ready() error {
	if !a.connected {
		return types.ErrNotConnected
	}
	if !a.running {
		return types.ErrSimulationStopped
	}
	return nil
}

func (a *Arena) reset() {
	center := a.config.Size / 2
	a.pose = Pose{Point: Point{X: center, Y: center}}
	a.collected = 0
	a.food = make([]*pellet, a.config.Food)

	margin := a.config.FoodRadius * 2
	// keep the starting spot clear so no food is collected for free
	clear := a.config.RobotRadius + a.config.FoodRadius + 0.1
	for i := range a.food {
		var p Point
		for {
			p = Point{
				X: margin + a.rand.Float64()*(a.config.Size-2*margin),
				Y: margin + a.rand.Float64()*(a.config.Size-2*margin),
			}
			if math.Hypot(p.X-center, p.Y-center) > clear {
				break
			}
		}
		a.food[i] = &pellet{Point: p}
	}
}

func (a *Arena) collect() {
	reach := a.config.RobotRadius + a.config.FoodRadius
	for _, p := range a.food {
		if p.collected {
			continue
		}
		if math.Hypot(p.X-a.pose.X, p.Y-a.pose.Y) <= reach {
			p.collected = true
			a.collected++
		}
	}
}

func (a *Arena) clamp(v float64) float64 {
	low := a.config.RobotRadius
	high := a.config.Size - a.config.RobotRadius
	return math.Max(low, math.Min(high, v))
}

func normalizeAngle(theta float64) float64 {
	theta = math.Mod(theta+math.Pi, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return theta - math.Pi
}
