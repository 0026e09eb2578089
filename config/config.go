// Package config layers defaults, a YAML file, environment variables and
// flags into the run configuration
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/zeu5/forage-rl/policies"
	"github.com/zeu5/forage-rl/rl"
	"github.com/zeu5/forage-rl/sim"
	"github.com/zeu5/forage-rl/types"
)

// EnvPrefix of the environment variables, FORAGE_ITERATIONS overrides iterations
const EnvPrefix = "FORAGE"

const (
	DriverSim    = "sim"
	DriverBridge = "bridge"

	BackendFile  = "file"
	BackendRedis = "redis"
)

type PhoneTilt struct {
	Position float64 `mapstructure:"position"`
	Speed    int     `mapstructure:"speed"`
}

type DriverConfig struct {
	// sim runs the arena in process, bridge talks HTTP to Address
	Kind    string `mapstructure:"kind"`
	Address string `mapstructure:"address"`
	// Simulated robots are started at startup and stopped and restarted
	// between episodes
	Simulated bool `mapstructure:"simulated"`
}

type CheckpointConfig struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	Prefix    string `mapstructure:"prefix"`
	RedisAddr string `mapstructure:"redis_addr"`
}

type RecordConfig struct {
	// Empty disables recording
	Dir   string `mapstructure:"dir"`
	Plot  bool   `mapstructure:"plot"`
	Steps bool   `mapstructure:"steps"`
}

type Config struct {
	Features           int                          `mapstructure:"features"`
	LearningRate       float64                      `mapstructure:"learning_rate"`
	Discount           float64                      `mapstructure:"discount"`
	Epsilon            policies.ExponentialSchedule `mapstructure:"epsilon"`
	FoodTarget         int                          `mapstructure:"food_target"`
	CheckpointInterval int                          `mapstructure:"checkpoint_interval"`
	Iterations         int                          `mapstructure:"iterations"`
	MaxSteps           int                          `mapstructure:"max_steps"`
	PhoneTilt          PhoneTilt                    `mapstructure:"phone_tilt"`
	Shaping            rl.Shaping                   `mapstructure:"shaping"`
	Movements          rl.Movements                 `mapstructure:"movements"`
	StopTimeout        time.Duration                `mapstructure:"stop_timeout"`
	Seed               uint64                       `mapstructure:"seed"`
	LogEvery           int                          `mapstructure:"log_every"`

	Driver     DriverConfig     `mapstructure:"driver"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Record     RecordConfig     `mapstructure:"record"`
	Sim        sim.Config       `mapstructure:"sim"`
}

// SetDefaults registers every key so that environment variables can
// override keys missing from the file
func SetDefaults(v *viper.Viper) {
	p := rl.DefaultParams()
	v.SetDefault("features", p.Features)
	v.SetDefault("learning_rate", p.LearningRate)
	v.SetDefault("discount", p.Discount)
	v.SetDefault("epsilon.start", p.Epsilon.Start)
	v.SetDefault("epsilon.end", p.Epsilon.End)
	v.SetDefault("epsilon.decay", p.Epsilon.Decay)
	v.SetDefault("food_target", p.FoodTarget)
	v.SetDefault("checkpoint_interval", p.CheckpointInterval)
	v.SetDefault("iterations", p.Iterations)
	v.SetDefault("max_steps", p.MaxSteps)
	v.SetDefault("phone_tilt.position", p.PhoneTilt)
	v.SetDefault("phone_tilt.speed", p.TiltSpeed)
	v.SetDefault("shaping.forward", p.Shaping.Forward)
	v.SetDefault("shaping.left", p.Shaping.Left)
	v.SetDefault("shaping.right", p.Shaping.Right)
	for name, m := range map[string]types.Movement{
		"forward": p.Movements.Forward,
		"left":    p.Movements.Left,
		"right":   p.Movements.Right,
	} {
		v.SetDefault("movements."+name+".left", m.Left)
		v.SetDefault("movements."+name+".right", m.Right)
		v.SetDefault("movements."+name+".duration", m.Duration)
	}
	v.SetDefault("stop_timeout", p.StopTimeout)
	v.SetDefault("seed", p.Seed)
	v.SetDefault("log_every", p.LogEvery)

	v.SetDefault("driver.kind", DriverSim)
	v.SetDefault("driver.address", "127.0.0.1:8090")
	v.SetDefault("driver.simulated", p.Simulated)

	v.SetDefault("checkpoint.backend", BackendFile)
	v.SetDefault("checkpoint.dir", "matrices")
	v.SetDefault("checkpoint.prefix", "q_matrix_new_")
	v.SetDefault("checkpoint.redis_addr", "127.0.0.1:6379")

	v.SetDefault("record.dir", "results")
	v.SetDefault("record.plot", true)
	v.SetDefault("record.steps", false)

	s := sim.DefaultConfig()
	v.SetDefault("sim.size", s.Size)
	v.SetDefault("sim.food", s.Food)
	v.SetDefault("sim.food_radius", s.FoodRadius)
	v.SetDefault("sim.robot_radius", s.RobotRadius)
	v.SetDefault("sim.field_of_view", s.FieldOfView)
	v.SetDefault("sim.view_distance", s.ViewDistance)
	v.SetDefault("sim.image_width", s.ImageWidth)
	v.SetDefault("sim.image_height", s.ImageHeight)
	v.SetDefault("sim.speed_scale", s.SpeedScale)
	v.SetDefault("sim.wheel_base", s.WheelBase)
	v.SetDefault("sim.seed", s.Seed)
}

// Load reads the optional config file into v on top of the defaults and
// decodes the result. Flags bound to v beforehand take precedence.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Driver.Kind {
	case DriverSim, DriverBridge:
	default:
		return fmt.Errorf("unknown driver kind %q", c.Driver.Kind)
	}
	switch c.Checkpoint.Backend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	return c.Params().Validate()
}

// Params of the learning loop
func (c *Config) Params() rl.Params {
	return rl.Params{
		Features:           c.Features,
		LearningRate:       c.LearningRate,
		Discount:           c.Discount,
		Epsilon:            c.Epsilon,
		FoodTarget:         c.FoodTarget,
		CheckpointInterval: c.CheckpointInterval,
		Iterations:         c.Iterations,
		MaxSteps:           c.MaxSteps,
		PhoneTilt:          c.PhoneTilt.Position,
		TiltSpeed:          c.PhoneTilt.Speed,
		Shaping:            c.Shaping,
		Movements:          c.Movements,
		StopTimeout:        c.StopTimeout,
		Simulated:          c.Driver.Simulated,
		Seed:               c.Seed,
		LogEvery:           c.LogEvery,
	}
}
