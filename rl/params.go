package rl

import (
	"errors"
	"fmt"
	"time"

	"github.com/zeu5/forage-rl/policies"
)

// Params are the fixed constants of a run
type Params struct {
	// Number of binary features, the table has 2^Features rows
	Features     int
	LearningRate float64
	Discount     float64
	Epsilon      policies.ExponentialSchedule

	// Food collected before the episode is reset
	FoodTarget         int
	CheckpointInterval int
	// Training iterations
	Iterations int
	// Run mode steps, 0 runs until cancelled
	MaxSteps int

	PhoneTilt float64
	TiltSpeed int

	Shaping   Shaping
	Movements Movements

	// Bound on WaitForStop, 0 waits as long as the driver does
	StopTimeout time.Duration
	Simulated   bool
	Seed        uint64
	LogEvery    int
}

func DefaultParams() Params {
	return Params{
		Features:           5,
		LearningRate:       0.8,
		Discount:           0.95,
		Epsilon:            policies.DefaultSchedule(),
		FoodTarget:         7,
		CheckpointInterval: 1000,
		Iterations:         10000,
		PhoneTilt:          0.5,
		TiltSpeed:          100,
		Shaping:            DefaultShaping(),
		Movements:          DefaultMovements(),
		Simulated:          true,
		Seed:               1,
		LogEvery:           10,
	}
}

// States is the number of rows of the value table
func (p Params) States() int {
	return 1 << p.Features
}

func (p Params) Validate() error {
	if p.Features < 1 || p.Features > 20 {
		return fmt.Errorf("features must be in [1, 20], got %d", p.Features)
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %f", p.LearningRate)
	}
	if p.Discount < 0 || p.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1], got %f", p.Discount)
	}
	if p.Epsilon.Start < 0 || p.Epsilon.Start > 1 || p.Epsilon.End < 0 || p.Epsilon.End > 1 {
		return errors.New("epsilon start and end must be in [0, 1]")
	}
	if p.Epsilon.Decay <= 0 {
		return fmt.Errorf("epsilon decay must be positive, got %f", p.Epsilon.Decay)
	}
	if p.FoodTarget < 1 {
		return fmt.Errorf("food target must be positive, got %d", p.FoodTarget)
	}
	if p.CheckpointInterval < 1 {
		return fmt.Errorf("checkpoint interval must be positive, got %d", p.CheckpointInterval)
	}
	if p.Iterations < 0 || p.MaxSteps < 0 {
		return errors.New("iterations and steps cannot be negative")
	}
	return nil
}

func (p Params) learner() policies.QLearning {
	return policies.QLearning{Alpha: p.LearningRate, Gamma: p.Discount}
}
