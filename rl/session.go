package rl

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/zeu5/forage-rl/types"
)

// Session is a connected robot ready to be driven by a Trainer
type Session struct {
	driver  types.Driver
	params  Params
	logger  types.Logger
	closers []io.Closer
}

// OpenSession connects to the robot, starts the simulation when simulated
// and applies the phone tilt. Closers are closed along with the session.
func OpenSession(ctx context.Context, driver types.Driver, params Params, logger types.Logger, closers ...io.Closer) (*Session, error) {
	if logger == nil {
		logger = types.NewNullLogger()
	}
	if err := driver.Connect(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConnect, err)
	}
	logger.Info("Connected to robot")
	if params.Simulated {
		if err := driver.StartSimulation(ctx); err != nil {
			driver.Disconnect(ctx)
			return nil, fmt.Errorf("starting simulation: %w", err)
		}
		logger.Info("Simulation started")
	}
	if err := driver.SetPhoneTilt(ctx, params.PhoneTilt, params.TiltSpeed); err != nil {
		driver.Disconnect(ctx)
		return nil, fmt.Errorf("setting phone tilt: %w", err)
	}
	return &Session{
		driver:  driver,
		params:  params,
		logger:  logger,
		closers: closers,
	}, nil
}

func (s *Session) Driver() types.Driver {
	return s.driver
}

// Close disconnects from the robot and closes everything attached to the session
func (s *Session) Close(ctx context.Context) error {
	var errs error
	if err := s.driver.Disconnect(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("disconnecting: %w", err))
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	s.logger.Info("Session closed")
	return errs
}
