package types

import "errors"

var (
	ErrConnect             = errors.New("failed to connect to robot")
	ErrNotConnected        = errors.New("robot not connected")
	ErrSimulationStopped   = errors.New("simulation is not running")
	ErrStopNotAcknowledged = errors.New("simulation stop was not acknowledged")

	ErrFeatureLength    = errors.New("feature vector has the wrong length")
	ErrStateOutOfRange  = errors.New("state index out of range")
	ErrUnknownAction    = errors.New("unknown action")
	ErrTableShape       = errors.New("value table has the wrong shape")
	ErrMissingTable     = errors.New("run mode requires a trained value table")
	ErrCheckpoint       = errors.New("checkpoint failure")
	ErrCheckpointAbsent = errors.New("checkpoint not found")
)
