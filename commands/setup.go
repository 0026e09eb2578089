package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	vfs "github.com/twpayne/go-vfs"
	"github.com/zeu5/forage-rl/analysis"
	"github.com/zeu5/forage-rl/bridge"
	"github.com/zeu5/forage-rl/checkpoint"
	"github.com/zeu5/forage-rl/config"
	"github.com/zeu5/forage-rl/rl"
	"github.com/zeu5/forage-rl/sim"
	"github.com/zeu5/forage-rl/types"
	"github.com/zeu5/forage-rl/vision"
)

// filesystem used by the file backed components, replaced in tests
var fileSystem vfs.FS = vfs.OSFS

// interruptContext is cancelled on the first interrupt, stop releases the
// signal handler
func interruptContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		cancel()
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		close(doneCh)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (checkpoint.Store, error) {
	switch cfg.Checkpoint.Backend {
	case config.BackendRedis:
		store := checkpoint.NewRedisStore(cfg.Checkpoint.RedisAddr, cfg.Checkpoint.Prefix)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("%w: redis at %s: %w", types.ErrCheckpoint, cfg.Checkpoint.RedisAddr, err)
		}
		return store, nil
	default:
		return checkpoint.NewFileStore(fileSystem, cfg.Checkpoint.Dir, cfg.Checkpoint.Prefix), nil
	}
}

func openDriver(cfg *config.Config) (types.Driver, error) {
	switch cfg.Driver.Kind {
	case config.DriverBridge:
		return bridge.NewClient(cfg.Driver.Address), nil
	default:
		if !cfg.Driver.Simulated {
			return nil, errors.New("the in-process arena needs driver.simulated")
		}
		return sim.NewArena(cfg.Sim), nil
	}
}

func newDetector(features int) types.Detector {
	return vision.NewStripDetector(features)
}

func newRecorder(cfg *config.Config, logger types.Logger) *analysis.Recorder {
	if cfg.Record.Dir == "" {
		return nil
	}
	return analysis.NewRecorder(fileSystem, cfg.Record.Dir, cfg.Record.Steps, logger)
}

// loop connects to the robot, runs the trainer in the requested mode and
// tears everything down
func loop(ctx context.Context, cfg *config.Config, logger types.Logger, load string, training bool) (err error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	driver, err := openDriver(cfg)
	if err != nil {
		store.Close()
		return err
	}
	params := cfg.Params()
	session, err := rl.OpenSession(ctx, driver, params, logger, store)
	if err != nil {
		store.Close()
		return err
	}
	defer func() {
		// the loop context may be cancelled already
		if cerr := session.Close(context.Background()); cerr != nil && err == nil {
			err = cerr
		}
	}()

	recorder := newRecorder(cfg, logger)
	trainerConfig := &rl.TrainerConfig{
		Params:   params,
		Driver:   session.Driver(),
		Detector: newDetector(params.Features),
		Store:    store,
		Logger:   logger,
		Load:     load,
	}
	if recorder != nil {
		trainerConfig.Recorder = recorder
	}
	trainer, err := rl.NewTrainer(trainerConfig)
	if err != nil {
		return err
	}

	if training {
		err = trainer.Train(ctx)
	} else {
		err = trainer.Run(ctx)
	}
	if errors.Is(err, context.Canceled) {
		logger.Info("Interrupted")
		err = nil
	}
	logger.Infof("Stopped after %d steps and %d episodes", trainer.Steps(), trainer.Episodes())

	if recorder != nil {
		logger.Info(recorder.Summary().String())
		if cfg.Record.Plot {
			if _, perr := recorder.Plot(); perr != nil {
				logger.Warnf("Failed to plot: %s", perr)
			}
		}
	}
	return err
}
