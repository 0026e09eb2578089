package commands

import (
	"github.com/spf13/cobra"
)

var (
	loadCheckpoint string
	iterations     int
	seed           uint64
)

func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Learn a value table by exploring, saving checkpoints along the way",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, map[string]string{
				"iterations": "iterations",
				"seed":       "seed",
			})
			if err != nil {
				return err
			}
			ctx, stop := interruptContext()
			defer stop()
			return loop(ctx, cfg, logger, loadCheckpoint, true)
		},
	}
	cmd.Flags().StringVarP(&loadCheckpoint, "load", "l", "", "Checkpoint to resume from, missing checkpoints start from zero")
	cmd.Flags().IntVarP(&iterations, "iterations", "i", 10000, "Number of training iterations")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Seed of the exploration")
	return cmd
}
