package commands

import (
	"github.com/spf13/cobra"
	"github.com/zeu5/forage-rl/rl"
)

var (
	runCheckpoint string
	maxSteps      int
)

func RunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Follow the greedy policy of a trained value table until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, map[string]string{
				"max_steps": "steps",
			})
			if err != nil {
				return err
			}
			ctx, stop := interruptContext()
			defer stop()
			return loop(ctx, cfg, logger, runCheckpoint, false)
		},
	}
	cmd.Flags().StringVarP(&runCheckpoint, "load", "l", rl.FinalCheckpoint, "Checkpoint to follow")
	cmd.Flags().IntVar(&maxSteps, "steps", 0, "Stop after this many steps, 0 runs until interrupted")
	return cmd
}
