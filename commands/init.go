package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/forage-rl/policies"
	"github.com/zeu5/forage-rl/rl"
)

var (
	initName  string
	initForce bool
)

func InitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a zero value table checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			ctx := context.Background()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			exists, err := store.Exists(ctx, initName)
			if err != nil {
				return err
			}
			if exists && !initForce {
				return fmt.Errorf("checkpoint %s already exists, use --force to overwrite", initName)
			}
			params := cfg.Params()
			if err := store.Save(ctx, initName, policies.NewQTable(params.States(), rl.NumActions)); err != nil {
				return err
			}
			logger.Infof("Created a %d x %d value table as checkpoint %s", params.States(), rl.NumActions, initName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&initName, "name", "n", "0", "Checkpoint name")
	cmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing checkpoint")
	return cmd
}
