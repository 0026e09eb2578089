package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeu5/forage-rl/policies"
	"github.com/zeu5/forage-rl/rl"
	"github.com/zeu5/forage-rl/types"
)

var inspectName string

// InspectCommand prints the values and the greedy action of every state
func InspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the greedy action of every state of a checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			ctx := context.Background()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			table, err := store.Load(ctx, inspectName)
			if err != nil {
				return err
			}
			params := cfg.Params()
			if r, c := table.Dims(); r != params.States() || c != rl.NumActions {
				return fmt.Errorf("%w: checkpoint %s is %d x %d", types.ErrTableShape, inspectName, r, c)
			}
			printTable(cmd, table, params.Features)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inspectName, "name", "n", rl.FinalCheckpoint, "Checkpoint name")
	return cmd
}

func printTable(cmd *cobra.Command, table *policies.QTable, features int) {
	out := cmd.OutOrStdout()
	header := []string{"state", "blobs"}
	for _, a := range rl.AllActions {
		header = append(header, a.String())
	}
	header = append(header, "greedy")
	fmt.Fprintln(out, strings.Join(header, "\t"))

	for s := 0; s < table.States(); s++ {
		blobs := make([]byte, features)
		for i, b := range rl.DecodeState(s, features) {
			blobs[i] = '.'
			if b {
				blobs[i] = '#'
			}
		}
		row := []string{fmt.Sprintf("%d", s), string(blobs)}
		for _, v := range table.Row(s) {
			row = append(row, fmt.Sprintf("%.3f", v))
		}
		row = append(row, rl.Action(policies.Greedy(table, s)).String())
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}
