package commands

import (
	"github.com/spf13/cobra"
	"github.com/zeu5/forage-rl/bridge"
	"github.com/zeu5/forage-rl/sim"
)

var serveAddress string

// ServeCommand exposes the simulated arena over HTTP so that a controller
// configured with the bridge driver can train against it
func ServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulated arena over the HTTP bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, map[string]string{
				"driver.address": "address",
			})
			if err != nil {
				return err
			}
			ctx, stop := interruptContext()
			defer stop()

			server := bridge.NewServer(cfg.Driver.Address, sim.NewArena(cfg.Sim), logger)
			return server.Serve(ctx)
		},
	}
	cmd.Flags().StringVarP(&serveAddress, "address", "a", "127.0.0.1:8090", "Address to listen on")
	return cmd
}
