package commands

import (
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zeu5/forage-rl/config"
	"github.com/zeu5/forage-rl/types"
)

var (
	configFile string
	debug      bool
)

// GetRootCommand assembles the CLI
func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "forage",
		Short:         "Tabular Q-learning controller for a foraging robot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCommand.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(RunCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(InitCommand())
	rootCommand.AddCommand(InspectCommand())
	return rootCommand
}

// loadConfig resolves the configuration of a command, flags are bound to
// the config keys given in bindings
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, types.Logger, error) {
	v := viper.New()
	for key, flag := range bindings {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, nil, err
	}

	logger := types.NewLogger()
	logger.SetOutput(cmd.ErrOrStderr())
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	if types.IsDebug(logger) {
		logger.Debugf("Configuration: %s", litter.Sdump(cfg))
	}
	return cfg, logger, nil
}
