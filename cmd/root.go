package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"causalbridge/internal/config"
	"causalbridge/internal/observability"
)

var (
	cfgFile string
	cfg     config.Config
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "causalbridge",
	Short:   "Causal analysis bridge over an external statistical engine",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			observability.InitializeLogger(config.Default().Logger)
			return err
		}
		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Debug("Starting causalbridge", zap.String("version", Version))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./causalbridge.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
