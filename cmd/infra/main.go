// Command infra deploys the foundation and application stacks of one environment.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webapp-infra/internal/logging"
)

var rootConfig struct {
	configPath string
	env        string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "infra",
		Short:         "Deploy the web application infrastructure",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(rootConfig.verbose)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&rootConfig.configPath, "config", "c", "infra.yaml", "Deployer config file")
	flags.StringVarP(&rootConfig.env, "env", "e", "", "Environment to deploy (staging or production)")
	flags.BoolVarP(&rootConfig.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(newUpCmd(), newPreviewCmd(), newDestroyCmd(), newGraphCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
