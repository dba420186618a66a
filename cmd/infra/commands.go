package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webapp-infra/internal/deploy"
	"webapp-infra/internal/environment"
	"webapp-infra/internal/logging"
	"webapp-infra/internal/topology"
)

var errConfirmDestroy = errors.New("destroy needs --yes")

var deployConfig struct {
	refresh bool
	yes     bool
}

func newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Deploy the foundation stack, then the application stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeployer(cmd.Context(), (*deploy.Deployer).Up)
		},
	}
	cmd.Flags().BoolVar(&deployConfig.refresh, "refresh", false, "Refresh state before updating")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview changes to both stacks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeployer(cmd.Context(), (*deploy.Deployer).Preview)
		},
	}
	cmd.Flags().BoolVar(&deployConfig.refresh, "refresh", false, "Refresh state before previewing")
	return cmd
}

func newDestroyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy the application stack, then the foundation stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !deployConfig.yes {
				return errConfirmDestroy
			}
			return runDeployer(cmd.Context(), (*deploy.Deployer).Destroy)
		},
	}
	cmd.Flags().BoolVar(&deployConfig.refresh, "refresh", false, "Refresh state before destroying")
	cmd.Flags().BoolVarP(&deployConfig.yes, "yes", "y", false, "Confirm the destroy")
	return cmd
}

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the construct dependency graph as DOT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := topology.Default()
			if err != nil {
				return err
			}
			return topology.WriteDOT(g, cmd.OutOrStdout())
		},
	}
}

func runDeployer(ctx context.Context, op func(*deploy.Deployer, context.Context, environment.Name) error) error {
	env, err := environment.ParseName(rootConfig.env)
	if err != nil {
		return fmt.Errorf("--env: %w", err)
	}
	cfg, err := deploy.LoadConfig(rootConfig.configPath)
	if err != nil {
		return err
	}

	log := logging.FromContext(ctx)
	progress := logging.NewWriter(log.Named("pulumi"), zap.InfoLevel)
	defer progress.Flush()

	d, err := deploy.New(cfg, deploy.AutoWorkspace{Progress: progress, Refresh: deployConfig.refresh})
	if err != nil {
		return err
	}
	log.Info("running", zap.String("env", env.String()), zap.Any("order", d.Order()))
	return op(d, ctx, env)
}
