package main

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/application"
	"webapp-infra/internal/foundation"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		cfg, err := application.LoadConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// Handles from the foundation stack of the same environment
		ref, err := pulumi.NewStackReference(ctx, cfg.FoundationStack, nil)
		if err != nil {
			return err
		}

		app, err := application.New(ctx, fmt.Sprintf("application-%s", cfg.Env.Name), &application.Args{
			Config:  cfg,
			Handles: foundation.HandlesFromStackReference(ref),
		})
		if err != nil {
			return err
		}
		app.Export(ctx)
		return nil
	})
}
