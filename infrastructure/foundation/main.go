package main

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"webapp-infra/internal/foundation"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		cfg, err := foundation.LoadConfig(ctx)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		ctx.Log.Info(fmt.Sprintf("Deploying foundation for %s in %s", cfg.Env.Name, cfg.Region), nil)

		f, err := foundation.New(ctx, fmt.Sprintf("foundation-%s", cfg.Env.Name), cfg)
		if err != nil {
			return err
		}
		f.Export(ctx)
		return nil
	})
}
