package application

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"webapp-infra/internal/environment"
)

// Config is everything the application stack reads from Pulumi configuration.
type Config struct {
	Env    environment.Environment
	Region string
	// FoundationStack is the fully qualified name of the foundation stack to read handles from.
	FoundationStack string
}

// LoadConfig reads the stack configuration.
func LoadConfig(ctx *pulumi.Context) (*Config, error) {
	cfg := config.New(ctx, "")

	env, err := environment.Resolve(cfg.Get("environment"), ctx.Stack())
	if err != nil {
		return nil, err
	}
	env = env.WithEnvBucket(cfg.Require("envBucketArn"))
	if err := env.Validate(); err != nil {
		return nil, err
	}

	region := config.Get(ctx, "aws:region")
	if region == "" {
		region = "ap-northeast-2"
	}

	return &Config{
		Env:             env,
		Region:          region,
		FoundationStack: cfg.Require("foundationStack"),
	}, nil
}
