package foundation

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"webapp-infra/internal/environment"
)

// Config is everything the foundation stack reads from Pulumi configuration.
type Config struct {
	Env    environment.Environment
	Region string

	HostedZoneDomain        string
	PrivateHostedZoneDomain string
	CertificateArn          string
	GlobalCertificateArn    string

	DatabasePassword pulumi.StringOutput

	// Bastion is skipped when BastionKeyName is empty.
	BastionKeyName      string
	BastionIngressCidr  string
	BastionInstanceType string
}

// LoadConfig reads the stack configuration.
func LoadConfig(ctx *pulumi.Context) (*Config, error) {
	cfg := config.New(ctx, "")

	env, err := environment.Resolve(cfg.Get("environment"), ctx.Stack())
	if err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}

	region := config.Get(ctx, "aws:region")
	if region == "" {
		region = "ap-northeast-2"
	}

	ingress := cfg.Get("bastionIngressCidr")
	if ingress == "" {
		ingress = "0.0.0.0/0"
	}

	instanceType := cfg.Get("bastionInstanceType")
	if instanceType == "" {
		instanceType = "t3.micro"
	}

	return &Config{
		Env:                     env,
		Region:                  region,
		HostedZoneDomain:        cfg.Require("hostedZoneDomain"),
		PrivateHostedZoneDomain: cfg.Require("privateHostedZoneDomain"),
		CertificateArn:          cfg.Require("certificateArn"),
		GlobalCertificateArn:    cfg.Require("globalCertificateArn"),
		DatabasePassword:        cfg.RequireSecret("databasePassword"),
		BastionKeyName:          cfg.Get("bastionKeyName"),
		BastionIngressCidr:      ingress,
		BastionInstanceType:     instanceType,
	}, nil
}
