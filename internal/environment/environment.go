// Package environment holds the per-environment descriptor every construct reads.
//
// The descriptors are literal tables. Values that were placeholders upstream (bucket ARNs,
// zone domains, certificate ARNs) are not part of the tables and must come from stack
// configuration.
package environment

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Name identifies a deployment environment.
type Name string

const (
	Staging    Name = "staging"
	Production Name = "production"
)

var ErrUnknownEnvironment = errors.New("unknown environment")

// ParseName accepts only the known environment names; a typo is an error, never a fallback.
func ParseName(s string) (Name, error) {
	switch Name(s) {
	case Staging:
		return Staging, nil
	case Production:
		return Production, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, s)
}

func (n Name) String() string { return string(n) }

// Shared values common to every environment.
type Shared struct {
	CorsAllowedOrigins []string `validate:"required,min=1"`
	// EnvBucketArn is the bucket holding the containers' env files. Only the application
	// stack needs it.
	EnvBucketArn string `validate:"omitempty,startswith=arn:aws:s3:::"`
}

// Tier sizing and env-file location for one deployable unit.
type Tier struct {
	CPU          CPU    `validate:"required,oneof=256 512 1024 2048 4096 8192"`
	Memory       Memory `validate:"required,oneof=512 1024 2048 4096 8192 16384"`
	EnvPath      string `validate:"required"`
	DesiredCount int    `validate:"min=1"`
	Domain       string `validate:"required,fqdn"`
}

// Environment is the immutable descriptor for one environment.
type Environment struct {
	Shared

	Name             Name   `validate:"required,oneof=staging production"`
	CloudFrontDomain string `validate:"required,fqdn"`
	ContainerName    string `validate:"required"`
	ContainerPort    int    `validate:"required,min=1,max=65535"`
	APIGatewayDomain string `validate:"required,fqdn"`

	Backend  Tier
	Frontend Tier
}

var validate = validator.New()

var ErrInvalidSize = errors.New("cpu/memory combination not allowed on fargate")

// Validate checks the record against the field constraints and the Fargate size table.
func (e Environment) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("environment %s: %w", e.Name, err)
	}
	for tier, t := range map[string]Tier{"backend": e.Backend, "frontend": e.Frontend} {
		if !ValidFargateSize(t.CPU, t.Memory) {
			return fmt.Errorf("environment %s %s: %w: cpu=%d memory=%d", e.Name, tier, ErrInvalidSize, t.CPU, t.Memory)
		}
	}
	return nil
}

// WithEnvBucket returns a copy with the env-file bucket set.
func (e Environment) WithEnvBucket(arn string) Environment {
	e.CorsAllowedOrigins = append([]string(nil), e.CorsAllowedOrigins...)
	e.EnvBucketArn = arn
	return e
}

// EnvFileArn is the S3 object ARN of a tier's env file.
func (e Environment) EnvFileArn(t Tier) string {
	return fmt.Sprintf("%s/%s", e.EnvBucketArn, t.EnvPath)
}

// ImageTag is the tag CI pushes for this environment.
func (e Environment) ImageTag() string {
	return fmt.Sprintf("%s-latest", e.Name)
}

func shared() Shared {
	return Shared{
		CorsAllowedOrigins: []string{"example.com", "*.example.com"},
	}
}

// StagingEnvironment returns the staging descriptor.
func StagingEnvironment() Environment {
	return Environment{
		Shared:           shared(),
		Name:             Staging,
		CloudFrontDomain: "staging-cdn.example.com",
		ContainerName:    "app",
		ContainerPort:    3000,
		APIGatewayDomain: "staging-api.example.com",
		Backend: Tier{
			CPU:          CPU256,
			Memory:       Memory512,
			EnvPath:      "backend/staging/.env",
			DesiredCount: 1,
			Domain:       "staging-api.example.internal",
		},
		Frontend: Tier{
			CPU:          CPU256,
			Memory:       Memory512,
			EnvPath:      "frontend/staging/.env",
			DesiredCount: 1,
			Domain:       "staging.example.com",
		},
	}
}

// ProductionEnvironment returns the production descriptor.
func ProductionEnvironment() Environment {
	return Environment{
		Shared:           shared(),
		Name:             Production,
		CloudFrontDomain: "cdn.example.com",
		ContainerName:    "app",
		ContainerPort:    3000,
		APIGatewayDomain: "api.example.com",
		Backend: Tier{
			CPU:          CPU512,
			Memory:       Memory1024,
			EnvPath:      "backend/production/.env",
			DesiredCount: 1,
			Domain:       "api.example.internal",
		},
		Frontend: Tier{
			CPU:          CPU512,
			Memory:       Memory1024,
			EnvPath:      "frontend/production/.env",
			DesiredCount: 1,
			Domain:       "example.com",
		},
	}
}

// Lookup returns the descriptor for name.
func Lookup(name Name) (Environment, error) {
	switch name {
	case Staging:
		return StagingEnvironment(), nil
	case Production:
		return ProductionEnvironment(), nil
	}
	return Environment{}, fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
}

// Tags is the tag set applied to every taggable resource.
func (e Environment) Tags(component string) map[string]string {
	return map[string]string{
		"Name":        fmt.Sprintf("%s-%s", component, e.Name),
		"Environment": e.Name.String(),
		"Project":     Project,
		"Component":   component,
	}
}

// Project is the tag value shared by both stacks.
const Project = "webapp-infra"

// Resolve picks the descriptor for a stack: the configured environment when set, otherwise
// the stack name.
func Resolve(configured, stack string) (Environment, error) {
	raw := configured
	if raw == "" {
		raw = stack
	}
	name, err := ParseName(raw)
	if err != nil {
		return Environment{}, err
	}
	return Lookup(name)
}
