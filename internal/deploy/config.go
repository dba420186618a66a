package deploy

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/topology"
)

var (
	ErrMissingSecret      = errors.New("secret resolves to an empty value")
	ErrUnknownEnvironment = errors.New("environment not configured")
)

var validate = validator.New()

// Config is the deployer's view of infra.yaml.
type Config struct {
	Organization string                                         `yaml:"organization" validate:"required"`
	Region       string                                         `yaml:"region" validate:"required"`
	Stacks       map[topology.Stack]Project                     `yaml:"stacks" validate:"required,dive"`
	Environments map[environment.Name]map[topology.Stack]Values `yaml:"environments"`
}

// Project points at the Pulumi program behind a stack.
type Project struct {
	Name    string `yaml:"project" validate:"required"`
	WorkDir string `yaml:"workDir" validate:"required"`
}

// Values are the per-environment config keys of one stack. Secret values may reference
// environment variables as ${NAME}.
type Values struct {
	Config  map[string]string `yaml:"config"`
	Secrets map[string]string `yaml:"secrets"`
}

// LoadConfig reads and validates a config file, expanding secrets from the process environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML, resolves secret references through lookup and validates the result.
func ParseConfig(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, err
	}
	for _, stack := range []topology.Stack{topology.Foundation, topology.Application} {
		if _, ok := cfg.Stacks[stack]; !ok {
			return nil, fmt.Errorf("stacks.%s is required", stack)
		}
	}

	for env, stacks := range cfg.Environments {
		if _, err := environment.ParseName(string(env)); err != nil {
			return nil, err
		}
		for stack, values := range stacks {
			for key, raw := range values.Secrets {
				var missing []string
				value := os.Expand(raw, func(name string) string {
					v, ok := lookup(name)
					if !ok {
						missing = append(missing, name)
					}
					return v
				})
				if len(missing) > 0 || value == "" {
					sort.Strings(missing)
					return nil, fmt.Errorf("environments.%s.%s.secrets.%s (%s): %w",
						env, stack, key, strings.Join(missing, ", "), ErrMissingSecret)
				}
				values.Secrets[key] = value
			}
		}
	}
	return &cfg, nil
}

// FullyQualified returns the org/project/stack name of a stack in env.
func (c *Config) FullyQualified(stack topology.Stack, env environment.Name) string {
	return fmt.Sprintf("%s/%s/%s", c.Organization, c.Stacks[stack].Name, env)
}

// StackValues returns every config value a stack receives in env, secrets flagged.
func (c *Config) StackValues(stack topology.Stack, env environment.Name) (map[string]Value, error) {
	stacks, ok := c.Environments[env]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEnvironment, env)
	}

	out := map[string]Value{
		"aws:region":  {Value: c.Region},
		"environment": {Value: string(env)},
	}
	values := stacks[stack]
	for k, v := range values.Config {
		out[k] = Value{Value: v}
	}
	for k, v := range values.Secrets {
		out[k] = Value{Value: v, Secret: true}
	}
	if stack == topology.Application {
		out["foundationStack"] = Value{Value: c.FullyQualified(topology.Foundation, env)}
	}
	return out, nil
}

// Value is one stack config entry.
type Value struct {
	Value  string
	Secret bool
}
