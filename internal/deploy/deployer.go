// Package deploy runs the foundation and application stacks of one environment in
// dependency order.
package deploy

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"webapp-infra/internal/environment"
	"webapp-infra/internal/logging"
	"webapp-infra/internal/topology"
)

// Deployer walks the stacks of an environment. Every operation stops at the first failing
// stack.
type Deployer struct {
	cfg   *Config
	ws    Workspace
	order []topology.Stack
}

func New(cfg *Config, ws Workspace) (*Deployer, error) {
	g, err := topology.Default()
	if err != nil {
		return nil, err
	}
	if violations, err := topology.Violations(g); err != nil {
		return nil, err
	} else if len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s -> %s", topology.ErrStackCycle, violations[0].Source, violations[0].Target)
	}
	order, err := topology.StackOrder(g)
	if err != nil {
		return nil, err
	}
	return &Deployer{cfg: cfg, ws: ws, order: order}, nil
}

// Order is the stack deploy order.
func (d *Deployer) Order() []topology.Stack {
	return slices.Clone(d.order)
}

func (d *Deployer) Preview(ctx context.Context, env environment.Name) error {
	return d.walk(ctx, env, "preview", d.order, Stack.Preview)
}

func (d *Deployer) Up(ctx context.Context, env environment.Name) error {
	return d.walk(ctx, env, "up", d.order, Stack.Up)
}

// Destroy tears stacks down in reverse deploy order.
func (d *Deployer) Destroy(ctx context.Context, env environment.Name) error {
	reversed := slices.Clone(d.order)
	slices.Reverse(reversed)
	return d.walk(ctx, env, "destroy", reversed, Stack.Destroy)
}

func (d *Deployer) walk(ctx context.Context, env environment.Name, op string, stacks []topology.Stack,
	run func(Stack, context.Context) (Changes, error)) error {
	for _, stack := range stacks {
		name := d.cfg.FullyQualified(stack, env)
		log := logging.FromContext(ctx).With(zap.String("stack", name), zap.String("op", op))

		s, err := d.prepare(ctx, stack, env, name)
		if err != nil {
			return fmt.Errorf("%s %s: %w", op, name, err)
		}

		log.Info("starting")
		changes, err := run(s, ctx)
		if err != nil {
			return fmt.Errorf("%s %s: %w", op, name, err)
		}
		log.Info("finished", zap.Any("changes", changes))
	}
	return nil
}

func (d *Deployer) prepare(ctx context.Context, stack topology.Stack, env environment.Name, name string) (Stack, error) {
	values, err := d.cfg.StackValues(stack, env)
	if err != nil {
		return nil, err
	}
	s, err := d.ws.Select(ctx, name, d.cfg.Stacks[stack].WorkDir)
	if err != nil {
		return nil, fmt.Errorf("selecting stack: %w", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.SetConfig(ctx, k, values[k]); err != nil {
			return nil, fmt.Errorf("setting %s: %w", k, err)
		}
		logging.FromContext(ctx).Debug("config set", zap.String("key", k), zap.Bool("secret", values[k].Secret))
	}
	return s, nil
}
