package deploy

import (
	"context"
	"io"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optdestroy"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optpreview"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optup"
)

// Changes counts resources per operation (create, update, delete, same, ...).
type Changes map[string]int

// Workspace selects stacks, creating them on first use.
type Workspace interface {
	Select(ctx context.Context, name, workDir string) (Stack, error)
}

// Stack is the subset of engine operations the deployer drives.
type Stack interface {
	SetConfig(ctx context.Context, key string, value Value) error
	Preview(ctx context.Context) (Changes, error)
	Up(ctx context.Context) (Changes, error)
	Destroy(ctx context.Context) (Changes, error)
}

// AutoWorkspace runs stacks from local source through the Pulumi Automation API.
type AutoWorkspace struct {
	Progress io.Writer
	Refresh  bool
}

func (w AutoWorkspace) Select(ctx context.Context, name, workDir string) (Stack, error) {
	s, err := auto.UpsertStackLocalSource(ctx, name, workDir)
	if err != nil {
		return nil, err
	}
	progress := w.Progress
	if progress == nil {
		progress = io.Discard
	}
	return &autoStack{stack: s, progress: progress, refresh: w.Refresh}, nil
}

type autoStack struct {
	stack    auto.Stack
	progress io.Writer
	refresh  bool
}

func (s *autoStack) SetConfig(ctx context.Context, key string, value Value) error {
	return s.stack.SetConfig(ctx, key, auto.ConfigValue{Value: value.Value, Secret: value.Secret})
}

func (s *autoStack) Preview(ctx context.Context) (Changes, error) {
	opts := []optpreview.Option{optpreview.ProgressStreams(s.progress)}
	if s.refresh {
		opts = append(opts, optpreview.Refresh())
	}
	res, err := s.stack.Preview(ctx, opts...)
	if err != nil {
		return nil, err
	}
	changes := Changes{}
	for op, n := range res.ChangeSummary {
		changes[string(op)] = n
	}
	return changes, nil
}

func (s *autoStack) Up(ctx context.Context) (Changes, error) {
	opts := []optup.Option{optup.ProgressStreams(s.progress)}
	if s.refresh {
		opts = append(opts, optup.Refresh())
	}
	res, err := s.stack.Up(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return summaryChanges(res.Summary), nil
}

func (s *autoStack) Destroy(ctx context.Context) (Changes, error) {
	opts := []optdestroy.Option{optdestroy.ProgressStreams(s.progress)}
	if s.refresh {
		opts = append(opts, optdestroy.Refresh())
	}
	res, err := s.stack.Destroy(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return summaryChanges(res.Summary), nil
}

func summaryChanges(summary auto.UpdateSummary) Changes {
	changes := Changes{}
	if summary.ResourceChanges != nil {
		for op, n := range *summary.ResourceChanges {
			changes[op] = n
		}
	}
	return changes
}
