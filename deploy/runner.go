package deploy

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/raffle-labs/raffle-deployments/operations"
)

// Runner executes the steps of a registry against an environment, one at a time.
type Runner struct {
	registry *Registry
	env      Environment
	reporter operations.Reporter
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithReporter records the operations of every run with reporter.
func WithReporter(reporter operations.Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// NewRunner creates a runner.
func NewRunner(registry *Registry, env Environment, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		env:      env,
		reporter: operations.NewMemoryReporter(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Reporter returns the reporter the operations are recorded with.
func (r *Runner) Reporter() operations.Reporter {
	return r.reporter
}

// run tracks the steps executed by one call to Run.
type run struct {
	env      Environment
	executed map[string]bool
}

// Run executes the steps whose tags intersect tags, and the steps they depend on, in
// registration order with dependencies first. Without tags every step runs. Each step runs at
// most once and the first failure aborts the run.
func (r *Runner) Run(ctx context.Context, tags ...string) error {
	rn := &run{executed: map[string]bool{}}

	env := r.env
	env.GetContext = func() context.Context { return ctx }
	env.OperationsBundle = operations.NewBundle(ctx, env.Logger, r.reporter)
	env.Fixture = func(tags ...string) error { return r.runTags(rn, tags) }
	rn.env = env

	return r.runTags(rn, tags)
}

// Fixture resets the artifact store of an in-process ephemeral network and runs the steps
// selected by tags. On persistent networks the recorded artifacts are kept and the deployer
// reuses unchanged contracts.
func (r *Runner) Fixture(ctx context.Context, tags ...string) error {
	if r.env.Network.IsEphemeral() && r.env.Network.InProcess() && r.env.Artifacts != nil {
		if err := r.env.Artifacts.Reset(); err != nil {
			return fmt.Errorf("failed to reset artifacts: %w", err)
		}
	}

	return r.Run(ctx, tags...)
}

func (r *Runner) runTags(rn *run, tags []string) error {
	steps, err := r.plan(tags)
	if err != nil {
		return err
	}

	lggr := rn.env.Logger
	for _, s := range steps {
		if rn.executed[s.Name] {
			continue
		}
		rn.executed[s.Name] = true

		lggr.Infow("Running step", "step", s.Name, "tags", s.Tags)
		if err = s.Func(rn.env); err != nil {
			lggr.Errorw("Step failed", "step", s.Name, "err", err)
			return fmt.Errorf("step %s: %w", s.Name, err)
		}
	}

	return nil
}

// plan returns the steps selected by tags with their transitive dependencies, dependencies
// first.
func (r *Runner) plan(tags []string) ([]Step, error) {
	all := r.registry.Steps()

	selected := all
	if len(tags) > 0 {
		selected = lo.Filter(all, func(s Step, _ int) bool {
			return len(lo.Intersect(s.Tags, tags)) > 0
		})
	}

	var (
		ordered  []Step
		done     = map[string]bool{}
		visiting = map[string]bool{}
		visit    func(s Step) error
	)
	visit = func(s Step) error {
		if done[s.Name] {
			return nil
		}
		if visiting[s.Name] {
			return fmt.Errorf("dependency cycle at step %s", s.Name)
		}
		visiting[s.Name] = true

		for _, dep := range s.Dependencies {
			providers := lo.Filter(all, func(p Step, _ int) bool {
				return slices.Contains(p.Tags, dep) && p.Name != s.Name
			})
			if len(providers) == 0 {
				return fmt.Errorf("step %s depends on %q, which no step provides", s.Name, dep)
			}
			for _, p := range providers {
				if err := visit(p); err != nil {
					return err
				}
			}
		}

		visiting[s.Name] = false
		done[s.Name] = true
		ordered = append(ordered, s)

		return nil
	}

	for _, s := range selected {
		if err := visit(s); err != nil {
			return nil, err
		}
	}

	return ordered, nil
}
