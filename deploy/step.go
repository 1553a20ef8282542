package deploy

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// TagAll selects every deployment step.
	TagAll = "all"
	// TagMocks selects the mock contracts of the local chain.
	TagMocks = "mocks"
	// TagRaffle selects the raffle deployment.
	TagRaffle = "Raffle"
)

// ErrStepExists is returned when a step name is registered twice.
var ErrStepExists = errors.New("a step with the same name is already registered")

// StepFunc performs the work of a step.
type StepFunc func(env Environment) error

// Step is a unit of deployment work.
type Step struct {
	Name string
	// Tags select the step when running by tag.
	Tags []string
	// Dependencies are tags. Every step carrying one of them runs before this step.
	Dependencies []string
	Func         StepFunc
}

// Registry holds steps in registration order.
type Registry struct {
	steps []Step
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds steps to the registry. It fails on a duplicate name.
func (r *Registry) Register(steps ...Step) error {
	for _, s := range steps {
		if s.Name == "" || s.Func == nil {
			return errors.New("step requires a name and a function")
		}
		if slices.ContainsFunc(r.steps, func(existing Step) bool { return existing.Name == s.Name }) {
			return fmt.Errorf("%s: %w", s.Name, ErrStepExists)
		}
		r.steps = append(r.steps, s)
	}

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(steps ...Step) {
	if err := r.Register(steps...); err != nil {
		panic(err)
	}
}

// Steps returns the registered steps in registration order.
func (r *Registry) Steps() []Step {
	return slices.Clone(r.steps)
}

// DefaultRegistry returns a registry with the mock and raffle steps.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(MocksStep, RaffleStep)

	return r
}
