// Package saga executes multi-account operations as ordered sequences of
// idempotent steps with per-step compensation. The underlying store offers
// no multi-item transaction, so all-or-nothing behavior has to be built from
// forward steps plus explicit undo.
package saga

import (
	"context"

	"go.uber.org/zap"

	"github.com/centavoapp/backend/internal/domain/errors"
)

// Step is one unit of a saga. Run applies the step; Compensate undoes it if
// a later step fails. Compensate may be nil when the step has nothing to
// undo.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga is an ordered list of steps executed strictly in sequence. Later
// steps may depend on earlier steps' post-state.
type Saga struct {
	name   string
	steps  []Step
	logger *zap.Logger
}

// New creates a named saga
func New(name string, logger *zap.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

// AddStep appends a step to the saga
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the steps in order. On the first failure it compensates the
// already-applied steps in reverse order and returns the step's error. If a
// compensation itself fails the accounts are left inconsistent: Execute logs
// at the highest severity and returns a partial-failure error, which callers
// must surface and never retry automatically.
//
// Cancellation is checked between steps only. Once a step has started it
// runs to completion and is accounted for in compensation.
func (s *Saga) Execute(ctx context.Context) error {
	applied := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return s.compensate(ctx, applied, errors.NewInternalError("operation canceled", err))
		}

		if err := step.Run(ctx); err != nil {
			s.logger.Info("saga step failed, compensating",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err))
			return s.compensate(ctx, applied, err)
		}
		applied = append(applied, step)
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, applied []Step, cause error) error {
	for i := len(applied) - 1; i >= 0; i-- {
		step := applied[i]
		if step.Compensate == nil {
			continue
		}
		// Compensation ignores ctx cancellation: once we start undoing we
		// finish, otherwise the books are left open.
		if err := step.Compensate(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("saga compensation failed; accounts left inconsistent, manual reconciliation required",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.NamedError("cause", cause),
				zap.Error(err))
			return errors.NewPartialFailureError("compensation failed for step "+step.Name, err).
				WithDetail("saga", s.name).
				WithDetail("cause", cause.Error())
		}
	}
	return cause
}
