// Package cascade keeps denormalized references consistent across documents
// the store cannot update atomically. Each cascade is an ordered plan of
// forward-only steps; the first failure stops the plan and is reported.
package cascade

import (
	"context"
	"fmt"
	"time"

	"chatapi/application/ports"
	"chatapi/domain/events"

	"go.uber.org/zap"
)

// Step is one store write of a cascade. Run may return further steps; they
// execute immediately after it, before the rest of the plan.
type Step struct {
	Name string
	Run  func(ctx context.Context) ([]Step, error)
}

// State represents the outcome of a plan execution
type State string

const (
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// Report describes how far a plan got.
type Report struct {
	Cascade   string
	EntityID  string
	State     State
	Completed []string
	// Failed names the step that stopped the plan.
	Failed string
	Err    error
}

// Plan is an ordered list of steps against one root entity.
type Plan struct {
	name      string
	entityID  string
	steps     []Step
	logger    *zap.Logger
	metrics   ports.Metrics
	publisher ports.EventPublisher
	clock     ports.Clock
}

// Add appends a step that yields no further steps.
func (p *Plan) Add(name string, run func(ctx context.Context) error) *Plan {
	return p.AddExpanding(name, func(ctx context.Context) ([]Step, error) {
		return nil, run(ctx)
	})
}

// AddExpanding appends a step whose result may schedule more steps.
func (p *Plan) AddExpanding(name string, run func(ctx context.Context) ([]Step, error)) *Plan {
	p.steps = append(p.steps, Step{Name: name, Run: run})
	return p
}

// Execute runs the steps in order. Nothing is retried or compensated: on
// failure the completed steps stay applied and the failure is logged,
// counted and published so recovery tooling can find it.
func (p *Plan) Execute(ctx context.Context) (Report, error) {
	report := Report{Cascade: p.name, EntityID: p.entityID, State: StateRunning}
	start := p.clock.Now()

	queue := append([]Step(nil), p.steps...)
	for i := 0; i < len(queue); i++ {
		step := queue[i]
		if err := ctx.Err(); err != nil {
			return p.fail(ctx, report, step.Name, err)
		}

		p.logger.Debug("Executing cascade step",
			zap.String("cascade", p.name),
			zap.String("step", step.Name),
			zap.String("entityId", p.entityID),
		)

		more, err := step.Run(ctx)
		if err != nil {
			return p.fail(ctx, report, step.Name, err)
		}
		report.Completed = append(report.Completed, step.Name)

		if len(more) > 0 {
			rest := append(append([]Step(nil), more...), queue[i+1:]...)
			queue = append(queue[:i+1], rest...)
		}
	}

	report.State = StateCompleted
	p.metrics.RecordLatency(ctx, "cascade."+p.name, p.clock.Now().Sub(start))
	p.logger.Info("Cascade completed",
		zap.String("cascade", p.name),
		zap.String("entityId", p.entityID),
		zap.Int("steps", len(report.Completed)),
	)
	return report, nil
}

func (p *Plan) fail(ctx context.Context, report Report, step string, err error) (Report, error) {
	report.State = StateFailed
	report.Failed = step
	report.Err = err

	p.logger.Error("cascade step failed",
		zap.String("cascade", p.name),
		zap.String("step", step),
		zap.String("entityId", p.entityID),
		zap.Strings("completed", report.Completed),
		zap.Error(err),
	)
	p.metrics.RecordCascadeFailure(ctx, p.name, step)

	// Publishing uses a fresh context so a cancelled request still leaves
	// a trace for recovery tooling.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	event := events.NewCascadeStepFailed(p.name, step, p.entityID, report.Completed, err, p.clock.Now())
	if pubErr := p.publisher.Publish(pubCtx, event); pubErr != nil {
		p.logger.Warn("Failed to publish cascade failure",
			zap.String("cascade", p.name),
			zap.Error(pubErr),
		)
	}

	return report, fmt.Errorf("cascade %s stopped at %q: %w", p.name, step, err)
}
