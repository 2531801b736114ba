package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"conicore/internal/domain"
)

// Invoker performs one provider attempt. The HTTP executor implements it;
// tests substitute a mock.
type Invoker interface {
	Invoke(ctx context.Context, d ProviderDescriptor, task Task) (*InvokeResult, error)
}

// FallbackFunc produces a deterministic result when every provider in the
// chain has failed. It must not fail: it is the floor the caller stands on.
type FallbackFunc func(task Task) *domain.EngineResult

// Orchestrator walks the selected provider chain sequentially and stops at
// the first success. One attempt per provider, no retries: retrying a
// provider that just failed wastes budget better spent on the next one.
type Orchestrator struct {
	registry    *Registry
	invoker     Invoker
	totalBudget time.Duration
}

// NewOrchestrator wires the orchestrator. totalBudgetSecs bounds the whole
// chain; 0 falls back to 30 seconds.
func NewOrchestrator(registry *Registry, invoker Invoker, totalBudgetSecs int) *Orchestrator {
	if totalBudgetSecs <= 0 {
		totalBudgetSecs = 30
	}
	return &Orchestrator{
		registry:    registry,
		invoker:     invoker,
		totalBudget: time.Duration(totalBudgetSecs) * time.Second,
	}
}

// Run executes the fallback chain for a task. The returned result is always
// non-nil: on exhaustion (or an empty candidate list) the fallback producer
// supplies it, flagged with Engine "template" and the accumulated attempt
// log. Caller cancellation cuts the chain short.
func (o *Orchestrator) Run(ctx context.Context, task Task, fallback FallbackFunc) *domain.EngineResult {
	ctx, cancel := context.WithTimeout(ctx, o.totalBudget)
	defer cancel()

	order := SelectOrder(task, o.registry)
	attempts := make([]domain.AttemptRecord, 0, len(order))

	for _, id := range order {
		d, ok := o.registry.Get(id)
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			attempts = append(attempts, domain.AttemptRecord{
				Engine: id,
				Reason: "budget exhausted",
			})
			continue
		}

		start := time.Now()
		result, err := o.invoker.Invoke(ctx, d, task)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			attempts = append(attempts, domain.AttemptRecord{
				Engine:    id,
				Reason:    attemptReason(err),
				LatencyMs: latency,
			})
			log.Printf("engine %s failed: %v", id, err)
			continue
		}

		attempts = append(attempts, domain.AttemptRecord{
			Engine:    id,
			Succeeded: true,
			LatencyMs: latency,
		})
		return &domain.EngineResult{
			Engine:     result.ProviderID,
			Model:      result.Model,
			RawText:    result.Text,
			Accuracy:   result.Accuracy,
			Confidence: domain.ConfidenceFor(result.Accuracy),
			Attempts:   attempts,
			Language:   result.Language,
		}
	}

	out := fallback(task)
	out.Engine = "template"
	out.Fallback = true
	out.Attempts = attempts
	if out.Confidence == "" {
		out.Confidence = domain.ConfidenceLow
	}
	return out
}

// attemptReason flattens a typed attempt failure into the short display
// reason carried in the attempt log.
func attemptReason(err error) string {
	var ae *AttemptError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return err.Error()
}
