package action

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
)

// DefaultActionTimeout bounds a single executor run, external calls
// included.
const DefaultActionTimeout = 10 * time.Second

// Outcome is the result of running one action of a rule.
type Outcome struct {
	ActionID string
	Err      error
	// Retryable reports whether the failure was transient. The engine does
	// not retry; the flag is surfaced for callers that replay events.
	Retryable bool
	Elapsed   time.Duration
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Dispatcher runs a matched rule's actions. Each action is isolated: a
// failure or timeout in one never prevents the siblings from running, and a
// panicking executor is contained to its own outcome.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the registry. A non-positive
// timeout falls back to DefaultActionTimeout.
func NewDispatcher(registry *Registry, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	return &Dispatcher{
		registry: registry,
		timeout:  timeout,
		logger:   slog.Default().With("component", "action.dispatcher"),
	}
}

// Dispatch runs every action of the rule against the event, in order,
// regardless of individual failures. Outcomes are returned in action order.
func (d *Dispatcher) Dispatch(ctx context.Context, r *rule.Rule, ev *event.Event) []Outcome {
	outcomes := make([]Outcome, 0, len(r.Actions))
	for _, entry := range r.Actions {
		out := d.runOne(ctx, entry, r, ev)
		if out.Err != nil {
			d.logger.Warn("action failed",
				"action", out.ActionID,
				"rule", r.ID,
				"event", ev.ID,
				"retryable", out.Retryable,
				"error", out.Err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (d *Dispatcher) runOne(ctx context.Context, entry rule.ConfigEntry, r *rule.Rule, ev *event.Event) (out Outcome) {
	out.ActionID = entry.ID
	start := time.Now()
	defer func() {
		out.Elapsed = time.Since(start)
		if rec := recover(); rec != nil {
			out.Err = errors.WrapFatal(
				fmt.Errorf("panic: %v", rec),
				"Dispatcher", "runOne", "execute action "+entry.ID)
			out.Retryable = false
		}
	}()

	inst, err := d.registry.Compile(entry.ID, entry.Options)
	if err != nil {
		out.Err = err
		return out
	}

	actx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err = inst.Execute(actx, ev, r)
	if err != nil {
		if actx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("%w: %s after %s", errors.ErrDeliveryTimeout, entry.ID, d.timeout)
		}
		out.Err = err
		out.Retryable = errors.IsTransient(err)
	}
	return out
}
