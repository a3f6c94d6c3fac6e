package engine

import (
	"log/slog"

	"github.com/c360/ruleflow/condition"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
)

// Evaluator decides whether a rule matches an event. Condition failures of
// any kind (unknown id, malformed options) evaluate to false and are logged;
// a single bad condition entry never aborts the event.
type Evaluator struct {
	conditions *condition.Registry
	logger     *slog.Logger
}

// NewEvaluator creates an evaluator over the condition registry.
func NewEvaluator(conditions *condition.Registry) *Evaluator {
	return &Evaluator{
		conditions: conditions,
		logger:     slog.Default().With("component", "engine.evaluator"),
	}
}

// Match evaluates the rule's conditions under its match policy. A rule with
// no conditions matches every event. Results are commutative: short-circuit
// evaluation is an optimization only and never changes the outcome.
func (e *Evaluator) Match(r *rule.Rule, ev *event.Event) bool {
	if len(r.Conditions) == 0 {
		return true
	}

	switch r.MatchPolicy {
	case rule.MatchAll:
		for _, entry := range r.Conditions {
			if !e.passes(entry, r, ev) {
				return false
			}
		}
		return true
	case rule.MatchAny:
		for _, entry := range r.Conditions {
			if e.passes(entry, r, ev) {
				return true
			}
		}
		return false
	case rule.MatchNone:
		for _, entry := range r.Conditions {
			if e.passes(entry, r, ev) {
				return false
			}
		}
		return true
	default:
		e.logger.Warn("invalid match policy, rule skipped",
			"rule", r.ID,
			"policy", string(r.MatchPolicy))
		return false
	}
}

func (e *Evaluator) passes(entry rule.ConfigEntry, r *rule.Rule, ev *event.Event) bool {
	passed, err := e.conditions.Evaluate(entry.ID, ev, entry.Options)
	if err != nil {
		e.logger.Debug("condition evaluated to false",
			"condition", entry.ID,
			"rule", r.ID,
			"event", ev.ID,
			"error", err)
		return false
	}
	return passed
}
