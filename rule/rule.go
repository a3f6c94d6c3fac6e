// Package rule defines the user-configured rule entity: an ordered list of
// conditions combined under a match policy, and the actions to dispatch when
// the rule fires. Rules are read-only to the engine.
package rule

import (
	"fmt"
	"sort"
)

// MatchPolicy determines how a rule's condition results combine.
type MatchPolicy string

// Match policies. The string values are stable wire identifiers.
const (
	MatchAll  MatchPolicy = "all"
	MatchAny  MatchPolicy = "any"
	MatchNone MatchPolicy = "none"
)

// Valid reports whether p is a known match policy.
func (p MatchPolicy) Valid() bool {
	switch p {
	case MatchAll, MatchAny, MatchNone:
		return true
	}
	return false
}

// ConfigEntry is one condition or action reference inside a rule. The shape
// is bit-exact with the external rule-definition schema and round-trips
// losslessly through serialization.
type ConfigEntry struct {
	ID      string            `json:"id" yaml:"id"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Option returns the named option value, or "" when absent.
func (c ConfigEntry) Option(name string) string {
	return c.Options[name]
}

// Rule is the configuration entity evaluated against each event.
type Rule struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	Priority    int           `json:"priority,omitempty" yaml:"priority,omitempty"`
	MatchPolicy MatchPolicy   `json:"match_policy" yaml:"match_policy"`
	Conditions  []ConfigEntry `json:"conditions" yaml:"conditions"`
	Actions     []ConfigEntry `json:"actions" yaml:"actions"`
}

// Validate checks structural validity of the rule definition.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule missing id")
	}
	if !r.MatchPolicy.Valid() {
		return fmt.Errorf("rule %s: invalid match policy %q (must be all, any or none)", r.ID, r.MatchPolicy)
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("rule %s: must have at least one condition", r.ID)
	}
	for i, cond := range r.Conditions {
		if cond.ID == "" {
			return fmt.Errorf("rule %s: condition[%d] missing id", r.ID, i)
		}
	}
	for i, act := range r.Actions {
		if act.ID == "" {
			return fmt.Errorf("rule %s: action[%d] missing id", r.ID, i)
		}
	}
	return nil
}

// Sort orders rules for evaluation: priority ascending, ties broken by id so
// the order is deterministic across replicas.
func Sort(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}
