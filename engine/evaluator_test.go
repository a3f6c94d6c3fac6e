package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/ruleflow/condition"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
)

func feedbackEvent() *event.Event {
	return &event.Event{
		ID:    "evt-1",
		Level: event.LevelError,
		Group: &event.Group{ID: "grp-1", IssueType: event.TypeFeedback},
	}
}

func issueTypeCond(value string) rule.ConfigEntry {
	return rule.ConfigEntry{ID: "issue_type", Options: map[string]string{"value": value}}
}

func levelCond(value string) rule.ConfigEntry {
	return rule.ConfigEntry{ID: "level", Options: map[string]string{"value": value}}
}

func TestEvaluatorMatchPolicies(t *testing.T) {
	ev := feedbackEvent()

	tests := []struct {
		name       string
		policy     rule.MatchPolicy
		conditions []rule.ConfigEntry
		want       bool
	}{
		{"all passes", rule.MatchAll, []rule.ConfigEntry{issueTypeCond("7"), levelCond("error")}, true},
		{"all fails on one", rule.MatchAll, []rule.ConfigEntry{issueTypeCond("7"), levelCond("fatal")}, false},
		{"any passes on one", rule.MatchAny, []rule.ConfigEntry{issueTypeCond("1"), levelCond("error")}, true},
		{"any fails on all", rule.MatchAny, []rule.ConfigEntry{issueTypeCond("1"), levelCond("fatal")}, false},
		{"none passes when all fail", rule.MatchNone, []rule.ConfigEntry{issueTypeCond("1"), levelCond("fatal")}, true},
		{"none fails when one passes", rule.MatchNone, []rule.ConfigEntry{issueTypeCond("7")}, false},
		{"no conditions always match", rule.MatchAll, nil, true},
	}

	e := NewEvaluator(condition.NewDefaultRegistry())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &rule.Rule{ID: "r", MatchPolicy: tt.policy, Conditions: tt.conditions}
			assert.Equal(t, tt.want, e.Match(r, ev))
		})
	}
}

func TestEvaluatorMalformedOptionsAreFalse(t *testing.T) {
	e := NewEvaluator(condition.NewDefaultRegistry())
	ev := feedbackEvent()

	// A malformed condition never raises; the rule just does not match.
	r := &rule.Rule{ID: "r", MatchPolicy: rule.MatchAll, Conditions: []rule.ConfigEntry{
		issueTypeCond("not-an-int"),
	}}
	assert.False(t, e.Match(r, ev))

	// Under NONE the failed condition counts as not passing, so the rule
	// still matches.
	r.MatchPolicy = rule.MatchNone
	assert.True(t, e.Match(r, ev))

	// Unknown condition ids behave the same way.
	r = &rule.Rule{ID: "r", MatchPolicy: rule.MatchAll, Conditions: []rule.ConfigEntry{
		{ID: "no-such-condition"},
	}}
	assert.False(t, e.Match(r, ev))
}

func TestEvaluatorInvalidPolicy(t *testing.T) {
	e := NewEvaluator(condition.NewDefaultRegistry())
	r := &rule.Rule{ID: "r", MatchPolicy: "weird", Conditions: []rule.ConfigEntry{issueTypeCond("7")}}
	assert.False(t, e.Match(r, feedbackEvent()))
}

func TestEvaluatorMergedGroupFanOut(t *testing.T) {
	e := NewEvaluator(condition.NewDefaultRegistry())
	ev := &event.Event{
		ID:    "evt-1",
		Level: event.LevelError,
		Groups: []*event.Group{
			{ID: "grp-1", IssueType: event.TypeError},
			{ID: "grp-2", IssueType: event.TypeCron},
		},
	}

	r := &rule.Rule{ID: "r", MatchPolicy: rule.MatchAll, Conditions: []rule.ConfigEntry{issueTypeCond("4")}}
	assert.True(t, e.Match(r, ev), "any group in the merged set may satisfy the condition")

	r.Conditions = []rule.ConfigEntry{issueTypeCond("7")}
	assert.False(t, e.Match(r, ev))
}
