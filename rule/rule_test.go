package rule

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Validate(t *testing.T) {
	valid := Rule{
		ID:          "r-1",
		Enabled:     true,
		MatchPolicy: MatchAll,
		Conditions:  []ConfigEntry{{ID: "issue_type", Options: map[string]string{"value": "1"}}},
		Actions:     []ConfigEntry{{ID: "notify"}},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Rule)
	}{
		{"missing id", func(r *Rule) { r.ID = "" }},
		{"bad policy", func(r *Rule) { r.MatchPolicy = "most" }},
		{"no conditions", func(r *Rule) { r.Conditions = nil }},
		{"condition missing id", func(r *Rule) { r.Conditions = []ConfigEntry{{}} }},
		{"action missing id", func(r *Rule) { r.Actions = []ConfigEntry{{}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestConfigEntry_RoundTrip(t *testing.T) {
	entry := ConfigEntry{
		ID:      "issue_type",
		Options: map[string]string{"value": "7"},
	}

	raw, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"issue_type","options":{"value":"7"}}`, string(raw))

	var decoded ConfigEntry
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, entry, decoded)
}

func TestSort(t *testing.T) {
	rules := []*Rule{
		{ID: "b", Priority: 2},
		{ID: "c", Priority: 1},
		{ID: "a", Priority: 2},
	}
	Sort(rules)

	got := []string{rules[0].ID, rules[1].ID, rules[2].ID}
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestValidateDocument(t *testing.T) {
	valid := map[string]any{
		"id":           "r-1",
		"enabled":      true,
		"match_policy": "all",
		"conditions":   []any{map[string]any{"id": "issue_type", "options": map[string]any{"value": "7"}}},
		"actions":      []any{map[string]any{"id": "notify"}},
	}
	assert.NoError(t, ValidateDocument(valid))

	missing := map[string]any{"id": "r-2"}
	assert.Error(t, ValidateDocument(missing))

	badPolicy := map[string]any{
		"id":           "r-3",
		"match_policy": "sometimes",
		"conditions":   []any{map[string]any{"id": "c"}},
	}
	assert.Error(t, ValidateDocument(badPolicy))

	// Option values must be strings per the external schema
	badOption := map[string]any{
		"id":           "r-4",
		"match_policy": "all",
		"conditions":   []any{map[string]any{"id": "c", "options": map[string]any{"value": 7}}},
	}
	assert.Error(t, ValidateDocument(badOption))
}

func TestFromDocument(t *testing.T) {
	doc := map[string]any{
		"id":           "r-1",
		"name":         "notify on feedback",
		"enabled":      true,
		"priority":     float64(5),
		"match_policy": "any",
		"conditions":   []any{map[string]any{"id": "issue_type", "options": map[string]any{"value": "7"}}},
		"actions":      []any{map[string]any{"id": "notify", "options": map[string]any{"channel": "alerts"}}},
	}

	r, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "r-1", r.ID)
	assert.Equal(t, MatchAny, r.MatchPolicy)
	assert.Equal(t, 5, r.Priority)
	require.Len(t, r.Conditions, 1)
	assert.Equal(t, "7", r.Conditions[0].Option("value"))
	require.Len(t, r.Actions, 1)
	assert.Equal(t, "alerts", r.Actions[0].Option("channel"))
}
