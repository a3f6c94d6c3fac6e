package rule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadDir(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "feedback.json", `{
		"id": "notify-feedback",
		"enabled": true,
		"priority": 2,
		"match_policy": "all",
		"conditions": [{"id": "issue_type", "options": {"value": "7"}}],
		"actions": [{"id": "notify", "options": {"channel": "alerts"}}]
	}`)

	writeFile(t, dir, "errors.yaml", `
id: resolve-errors
enabled: true
priority: 1
match_policy: any
conditions:
  - id: issue_type
    options:
      value: "1"
actions:
  - id: resolve
`)

	writeFile(t, dir, "disabled.json", `{
		"id": "disabled-rule",
		"enabled": false,
		"match_policy": "all",
		"conditions": [{"id": "issue_type", "options": {"value": "1"}}]
	}`)

	writeFile(t, dir, "broken.json", `{"id": "broken"`)

	loader := NewLoader(nil)
	rules, err := loader.LoadDir(dir)
	require.NoError(t, err)

	// Disabled and broken definitions are skipped; order is by priority.
	require.Len(t, rules, 2)
	assert.Equal(t, "resolve-errors", rules[0].ID)
	assert.Equal(t, "notify-feedback", rules[1].ID)
}

func TestLoader_ArrayDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "many.json", `[
		{"id": "a", "enabled": true, "match_policy": "all",
		 "conditions": [{"id": "issue_type", "options": {"value": "1"}}]},
		{"id": "b", "enabled": true, "match_policy": "none",
		 "conditions": [{"id": "level", "options": {"value": "error"}}]}
	]`)

	loader := NewLoader(nil)
	rules, err := loader.LoadFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, rules, 2)
}

func TestLoader_InvalidRuleSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mixed.json", `[
		{"id": "good", "enabled": true, "match_policy": "all",
		 "conditions": [{"id": "issue_type", "options": {"value": "1"}}]},
		{"id": "bad", "enabled": true, "match_policy": "bogus",
		 "conditions": [{"id": "issue_type"}]}
	]`)

	loader := NewLoader(nil)
	rules, err := loader.LoadFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "good", rules[0].ID)
}

func TestLoader_LaterFileWinsOnConflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01-first.json", `{
		"id": "dup", "enabled": true, "priority": 1, "match_policy": "all",
		"conditions": [{"id": "issue_type", "options": {"value": "1"}}]
	}`)
	writeFile(t, dir, "02-second.json", `{
		"id": "dup", "enabled": true, "priority": 9, "match_policy": "all",
		"conditions": [{"id": "issue_type", "options": {"value": "2"}}]
	}`)

	loader := NewLoader(nil)
	rules, err := loader.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 9, rules[0].Priority)
}

func TestLoader_MissingDir(t *testing.T) {
	loader := NewLoader(nil)
	_, err := loader.LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
