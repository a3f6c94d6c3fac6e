package condition

import (
	"fmt"

	"github.com/c360/ruleflow/event"
)

// LevelID is the stable id of the level condition.
const LevelID = "level"

// LevelCondition passes when the event's severity level compares to the
// configured level under the configured match mode ("eq", "gte" or "lte",
// defaulting to "eq").
type LevelCondition struct{}

// ID implements Condition.
func (c *LevelCondition) ID() string { return LevelID }

// OptionsSchema implements Condition.
func (c *LevelCondition) OptionsSchema() string {
	return `{
		"type": "object",
		"required": ["value"],
		"properties": {
			"value": {"type": "string"},
			"match": {"type": "string", "enum": ["eq", "gte", "lte"]}
		}
	}`
}

// Compile implements Condition.
func (c *LevelCondition) Compile(options map[string]string) (Instance, error) {
	want, ok := event.ParseLevel(options["value"])
	if !ok {
		return nil, fmt.Errorf("value %q is not a known level", options["value"])
	}

	match := options["match"]
	if match == "" {
		match = "eq"
	}

	return InstanceFunc(func(ev *event.Event) bool {
		switch match {
		case "gte":
			return ev.Level >= want
		case "lte":
			return ev.Level <= want
		default:
			return ev.Level == want
		}
	}), nil
}
