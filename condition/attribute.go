package condition

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360/ruleflow/event"
)

// AttributeID is the stable id of the attribute condition.
const AttributeID = "attribute"

// AttributeCondition compares a named event attribute against a value with
// one of the comparison operators. A missing attribute never passes.
type AttributeCondition struct{}

// ID implements Condition.
func (c *AttributeCondition) ID() string { return AttributeID }

// OptionsSchema implements Condition.
func (c *AttributeCondition) OptionsSchema() string {
	ops := make([]string, 0, len(operators))
	for op := range operators {
		ops = append(ops, fmt.Sprintf("%q", op))
	}

	return fmt.Sprintf(`{
		"type": "object",
		"required": ["field", "operator", "value"],
		"properties": {
			"field": {"type": "string", "minLength": 1},
			"operator": {"type": "string", "enum": [%s]},
			"value": {"type": "string"}
		}
	}`, strings.Join(ops, ", "))
}

// Compile implements Condition.
func (c *AttributeCondition) Compile(options map[string]string) (Instance, error) {
	field := options["field"]
	op := options["operator"]
	value := options["value"]

	opFunc, ok := operators[op]
	if !ok {
		return nil, fmt.Errorf("unsupported operator %q", op)
	}

	// Regex patterns are validated once at compile time, not per event.
	if op == OpRegexMatch {
		if _, err := compileRegex(value); err != nil {
			return nil, err
		}
	}

	return InstanceFunc(func(ev *event.Event) bool {
		fieldValue, exists := ev.Attribute(field)
		if !exists {
			return false
		}

		result, err := opFunc(fieldValue, value)
		if err != nil {
			slog.Debug("Attribute condition evaluation failed",
				"field", field, "operator", op, "error", err)
			return false
		}
		return result
	}), nil
}
