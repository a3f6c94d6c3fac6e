package condition

import (
	"fmt"
	"strings"

	"github.com/c360/ruleflow/event"
)

// IssueTypeID is the stable id of the issue type condition.
const IssueTypeID = "issue_type"

// IssueTypeCondition passes when the event's group (or, for a merged issue,
// any of its groups) has the configured issue type. The "value" option must
// be the decimal value of a known issue type.
type IssueTypeCondition struct{}

// ID implements Condition.
func (c *IssueTypeCondition) ID() string { return IssueTypeID }

// OptionsSchema implements Condition. The value enum is derived from the
// issue type choice table so the schema and the enum can never drift apart.
func (c *IssueTypeCondition) OptionsSchema() string {
	choices := event.IssueTypeChoices()
	values := make([]string, 0, len(choices))
	for _, choice := range choices {
		values = append(values, fmt.Sprintf("%q", choice[0]))
	}

	return fmt.Sprintf(`{
		"type": "object",
		"required": ["value"],
		"properties": {
			"value": {"type": "string", "enum": [%s]}
		}
	}`, strings.Join(values, ", "))
}

// Compile implements Condition.
func (c *IssueTypeCondition) Compile(options map[string]string) (Instance, error) {
	want, ok := event.ParseIssueType(options["value"])
	if !ok {
		return nil, fmt.Errorf("value %q is not a known issue type", options["value"])
	}

	return InstanceFunc(func(ev *event.Event) bool {
		return ev.AnyGroup(func(g *event.Group) bool {
			return g.IssueType == want
		})
	}), nil
}
