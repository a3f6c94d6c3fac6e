package action

import (
	"context"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
	"github.com/c360/ruleflow/store"
)

// AssignID is the rule-definition id of the assign action.
const AssignID = "assign"

const assignSchema = `{
	"type": "object",
	"properties": {
		"kind": {"type": "string", "enum": ["user", "team"]},
		"id": {"type": "string", "minLength": 1}
	},
	"required": ["id"],
	"additionalProperties": false
}`

// AssignAction assigns every group of the matched event to a configured
// actor. Re-assigning to the same actor is a no-op write.
type AssignAction struct {
	Groups store.GroupStore
}

// ID implements Executor.
func (a *AssignAction) ID() string { return AssignID }

// OptionsSchema implements Executor.
func (a *AssignAction) OptionsSchema() string { return assignSchema }

// Compile implements Executor.
func (a *AssignAction) Compile(options map[string]string) (Instance, error) {
	assignee := event.Actor{Kind: options["kind"], ID: options["id"]}
	if assignee.Kind == "" {
		assignee.Kind = "user"
	}

	return InstanceFunc(func(ctx context.Context, ev *event.Event, _ *rule.Rule) error {
		refs := ev.GroupRefs()
		if len(refs) == 0 {
			return errors.Wrap(errors.ErrGroupNotFound, "AssignAction", "Execute", "resolve event group")
		}
		for _, id := range refs {
			if err := a.Groups.Assign(ctx, id, assignee); err != nil {
				return errors.Wrap(err, "AssignAction", "Execute", "assign group "+id)
			}
		}
		return nil
	}), nil
}
