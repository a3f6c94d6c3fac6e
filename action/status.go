package action

import (
	"context"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
	"github.com/c360/ruleflow/store"
)

// Rule-definition ids of the status actions.
const (
	ResolveID = "resolve"
	IgnoreID  = "ignore"
)

const statusSchema = `{
	"type": "object",
	"additionalProperties": false
}`

// StatusAction moves every group of the matched event to a fixed status.
// Setting a status the group already has is a no-op write, which keeps the
// action idempotent.
type StatusAction struct {
	Groups store.GroupStore

	id     string
	target event.GroupStatus
}

// NewResolveAction creates the "resolve" action.
func NewResolveAction(groups store.GroupStore) *StatusAction {
	return &StatusAction{Groups: groups, id: ResolveID, target: event.StatusResolved}
}

// NewIgnoreAction creates the "ignore" action.
func NewIgnoreAction(groups store.GroupStore) *StatusAction {
	return &StatusAction{Groups: groups, id: IgnoreID, target: event.StatusIgnored}
}

// ID implements Executor.
func (a *StatusAction) ID() string { return a.id }

// OptionsSchema implements Executor.
func (a *StatusAction) OptionsSchema() string { return statusSchema }

// Compile implements Executor.
func (a *StatusAction) Compile(_ map[string]string) (Instance, error) {
	return InstanceFunc(func(ctx context.Context, ev *event.Event, _ *rule.Rule) error {
		refs := ev.GroupRefs()
		if len(refs) == 0 {
			return errors.Wrap(errors.ErrGroupNotFound, "StatusAction", "Execute", "resolve event group")
		}
		for _, id := range refs {
			if err := a.Groups.UpdateStatus(ctx, id, a.target); err != nil {
				return errors.Wrap(err, "StatusAction", "Execute", "update status of "+id)
			}
		}
		return nil
	}), nil
}
