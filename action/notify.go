package action

import (
	"context"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/notify"
	"github.com/c360/ruleflow/rule"
	"github.com/c360/ruleflow/store"
)

// NotifyID is the rule-definition id of the notify action.
const NotifyID = "notify"

const notifySchema = `{
	"type": "object",
	"properties": {
		"channel": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

// NotifyAction delivers an interactive issue card for the matched event.
// Group state is read fresh from the store so the card's reversible offers
// reflect the state at send time, not at ingestion.
type NotifyAction struct {
	Notifier notify.Notifier
	Groups   store.GroupStore

	// DefaultChannel is used when the rule options omit one.
	DefaultChannel string

	// BaseURL and Assignables are passed through to the card builder.
	BaseURL     string
	Assignables []notify.Choice
}

// ID implements Executor.
func (a *NotifyAction) ID() string { return NotifyID }

// OptionsSchema implements Executor.
func (a *NotifyAction) OptionsSchema() string { return notifySchema }

// Compile implements Executor.
func (a *NotifyAction) Compile(options map[string]string) (Instance, error) {
	channel := options["channel"]
	if channel == "" {
		channel = a.DefaultChannel
	}
	if channel == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"NotifyAction", "Compile", "resolve channel")
	}

	return InstanceFunc(func(ctx context.Context, ev *event.Event, r *rule.Rule) error {
		g, err := a.group(ctx, ev)
		if err != nil {
			return err
		}

		builder := &notify.CardBuilder{
			Group:       g,
			Event:       ev,
			Rules:       []*rule.Rule{r},
			BaseURL:     a.BaseURL,
			Assignables: a.Assignables,
		}
		if err := a.Notifier.Send(ctx, channel, builder.Build()); err != nil {
			return errors.WrapTransient(err, "NotifyAction", "Execute", "send card")
		}
		return nil
	}), nil
}

// group resolves the card's group: fresh store state for the primary ref,
// falling back to the snapshot carried on the event.
func (a *NotifyAction) group(ctx context.Context, ev *event.Event) (*event.Group, error) {
	refs := ev.GroupRefs()
	if len(refs) > 0 && a.Groups != nil {
		if g, err := a.Groups.Get(ctx, refs[0]); err == nil {
			return g, nil
		}
	}
	if ev.Group != nil {
		return ev.Group, nil
	}
	for _, g := range ev.Groups {
		if g != nil {
			return g, nil
		}
	}
	return nil, errors.Wrap(errors.ErrGroupNotFound, "NotifyAction", "Execute", "resolve event group")
}
