package action

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/notify"
	"github.com/c360/ruleflow/store"
)

// SubmissionHandler applies the payload of a submitted card action back to
// group state. It closes the loop the card builder opens: the payload's
// actionType decides the mutation, the optional input carries the choice the
// user made on a show-card.
type SubmissionHandler struct {
	Groups store.GroupStore

	logger *slog.Logger
}

// NewSubmissionHandler creates a handler over the group store.
func NewSubmissionHandler(groups store.GroupStore) *SubmissionHandler {
	return &SubmissionHandler{
		Groups: groups,
		logger: slog.Default().With("component", "action.submission"),
	}
}

// Handle applies one submitted action. actor is the user who clicked; it
// resolves the "Me" assign choice. Unknown action types fail with
// ErrUnknownAction.
func (h *SubmissionHandler) Handle(ctx context.Context, p notify.Payload, input string, actor event.Actor) error {
	if p.GroupID == "" {
		return errors.WrapInvalid(
			fmt.Errorf("submission without group id"),
			"SubmissionHandler", "Handle", "validate payload")
	}

	h.logger.Info("card action submitted",
		"action", string(p.ActionType),
		"group", p.GroupID,
		"event", p.EventID)

	switch p.ActionType {
	case notify.ActionResolve:
		return h.Groups.UpdateStatus(ctx, p.GroupID, event.StatusResolved)
	case notify.ActionUnresolve:
		return h.Groups.UpdateStatus(ctx, p.GroupID, event.StatusUnresolved)
	case notify.ActionIgnore:
		return h.Groups.UpdateStatus(ctx, p.GroupID, event.StatusIgnored)
	case notify.ActionAssign:
		assignee, err := parseAssignee(input, actor)
		if err != nil {
			return errors.WrapInvalid(err, "SubmissionHandler", "Handle", "parse assignee")
		}
		return h.Groups.Assign(ctx, p.GroupID, assignee)
	case notify.ActionUnassign:
		return h.Groups.Assign(ctx, p.GroupID, event.Actor{})
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownAction, p.ActionType)
	}
}

// parseAssignee decodes an assign input choice. "ME" resolves to the acting
// user; other choices are "kind:id" values from the card's choice set.
func parseAssignee(input string, actor event.Actor) (event.Actor, error) {
	if input == "" || input == "ME" {
		if actor.IsZero() {
			return event.Actor{}, fmt.Errorf("assign to self without acting user")
		}
		return actor, nil
	}

	kind, id, ok := strings.Cut(input, ":")
	if !ok || kind == "" || id == "" {
		return event.Actor{}, fmt.Errorf("malformed assignee choice %q", input)
	}
	return event.Actor{Kind: kind, ID: id}, nil
}
