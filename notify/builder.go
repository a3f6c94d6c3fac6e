package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
)

// Action titles and input ids used on issue cards.
const (
	titleResolve      = "Resolve"
	titleUnresolve    = "Unresolve"
	titleIgnore       = "Ignore"
	titleStopIgnoring = "Stop Ignoring"
	titleAssign       = "Assign"
	titleUnassign     = "Unassign"

	resolveInputID = "resolveInput"
	ignoreInputID  = "ignoreInput"
	assignInputID  = "assigneeInput"

	// assigneeMe is the sentinel choice that assigns to the acting user.
	assigneeMe = "ME"
)

var resolveChoices = []Choice{
	{Label: "Immediately", Value: ""},
	{Label: "In the next release", Value: "inNextRelease"},
	{Label: "In the current release", Value: "inCurrentRelease"},
}

var ignoreChoices = []Choice{
	{Label: "Ignore indefinitely", Value: "-1"},
}

// CardBuilder assembles an issue card for a matched event. The offered
// status actions depend on the group's current state: a group that is
// already in the target state gets the reverse action as a direct submit,
// otherwise the forward action opens an input card.
type CardBuilder struct {
	Group *event.Group
	Event *event.Event
	Rules []*rule.Rule

	// BaseURL, when set, is used to build the title link.
	BaseURL string

	// Assignables are the candidate assignees offered on the assign card,
	// after the implicit "Me" choice.
	Assignables []Choice
}

// Timestamp returns the card's display time: the later of the group's
// last-seen time and the event time, truncated to whole seconds.
func (b *CardBuilder) Timestamp() time.Time {
	ts := b.Group.LastSeen
	if b.Event != nil && b.Event.Timestamp.After(ts) {
		ts = b.Event.Timestamp
	}
	return ts.Truncate(time.Second)
}

func (b *CardBuilder) payload(at ActionType) Payload {
	ids := make([]string, 0, len(b.Rules))
	for _, r := range b.Rules {
		ids = append(ids, r.ID)
	}
	p := Payload{
		ActionType: at,
		GroupID:    b.Group.ID,
		Rules:      ids,
	}
	if b.Event != nil {
		p.EventID = b.Event.ID
	}
	return p
}

// issueAction builds one status button. A reversed action is a plain submit
// of the reverse action; a forward action opens an input card.
func (b *CardBuilder) issueAction(offered ActionType, reversed bool, title, reverseTitle string, inputID string, choices []Choice, defaultChoice string) CardAction {
	if reversed {
		return CardAction{
			Kind:    KindSubmit,
			Title:   reverseTitle,
			Payload: b.payload(offered),
		}
	}
	return CardAction{
		Kind:          KindShowCard,
		Title:         title,
		Payload:       b.payload(offered),
		InputID:       inputID,
		Choices:       choices,
		DefaultChoice: defaultChoice,
	}
}

func (b *CardBuilder) resolveAction() CardAction {
	offered, reversed := ResolveAction(b.Group.Status, event.StatusResolved)
	return b.issueAction(offered, reversed,
		titleResolve, titleUnresolve,
		resolveInputID, resolveChoices, "",
	)
}

func (b *CardBuilder) ignoreAction() CardAction {
	offered, reversed := ResolveAction(b.Group.Status, event.StatusIgnored)
	return b.issueAction(offered, reversed,
		titleIgnore, titleStopIgnoring,
		ignoreInputID, ignoreChoices, "",
	)
}

func (b *CardBuilder) assignAction() CardAction {
	choices := make([]Choice, 0, len(b.Assignables)+1)
	choices = append(choices, Choice{Label: "Me", Value: assigneeMe})
	choices = append(choices, b.Assignables...)

	offered, reversed := ActionAssign, false
	if b.Group.Assigned() {
		offered, reversed = ActionUnassign, true
	}
	return b.issueAction(offered, reversed,
		titleAssign, titleUnassign,
		assignInputID, choices, assigneeMe,
	)
}

// Build assembles the card.
func (b *CardBuilder) Build() *Card {
	c := &Card{
		Title:     b.Group.Title,
		Body:      b.Group.Culprit,
		Footer:    b.footer(),
		Timestamp: b.Timestamp(),
	}
	if b.BaseURL != "" {
		c.TitleLink = fmt.Sprintf("%s/issues/%s/", strings.TrimRight(b.BaseURL, "/"), b.Group.ID)
		if b.Event != nil {
			c.TitleLink += "events/" + b.Event.ID + "/"
		}
	}
	if b.Group.Assigned() {
		c.AssigneeNote = fmt.Sprintf("**Assigned to %s**", b.Group.Assignee.ID)
	}
	c.Actions = []CardAction{
		b.resolveAction(),
		b.ignoreAction(),
		b.assignAction(),
	}
	return c
}

func (b *CardBuilder) footer() string {
	if len(b.Rules) == 0 {
		return b.Group.ID
	}
	names := make([]string, 0, len(b.Rules))
	for _, r := range b.Rules {
		name := r.Name
		if name == "" {
			name = r.ID
		}
		names = append(names, name)
	}
	return b.Group.ID + " | " + strings.Join(names, ", ")
}
