// Package notify builds interactive notification cards for matched events
// and delivers them through pluggable notifiers.
package notify

import (
	"time"
)

// ActionType identifies what a submitted card action asks the engine to do.
type ActionType string

const (
	ActionResolve   ActionType = "resolve"
	ActionUnresolve ActionType = "unresolve"
	ActionIgnore    ActionType = "ignore"
	ActionAssign    ActionType = "assign"
	ActionUnassign  ActionType = "unassign"
)

// CardActionKind distinguishes direct submit buttons from buttons that open
// a nested input card.
type CardActionKind string

const (
	// KindSubmit posts the payload immediately when clicked.
	KindSubmit CardActionKind = "submit"
	// KindShowCard expands a nested card with an input choice set whose
	// selection is posted alongside the payload.
	KindShowCard CardActionKind = "show_card"
)

// Payload is the round-trip data attached to every card action. The engine
// uses it to correlate a submitted action back to the event and rules that
// produced the card.
type Payload struct {
	ActionType ActionType `json:"actionType"`
	GroupID    string     `json:"groupId"`
	EventID    string     `json:"eventId"`
	Rules      []string   `json:"rules"`
}

// Choice is one selectable option in a show-card input.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CardAction is a single button on a card.
type CardAction struct {
	Kind    CardActionKind `json:"kind"`
	Title   string         `json:"title"`
	Payload Payload        `json:"payload"`

	// Input fields, set only for KindShowCard.
	InputID       string   `json:"input_id,omitempty"`
	Choices       []Choice `json:"choices,omitempty"`
	DefaultChoice string   `json:"default_choice,omitempty"`
}

// Card is the renderer-agnostic notification message for one matched event.
type Card struct {
	Title        string       `json:"title"`
	TitleLink    string       `json:"title_link,omitempty"`
	Body         string       `json:"body,omitempty"`
	Footer       string       `json:"footer,omitempty"`
	AssigneeNote string       `json:"assignee_note,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	Actions      []CardAction `json:"actions"`
}
