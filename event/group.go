package event

import (
	"sort"
	"strconv"
	"time"
)

// IssueType classifies the kind of issue a group aggregates.
type IssueType int

// Known issue types. Values are stable wire identifiers and must not be
// renumbered.
const (
	TypeError       IssueType = 1
	TypePerformance IssueType = 2
	TypeProfile     IssueType = 3
	TypeCron        IssueType = 4
	TypeReplay      IssueType = 5
	TypeUptime      IssueType = 6
	TypeFeedback    IssueType = 7
)

// String returns the string representation of IssueType
func (t IssueType) String() string {
	switch t {
	case TypeError:
		return "error"
	case TypePerformance:
		return "performance"
	case TypeProfile:
		return "profile"
	case TypeCron:
		return "cron"
	case TypeReplay:
		return "replay"
	case TypeUptime:
		return "uptime"
	case TypeFeedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a known issue type.
func (t IssueType) Valid() bool {
	_, ok := issueTypeChoices[t]
	return ok
}

// issueTypeChoices is the process-wide choice table for issue types,
// built once at init and never mutated.
var issueTypeChoices = func() map[IssueType]string {
	choices := make(map[IssueType]string)
	for _, t := range []IssueType{
		TypeError, TypePerformance, TypeProfile, TypeCron,
		TypeReplay, TypeUptime, TypeFeedback,
	} {
		choices[t] = t.String()
	}
	return choices
}()

// IssueTypeChoices returns the known issue types as (value, name) pairs
// ordered by value. The result is a fresh slice; the underlying table is
// immutable.
func IssueTypeChoices() [][2]string {
	choices := make([][2]string, 0, len(issueTypeChoices))
	for value, name := range issueTypeChoices {
		choices = append(choices, [2]string{strconv.Itoa(int(value)), name})
	}
	sort.Slice(choices, func(i, j int) bool { return choices[i][0] < choices[j][0] })
	return choices
}

// ParseIssueType parses a stored option string into an IssueType.
// Returns false if the value is not an integer or not a known member.
func ParseIssueType(value string) (IssueType, bool) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	t := IssueType(n)
	return t, t.Valid()
}

// GroupStatus represents the lifecycle state of a group.
type GroupStatus int

// Group statuses. Values match the external schema.
const (
	StatusUnresolved GroupStatus = 0
	StatusResolved   GroupStatus = 1
	StatusIgnored    GroupStatus = 2
)

// String returns the string representation of GroupStatus
func (s GroupStatus) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusResolved:
		return "resolved"
	case StatusIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Actor is a weak reference to a user or team. The engine never owns or
// resolves the referenced entity.
type Actor struct {
	Kind string `json:"kind"` // "user" or "team"
	ID   string `json:"id"`
}

// IsZero reports whether the actor reference is unset.
func (a Actor) IsZero() bool {
	return a.Kind == "" && a.ID == ""
}

// Group is a mutable aggregate representing a deduplicated issue. It is the
// single source of truth for current issue state; actions mutate it through
// the store collaborator.
type Group struct {
	ID        string      `json:"id"`
	Status    GroupStatus `json:"status"`
	IssueType IssueType   `json:"issue_type"`
	Assignee  Actor       `json:"assignee,omitempty"`
	Title     string      `json:"title,omitempty"`
	Culprit   string      `json:"culprit,omitempty"`
	LastSeen  time.Time   `json:"last_seen"`
}

// Assigned reports whether the group has an assignee.
func (g *Group) Assigned() bool {
	return !g.Assignee.IsZero()
}
