// Package event defines the normalized event and group model evaluated by
// rules. Events are immutable once created; groups are the mutable issue
// aggregates that actions operate on.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Level represents event severity.
type Level int

// Severity levels, ordered from least to most severe.
const (
	LevelDebug   Level = 10
	LevelInfo    Level = 20
	LevelWarning Level = 30
	LevelError   Level = 40
	LevelFatal   Level = 50
)

// String returns the string representation of Level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ParseLevel parses a stored option string into a Level.
func ParseLevel(value string) (Level, bool) {
	switch value {
	case "debug", "10":
		return LevelDebug, true
	case "info", "20":
		return LevelInfo, true
	case "warning", "30":
		return LevelWarning, true
	case "error", "40":
		return LevelError, true
	case "fatal", "50":
		return LevelFatal, true
	default:
		return 0, false
	}
}

// Event is the immutable, read-only view of an incoming event exposed to
// conditions and actions. Group is the resolved single group; Groups holds
// the resolved set when the event belongs to merged issues. At most one of
// the two is populated.
type Event struct {
	ID         string         `json:"id"`
	GroupID    string         `json:"group_id,omitempty"`
	GroupIDs   []string       `json:"group_ids,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      Level          `json:"level"`
	Attributes map[string]any `json:"attributes,omitempty"`

	// Resolved group references, populated at ingestion from the group
	// store. Nil/empty when the referenced groups no longer exist.
	Group  *Group   `json:"group,omitempty"`
	Groups []*Group `json:"groups,omitempty"`
}

// New creates an event with a generated id and the current timestamp.
func New(groupID string, level Level) *Event {
	return &Event{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		Timestamp: time.Now().UTC(),
		Level:     level,
	}
}

// AnyGroup evaluates pred against the event's group context. With a single
// resolved group the predicate decides directly; with a merged-issue set the
// event matches if ANY referenced group satisfies the predicate. An event
// with no resolved groups never matches.
//
// Every condition that inspects group-level fields must go through this
// helper so merged-issue fan-out behaves identically everywhere.
func (e *Event) AnyGroup(pred func(*Group) bool) bool {
	if e.Group != nil {
		return pred(e.Group)
	}
	for _, g := range e.Groups {
		if g != nil && pred(g) {
			return true
		}
	}
	return false
}

// GroupRefs returns the ids of the groups this event belongs to, following
// the same single-group-wins rule as AnyGroup. Actions that mutate group
// state iterate these refs.
func (e *Event) GroupRefs() []string {
	if e.Group != nil {
		return []string{e.Group.ID}
	}
	if e.GroupID != "" {
		return []string{e.GroupID}
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, g := range e.Groups {
		if g == nil {
			continue
		}
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}
		ids = append(ids, g.ID)
	}
	for _, id := range e.GroupIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Attribute returns the named attribute and whether it is present.
func (e *Event) Attribute(name string) (any, bool) {
	if e.Attributes == nil {
		return nil, false
	}
	v, ok := e.Attributes[name]
	return v, ok
}
