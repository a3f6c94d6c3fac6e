// Package store defines the persistence collaborator interfaces the engine
// reads rules and group state through, with in-memory and NATS KV backed
// implementations.
package store

import (
	"context"
	"time"

	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
)

// GroupStore reads and mutates group state. It is the single source of truth
// for current issue state; actions mutate groups only through it.
type GroupStore interface {
	// Get returns the group by id, or errors.ErrGroupNotFound.
	Get(ctx context.Context, id string) (*event.Group, error)

	// UpdateStatus sets the group's status and last-seen timestamp.
	UpdateStatus(ctx context.Context, id string, status event.GroupStatus) error

	// Assign sets the group's assignee. A zero actor clears the assignment.
	Assign(ctx context.Context, id string, assignee event.Actor) error

	// Put creates or replaces a group.
	Put(ctx context.Context, g *event.Group) error
}

// RuleStore lists the rule configurations the engine evaluates. Rules are
// read-only to the engine.
type RuleStore interface {
	// Active returns enabled rules in evaluation order.
	Active(ctx context.Context) ([]*rule.Rule, error)
}

// now is a test seam for timestamps written by stores.
var now = func() time.Time { return time.Now().UTC() }
