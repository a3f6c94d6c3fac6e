package store

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
)

// MemoryGroupStore holds groups in process memory. Reads return copies so
// callers can never race on shared state.
type MemoryGroupStore struct {
	mu     sync.RWMutex
	groups map[string]event.Group
}

// NewMemoryGroupStore creates an empty in-memory group store.
func NewMemoryGroupStore() *MemoryGroupStore {
	return &MemoryGroupStore{groups: make(map[string]event.Group)}
}

// Get implements GroupStore.
func (s *MemoryGroupStore) Get(_ context.Context, id string) (*event.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrGroupNotFound, "MemoryGroupStore", "Get", "lookup group "+id)
	}
	cp := g
	return &cp, nil
}

// Put implements GroupStore.
func (s *MemoryGroupStore) Put(_ context.Context, g *event.Group) error {
	if g == nil || g.ID == "" {
		return errors.WrapInvalid(stderrors.New("group missing id"), "MemoryGroupStore", "Put", "store group")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = *g
	return nil
}

// UpdateStatus implements GroupStore.
func (s *MemoryGroupStore) UpdateStatus(_ context.Context, id string, status event.GroupStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return errors.Wrap(errors.ErrGroupNotFound, "MemoryGroupStore", "UpdateStatus", "lookup group "+id)
	}
	g.Status = status
	g.LastSeen = now()
	s.groups[id] = g
	return nil
}

// Assign implements GroupStore.
func (s *MemoryGroupStore) Assign(_ context.Context, id string, assignee event.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return errors.Wrap(errors.ErrGroupNotFound, "MemoryGroupStore", "Assign", "lookup group "+id)
	}
	g.Assignee = assignee
	s.groups[id] = g
	return nil
}

// MemoryRuleStore serves a fixed rule set, sorted once at construction.
type MemoryRuleStore struct {
	mu    sync.RWMutex
	rules []*rule.Rule
}

// NewMemoryRuleStore creates a rule store over the given rules. Disabled
// rules are kept but filtered out of Active.
func NewMemoryRuleStore(rules []*rule.Rule) *MemoryRuleStore {
	sorted := make([]*rule.Rule, len(rules))
	copy(sorted, rules)
	rule.Sort(sorted)
	return &MemoryRuleStore{rules: sorted}
}

// Active implements RuleStore.
func (s *MemoryRuleStore) Active(_ context.Context) ([]*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*rule.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

// Replace swaps the rule set, used by hot reload.
func (s *MemoryRuleStore) Replace(rules []*rule.Rule) {
	sorted := make([]*rule.Rule, len(rules))
	copy(sorted, rules)
	rule.Sort(sorted)

	s.mu.Lock()
	s.rules = sorted
	s.mu.Unlock()
}
