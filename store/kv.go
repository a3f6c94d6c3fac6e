package store

import (
	"context"
	stderrors "errors"
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/natsclient"
	"github.com/c360/ruleflow/rule"
)

// KVGroupStore persists groups in a NATS KV bucket, one key per group id.
// Mutations are read-modify-write under CAS retry so concurrent engine
// replicas never lose updates.
type KVGroupStore struct {
	kv *natsclient.KVStore
}

// NewKVGroupStore creates a group store over the KV bucket.
func NewKVGroupStore(kv *natsclient.KVStore) *KVGroupStore {
	return &KVGroupStore{kv: kv}
}

// Get implements GroupStore.
func (s *KVGroupStore) Get(ctx context.Context, id string) (*event.Group, error) {
	entry, err := s.kv.Get(ctx, id)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return nil, errors.Wrap(errors.ErrGroupNotFound, "KVGroupStore", "Get", "lookup group "+id)
		}
		return nil, errors.WrapTransient(err, "KVGroupStore", "Get", "lookup group "+id)
	}

	var g event.Group
	if err := json.Unmarshal(entry.Value, &g); err != nil {
		return nil, errors.WrapInvalid(err, "KVGroupStore", "Get", "decode group "+id)
	}
	return &g, nil
}

// Put implements GroupStore.
func (s *KVGroupStore) Put(ctx context.Context, g *event.Group) error {
	if g == nil || g.ID == "" {
		return errors.WrapInvalid(stderrors.New("group missing id"), "KVGroupStore", "Put", "store group")
	}
	data, err := json.Marshal(g)
	if err != nil {
		return errors.WrapInvalid(err, "KVGroupStore", "Put", "encode group "+g.ID)
	}
	if _, err := s.kv.Put(ctx, g.ID, data); err != nil {
		return errors.WrapTransient(err, "KVGroupStore", "Put", "store group "+g.ID)
	}
	return nil
}

// UpdateStatus implements GroupStore.
func (s *KVGroupStore) UpdateStatus(ctx context.Context, id string, status event.GroupStatus) error {
	return s.mutate(ctx, id, "UpdateStatus", func(g *event.Group) {
		g.Status = status
		g.LastSeen = now()
	})
}

// Assign implements GroupStore.
func (s *KVGroupStore) Assign(ctx context.Context, id string, assignee event.Actor) error {
	return s.mutate(ctx, id, "Assign", func(g *event.Group) {
		g.Assignee = assignee
	})
}

func (s *KVGroupStore) mutate(ctx context.Context, id, method string, fn func(*event.Group)) error {
	err := s.kv.UpdateWithRetry(ctx, id, func(current []byte) ([]byte, error) {
		if len(current) == 0 {
			return nil, errors.ErrGroupNotFound
		}
		var g event.Group
		if err := json.Unmarshal(current, &g); err != nil {
			return nil, err
		}
		fn(&g)
		return json.Marshal(&g)
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrGroupNotFound) {
			return errors.Wrap(errors.ErrGroupNotFound, "KVGroupStore", method, "lookup group "+id)
		}
		return errors.WrapTransient(err, "KVGroupStore", method, "update group "+id)
	}
	return nil
}

// KVRuleStore reads rule documents from a NATS KV bucket, one JSON document
// per key. Invalid documents are skipped with a log so one bad rule never
// takes down the set.
type KVRuleStore struct {
	kv     *natsclient.KVStore
	logger *slog.Logger
}

// NewKVRuleStore creates a rule store over the KV bucket.
func NewKVRuleStore(kv *natsclient.KVStore) *KVRuleStore {
	return &KVRuleStore{
		kv:     kv,
		logger: slog.Default().With("component", "store.rules"),
	}
}

// Active implements RuleStore.
func (s *KVRuleStore) Active(ctx context.Context) ([]*rule.Rule, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, errors.WrapTransient(err, "KVRuleStore", "Active", "list rule keys")
	}

	rules := make([]*rule.Rule, 0, len(keys))
	for _, key := range keys {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if natsclient.IsKVNotFoundError(err) {
				continue
			}
			return nil, errors.WrapTransient(err, "KVRuleStore", "Active", "read rule "+key)
		}

		var doc map[string]any
		if err := json.Unmarshal(entry.Value, &doc); err != nil {
			s.logger.Warn("skipping malformed rule document", "key", key, "error", err)
			continue
		}
		r, err := rule.FromDocument(doc)
		if err != nil {
			s.logger.Warn("skipping invalid rule", "key", key, "error", err)
			continue
		}
		if !r.Enabled {
			continue
		}
		rules = append(rules, r)
	}

	rule.Sort(rules)
	return rules, nil
}

// Store writes a rule document to the bucket under its id.
func (s *KVRuleStore) Store(ctx context.Context, r *rule.Rule) error {
	if err := r.Validate(); err != nil {
		return errors.WrapInvalid(err, "KVRuleStore", "Store", "validate rule")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return errors.WrapInvalid(err, "KVRuleStore", "Store", "encode rule "+r.ID)
	}
	if _, err := s.kv.Put(ctx, r.ID, data); err != nil {
		return errors.WrapTransient(err, "KVRuleStore", "Store", "store rule "+r.ID)
	}
	return nil
}
