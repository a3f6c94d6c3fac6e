package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/ruleflow/rule"
)

// DefaultRuleCacheTTL is the refresh window for cached rule reads.
const DefaultRuleCacheTTL = 5 * time.Second

// CachedRuleStore serves Active from a short-lived snapshot so the engine
// does not hit the backing store once per event. Rule edits take effect
// within the TTL. When a refresh fails but a previous snapshot exists, the
// stale snapshot is served and the failure logged.
type CachedRuleStore struct {
	inner  RuleStore
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	rules   []*rule.Rule
	loaded  bool
	expires time.Time
}

// NewCachedRuleStore wraps a rule store with a TTL snapshot. A non-positive
// ttl falls back to DefaultRuleCacheTTL.
func NewCachedRuleStore(inner RuleStore, ttl time.Duration) *CachedRuleStore {
	if ttl <= 0 {
		ttl = DefaultRuleCacheTTL
	}
	return &CachedRuleStore{
		inner:  inner,
		ttl:    ttl,
		logger: slog.Default().With("component", "store.rulecache"),
	}
}

// Active implements RuleStore.
func (c *CachedRuleStore) Active(ctx context.Context) ([]*rule.Rule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && now().Before(c.expires) {
		return c.rules, nil
	}

	rules, err := c.inner.Active(ctx)
	if err != nil {
		if c.loaded {
			c.logger.Warn("rule refresh failed, serving stale snapshot",
				"age", time.Since(c.expires.Add(-c.ttl)), "error", err)
			return c.rules, nil
		}
		return nil, err
	}

	c.rules = rules
	c.loaded = true
	c.expires = now().Add(c.ttl)
	return rules, nil
}

// Invalidate drops the snapshot so the next Active hits the backing store.
func (c *CachedRuleStore) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}
