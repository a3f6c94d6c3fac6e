package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/rule"
)

type countingRuleStore struct {
	calls int
	rules []*rule.Rule
	err   error
}

func (s *countingRuleStore) Active(context.Context) ([]*rule.Rule, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rules, nil
}

func TestCachedRuleStoreServesSnapshot(t *testing.T) {
	inner := &countingRuleStore{rules: []*rule.Rule{{ID: "r1"}}}
	cached := NewCachedRuleStore(inner, time.Minute)

	for i := 0; i < 5; i++ {
		rules, err := cached.Active(context.Background())
		require.NoError(t, err)
		require.Len(t, rules, 1)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedRuleStoreRefreshesAfterTTL(t *testing.T) {
	base := time.Now().UTC()
	current := base
	restore := now
	now = func() time.Time { return current }
	defer func() { now = restore }()

	inner := &countingRuleStore{rules: []*rule.Rule{{ID: "r1"}}}
	cached := NewCachedRuleStore(inner, time.Minute)

	_, err := cached.Active(context.Background())
	require.NoError(t, err)

	current = base.Add(30 * time.Second)
	_, err = cached.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	current = base.Add(2 * time.Minute)
	_, err = cached.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedRuleStoreServesStaleOnError(t *testing.T) {
	inner := &countingRuleStore{rules: []*rule.Rule{{ID: "r1"}}}
	cached := NewCachedRuleStore(inner, 0)

	rules, err := cached.Active(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)

	cached.Invalidate()
	inner.err = errors.ErrStorageUnavailable

	rules, err = cached.Active(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestCachedRuleStoreFailsWithoutSnapshot(t *testing.T) {
	inner := &countingRuleStore{err: errors.ErrStorageUnavailable}
	cached := NewCachedRuleStore(inner, time.Minute)

	_, err := cached.Active(context.Background())
	assert.ErrorIs(t, err, errors.ErrStorageUnavailable)
}
