package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ruleflow/action"
	"github.com/c360/ruleflow/condition"
	"github.com/c360/ruleflow/dispatch"
	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/notify"
	"github.com/c360/ruleflow/rule"
	"github.com/c360/ruleflow/store"
)

type testHarness struct {
	engine   *Engine
	groups   *store.MemoryGroupStore
	notifier *notify.MemoryNotifier
	ledger   *dispatch.MemoryLedger
}

func newHarness(t *testing.T, rules []*rule.Rule) *testHarness {
	t.Helper()

	groups := store.NewMemoryGroupStore()
	notifier := notify.NewMemoryNotifier()
	ledger := dispatch.NewMemoryLedger(time.Minute)
	t.Cleanup(ledger.Close)

	actions := action.NewDefaultRegistry(action.Defaults{
		Notifier:       notifier,
		Groups:         groups,
		DefaultChannel: "alerts",
	})

	e := New(
		store.NewMemoryRuleStore(rules),
		NewEvaluator(condition.NewDefaultRegistry()),
		ledger,
		actions,
		Options{Workers: 2, QueueSize: 64, ActionTimeout: time.Second},
	)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop(time.Second) })

	return &testHarness{engine: e, groups: groups, notifier: notifier, ledger: ledger}
}

func (h *testHarness) seedGroup(t *testing.T, g *event.Group) {
	t.Helper()
	require.NoError(t, h.groups.Put(context.Background(), g))
}

func waitTerminal(t *testing.T, e *Engine, eventID string) State {
	t.Helper()
	var final State
	require.Eventually(t, func() bool {
		s, ok := e.State(eventID)
		if ok && s.Terminal() {
			final = s
			return true
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return final
}

func notifyRule(id string, conditions ...rule.ConfigEntry) *rule.Rule {
	return &rule.Rule{
		ID:          id,
		Name:        id,
		Enabled:     true,
		MatchPolicy: rule.MatchAll,
		Conditions:  conditions,
		Actions:     []rule.ConfigEntry{{ID: action.NotifyID}},
	}
}

func TestEngineDispatchesMatchedRuleOnce(t *testing.T) {
	h := newHarness(t, []*rule.Rule{
		notifyRule("feedback-rule", rule.ConfigEntry{
			ID:      "issue_type",
			Options: map[string]string{"value": "7"},
		}),
	})
	h.seedGroup(t, &event.Group{ID: "grp-1", IssueType: event.TypeFeedback, Title: "feedback"})

	ev := event.New("grp-1", event.LevelError)
	ev.Group = &event.Group{ID: "grp-1", IssueType: event.TypeFeedback}

	require.NoError(t, h.engine.Submit(context.Background(), ev))
	assert.Equal(t, StateDone, waitTerminal(t, h.engine, ev.ID))
	assert.Len(t, h.notifier.Sent(), 1)

	// Resubmitting a terminal event id is a no-op.
	require.NoError(t, h.engine.Submit(context.Background(), ev))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, h.notifier.Sent(), 1)
}

func TestEngineSkipsNonMatchingEvent(t *testing.T) {
	h := newHarness(t, []*rule.Rule{
		notifyRule("error-only", rule.ConfigEntry{
			ID:      "issue_type",
			Options: map[string]string{"value": "1"},
		}),
	})
	h.seedGroup(t, &event.Group{ID: "grp-1", IssueType: event.TypeFeedback})

	ev := event.New("grp-1", event.LevelError)
	ev.Group = &event.Group{ID: "grp-1", IssueType: event.TypeFeedback}

	require.NoError(t, h.engine.Submit(context.Background(), ev))
	assert.Equal(t, StateSkipped, waitTerminal(t, h.engine, ev.ID))
	assert.Empty(t, h.notifier.Sent())
}

func TestEngineMalformedConditionNeverDispatches(t *testing.T) {
	h := newHarness(t, []*rule.Rule{
		notifyRule("broken", rule.ConfigEntry{
			ID:      "issue_type",
			Options: map[string]string{"value": "not-an-int"},
		}),
	})
	h.seedGroup(t, &event.Group{ID: "grp-1", IssueType: event.TypeFeedback})

	ev := event.New("grp-1", event.LevelError)
	ev.Group = &event.Group{ID: "grp-1", IssueType: event.TypeFeedback}

	require.NoError(t, h.engine.Submit(context.Background(), ev))
	assert.Equal(t, StateSkipped, waitTerminal(t, h.engine, ev.ID))
	assert.Empty(t, h.notifier.Sent())
}

func TestEngineActionFailureMarksFailed(t *testing.T) {
	h := newHarness(t, []*rule.Rule{notifyRule("always")})
	h.seedGroup(t, &event.Group{ID: "grp-1", IssueType: event.TypeError})
	h.notifier.Fail(assert.AnError)

	ev := event.New("grp-1", event.LevelError)
	require.NoError(t, h.engine.Submit(context.Background(), ev))
	assert.Equal(t, StateFailed, waitTerminal(t, h.engine, ev.ID))
}

func TestEnginePriorityOrderAndMultipleRules(t *testing.T) {
	resolve := &rule.Rule{
		ID:          "resolver",
		Enabled:     true,
		Priority:    1,
		MatchPolicy: rule.MatchAll,
		Actions:     []rule.ConfigEntry{{ID: action.ResolveID}},
	}
	h := newHarness(t, []*rule.Rule{notifyRule("notifier"), resolve})
	h.seedGroup(t, &event.Group{ID: "grp-1", IssueType: event.TypeError, Status: event.StatusUnresolved})

	ev := event.New("grp-1", event.LevelError)
	require.NoError(t, h.engine.Submit(context.Background(), ev))
	assert.Equal(t, StateDone, waitTerminal(t, h.engine, ev.ID))

	assert.Len(t, h.notifier.Sent(), 1)
	g, err := h.groups.Get(context.Background(), "grp-1")
	require.NoError(t, err)
	assert.Equal(t, event.StatusResolved, g.Status)
}

func TestEngineSharedLedgerAtMostOnce(t *testing.T) {
	// Two engines sharing one ledger model two replicas: a rule fires for a
	// given event on exactly one of them.
	groups := store.NewMemoryGroupStore()
	require.NoError(t, groups.Put(context.Background(), &event.Group{ID: "grp-1", IssueType: event.TypeError}))
	notifier := notify.NewMemoryNotifier()
	ledger := dispatch.NewMemoryLedger(time.Minute)
	defer ledger.Close()

	rules := []*rule.Rule{notifyRule("always")}
	newReplica := func() *Engine {
		actions := action.NewDefaultRegistry(action.Defaults{
			Notifier:       notifier,
			Groups:         groups,
			DefaultChannel: "alerts",
		})
		e := New(
			store.NewMemoryRuleStore(rules),
			NewEvaluator(condition.NewDefaultRegistry()),
			ledger,
			actions,
			Options{Workers: 2, QueueSize: 16},
		)
		require.NoError(t, e.Start(context.Background()))
		return e
	}

	a, b := newReplica(), newReplica()
	defer func() { _ = a.Stop(time.Second); _ = b.Stop(time.Second) }()

	ev := event.New("grp-1", event.LevelError)
	var wg sync.WaitGroup
	for _, e := range []*Engine{a, b} {
		wg.Add(1)
		go func(e *Engine) {
			defer wg.Done()
			assert.NoError(t, e.Submit(context.Background(), ev))
		}(e)
	}
	wg.Wait()

	waitTerminal(t, a, ev.ID)
	waitTerminal(t, b, ev.ID)
	assert.Len(t, notifier.Sent(), 1)
}

func TestEngineLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	assert.ErrorIs(t, h.engine.Start(context.Background()), errors.ErrAlreadyStarted)

	_, ok := h.engine.State("never-submitted")
	assert.False(t, ok)

	assert.Error(t, h.engine.Submit(context.Background(), nil))
	assert.Error(t, h.engine.Submit(context.Background(), &event.Event{}))
}
