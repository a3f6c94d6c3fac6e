package notify

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
)

func testGroup(status event.GroupStatus) *event.Group {
	return &event.Group{
		ID:        "grp-1",
		Status:    status,
		IssueType: event.TypeError,
		Title:     "NullPointerException",
		Culprit:   "api.handler in serve",
		LastSeen:  time.Date(2026, 8, 1, 12, 0, 0, 500_000_000, time.UTC),
	}
}

func testEvent(ts time.Time) *event.Event {
	return &event.Event{
		ID:        "evt-1",
		GroupID:   "grp-1",
		Timestamp: ts,
		Level:     event.LevelError,
	}
}

func testRules() []*rule.Rule {
	return []*rule.Rule{
		{ID: "rule-a", Name: "Notify on errors", Enabled: true},
		{ID: "rule-b", Enabled: true},
	}
}

func TestCardBuilderTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		lastSeen time.Time
		eventTS  time.Time
		want     time.Time
	}{
		{
			name:     "event newer than group",
			lastSeen: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			eventTS:  time.Date(2026, 8, 1, 13, 0, 0, 900_000_000, time.UTC),
			want:     time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC),
		},
		{
			name:     "group newer than event",
			lastSeen: time.Date(2026, 8, 2, 9, 0, 0, 250_000_000, time.UTC),
			eventTS:  time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC),
			want:     time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGroup(event.StatusUnresolved)
			g.LastSeen = tt.lastSeen
			b := &CardBuilder{Group: g, Event: testEvent(tt.eventTS)}
			assert.Equal(t, tt.want, b.Timestamp())
		})
	}
}

func TestCardBuilderTimestampWithoutEvent(t *testing.T) {
	g := testGroup(event.StatusUnresolved)
	b := &CardBuilder{Group: g}
	assert.Equal(t, g.LastSeen.Truncate(time.Second), b.Timestamp())
}

func TestCardBuilderStatusActions(t *testing.T) {
	tests := []struct {
		name        string
		status      event.GroupStatus
		resolveKind CardActionKind
		resolveType ActionType
		ignoreKind  CardActionKind
		ignoreType  ActionType
	}{
		{
			name:        "unresolved offers forward actions",
			status:      event.StatusUnresolved,
			resolveKind: KindShowCard, resolveType: ActionResolve,
			ignoreKind: KindShowCard, ignoreType: ActionIgnore,
		},
		{
			name:        "resolved offers unresolve",
			status:      event.StatusResolved,
			resolveKind: KindSubmit, resolveType: ActionUnresolve,
			ignoreKind: KindShowCard, ignoreType: ActionIgnore,
		},
		{
			name:        "ignored offers stop ignoring",
			status:      event.StatusIgnored,
			resolveKind: KindShowCard, resolveType: ActionResolve,
			ignoreKind: KindSubmit, ignoreType: ActionUnresolve,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &CardBuilder{
				Group: testGroup(tt.status),
				Event: testEvent(time.Now().UTC()),
				Rules: testRules(),
			}
			card := b.Build()
			require.Len(t, card.Actions, 3)

			resolve, ignore := card.Actions[0], card.Actions[1]
			assert.Equal(t, tt.resolveKind, resolve.Kind)
			assert.Equal(t, tt.resolveType, resolve.Payload.ActionType)
			assert.Equal(t, tt.ignoreKind, ignore.Kind)
			assert.Equal(t, tt.ignoreType, ignore.Payload.ActionType)
		})
	}
}

func TestCardBuilderIgnoredGroupSubmitTitle(t *testing.T) {
	b := &CardBuilder{Group: testGroup(event.StatusIgnored), Event: testEvent(time.Now().UTC())}
	card := b.Build()

	ignore := card.Actions[1]
	assert.Equal(t, "Stop Ignoring", ignore.Title)
	assert.Empty(t, ignore.Choices)
	assert.Empty(t, ignore.InputID)
}

func TestCardBuilderAssignAction(t *testing.T) {
	b := &CardBuilder{
		Group:       testGroup(event.StatusUnresolved),
		Event:       testEvent(time.Now().UTC()),
		Assignables: []Choice{{Label: "team-backend", Value: "team:1"}},
	}
	card := b.Build()

	assign := card.Actions[2]
	assert.Equal(t, KindShowCard, assign.Kind)
	assert.Equal(t, ActionAssign, assign.Payload.ActionType)
	require.Len(t, assign.Choices, 2)
	assert.Equal(t, Choice{Label: "Me", Value: "ME"}, assign.Choices[0])
	assert.Equal(t, "ME", assign.DefaultChoice)
}

func TestCardBuilderAssignedGroup(t *testing.T) {
	g := testGroup(event.StatusUnresolved)
	g.Assignee = event.Actor{Kind: "user", ID: "maria"}
	b := &CardBuilder{Group: g, Event: testEvent(time.Now().UTC())}
	card := b.Build()

	assert.Equal(t, "**Assigned to maria**", card.AssigneeNote)

	assign := card.Actions[2]
	assert.Equal(t, KindSubmit, assign.Kind)
	assert.Equal(t, ActionUnassign, assign.Payload.ActionType)
	assert.Equal(t, "Unassign", assign.Title)
}

func TestCardBuilderPayloadWire(t *testing.T) {
	b := &CardBuilder{
		Group: testGroup(event.StatusUnresolved),
		Event: testEvent(time.Now().UTC()),
		Rules: testRules(),
	}
	card := b.Build()

	data, err := json.Marshal(card.Actions[0].Payload)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"actionType":"resolve","groupId":"grp-1","eventId":"evt-1","rules":["rule-a","rule-b"]}`,
		string(data))
}

func TestCardBuilderFooterAndLink(t *testing.T) {
	b := &CardBuilder{
		Group:   testGroup(event.StatusUnresolved),
		Event:   testEvent(time.Now().UTC()),
		Rules:   testRules(),
		BaseURL: "https://ruleflow.example.com/",
	}
	card := b.Build()

	assert.Equal(t, "grp-1 | Notify on errors, rule-b", card.Footer)
	assert.Equal(t, "https://ruleflow.example.com/issues/grp-1/events/evt-1/", card.TitleLink)
}

func TestMemoryNotifier(t *testing.T) {
	n := NewMemoryNotifier()
	card := &Card{Title: "t"}

	require.NoError(t, n.Send(context.Background(), "alerts", card))
	sent := n.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alerts", sent[0].Channel)
	assert.Same(t, card, sent[0].Card)

	n.Fail(assert.AnError)
	assert.Error(t, n.Send(context.Background(), "alerts", card))
	assert.Len(t, n.Sent(), 1)
}

type capturePublisher struct {
	subject string
	data    []byte
	err     error
}

func (c *capturePublisher) Publish(_ context.Context, subject string, data []byte) error {
	c.subject = subject
	c.data = data
	return c.err
}

func TestNATSNotifierSubject(t *testing.T) {
	pub := &capturePublisher{}
	n := NewNATSNotifier(pub, "ruleflow.notify")

	err := n.Send(context.Background(), "teams", &Card{Title: "boom"})
	require.NoError(t, err)
	assert.Equal(t, "ruleflow.notify.teams", pub.subject)

	var got Card
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, "boom", got.Title)
}
