package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/ruleflow/event"
)

func TestResolveAction(t *testing.T) {
	tests := []struct {
		name     string
		current  event.GroupStatus
		target   event.GroupStatus
		offered  ActionType
		reversed bool
	}{
		{"unresolved to resolved", event.StatusUnresolved, event.StatusResolved, ActionResolve, false},
		{"already resolved", event.StatusResolved, event.StatusResolved, ActionUnresolve, true},
		{"ignored to resolved", event.StatusIgnored, event.StatusResolved, ActionResolve, false},
		{"unresolved to ignored", event.StatusUnresolved, event.StatusIgnored, ActionIgnore, false},
		{"already ignored", event.StatusIgnored, event.StatusIgnored, ActionUnresolve, true},
		{"resolved to ignored", event.StatusResolved, event.StatusIgnored, ActionIgnore, false},
		{"resolved to unresolved", event.StatusResolved, event.StatusUnresolved, ActionUnresolve, false},
		{"already unresolved", event.StatusUnresolved, event.StatusUnresolved, ActionUnresolve, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offered, reversed := ResolveAction(tt.current, tt.target)
			assert.Equal(t, tt.offered, offered)
			assert.Equal(t, tt.reversed, reversed)
		})
	}
}
