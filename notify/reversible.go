package notify

import (
	"github.com/c360/ruleflow/event"
)

// ResolveAction decides which status action a card should offer for a group
// given the status the action would move it to. When the group is already in
// the target status the reverse action is offered instead, and reversed is
// true. Reversed actions are plain submits; forward actions open an input
// card.
func ResolveAction(current, target event.GroupStatus) (offered ActionType, reversed bool) {
	switch target {
	case event.StatusResolved:
		if current == event.StatusResolved {
			return ActionUnresolve, true
		}
		return ActionResolve, false
	case event.StatusIgnored:
		if current == event.StatusIgnored {
			return ActionUnresolve, true
		}
		return ActionIgnore, false
	default:
		return ActionUnresolve, current == event.StatusUnresolved
	}
}
