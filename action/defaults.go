package action

import (
	"fmt"

	"github.com/c360/ruleflow/notify"
	"github.com/c360/ruleflow/store"
)

// Defaults carries the collaborators the built-in executors need.
type Defaults struct {
	Notifier notify.Notifier
	Groups   store.GroupStore

	DefaultChannel string
	BaseURL        string
	Assignables    []notify.Choice
}

// NewDefaultRegistry creates a registry with all built-in actions wired to
// the given collaborators.
func NewDefaultRegistry(d Defaults) *Registry {
	r := NewRegistry()
	for _, e := range []Executor{
		&NotifyAction{
			Notifier:       d.Notifier,
			Groups:         d.Groups,
			DefaultChannel: d.DefaultChannel,
			BaseURL:        d.BaseURL,
			Assignables:    d.Assignables,
		},
		NewResolveAction(d.Groups),
		NewIgnoreAction(d.Groups),
		&AssignAction{Groups: d.Groups},
	} {
		if err := r.Register(e); err != nil {
			panic(fmt.Sprintf("action: failed to register built-in %s: %v", e.ID(), err))
		}
	}
	return r
}
