// Package action executes the side effects of matched rules. Executors are
// registered by id like conditions, compile their stored options once, and
// run under the dispatcher's per-action isolation and timeout.
package action

import (
	"context"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/rule"
)

// Executor is a pluggable action type. Implementations declare an options
// schema and compile stored options into a runnable instance.
type Executor interface {
	// ID returns the stable identifier used in rule definitions.
	ID() string

	// OptionsSchema returns the JSON Schema the stored options must satisfy.
	OptionsSchema() string

	// Compile parses and validates stored options into an Instance.
	Compile(options map[string]string) (Instance, error)
}

// Instance is an executor with its options already parsed. Execute must be
// idempotent per (event, rule, action): the ledger guarantees at-most-once
// dispatch but a crash between claim and effect may re-run an action on
// replay paths.
type Instance interface {
	Execute(ctx context.Context, ev *event.Event, r *rule.Rule) error
}

// InstanceFunc adapts a plain function to the Instance interface.
type InstanceFunc func(ctx context.Context, ev *event.Event, r *rule.Rule) error

// Execute implements Instance.
func (f InstanceFunc) Execute(ctx context.Context, ev *event.Event, r *rule.Rule) error {
	return f(ctx, ev, r)
}

// Registry maps action ids to executors. Executors are registered at
// startup; lookup at dispatch time is read-only.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
	schemas   map[string]*gojsonschema.Schema
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]Executor),
		schemas:   make(map[string]*gojsonschema.Schema),
	}
}

// Register adds an executor. Registering a duplicate id or an invalid
// options schema is an error.
func (r *Registry) Register(e Executor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := e.ID()
	if _, exists := r.executors[id]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("action %s already registered", id),
			"Registry", "Register", "check duplicate id")
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(e.OptionsSchema()))
	if err != nil {
		return errors.WrapInvalid(err, "Registry", "Register",
			fmt.Sprintf("compile options schema for %s", id))
	}

	r.executors[id] = e
	r.schemas[id] = schema
	return nil
}

// Get returns the executor registered under id.
func (r *Registry) Get(id string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[id]
	return e, ok
}

// IDs returns all registered action ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.executors))
	for id := range r.executors {
		ids = append(ids, id)
	}
	return ids
}

// Compile validates options against the executor's schema and parses them
// into an Instance. Fails with ErrUnknownAction for unregistered ids and
// ErrOptionValidation when options do not satisfy the schema.
func (r *Registry) Compile(id string, options map[string]string) (Instance, error) {
	r.mu.RLock()
	e, ok := r.executors[id]
	schema := r.schemas[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownAction, id)
	}

	if err := validateOptions(schema, options); err != nil {
		return nil, fmt.Errorf("%w: action %s: %v", errors.ErrOptionValidation, id, err)
	}

	inst, err := e.Compile(options)
	if err != nil {
		return nil, fmt.Errorf("%w: action %s: %v", errors.ErrOptionValidation, id, err)
	}
	return inst, nil
}

func validateOptions(schema *gojsonschema.Schema, options map[string]string) error {
	doc := make(map[string]any, len(options))
	for k, v := range options {
		doc[k] = v
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if !result.Valid() {
		descs := result.Errors()
		if len(descs) > 0 {
			return fmt.Errorf("%s", descs[0].String())
		}
		return fmt.Errorf("options do not satisfy schema")
	}
	return nil
}
