// Package condition provides the pluggable predicate registry evaluated by
// rules. Each condition is identified by a stable string id, declares a
// schema for its stored options, and produces a boolean per event.
package condition

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
)

// Condition is a pluggable predicate type. Implementations declare an
// options schema and compile stored options into an evaluable instance once,
// at rule-load time.
type Condition interface {
	// ID returns the stable identifier used in rule definitions.
	ID() string

	// OptionsSchema returns the JSON Schema the stored options must satisfy.
	OptionsSchema() string

	// Compile parses and validates stored options into an Instance.
	Compile(options map[string]string) (Instance, error)
}

// Instance is a condition with its options already parsed. Passes never
// returns an error: malformed state evaluates to false so a single bad rule
// cannot abort a batch.
type Instance interface {
	Passes(ev *event.Event) bool
}

// InstanceFunc adapts a plain function to the Instance interface.
type InstanceFunc func(ev *event.Event) bool

// Passes implements Instance.
func (f InstanceFunc) Passes(ev *event.Event) bool { return f(ev) }

// Registry maps condition ids to implementations. Conditions are registered
// at startup; lookup at evaluation time is read-only.
type Registry struct {
	mu         sync.RWMutex
	conditions map[string]Condition
	schemas    map[string]*gojsonschema.Schema
}

// NewRegistry creates an empty condition registry.
func NewRegistry() *Registry {
	return &Registry{
		conditions: make(map[string]Condition),
		schemas:    make(map[string]*gojsonschema.Schema),
	}
}

// NewDefaultRegistry creates a registry with all built-in conditions.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range []Condition{
		&IssueTypeCondition{},
		&LevelCondition{},
		&AttributeCondition{},
	} {
		if err := r.Register(c); err != nil {
			panic(fmt.Sprintf("condition: failed to register built-in %s: %v", c.ID(), err))
		}
	}
	return r
}

// Register adds a condition. Registering a duplicate id or an invalid
// options schema is an error.
func (r *Registry) Register(c Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	if _, exists := r.conditions[id]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("condition %s already registered", id),
			"Registry", "Register", "check duplicate id")
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(c.OptionsSchema()))
	if err != nil {
		return errors.WrapInvalid(err, "Registry", "Register",
			fmt.Sprintf("compile options schema for %s", id))
	}

	r.conditions[id] = c
	r.schemas[id] = schema
	return nil
}

// Get returns the condition registered under id.
func (r *Registry) Get(id string) (Condition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conditions[id]
	return c, ok
}

// IDs returns all registered condition ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conditions))
	for id := range r.conditions {
		ids = append(ids, id)
	}
	return ids
}

// Compile validates options against the condition's schema and parses them
// into an Instance. Fails with ErrUnknownCondition for unregistered ids and
// ErrOptionValidation when options do not satisfy the schema.
func (r *Registry) Compile(id string, options map[string]string) (Instance, error) {
	r.mu.RLock()
	c, ok := r.conditions[id]
	schema := r.schemas[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownCondition, id)
	}

	if err := validateOptions(schema, options); err != nil {
		return nil, fmt.Errorf("%w: condition %s: %v", errors.ErrOptionValidation, id, err)
	}

	inst, err := c.Compile(options)
	if err != nil {
		return nil, fmt.Errorf("%w: condition %s: %v", errors.ErrOptionValidation, id, err)
	}
	return inst, nil
}

// Evaluate compiles and runs a condition in one step. Invalid options yield
// (false, ErrOptionValidation) rather than a raised failure; callers log and
// treat the condition as not passing.
func (r *Registry) Evaluate(id string, ev *event.Event, options map[string]string) (bool, error) {
	inst, err := r.Compile(id, options)
	if err != nil {
		return false, err
	}
	return inst.Passes(ev), nil
}

// validateOptions runs the options map through the condition's JSON Schema.
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
