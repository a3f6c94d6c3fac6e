// Package engine runs the event processing core: it takes submitted events
// through evaluation, claims dispatch records, and executes the actions of
// matched rules through a bounded worker pool.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/ruleflow/action"
	"github.com/c360/ruleflow/dispatch"
	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/metric"
	"github.com/c360/ruleflow/pkg/cache"
	"github.com/c360/ruleflow/pkg/worker"
	"github.com/c360/ruleflow/store"
)

// Options tunes the engine.
type Options struct {
	// Workers and QueueSize bound the processing pool.
	Workers   int
	QueueSize int

	// ActionTimeout bounds each action execution.
	ActionTimeout time.Duration

	// TerminalRetention is how long terminal event ids are remembered for
	// idempotent Submit. Zero means 24h.
	TerminalRetention time.Duration

	// MetricsRegistry, when set, receives pool and engine metrics.
	MetricsRegistry *metric.MetricsRegistry
}

func (o *Options) withDefaults() {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = action.DefaultActionTimeout
	}
	if o.TerminalRetention <= 0 {
		o.TerminalRetention = 24 * time.Hour
	}
}

// Engine evaluates submitted events against active rules and dispatches the
// actions of matching rules at most once per (event, rule) pair.
type Engine struct {
	rules      store.RuleStore
	evaluator  *Evaluator
	ledger     dispatch.Ledger
	dispatcher *action.Dispatcher

	pool     *worker.Pool[*event.Event]
	terminal *cache.TTLCache[State]
	metrics  *metric.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]State
	started  bool
	stopped  bool
}

// New creates an engine. The ledger decides at-most-once dispatch; pass a
// KV-backed ledger to share it across replicas.
func New(rules store.RuleStore, evaluator *Evaluator, ledger dispatch.Ledger, actions *action.Registry, opts Options) *Engine {
	opts.withDefaults()

	e := &Engine{
		rules:      rules,
		evaluator:  evaluator,
		ledger:     ledger,
		dispatcher: action.NewDispatcher(actions, opts.ActionTimeout),
		terminal:   cache.NewTTL[State](opts.TerminalRetention, opts.TerminalRetention, nil),
		inflight:   make(map[string]State),
		logger:     slog.Default().With("component", "engine"),
	}

	var poolOpts []worker.Option[*event.Event]
	if opts.MetricsRegistry != nil {
		e.metrics = opts.MetricsRegistry.CoreMetrics()
		poolOpts = append(poolOpts, worker.WithMetricsRegistry[*event.Event](opts.MetricsRegistry, "ruleflow_engine"))
	}
	e.pool = worker.NewPool(opts.Workers, opts.QueueSize, e.process, poolOpts...)

	return e
}

// Start starts the worker pool.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return errors.ErrAlreadyStarted
	}
	if err := e.pool.Start(ctx); err != nil {
		return errors.Wrap(err, "Engine", "Start", "start worker pool")
	}
	e.started = true
	e.logger.Info("engine started")
	return nil
}

// Stop drains in-flight events and stops the pool.
func (e *Engine) Stop(timeout time.Duration) error {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	e.mu.Unlock()

	err := e.pool.Stop(timeout)
	e.terminal.Close()
	e.logger.Info("engine stopped")
	return err
}

// Submit enqueues an event for processing. Resubmitting an event id that is
// already terminal or in flight is a no-op. Returns ErrQueueFull when the
// pool queue is at capacity; the event stays unprocessed.
func (e *Engine) Submit(_ context.Context, ev *event.Event) error {
	if ev == nil || ev.ID == "" {
		return errors.WrapInvalid(errors.ErrInvalidEvent, "Engine", "Submit", "submit event without id")
	}

	if _, terminal := e.terminal.Get(ev.ID); terminal {
		return nil
	}

	e.mu.Lock()
	if _, inflight := e.inflight[ev.ID]; inflight {
		e.mu.Unlock()
		return nil
	}
	e.inflight[ev.ID] = StatePending
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordEventReceived("submit")
	}

	if err := e.pool.Submit(ev); err != nil {
		e.mu.Lock()
		delete(e.inflight, ev.ID)
		e.mu.Unlock()
		return errors.WrapTransient(err, "Engine", "Submit", "enqueue event "+ev.ID)
	}
	return nil
}

// State returns the event's current state. ok is false when the id was
// never submitted or its terminal record has expired.
func (e *Engine) State(eventID string) (State, bool) {
	if s, ok := e.terminal.Get(eventID); ok {
		return s, true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.inflight[eventID]
	return s, ok
}

// process runs one event through evaluation and dispatch. Exactly one
// worker owns an event.
func (e *Engine) process(ctx context.Context, ev *event.Event) error {
	start := time.Now()
	e.setState(ev.ID, StateEvaluating)

	rules, err := e.rules.Active(ctx)
	if err != nil {
		e.finish(ev, StateFailed, start)
		e.logger.Error("failed to load rules", "event", ev.ID, "error", err)
		if e.metrics != nil {
			e.metrics.RecordError("engine", "rule_load")
		}
		return err
	}

	dispatched := false
	failed := false

	for _, r := range rules {
		if e.metrics != nil {
			e.metrics.RecordRuleEvaluated(r.ID)
		}
		if !e.evaluator.Match(r, ev) {
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordRuleMatched(r.ID)
		}

		won, err := e.ledger.Begin(ctx, ev.ID, r.ID)
		if err != nil {
			failed = true
			e.logger.Error("dispatch claim failed",
				"event", ev.ID, "rule", r.ID, "error", err)
			if e.metrics != nil {
				e.metrics.RecordDispatchClaim("error")
			}
			continue
		}
		if !won {
			// Another dispatch already claimed this pair.
			if e.metrics != nil {
				e.metrics.RecordDispatchClaim("lost")
			}
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordDispatchClaim("won")
		}

		e.setState(ev.ID, StateDispatched)
		dispatched = true

		for _, out := range e.dispatcher.Dispatch(ctx, r, ev) {
			if e.metrics != nil {
				e.metrics.RecordAction(out.ActionID, out.OK())
			}
			if !out.OK() {
				failed = true
			}
		}
	}

	final := StateSkipped
	switch {
	case failed:
		final = StateFailed
	case dispatched:
		final = StateDone
	}
	e.finish(ev, final, start)

	if final == StateFailed {
		return errors.Wrap(errors.ErrExternalDelivery, "Engine", "process", "dispatch event "+ev.ID)
	}
	return nil
}

func (e *Engine) setState(eventID string, s State) {
	e.mu.Lock()
	e.inflight[eventID] = s
	e.mu.Unlock()
}

func (e *Engine) finish(ev *event.Event, s State, start time.Time) {
	e.terminal.Set(ev.ID, s)
	e.mu.Lock()
	delete(e.inflight, ev.ID)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordEventProcessed(s.String())
		e.metrics.RecordEvalDuration(s.String(), time.Since(start))
	}
	e.logger.Debug("event processed", "event", ev.ID, "state", s.String())
}
