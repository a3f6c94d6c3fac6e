// Package ruleflow provides a rule-based event filtering and notification
// dispatch engine. Events are evaluated against configured rules; the actions
// of matching rules run at most once per event and rule, cluster-wide when a
// shared dispatch ledger is configured.
//
// # Architecture
//
// Events flow through three stages:
//
//	┌─────────────────────────────────────┐
//	│            Ingest                   │  NATS queue subscription,
//	│   (decode, batch, decompress)       │  JSON or zstd batches
//	└─────────────────────────────────────┘
//	           ↓ submits to
//	┌─────────────────────────────────────┐
//	│            Engine                   │  Worker pool evaluation,
//	│  (match policies, dispatch ledger)  │  at-most-once claims
//	└─────────────────────────────────────┘
//	           ↓ dispatches via
//	┌─────────────────────────────────────┐
//	│            Actions                  │  Notification cards,
//	│  (notify, resolve, ignore, assign)  │  group state mutations
//	└─────────────────────────────────────┘
//
// Rules pair a match policy (all, any, none) over conditions with an ordered
// action list. Conditions evaluate events and their resolved groups; an event
// belonging to merged issues matches when any referenced group satisfies a
// group-level condition. Malformed conditions evaluate to false and are
// logged, never aborting the event.
//
// The dispatch ledger decides the at-most-once guarantee. The in-memory
// ledger covers a single instance; the NATS KV ledger shares claims across
// replicas, with KV Create deciding the winner under contention.
//
// # Packages
//
// Core:
//   - event: normalized event and group model
//   - rule: rule definitions, validation, file loading
//   - condition: condition registry and built-in conditions
//   - action: action registry, dispatcher, built-in actions
//   - engine: evaluation pipeline and event lifecycle
//   - dispatch: at-most-once dispatch ledgers
//
// Delivery:
//   - notify: notification cards with reversible actions
//   - store: group and rule persistence (memory, NATS KV)
//   - ingest: NATS event ingestion
//
// Infrastructure:
//   - natsclient: NATS connection management and KV access
//   - metric: Prometheus metrics and the ops HTTP server
//   - config: configuration loading and validation
//   - errors: structured error handling with classification
//   - pkg/cache: LRU and TTL caches
//   - pkg/retry: retry policies
//   - pkg/worker: worker pools
//
// # Usage
//
// Basic engine setup:
//
//	natsClient, _ := natsclient.NewClient("nats://localhost:4222")
//	natsClient.Connect(ctx)
//
//	groups := store.NewMemoryGroupStore()
//	actions := action.NewDefaultRegistry(action.Defaults{
//	    Notifier: notify.NewNATSNotifier(natsClient, "ruleflow.notify"),
//	    Groups:   groups,
//	})
//
//	eng := engine.New(ruleStore, engine.NewEvaluator(condition.NewDefaultRegistry()),
//	    dispatch.NewMemoryLedger(24*time.Hour), actions, engine.Options{})
//	eng.Start(ctx)
//	eng.Submit(ctx, ev)
//
// Custom conditions and actions register the same way the built-ins do:
// implement the condition.Condition or action.Executor interface and add it
// to the registry before rules load:
//
//	registry := condition.NewDefaultRegistry()
//	registry.Register(&EnvironmentCondition{})
//
// # Binary
//
// Build and run RuleFlow:
//
//	go build -o bin/ruleflow ./cmd/ruleflow
//	./bin/ruleflow --config configs/ruleflow.yaml
//
// The binary wires ingestion, engine, stores and the ops server from a single
// configuration file; see the config package for the full surface.
package ruleflow
