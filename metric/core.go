package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the engine-level metrics shared across components.
type Metrics struct {
	EventsReceived  *prometheus.CounterVec
	EventsProcessed *prometheus.CounterVec
	RulesEvaluated  *prometheus.CounterVec
	RulesMatched    *prometheus.CounterVec
	ActionsTotal    *prometheus.CounterVec
	DispatchClaims  *prometheus.CounterVec
	EvalDuration    *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all engine metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ruleflow",
				Subsystem: "events",
				Name:      "received_total",
				Help:      "Total number of events submitted to the engine",
			},
			[]string{"source"},
		),

		EventsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ruleflow",
				Subsystem: "events",
				Name:      "processed_total",
				Help:      "Total number of events reaching a terminal state",
			},
			[]string{"state"},
		),

		RulesEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ruleflow",
				Subsystem: "rules",
				Name:      "evaluated_total",
				Help:      "Total number of rule evaluations",
			},
			[]string{"rule"},
		),

		RulesMatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ruleflow",
				Subsystem: "rules",
				Name:      "matched_total",
				Help:      "Total number of rule matches",
			},
			[]string{"rule"},
		),

		ActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ruleflow",
				Subsystem: "actions",
				Name:      "executed_total",
				Help:      "Total number of action executions",
			},
			[]string{"action", "status"},
		),

		DispatchClaims: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ruleflow",
				Subsystem: "dispatch",
				Name:      "claims_total",
				Help:      "Dispatch ledger claims by result (won, lost, error)",
			},
			[]string{"result"},
		),

		EvalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ruleflow",
				Subsystem: "engine",
				Name:      "evaluation_duration_seconds",
				Help:      "Per-event evaluation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ruleflow",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"component", "type"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ruleflow",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ruleflow",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordEventReceived increments the received counter for a source.
func (c *Metrics) RecordEventReceived(source string) {
	c.EventsReceived.WithLabelValues(source).Inc()
}

// RecordEventProcessed increments the processed counter for a terminal state.
func (c *Metrics) RecordEventProcessed(state string) {
	c.EventsProcessed.WithLabelValues(state).Inc()
}

// RecordRuleEvaluated increments the evaluation counter for a rule.
func (c *Metrics) RecordRuleEvaluated(ruleID string) {
	c.RulesEvaluated.WithLabelValues(ruleID).Inc()
}

// RecordRuleMatched increments the match counter for a rule.
func (c *Metrics) RecordRuleMatched(ruleID string) {
	c.RulesMatched.WithLabelValues(ruleID).Inc()
}

// RecordAction increments the action counter with a success/error status.
func (c *Metrics) RecordAction(actionID string, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	c.ActionsTotal.WithLabelValues(actionID, status).Inc()
}

// RecordDispatchClaim increments the ledger claim counter by result.
func (c *Metrics) RecordDispatchClaim(result string) {
	c.DispatchClaims.WithLabelValues(result).Inc()
}

// RecordEvalDuration records one event's evaluation time.
func (c *Metrics) RecordEvalDuration(outcome string, d time.Duration) {
	c.EvalDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordError increments the error counter.
func (c *Metrics) RecordError(component, errorType string) {
	c.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordNATSStatus updates the NATS connection gauge.
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSReconnect increments the reconnection counter.
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}
