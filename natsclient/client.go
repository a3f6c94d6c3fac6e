// Package natsclient manages the NATS connection used for event ingest,
// notification publishing and KV-backed state, with a circuit breaker on
// reconnect storms.
package natsclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/metric"
)

// ConnectionStatus represents the state of the NATS connection.
type ConnectionStatus int

// Possible connection statuses.
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusCircuitOpen
)

// String returns the string representation of ConnectionStatus.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

var (
	ErrNotConnected = stderrors.New("not connected to NATS")
	ErrCircuitOpen  = stderrors.New("circuit breaker is open")
)

// Client manages a NATS connection with a circuit breaker on repeated
// connect failures.
type Client struct {
	url    string
	status atomic.Value // stores ConnectionStatus
	logger *slog.Logger

	conn *nats.Conn
	js   jetstream.JetStream
	subs []*nats.Subscription

	// Circuit breaker
	lastFailure      atomic.Value // stores time.Time
	backoff          atomic.Value // stores time.Duration
	circuitFailures  atomic.Int32
	circuitThreshold int32
	maxBackoff       time.Duration

	// Connection options
	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration
	drainTimeout  time.Duration
	clientName    string

	metrics *metric.Metrics

	mu     sync.RWMutex
	closed atomic.Bool
}

// NewClient creates a NATS client. Connect must be called before use.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		url:              url,
		logger:           slog.Default().With("component", "natsclient"),
		maxReconnects:    -1,
		reconnectWait:    2 * time.Second,
		timeout:          5 * time.Second,
		drainTimeout:     30 * time.Second,
		circuitThreshold: 5,
		maxBackoff:       time.Minute,
		clientName:       "ruleflow",
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "apply option")
		}
	}

	c.status.Store(StatusDisconnected)
	c.backoff.Store(time.Second)
	c.lastFailure.Store(time.Time{})

	return c, nil
}

// URL returns the NATS server URL.
func (c *Client) URL() string { return c.url }

// Status returns the current connection status.
func (c *Client) Status() ConnectionStatus {
	val := c.status.Load()
	if val == nil {
		return StatusDisconnected
	}
	return val.(ConnectionStatus)
}

// IsHealthy reports whether the connection is up.
func (c *Client) IsHealthy() bool {
	return c.Status() == StatusConnected
}

func (c *Client) setStatus(status ConnectionStatus) {
	c.status.Store(status)
	if c.metrics != nil {
		c.metrics.RecordNATSStatus(status == StatusConnected)
	}
}

// recordFailure counts a connect failure and opens the circuit past the
// threshold, doubling the backoff up to maxBackoff.
func (c *Client) recordFailure() {
	c.lastFailure.Store(time.Now())
	failures := c.circuitFailures.Add(1)

	if failures >= c.circuitThreshold && c.Status() != StatusCircuitOpen {
		current := c.backoff.Load().(time.Duration)
		next := current * 2
		if next > c.maxBackoff {
			next = c.maxBackoff
		}
		c.backoff.Store(next)
		c.circuitFailures.Store(0)
		c.setStatus(StatusCircuitOpen)
		c.logger.Warn("circuit breaker opened",
			"failures", failures,
			"backoff", current.String())
	}
}

// circuitAllows reports whether a connect attempt may proceed.
func (c *Client) circuitAllows() bool {
	if c.Status() != StatusCircuitOpen {
		return true
	}
	last := c.lastFailure.Load().(time.Time)
	backoff := c.backoff.Load().(time.Duration)
	if time.Since(last) >= backoff {
		c.setStatus(StatusDisconnected)
		return true
	}
	return false
}

// Connect establishes the NATS connection and JetStream context.
func (c *Client) Connect(_ context.Context) error {
	if c.closed.Load() {
		return errors.WrapFatal(ErrNotConnected, "Client", "Connect", "connect on closed client")
	}
	if !c.circuitAllows() {
		return errors.WrapTransient(ErrCircuitOpen, "Client", "Connect", "connect to "+c.url)
	}

	c.setStatus(StatusConnecting)

	conn, err := nats.Connect(c.url,
		nats.Name(c.clientName),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.Timeout(c.timeout),
		nats.DrainTimeout(c.drainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.setStatus(StatusReconnecting)
			c.logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.setStatus(StatusConnected)
			if c.metrics != nil {
				c.metrics.RecordNATSReconnect()
			}
			c.logger.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if !c.closed.Load() {
				c.setStatus(StatusDisconnected)
				c.logger.Warn("nats connection closed")
			}
		}),
	)
	if err != nil {
		c.recordFailure()
		c.setStatus(StatusDisconnected)
		return errors.WrapTransient(err, "Client", "Connect", "connect to "+c.url)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		c.setStatus(StatusDisconnected)
		return errors.WrapFatal(err, "Client", "Connect", "create jetstream context")
	}

	c.mu.Lock()
	c.conn = conn
	c.js = js
	c.mu.Unlock()

	c.circuitFailures.Store(0)
	c.backoff.Store(time.Second)
	c.setStatus(StatusConnected)
	c.logger.Info("nats connected", "url", c.url)
	return nil
}

// Publish publishes data to a subject.
func (c *Client) Publish(_ context.Context, subject string, data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return errors.WrapTransient(ErrNotConnected, "Client", "Publish", "publish to "+subject)
	}
	if err := conn.Publish(subject, data); err != nil {
		return errors.WrapTransient(err, "Client", "Publish", "publish to "+subject)
	}
	return nil
}

// Subscribe subscribes to a subject. Subscriptions are tracked and drained
// on Close.
func (c *Client) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || !c.conn.IsConnected() {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "Subscribe", "subscribe to "+subject)
	}

	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "Subscribe", "subscribe to "+subject)
	}
	c.subs = append(c.subs, sub)
	return sub, nil
}

// QueueSubscribe subscribes as part of a queue group so replicas share the
// subject.
func (c *Client) QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || !c.conn.IsConnected() {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "QueueSubscribe", "subscribe to "+subject)
	}

	sub, err := c.conn.QueueSubscribe(subject, queue, handler)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "QueueSubscribe", "subscribe to "+subject)
	}
	c.subs = append(c.subs, sub)
	return sub, nil
}

// JetStream returns the JetStream context.
func (c *Client) JetStream() jetstream.JetStream {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.js
}

// EnsureKeyValueBucket creates the KV bucket if it does not exist yet and
// returns it.
func (c *Client) EnsureKeyValueBucket(ctx context.Context, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	c.mu.RLock()
	js := c.js
	c.mu.RUnlock()

	if js == nil {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "EnsureKeyValueBucket", "create bucket "+cfg.Bucket)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "EnsureKeyValueBucket",
			fmt.Sprintf("create bucket %s", cfg.Bucket))
	}
	return kv, nil
}

// Close drains subscriptions and closes the connection. Safe to call more
// than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			c.logger.Warn("failed to drain subscription", "subject", sub.Subject, "error", err)
		}
	}
	c.subs = nil

	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
		c.conn = nil
		c.js = nil
	}

	c.setStatus(StatusDisconnected)
	c.logger.Info("nats client closed")
	return nil
}
