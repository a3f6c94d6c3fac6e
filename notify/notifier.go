package notify

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/c360/ruleflow/errors"
)

// Notifier delivers a built card to a destination channel. Implementations
// must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, channel string, card *Card) error
}

// Publisher is the transport surface the NATS notifier needs.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NATSNotifier publishes cards as JSON to "<prefix>.<channel>".
type NATSNotifier struct {
	pub    Publisher
	prefix string
}

// NewNATSNotifier creates a notifier publishing under the given subject
// prefix, typically "ruleflow.notify".
func NewNATSNotifier(pub Publisher, prefix string) *NATSNotifier {
	return &NATSNotifier{pub: pub, prefix: prefix}
}

// Send implements Notifier.
func (n *NATSNotifier) Send(ctx context.Context, channel string, card *Card) error {
	data, err := json.Marshal(card)
	if err != nil {
		return errors.WrapInvalid(err, "NATSNotifier", "Send", "encode card")
	}
	subject := n.prefix + "." + channel
	if err := n.pub.Publish(ctx, subject, data); err != nil {
		return errors.WrapTransient(err, "NATSNotifier", "Send", "publish to "+subject)
	}
	return nil
}

// Sent is one delivery recorded by MemoryNotifier.
type Sent struct {
	Channel string
	Card    *Card
}

// MemoryNotifier records deliveries in memory. Used in tests and as a
// fallback when no transport is configured.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Sent
	err  error
}

// NewMemoryNotifier creates an empty memory notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Fail makes every subsequent Send return err. Pass nil to restore.
func (m *MemoryNotifier) Fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Send implements Notifier.
func (m *MemoryNotifier) Send(_ context.Context, channel string, card *Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, Sent{Channel: channel, Card: card})
	return nil
}

// Sent returns a copy of the recorded deliveries.
func (m *MemoryNotifier) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}
