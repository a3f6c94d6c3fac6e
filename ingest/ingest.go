// Package ingest feeds events from a NATS subscription into the engine.
// Payloads are JSON, either a single event or a batch array, optionally
// zstd-compressed.
package ingest

import (
	"bytes"
	"context"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/nats-io/nats.go"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/event"
	"github.com/c360/ruleflow/metric"
)

// zstd frame magic number, used to sniff compressed payloads.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Submitter is the engine surface the ingester needs.
type Submitter interface {
	Submit(ctx context.Context, ev *event.Event) error
}

// Subscriber is the transport surface the ingester needs.
type Subscriber interface {
	QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error)
}

// Ingester subscribes to an event subject and submits decoded events to the
// engine. Decode failures are logged and dropped: a malformed payload never
// stops the subscription.
type Ingester struct {
	engine  Submitter
	decoder *zstd.Decoder
	metrics *metric.Metrics
	logger  *slog.Logger
}

// New creates an ingester. metrics may be nil.
func New(engine Submitter, metrics *metric.Metrics) (*Ingester, error) {
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errors.WrapFatal(err, "Ingester", "New", "create zstd decoder")
	}
	return &Ingester{
		engine:  engine,
		decoder: decoder,
		metrics: metrics,
		logger:  slog.Default().With("component", "ingest"),
	}, nil
}

// Start subscribes to the subject as part of the queue group so replicas
// share the stream of events.
func (i *Ingester) Start(ctx context.Context, sub Subscriber, subject, queue string) error {
	_, err := sub.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		i.handle(ctx, msg.Data)
	})
	if err != nil {
		return errors.Wrap(err, "Ingester", "Start", "subscribe to "+subject)
	}
	i.logger.Info("ingest subscription started", "subject", subject, "queue", queue)
	return nil
}

// Close releases the decoder.
func (i *Ingester) Close() {
	i.decoder.Close()
}

func (i *Ingester) handle(ctx context.Context, data []byte) {
	events, err := i.Decode(data)
	if err != nil {
		i.logger.Warn("dropping malformed payload", "error", err)
		if i.metrics != nil {
			i.metrics.RecordError("ingest", "decode")
		}
		return
	}

	for _, ev := range events {
		if i.metrics != nil {
			i.metrics.RecordEventReceived("nats")
		}
		if err := i.engine.Submit(ctx, ev); err != nil {
			i.logger.Warn("failed to submit event", "event", ev.ID, "error", err)
			if i.metrics != nil {
				i.metrics.RecordError("ingest", "submit")
			}
		}
	}
}

// Decode parses a payload into events. Compressed payloads are decompressed
// first; both single objects and arrays are accepted.
func (i *Ingester) Decode(data []byte) ([]*event.Event, error) {
	if len(data) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidEvent, "Ingester", "Decode", "decode empty payload")
	}

	if bytes.HasPrefix(data, zstdMagic) {
		decompressed, err := i.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Ingester", "Decode", "decompress payload")
		}
		data = decompressed
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []*event.Event
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, errors.WrapInvalid(err, "Ingester", "Decode", "decode event batch")
		}
		return events, nil
	}

	var ev event.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, errors.WrapInvalid(err, "Ingester", "Decode", "decode event")
	}
	return []*event.Event{&ev}, nil
}
