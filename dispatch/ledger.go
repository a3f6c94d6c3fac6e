// Package dispatch provides the record-keeping that makes action dispatch
// at-most-once per (event, rule) pair. A record is claimed before any action
// runs, so a crash mid-dispatch can lose a notification but never duplicate
// one.
package dispatch

import (
	"context"
	"time"

	"github.com/c360/ruleflow/pkg/cache"
)

// Ledger claims dispatch records. Begin is a check-and-set: it returns true
// exactly once per (eventID, ruleID) pair across all concurrent callers.
type Ledger interface {
	// Begin claims the record for the pair. True means the caller owns the
	// dispatch and must proceed; false means another dispatch already
	// claimed it. An error means the claim could not be decided and the
	// caller must not dispatch.
	Begin(ctx context.Context, eventID, ruleID string) (bool, error)
}

func recordKey(eventID, ruleID string) string {
	return eventID + "." + ruleID
}

// MemoryLedger keeps records in a TTL cache. Records expire after the
// retention window, bounding memory for long-running processes. Within the
// window the claim is strict; after expiry a replayed event would dispatch
// again, which callers accept by choosing the window.
type MemoryLedger struct {
	records *cache.TTLCache[time.Time]
}

// NewMemoryLedger creates a ledger retaining records for the given window.
func NewMemoryLedger(retention time.Duration) *MemoryLedger {
	return &MemoryLedger{
		records: cache.NewTTL[time.Time](retention, retention, nil),
	}
}

// Begin implements Ledger.
func (l *MemoryLedger) Begin(_ context.Context, eventID, ruleID string) (bool, error) {
	return l.records.SetIfAbsent(recordKey(eventID, ruleID), time.Now().UTC()), nil
}

// Size returns the number of live records.
func (l *MemoryLedger) Size() int {
	return l.records.Size()
}

// Close stops the cache janitor.
func (l *MemoryLedger) Close() {
	l.records.Close()
}
