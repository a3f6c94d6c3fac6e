package dispatch

import (
	"context"
	"time"

	json "github.com/goccy/go-json"

	"github.com/c360/ruleflow/errors"
	"github.com/c360/ruleflow/natsclient"
)

// KeyCreator is the KV surface the ledger needs: create-if-absent with the
// bucket deciding the winner under contention.
type KeyCreator interface {
	Create(ctx context.Context, key string, value []byte) (uint64, error)
}

// record is the value stored under a claimed key. Kept small; the key alone
// carries the claim, the body exists for operators inspecting the bucket.
type record struct {
	EventID   string    `json:"event_id"`
	RuleID    string    `json:"rule_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// KVLedger claims dispatch records in a NATS KV bucket. Create is atomic
// across all engine instances sharing the bucket, so the claim holds
// cluster-wide. Retention is delegated to the bucket's TTL.
type KVLedger struct {
	kv KeyCreator
}

// NewKVLedger creates a ledger over the given KV store. The backing bucket
// should be created with a TTL matching the desired retention window.
func NewKVLedger(kv KeyCreator) *KVLedger {
	return &KVLedger{kv: kv}
}

// Begin implements Ledger.
func (l *KVLedger) Begin(ctx context.Context, eventID, ruleID string) (bool, error) {
	value, err := json.Marshal(record{
		EventID:   eventID,
		RuleID:    ruleID,
		ClaimedAt: time.Now().UTC(),
	})
	if err != nil {
		return false, errors.WrapInvalid(err, "KVLedger", "Begin", "encode record")
	}

	_, err = l.kv.Create(ctx, recordKey(eventID, ruleID), value)
	if err != nil {
		if natsclient.IsKVConflictError(err) {
			return false, nil
		}
		return false, errors.WrapTransient(err, "KVLedger", "Begin", "claim record")
	}
	return true, nil
}
