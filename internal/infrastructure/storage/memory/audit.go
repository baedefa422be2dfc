package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"leasebill/internal/core/id"
	"leasebill/internal/domain/audit"
)

// AuditSink keeps audit records in the store. It implements audit.Sink and audit.Reader.
type AuditSink struct {
	store *Store
}

// NewAuditSink creates an audit sink.
func NewAuditSink(store *Store) *AuditSink {
	return &AuditSink{store: store}
}

// Record implements audit.Sink.
func (a *AuditSink) Record(ctx context.Context, entry audit.Entry) error {
	changes, err := json.Marshal(map[string]any{"before": entry.Before, "after": entry.After})
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	if err := a.store.fault("audit.Record"); err != nil {
		return err
	}
	a.store.audit = append(a.store.audit, audit.Record{
		ID:         id.New(),
		Actor:      entry.Actor,
		Action:     entry.Action,
		EntityKind: entry.EntityKind,
		EntityID:   entry.EntityID,
		Summary:    entry.Summary,
		Changes:    changes,
		OccurredAt: entry.OccurredAt,
	})
	return nil
}

// History implements audit.Reader.
func (a *AuditSink) History(ctx context.Context, entityKind string, entityID id.ID, limit int) ([]audit.Record, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	var out []audit.Record
	for i := len(a.store.audit) - 1; i >= 0; i-- {
		rec := a.store.audit[i]
		if rec.EntityKind != entityKind || rec.EntityID == nil || *rec.EntityID != entityID {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Entries returns every record in insertion order.
func (a *AuditSink) Entries() []audit.Record {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return append([]audit.Record(nil), a.store.audit...)
}

var (
	_ audit.Sink   = (*AuditSink)(nil)
	_ audit.Reader = (*AuditSink)(nil)
)
