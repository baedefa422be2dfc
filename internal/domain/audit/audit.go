// Package audit describes the audit trail of billing operations. Entries are
// handed to a Sink after the business transaction has committed; a failing
// sink never fails the operation that produced the entry.
package audit

import (
	"context"
	"encoding/json"
	"time"

	appctx "leasebill/internal/core/context"
	"leasebill/internal/core/id"
	"leasebill/pkg/logger"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionClose      Action = "close"
	ActionRenew      Action = "renew"
	ActionGenerate   Action = "generate"
	ActionBulkStatus Action = "bulk_status"
	ActionPayment    Action = "payment"
)

// Entity kinds.
const (
	EntityContract    = "contrato"
	EntityInstallment = "parcela"
)

// Entry is one audit event.
type Entry struct {
	Actor      string
	Action     Action
	EntityKind string
	EntityID   *id.ID
	Before     any
	After      any
	Summary    string
	OccurredAt time.Time
}

// Record is a stored entry as read back from a Reader.
type Record struct {
	ID         id.ID           `json:"id"`
	Actor      string          `json:"actor"`
	Action     Action          `json:"action"`
	EntityKind string          `json:"entityKind"`
	EntityID   *id.ID          `json:"entityId,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Sink persists audit entries.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// Reader lists the stored history of one entity, newest first.
type Reader interface {
	History(ctx context.Context, entityKind string, entityID id.ID, limit int) ([]Record, error)
}

// Recorder is the fire-and-forget front of a Sink used by the services.
type Recorder struct {
	sink Sink
}

// NewRecorder wraps sink. A nil sink turns recording into a no-op.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record stamps actor and time, then hands the entry to the sink.
// Failures are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.sink == nil {
		return
	}
	if entry.Actor == "" {
		entry.Actor = appctx.Actor(ctx)
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	// The request may be cancelled right after the response is written.
	if err := r.sink.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn(ctx, "audit record failed",
			"action", entry.Action,
			"entity", entry.EntityKind,
			"error", err,
		)
	}
}

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the caller identity.
// Use in BeforeCreate hooks.
func EnrichCreatedBy(ctx context.Context, createdBy, updatedBy *string) {
	actor := appctx.Actor(ctx)
	if createdBy != nil {
		*createdBy = actor
	}
	if updatedBy != nil {
		*updatedBy = actor
	}
}

// EnrichUpdatedBy sets only UpdatedBy. Use in BeforeUpdate hooks.
func EnrichUpdatedBy(ctx context.Context, updatedBy *string) {
	if updatedBy != nil {
		*updatedBy = appctx.Actor(ctx)
	}
}
