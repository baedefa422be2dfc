package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"leasebill/internal/core/id"
	"leasebill/internal/domain/audit"
)

// CompressionAlgo specifies how the changes payload is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which changes are compressed.
const DefaultCompressThreshold = 10 * 1024

type auditRow struct {
	ID                id.ID           `db:"id"`
	EntityKind        string          `db:"entity_type"`
	EntityID          *id.ID          `db:"entity_id"`
	Action            audit.Action    `db:"action"`
	Actor             string          `db:"actor"`
	Summary           string          `db:"summary"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditSink stores audit entries in sys_audit. Large change sets are
// compressed with zstd. It implements audit.Sink and audit.Reader.
type AuditSink struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var (
	_ audit.Sink   = (*AuditSink)(nil)
	_ audit.Reader = (*AuditSink)(nil)
)

// NewAuditSink creates an audit sink. threshold <= 0 selects DefaultCompressThreshold.
func NewAuditSink(txManager *TxManager, threshold int) (*AuditSink, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &AuditSink{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: threshold,
	}, nil
}

// Record implements audit.Sink.
func (s *AuditSink) Record(ctx context.Context, entry audit.Entry) error {
	changes, err := ChangesPayload(entry.Before, entry.After)
	if err != nil {
		return err
	}

	row := auditRow{
		ID:              id.New(),
		EntityKind:      entry.EntityKind,
		EntityID:        entry.EntityID,
		Action:          entry.Action,
		Actor:           entry.Actor,
		Summary:         entry.Summary,
		CompressionAlgo: CompressionNone,
		CreatedAt:       entry.OccurredAt,
	}
	row.Changes, row.ChangesCompressed, row.CompressionAlgo = s.compress(changes)

	const sql = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, actor, summary,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		row.ID, row.EntityKind, row.EntityID, row.Action, row.Actor, row.Summary,
		row.Changes, row.ChangesCompressed, row.CompressionAlgo, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

func (s *AuditSink) compress(changes []byte) (json.RawMessage, []byte, CompressionAlgo) {
	if len(changes) <= s.compressThreshold {
		return changes, nil, CompressionNone
	}
	return nil, s.encoder.EncodeAll(changes, nil), CompressionZstd
}

func (s *AuditSink) decompress(row *auditRow) error {
	if row.CompressionAlgo != CompressionZstd || len(row.ChangesCompressed) == 0 {
		return nil
	}
	out, err := s.decoder.DecodeAll(row.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	row.Changes = out
	row.ChangesCompressed = nil
	return nil
}

// History implements audit.Reader.
func (s *AuditSink) History(ctx context.Context, entityKind string, entityID id.ID, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	const sql = `
		SELECT id, entity_type, entity_id, action, actor, summary,
			   changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	var rows []auditRow
	if err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &rows, sql, entityKind, entityID, limit); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	out := make([]audit.Record, 0, len(rows))
	for i := range rows {
		if err := s.decompress(&rows[i]); err != nil {
			return nil, err
		}
		r := rows[i]
		out = append(out, audit.Record{
			ID:         r.ID,
			Actor:      r.Actor,
			Action:     r.Action,
			EntityKind: r.EntityKind,
			EntityID:   r.EntityID,
			Summary:    r.Summary,
			Changes:    r.Changes,
			OccurredAt: r.CreatedAt,
		})
	}
	return out, nil
}

// ChangesPayload serializes before/after states. When both are present the
// column-level diff is included as well.
func ChangesPayload(before, after any) ([]byte, error) {
	payload := map[string]any{}
	if before != nil {
		payload["before"] = before
	}
	if after != nil {
		payload["after"] = after
	}
	if before != nil && after != nil {
		oldState, newState := StructToMap(before), StructToMap(after)
		if oldState != nil && newState != nil {
			if d := Diff(oldState, newState); len(d) > 0 {
				payload["diff"] = d
			}
		}
	}
	if len(payload) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal changes: %w", err)
	}
	return b, nil
}

// Diff returns the columns whose values differ between two states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)
	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}
	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}
	return changes
}

func equal(a, b any) bool {
	return fmt.Sprintf("%v", deref(a)) == fmt.Sprintf("%v", deref(b))
}

func deref(v any) any {
	switch t := v.(type) {
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case *id.ID:
		if t == nil {
			return nil
		}
		return *t
	case *int:
		if t == nil {
			return nil
		}
		return *t
	}
	return v
}
