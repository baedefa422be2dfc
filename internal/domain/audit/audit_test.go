package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "leasebill/internal/core/context"
)

type captureSink struct {
	entries []Entry
	err     error
}

func (s *captureSink) Record(ctx context.Context, e Entry) error {
	s.entries = append(s.entries, e)
	return s.err
}

func TestRecorder_StampsActorAndTime(t *testing.T) {
	sink := &captureSink{}
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "7", Email: "gestor@imob.com.br"})

	NewRecorder(sink).Record(ctx, Entry{Action: ActionClose, EntityKind: EntityContract})

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "gestor@imob.com.br", sink.entries[0].Actor)
	assert.False(t, sink.entries[0].OccurredAt.IsZero())
}

func TestRecorder_SwallowsSinkErrors(t *testing.T) {
	sink := &captureSink{err: errors.New("audit table missing")}

	assert.NotPanics(t, func() {
		NewRecorder(sink).Record(context.Background(), Entry{Action: ActionCreate})
	})
	assert.Len(t, sink.entries, 1)
	assert.Equal(t, "system", sink.entries[0].Actor)

	var nilRecorder *Recorder
	assert.NotPanics(t, func() { nilRecorder.Record(context.Background(), Entry{}) })
	assert.NotPanics(t, func() { NewRecorder(nil).Record(context.Background(), Entry{}) })
}

func TestEnrich(t *testing.T) {
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "42"})
	var created, updated string

	EnrichCreatedBy(ctx, &created, &updated)
	assert.Equal(t, "42", created)
	assert.Equal(t, "42", updated)

	EnrichUpdatedBy(context.Background(), &updated)
	assert.Equal(t, "system", updated)
}
