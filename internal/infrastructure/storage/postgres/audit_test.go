package postgres

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasebill/internal/core/types"
	"leasebill/internal/domain/contract"
)

func TestDiff(t *testing.T) {
	d := Diff(
		map[string]any{"valor_aluguel": "1500", "observacoes": "a", "old": 1},
		map[string]any{"valor_aluguel": "1650", "observacoes": "a", "new": 2},
	)

	assert.Len(t, d, 3)
	assert.Equal(t, map[string]any{"old": "1500", "new": "1650"}, d["valor_aluguel"])
	assert.Equal(t, map[string]any{"old": 1, "new": nil}, d["old"])
	assert.Equal(t, map[string]any{"old": nil, "new": 2}, d["new"])
}

func TestChangesPayload_IncludesDiff(t *testing.T) {
	before := contract.Contract{Number: "CT-2025-00001", Rent: types.MustMoney("1500"), Version: 1}
	after := before
	after.Rent = types.MustMoney("1650")
	after.Version = 2

	raw, err := ChangesPayload(&before, &after)
	require.NoError(t, err)

	var payload struct {
		Diff map[string]json.RawMessage `json:"diff"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Contains(t, payload.Diff, "valor_aluguel")
	assert.Contains(t, payload.Diff, "version")
	assert.NotContains(t, payload.Diff, "numero")
}

func TestChangesPayload_Empty(t *testing.T) {
	raw, err := ChangesPayload(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestAuditSink_CompressRoundTrip(t *testing.T) {
	sink, err := NewAuditSink(nil, 64)
	require.NoError(t, err)

	small := []byte(`{"after":{"numero":"CT-2025-00001"}}`)
	plain, packed, algo := sink.compress(small)
	assert.Equal(t, CompressionNone, algo)
	assert.Nil(t, packed)
	assert.Equal(t, json.RawMessage(small), plain)

	large := bytes.Repeat([]byte("a"), 4096)
	plain, packed, algo = sink.compress(large)
	require.Equal(t, CompressionZstd, algo)
	assert.Nil(t, plain)
	assert.Less(t, len(packed), len(large))

	row := auditRow{ChangesCompressed: packed, CompressionAlgo: algo}
	require.NoError(t, sink.decompress(&row))
	assert.Equal(t, large, []byte(row.Changes))
	assert.Nil(t, row.ChangesCompressed)
}
