package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Due  Date  `json:"due"`
		Paid *Date `json:"paid"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"due":"2025-01-10","paid":null}`), &payload))
	assert.Equal(t, NewDate(2025, time.January, 10), payload.Due)
	assert.Nil(t, payload.Paid.Ptr())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2025-01-10","paid":null}`, string(out))
}

func TestDate_AcceptsTimestamp(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-31T15:04:05-03:00"`), &d))
	assert.Equal(t, "2025-03-31", FormatDate(d.Time))
}

func TestDate_RejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"31/03/2025"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20250331`), &d))
}

func TestMoneyOrZero(t *testing.T) {
	assert.True(t, MoneyOrZero(nil).IsZero())
	m := MustMoney("12.50")
	assert.True(t, MoneyOrZero(&m).Equal(MustMoney("12.5")))
	assert.Equal(t, "10.01", Round2(MustMoney("10.005")).StringFixed(2))
}
