package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/types"
)

func TestEffectiveStatus(t *testing.T) {
	today := date(2025, time.March, 10)

	tests := []struct {
		name   string
		stored Status
		due    time.Time
		want   Status
	}{
		{"pending past due", StatusPending, date(2025, time.March, 9), StatusOverdue},
		{"pending due today", StatusPending, today, StatusPending},
		{"pending future", StatusPending, date(2025, time.April, 10), StatusPending},
		{"paid past due", StatusPaid, date(2025, time.January, 10), StatusPaid},
		{"cancelled past due", StatusCancelled, date(2025, time.January, 10), StatusCancelled},
		{"stored overdue", StatusOverdue, date(2025, time.April, 10), StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStatus(tt.stored, tt.due, today))
		})
	}
}

func TestEffectiveStatus_IgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	lateToday := time.Date(2025, time.March, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, StatusPending, EffectiveStatus(StatusPending, due, lateToday))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("pago")
	assert.NoError(t, err)
	assert.Equal(t, StatusPaid, s)
	assert.Equal(t, "Pago", s.Label())

	_, err = ParseStatus("quitado")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestAmounts_Total(t *testing.T) {
	a := Amounts{
		Base: types.MustMoney("1000"),
		Charges: Charges{
			Tax:   types.MustMoney("85.50"),
			Water: types.MustMoney("40"),
			Power: types.MustMoney("0"),
			Other: types.MustMoney("10.25"),
		},
		Discount: types.MustMoney("50"),
	}

	assert.Equal(t, "1085.75", a.Total().StringFixed(2))
	assert.False(t, a.Charges.HasNegative())
}

func TestClock_Today(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*3600)
	// 01:30 UTC on the 11th is still the 10th in Sao Paulo.
	instant := time.Date(2025, time.March, 11, 1, 30, 0, 0, time.UTC).In(saoPaulo)

	assert.Equal(t, date(2025, time.March, 10), FixedClock(instant).Today())
}
