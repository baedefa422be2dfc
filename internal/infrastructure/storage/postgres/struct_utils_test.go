package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/contract"
	"leasebill/internal/domain/installment"
)

func TestExtractDBColumns_FlattensEmbedded(t *testing.T) {
	cols := ExtractDBColumns[installment.Installment]()

	for _, expected := range []string{
		"id", "contrato_id", "numero_parcela", "data_vencimento",
		"valor_base", "valor_iptu", "valor_agua", "valor_luz", "valor_outros",
		"desconto_pontualidade", "status", "valor_pago",
	} {
		assert.Contains(t, cols, expected)
	}
	assert.Equal(t, "id", cols[0])
}

func TestExtractDBColumns_ListItemIncludesLabels(t *testing.T) {
	cols := ExtractDBColumns[installment.ListItem]()

	assert.Contains(t, cols, "valor_base")
	assert.Contains(t, cols, "unidade_identificador")
	assert.Contains(t, cols, "inquilino_nome")
}

func TestQualifiedColumns(t *testing.T) {
	cols := QualifiedColumns[contract.Renewal]("r")

	require.NotEmpty(t, cols)
	assert.Equal(t, "r.id", cols[0])
	assert.Contains(t, cols, "r.indice_reajuste")
}

func TestStructToMap_Contract(t *testing.T) {
	start := types.NewDate(2025, time.January, 10).Time
	c := contract.Contract{
		ID:          id.New(),
		Number:      "CT-2025-00001",
		PeriodStart: start,
		Rent:        types.MustMoney("1500.00"),
		DueDay:      10,
		Charges:     billing.Charges{Water: types.MustMoney("80")},
		Version:     3,
	}

	m := StructToMap(&c)

	assert.Equal(t, c.ID, m["id"])
	assert.Equal(t, "CT-2025-00001", m["numero"])
	assert.Equal(t, start, m["periodo_inicio"])
	assert.Equal(t, 3, m["version"])
	assert.True(t, types.MustMoney("80").Equal(m["valor_agua"].(types.Money)))
	assert.True(t, m["valor_iptu"].(types.Money).IsZero())
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap((*contract.Contract)(nil)))
}

func TestPickColumns(t *testing.T) {
	m := map[string]any{"id": 1, "numero": "CT", "created_at": "x"}

	got := PickColumns(m, []string{"id", "numero", "missing"})

	assert.Equal(t, map[string]any{"id": 1, "numero": "CT"}, got)
}
