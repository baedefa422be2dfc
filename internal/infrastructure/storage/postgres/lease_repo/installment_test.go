package lease_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/installment"
)

var today = types.NewDate(2025, time.March, 15).Time

func TestStatusPredicate(t *testing.T) {
	tests := []struct {
		name     string
		status   billing.Status
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "pending excludes past due",
			status:   billing.StatusPending,
			wantSQL:  "(p.status = ? AND p.data_vencimento >= ?)",
			wantArgs: []any{billing.StatusPending, today},
		},
		{
			name:     "overdue includes stale pending",
			status:   billing.StatusOverdue,
			wantSQL:  "(p.status = ? OR (p.status = ? AND p.data_vencimento < ?))",
			wantArgs: []any{billing.StatusOverdue, billing.StatusPending, today},
		},
		{
			name:     "paid is stored as is",
			status:   billing.StatusPaid,
			wantSQL:  "p.status = ?",
			wantArgs: []any{billing.StatusPaid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := statusPredicate(tt.status, today).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestInstallmentListQuery(t *testing.T) {
	repo := NewInstallmentRepo(nil)
	unitID := id.New()
	status := billing.StatusOverdue
	from := types.NewDate(2025, time.January, 1).Time

	sql, args, err := repo.listQuery(installment.ListFilter{
		UnitID: &unitID,
		Status: &status,
		From:   &from,
		Limit:  20,
	}, today).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT p.id, p.contrato_id,"), sql)
	assert.Contains(t, sql, "COALESCE(u.identificador, '') AS unidade_identificador, i.nome AS inquilino_nome")
	assert.Contains(t, sql, "FROM parcelas p LEFT JOIN unidades u ON u.id = p.unidade_id LEFT JOIN inquilinos i ON i.id = p.inquilino_id")
	assert.Contains(t, sql, "WHERE p.unidade_id = $1 AND p.data_vencimento >= $2 AND (p.status = $3 OR (p.status = $4 AND p.data_vencimento < $5))")
	assert.Contains(t, sql, "ORDER BY p.data_vencimento, p.numero_parcela ASC NULLS LAST, p.created_at LIMIT 20")
	assert.NotContains(t, sql, "OFFSET")
	assert.Len(t, args, 5)
}

func TestInstallmentInsertQuery_MultiRow(t *testing.T) {
	repo := NewInstallmentRepo(nil)
	contractID := id.New()
	items := []*installment.Installment{
		{ID: id.New(), ContractID: &contractID, UnitID: id.New(), Status: billing.StatusPending},
		{ID: id.New(), ContractID: &contractID, UnitID: id.New(), Status: billing.StatusPending},
	}

	sql, args, err := repo.insertQuery(items).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO parcelas (id,contrato_id,"), sql)
	assert.Equal(t, 2, strings.Count(sql, "($"), "one VALUES tuple per installment")
	assert.Len(t, args, 2*len(installmentCols))
	assert.Equal(t, items[0].ID, args[0])
	assert.Equal(t, items[1].ID, args[len(installmentCols)])
}

func TestInstallmentSetStatusQuery(t *testing.T) {
	repo := NewInstallmentRepo(nil)
	ids := []id.ID{id.New(), id.New()}

	sql, args, err := repo.setStatusQuery(ids, billing.StatusPaid, today).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE parcelas SET status = $1, updated_at = $2, data_pagamento = COALESCE(data_pagamento, $3) WHERE id IN ($4,$5)",
		sql)
	assert.Equal(t, billing.StatusPaid, args[0])
	assert.Equal(t, today, args[2])

	sql, _, err = repo.setStatusQuery(ids, billing.StatusCancelled, today).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "data_pagamento", "only paid stamps a payment date")
}

func TestInstallmentPendingUpdates(t *testing.T) {
	repo := NewInstallmentRepo(nil)
	contractID := id.New()

	sql, args, err := repo.pendingUpdate(contractID).Set("status", billing.StatusCancelled).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE parcelas SET updated_at = $1, status = $2 WHERE contrato_id = $3 AND status = $4",
		sql)
	assert.Equal(t, billing.StatusPending, args[3])
}

func TestInstallmentResyncQuery(t *testing.T) {
	repo := NewInstallmentRepo(nil)
	s := installment.Schedule{
		ContractID: id.New(),
		UnitID:     id.New(),
		TenantID:   id.New(),
		Rent:       types.MustMoney("1200"),
	}

	sql, args, err := repo.resyncQuery(s).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "UPDATE parcelas SET updated_at = $1"), sql)
	assert.Contains(t, sql, "valor_base = ")
	assert.Contains(t, sql, "unidade_id = ")
	assert.Contains(t, sql, "inquilino_id = ")
	assert.Contains(t, sql, "WHERE contrato_id = ")
	assert.Contains(t, args, s.UnitID)
	assert.Contains(t, args, s.TenantID)
	assert.Equal(t, billing.StatusPending, args[len(args)-1])
}

func TestInstallmentClosedContractsQuery(t *testing.T) {
	repo := NewInstallmentRepo(nil)
	ids := []id.ID{id.New(), id.New()}

	sql, args, err := repo.closedContractsQuery(ids).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT p.id FROM parcelas p JOIN contratos c ON c.id = p.contrato_id WHERE p.id IN ($1,$2) AND c.encerrado = $3",
		sql)
	assert.Equal(t, []any{ids[0], ids[1], true}, args)
}

func TestInstallmentNumberedQuery(t *testing.T) {
	repo := NewInstallmentRepo(nil)

	sql, _, err := repo.numberedQuery(id.New(), "numero_parcela ASC").ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "WHERE contrato_id = $1 AND numero_parcela IS NOT NULL ORDER BY numero_parcela ASC LIMIT 1"), sql)
}
