package lease_repo

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasebill/internal/core/id"
	"leasebill/internal/domain/contract"
	"leasebill/internal/domain/installment"
)

func TestContractRepo_Interfaces(t *testing.T) {
	repo := NewContractRepo(nil)
	assert.Implements(t, (*contract.Repository)(nil), repo)
	assert.Implements(t, (*installment.ContractFinder)(nil), repo)
}

func TestContractUpdateQuery_Versioned(t *testing.T) {
	repo := NewContractRepo(nil)
	c := &contract.Contract{ID: id.New(), Number: "CT-2025-00001", Version: 4}

	sql, args, err := repo.updateQuery(c).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "UPDATE contratos SET "), sql)
	assert.Contains(t, sql, "version = version + 1")
	assert.True(t, strings.HasSuffix(sql, "WHERE id = $"+strconv.Itoa(len(args)-1)+" AND version = $"+strconv.Itoa(len(args))), sql)
	assert.NotContains(t, sql, "numero =", "the contract number is immutable")
	assert.NotContains(t, sql, "created_at =")
	assert.Equal(t, 4, args[len(args)-1])
}

func TestContractListQuery_Filters(t *testing.T) {
	repo := NewContractRepo(nil)
	unitID := id.New()
	closed := false

	sql, args, err := repo.listQuery(contract.ListFilter{UnitID: &unitID, Closed: &closed}).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(sql, "FROM contratos WHERE unidade_id = $1 AND encerrado = $2"), sql)
	assert.Equal(t, false, args[1])
}

func TestContractOpenByUnitQuery(t *testing.T) {
	repo := NewContractRepo(nil)

	sql, _, err := repo.openByUnitQuery(id.New()).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, inquilino_id FROM contratos WHERE unidade_id = $1 AND encerrado = $2 ORDER BY created_at DESC, id DESC LIMIT 1",
		sql)
}

func TestWritable(t *testing.T) {
	assert.Equal(t, []string{"b", "d"}, writable([]string{"a", "b", "c", "d"}, "a", "c"))
}
