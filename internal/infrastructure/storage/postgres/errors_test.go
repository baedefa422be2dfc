package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"leasebill/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"unique", UniqueViolation, apperror.CodeConflict},
		{"foreign key", ForeignKeyViolation, apperror.CodeValidation},
		{"check", CheckViolation, apperror.CodeValidation},
		{"lock", LockNotAvailable, apperror.CodeConcurrentModification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.code, ConstraintName: "uq_parcelas_contrato_numero"}
			err := MapError(fmt.Errorf("insert parcelas: %w", pgErr), "installment")

			assert.True(t, apperror.HasCode(err, tt.want), "got %v", err)
			assert.ErrorIs(t, err, pgErr)
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	assert.NoError(t, MapError(nil, "contract"))

	plain := errors.New("connection reset")
	assert.Same(t, plain, MapError(plain, "contract"))

	other := &pgconn.PgError{Code: QueryCanceled}
	assert.Same(t, error(other), MapError(other, "contract"))
}
