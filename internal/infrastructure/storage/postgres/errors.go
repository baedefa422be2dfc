package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"leasebill/internal/core/apperror"
)

// PostgreSQL error codes handled explicitly.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	CheckViolation      = "23514"
	LockNotAvailable    = "55P03"
	QueryCanceled       = "57014"
)

// MapError converts driver errors into application errors. Errors that are
// not constraint violations are returned unchanged.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case UniqueViolation:
		return apperror.NewConflict(entity+" already exists").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case ForeignKeyViolation:
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case CheckViolation:
		return apperror.NewValidation(entity+" violates a data constraint").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case LockNotAvailable:
		return apperror.NewConcurrentModification(entity, pgErr.TableName).WithCause(err)
	default:
		return err
	}
}
