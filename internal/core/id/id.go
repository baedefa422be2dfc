// Package id provides UUIDv7 generation for contracts, installments and renewals.
// UUIDv7 is time-ordered, so primary keys sort by creation time.
package id

import (
	"github.com/google/uuid"

	"leasebill/internal/core/apperror"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Parse converts string to ID.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseField parses an identifier coming from a request field and reports
// failures as validation errors naming the field.
func ParseField(field, s string) (ID, error) {
	if s == "" {
		return uuid.Nil, apperror.NewValidation(field+" is required").WithDetail("field", field)
	}
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.NewValidation(field+" must be a valid UUID").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return v, nil
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
