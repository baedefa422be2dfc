package billing

import (
	"time"

	"leasebill/internal/core/apperror"
)

// Status is the stored payment status of an installment.
type Status string

const (
	StatusPending   Status = "pendente"
	StatusPaid      Status = "pago"
	StatusOverdue   Status = "atrasado"
	StatusCancelled Status = "cancelado"
)

var statusLabels = map[Status]string{
	StatusPending:   "Pendente",
	StatusPaid:      "Pago",
	StatusOverdue:   "Atrasado",
	StatusCancelled: "Cancelado",
}

// IsValid reports whether s is one of the four known statuses.
func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsOpen reports whether s still expects a payment.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusOverdue
}

// Label is the display name used in audit summaries.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus validates a status coming from a request.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", apperror.NewValidation("invalid status").
			WithDetail("status", raw).
			WithDetail("allowed", []Status{StatusPending, StatusPaid, StatusOverdue, StatusCancelled})
	}
	return s, nil
}

// EffectiveStatus derives the status shown to readers. A pending installment
// whose due date has passed reads as overdue; everything else reads as stored.
func EffectiveStatus(stored Status, dueDate, today time.Time) Status {
	if stored == StatusPending && truncate(dueDate).Before(truncate(today)) {
		return StatusOverdue
	}
	return stored
}
