package installment

import (
	"context"
	"time"

	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/billing"
)

// Repository persists installments. Implementations resolve the querier from
// ctx so that every call joins the caller's transaction.
type Repository interface {
	// Create inserts one installment.
	Create(ctx context.Context, item *Installment) error

	// CreateBatch inserts all items or none.
	CreateBatch(ctx context.Context, items []*Installment) error

	// GetByID returns NotFound for unknown ids.
	GetByID(ctx context.Context, installmentID id.ID) (*Installment, error)

	// Update overwrites the mutable columns of one installment.
	Update(ctx context.Context, item *Installment) error

	// Delete removes one installment. Returns NotFound for unknown ids.
	Delete(ctx context.Context, installmentID id.ID) error

	// LastNumbered returns the installment with the highest sequence number of
	// a contract, or nil when the contract has none.
	LastNumbered(ctx context.Context, contractID id.ID) (*Installment, error)
	// FirstNumbered returns the installment with the lowest sequence number,
	// or nil when there is none. Its period start fixes the billing day.
	FirstNumbered(ctx context.Context, contractID id.ID) (*Installment, error)

	// ListByContract returns a contract's installments ordered by number, then due date.
	ListByContract(ctx context.Context, contractID id.ID) ([]*Installment, error)

	// List applies filter. today resolves the derived overdue predicate.
	List(ctx context.Context, filter ListFilter, today time.Time) ([]*ListItem, error)

	// ResyncPending copies the schedule's unit, tenant and amounts onto every
	// pending installment of its contract.
	ResyncPending(ctx context.Context, s Schedule) (int64, error)
	// OnClosedContracts returns the subset of ids whose contract is closed.
	OnClosedContracts(ctx context.Context, ids []id.ID) ([]id.ID, error)

	// CancelPending moves every pending installment of a contract to cancelled.
	CancelPending(ctx context.Context, contractID id.ID) (int64, error)

	// SetStatus applies status to ids in one statement. Moving to paid stamps
	// paymentDate only on rows without a payment date. Unknown ids are ignored.
	SetStatus(ctx context.Context, ids []id.ID, status billing.Status, paymentDate time.Time) (int64, error)
}

// ContractLink is the part of a contract a standalone charge attaches to.
type ContractLink struct {
	ContractID id.ID
	TenantID   id.ID
}

// ContractFinder locates the open contract of a unit for standalone charges.
type ContractFinder interface {
	// FindOpenByUnit returns the most recently created open contract of the
	// unit, or nil when there is none.
	FindOpenByUnit(ctx context.Context, unitID id.ID) (*ContractLink, error)
}

// Schedule is what the generator needs to know about a contract.
type Schedule struct {
	ContractID  id.ID
	UnitID      id.ID
	TenantID    id.ID
	PeriodStart time.Time
	PeriodEnd   time.Time
	DueDay      int
	Rent        types.Money
	Charges     billing.Charges
	Discount    types.Money
	Closed      bool
}

// Amounts returns the monthly amounts of a scheduled installment.
func (s Schedule) Amounts() billing.Amounts {
	return billing.Amounts{
		Base:     s.Rent,
		Charges:  s.Charges,
		Discount: s.Discount,
	}
}
