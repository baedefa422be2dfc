package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/installment"
)

// InstallmentRepo implements installment.Repository.
type InstallmentRepo struct {
	store *Store
}

// NewInstallmentRepo creates an installment repository.
func NewInstallmentRepo(store *Store) *InstallmentRepo {
	return &InstallmentRepo{store: store}
}

// Create implements installment.Repository.
func (r *InstallmentRepo) Create(ctx context.Context, item *installment.Installment) error {
	return r.CreateBatch(ctx, []*installment.Installment{item})
}

// CreateBatch implements installment.Repository.
func (r *InstallmentRepo) CreateBatch(ctx context.Context, items []*installment.Installment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("installment.CreateBatch"); err != nil {
		return err
	}

	type slot struct {
		contract id.ID
		number   int
	}
	taken := make(map[slot]bool)
	for _, existing := range s.installments {
		if existing.ContractID != nil && existing.Number != nil {
			taken[slot{*existing.ContractID, *existing.Number}] = true
		}
	}
	for _, item := range items {
		if _, ok := s.units[item.UnitID]; !ok {
			return apperror.NewValidation("referenced unit does not exist").WithDetail("unidadeId", item.UnitID)
		}
		if item.ContractID != nil && item.Number != nil {
			k := slot{*item.ContractID, *item.Number}
			if taken[k] {
				return apperror.NewConflict("installment number already exists for contract").
					WithDetail("contratoId", *item.ContractID).
					WithDetail("numeroParcela", *item.Number)
			}
			taken[k] = true
		}
	}

	now := s.now()
	for _, item := range items {
		item.CreatedAt, item.UpdatedAt = now, now
		s.installments[item.ID] = *item
	}
	return nil
}

// GetByID implements installment.Repository.
func (r *InstallmentRepo) GetByID(ctx context.Context, installmentID id.ID) (*installment.Installment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.installments[installmentID]
	if !ok {
		return nil, apperror.NewNotFound("installment", installmentID)
	}
	return &item, nil
}

// Update implements installment.Repository.
func (r *InstallmentRepo) Update(ctx context.Context, item *installment.Installment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("installment.Update"); err != nil {
		return err
	}
	current, ok := s.installments[item.ID]
	if !ok {
		return apperror.NewNotFound("installment", item.ID)
	}
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = s.now()
	s.installments[item.ID] = *item
	return nil
}

// Delete implements installment.Repository.
func (r *InstallmentRepo) Delete(ctx context.Context, installmentID id.ID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.installments[installmentID]; !ok {
		return apperror.NewNotFound("installment", installmentID)
	}
	delete(s.installments, installmentID)
	return nil
}

// LastNumbered implements installment.Repository.
func (r *InstallmentRepo) LastNumbered(ctx context.Context, contractID id.ID) (*installment.Installment, error) {
	return r.numbered(contractID, func(a, b int) bool { return a > b }), nil
}

// FirstNumbered implements installment.Repository.
func (r *InstallmentRepo) FirstNumbered(ctx context.Context, contractID id.ID) (*installment.Installment, error) {
	return r.numbered(contractID, func(a, b int) bool { return a < b }), nil
}

func (r *InstallmentRepo) numbered(contractID id.ID, better func(a, b int) bool) *installment.Installment {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var pick *installment.Installment
	for _, item := range r.store.installments {
		if item.ContractID == nil || *item.ContractID != contractID || item.Number == nil {
			continue
		}
		if pick == nil || better(*item.Number, *pick.Number) {
			pick = &item
		}
	}
	return pick
}

// ListByContract implements installment.Repository.
func (r *InstallmentRepo) ListByContract(ctx context.Context, contractID id.ID) ([]*installment.Installment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*installment.Installment
	for _, item := range r.store.installments {
		if item.ContractID != nil && *item.ContractID == contractID {
			out = append(out, &item)
		}
	}
	slices.SortFunc(out, byNumberThenDue)
	return out, nil
}

// List implements installment.Repository.
func (r *InstallmentRepo) List(ctx context.Context, filter installment.ListFilter, today time.Time) ([]*installment.ListItem, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*installment.ListItem
	for _, item := range s.installments {
		if !matches(item, filter, today) {
			continue
		}
		row := &installment.ListItem{Installment: item}
		if u, ok := s.units[item.UnitID]; ok {
			row.UnitLabel = u.Label
		}
		if item.TenantID != nil {
			if name, ok := s.tenants[*item.TenantID]; ok {
				row.TenantName = &name
			}
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b *installment.ListItem) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return byNumberThenDue(&a.Installment, &b.Installment)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*installment.ListItem{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matches(item installment.Installment, f installment.ListFilter, today time.Time) bool {
	if f.ContractID != nil && (item.ContractID == nil || *item.ContractID != *f.ContractID) {
		return false
	}
	if f.UnitID != nil && item.UnitID != *f.UnitID {
		return false
	}
	if f.TenantID != nil && (item.TenantID == nil || *item.TenantID != *f.TenantID) {
		return false
	}
	if f.From != nil && item.DueDate.Before(*f.From) {
		return false
	}
	if f.To != nil && item.DueDate.After(*f.To) {
		return false
	}
	if f.Status != nil && item.EffectiveStatus(today) != *f.Status {
		return false
	}
	return true
}

// ResyncPending implements installment.Repository.
func (r *InstallmentRepo) ResyncPending(ctx context.Context, sched installment.Schedule) (int64, error) {
	amounts := sched.Amounts()
	return r.updatePending(sched.ContractID, "installment.ResyncPending", func(item *installment.Installment) {
		tenantID := sched.TenantID
		item.UnitID = sched.UnitID
		item.TenantID = &tenantID
		item.Amounts = amounts
	})
}

// OnClosedContracts implements installment.Repository.
func (r *InstallmentRepo) OnClosedContracts(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []id.ID{}
	for _, installmentID := range ids {
		item, ok := r.store.installments[installmentID]
		if !ok || item.ContractID == nil {
			continue
		}
		if c, ok := r.store.contracts[*item.ContractID]; ok && c.Closed {
			out = append(out, installmentID)
		}
	}
	return out, nil
}

// CancelPending implements installment.Repository.
func (r *InstallmentRepo) CancelPending(ctx context.Context, contractID id.ID) (int64, error) {
	return r.updatePending(contractID, "installment.CancelPending", func(item *installment.Installment) {
		item.Status = billing.StatusCancelled
	})
}

func (r *InstallmentRepo) updatePending(contractID id.ID, op string, apply func(*installment.Installment)) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(op); err != nil {
		return 0, err
	}
	var n int64
	now := s.now()
	for k, item := range s.installments {
		if item.ContractID == nil || *item.ContractID != contractID || item.Status != billing.StatusPending {
			continue
		}
		apply(&item)
		item.UpdatedAt = now
		s.installments[k] = item
		n++
	}
	return n, nil
}

// SetStatus implements installment.Repository.
func (r *InstallmentRepo) SetStatus(ctx context.Context, ids []id.ID, status billing.Status, paymentDate time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("installment.SetStatus"); err != nil {
		return 0, err
	}
	var n int64
	now := s.now()
	for _, installmentID := range ids {
		item, ok := s.installments[installmentID]
		if !ok {
			continue
		}
		item.Status = status
		if status == billing.StatusPaid && item.PaymentDate == nil {
			paid := paymentDate
			item.PaymentDate = &paid
		}
		item.UpdatedAt = now
		s.installments[installmentID] = item
		n++
	}
	return n, nil
}

func byNumberThenDue(a, b *installment.Installment) int {
	an, bn := numberOrMax(a), numberOrMax(b)
	if c := cmp.Compare(an, bn); c != 0 {
		return c
	}
	if c := a.DueDate.Compare(b.DueDate); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func numberOrMax(i *installment.Installment) int {
	if i.Number == nil {
		return int(^uint(0) >> 1)
	}
	return *i.Number
}

var _ installment.Repository = (*InstallmentRepo)(nil)
