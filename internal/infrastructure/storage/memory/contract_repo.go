package memory

import (
	"bytes"
	"context"
	"slices"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/domain"
	"leasebill/internal/domain/contract"
	"leasebill/internal/domain/installment"
)

// ContractRepo implements contract.Repository and installment.ContractFinder.
type ContractRepo struct {
	store *Store
}

// NewContractRepo creates a contract repository.
func NewContractRepo(store *Store) *ContractRepo {
	return &ContractRepo{store: store}
}

// Create implements contract.Repository.
func (r *ContractRepo) Create(ctx context.Context, c *contract.Contract) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("contract.Create"); err != nil {
		return err
	}
	if _, ok := s.tenants[c.TenantID]; !ok {
		return apperror.NewValidation("referenced tenant does not exist").WithDetail("inquilinoId", c.TenantID)
	}
	if _, ok := s.units[c.UnitID]; !ok {
		return apperror.NewValidation("referenced unit does not exist").WithDetail("unidadeId", c.UnitID)
	}
	if _, ok := s.contracts[c.ID]; ok {
		return apperror.NewDuplicate("contract", "id", c.ID.String())
	}
	for _, existing := range s.contracts {
		if c.Number != "" && existing.Number == c.Number {
			return apperror.NewDuplicate("contract", "numero", c.Number)
		}
	}

	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.contracts[c.ID] = *c
	return nil
}

// GetByID implements contract.Repository.
func (r *ContractRepo) GetByID(ctx context.Context, contractID id.ID) (*contract.Contract, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.contracts[contractID]
	if !ok {
		return nil, apperror.NewNotFound("contract", contractID)
	}
	return &c, nil
}

// GetForUpdate implements contract.Repository. Transactions are already
// serialized, so this is a plain read.
func (r *ContractRepo) GetForUpdate(ctx context.Context, contractID id.ID) (*contract.Contract, error) {
	return r.GetByID(ctx, contractID)
}

// Update implements contract.Repository.
func (r *ContractRepo) Update(ctx context.Context, c *contract.Contract) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("contract.Update"); err != nil {
		return err
	}
	current, ok := s.contracts[c.ID]
	if !ok {
		return apperror.NewNotFound("contract", c.ID)
	}
	if current.Version != c.Version {
		return apperror.NewConcurrentModification("contract", c.ID)
	}
	if _, ok := s.units[c.UnitID]; !ok {
		return apperror.NewValidation("referenced unit does not exist").WithDetail("unidadeId", c.UnitID)
	}

	c.Version++
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = s.now()
	s.contracts[c.ID] = *c
	return nil
}

// Delete implements contract.Repository.
func (r *ContractRepo) Delete(ctx context.Context, contractID id.ID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contracts[contractID]; !ok {
		return apperror.NewNotFound("contract", contractID)
	}
	delete(s.contracts, contractID)
	delete(s.renewals, contractID)
	for k, item := range s.installments {
		if item.ContractID != nil && *item.ContractID == contractID {
			delete(s.installments, k)
		}
	}
	return nil
}

// List implements contract.Repository.
func (r *ContractRepo) List(ctx context.Context, filter contract.ListFilter) (domain.ListResult[*contract.Contract], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*contract.Contract
	for _, c := range r.store.contracts {
		if filter.UnitID != nil && c.UnitID != *filter.UnitID {
			continue
		}
		if filter.TenantID != nil && c.TenantID != *filter.TenantID {
			continue
		}
		if filter.Closed != nil && c.Closed != *filter.Closed {
			continue
		}
		matched = append(matched, &c)
	}
	slices.SortFunc(matched, newestFirst)

	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	result := domain.ListResult[*contract.Contract]{
		Items:      []*contract.Contract{},
		TotalCount: int64(len(matched)),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if page.Offset < len(matched) {
		end := min(page.Offset+page.Limit, len(matched))
		result.Items = matched[page.Offset:end]
	}
	return result, nil
}

// FindOpenByUnit implements installment.ContractFinder.
func (r *ContractRepo) FindOpenByUnit(ctx context.Context, unitID id.ID) (*installment.ContractLink, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var open []*contract.Contract
	for _, c := range r.store.contracts {
		if c.UnitID == unitID && !c.Closed {
			open = append(open, &c)
		}
	}
	if len(open) == 0 {
		return nil, nil
	}
	slices.SortFunc(open, newestFirst)
	return &installment.ContractLink{ContractID: open[0].ID, TenantID: open[0].TenantID}, nil
}

// CreateRenewal implements contract.Repository.
func (r *ContractRepo) CreateRenewal(ctx context.Context, renewal *contract.Renewal) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("contract.CreateRenewal"); err != nil {
		return err
	}
	if _, ok := s.contracts[renewal.ContractID]; !ok {
		return apperror.NewNotFound("contract", renewal.ContractID)
	}
	if renewal.CreatedAt.IsZero() {
		renewal.CreatedAt = s.now()
	}
	s.renewals[renewal.ContractID] = append(s.renewals[renewal.ContractID], *renewal)
	return nil
}

// ListRenewals implements contract.Repository.
func (r *ContractRepo) ListRenewals(ctx context.Context, contractID id.ID) ([]*contract.Renewal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*contract.Renewal, 0, len(r.store.renewals[contractID]))
	for _, renewal := range r.store.renewals[contractID] {
		out = append(out, &renewal)
	}
	return out, nil
}

func newestFirst(a, b *contract.Contract) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return bytes.Compare(b.ID[:], a.ID[:])
}

var (
	_ contract.Repository        = (*ContractRepo)(nil)
	_ installment.ContractFinder = (*ContractRepo)(nil)
)
