// Package memory is an in-process implementation of the billing repositories.
// It backs the service tests and the server's "memory" storage driver for
// local runs without PostgreSQL. Transactions are simulated with a snapshot
// that is restored when the unit of work fails.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"leasebill/internal/core/id"
	"leasebill/internal/domain/audit"
	"leasebill/internal/domain/contract"
	"leasebill/internal/domain/installment"
	"leasebill/internal/domain/unit"
)

// Store holds every table in maps.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	contracts    map[id.ID]contract.Contract
	renewals     map[id.ID][]contract.Renewal
	installments map[id.ID]installment.Installment
	units        map[id.ID]unit.Unit
	tenants      map[id.ID]string
	audit        []audit.Record

	faults map[string]error
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		contracts:    make(map[id.ID]contract.Contract),
		renewals:     make(map[id.ID][]contract.Renewal),
		installments: make(map[id.ID]installment.Installment),
		units:        make(map[id.ID]unit.Unit),
		tenants:      make(map[id.ID]string),
		faults:       make(map[string]error),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// AddUnit seeds a unit and returns its id.
func (s *Store) AddUnit(label string) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := unit.Unit{ID: id.New(), Label: label, Status: unit.StatusAvailable}
	s.units[u.ID] = u
	return u.ID
}

// AddTenant seeds a tenant and returns its id.
func (s *Store) AddTenant(name string) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenantID := id.New()
	s.tenants[tenantID] = name
	return tenantID
}

// Unit returns a seeded unit.
func (s *Store) Unit(unitID id.ID) (unit.Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[unitID]
	return u, ok
}

// FailOn makes the named repository operation (e.g. "installment.CreateBatch")
// return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	return s.faults[op]
}

// --- Transactions ---

type txKey struct{}

// TxManager implements tx.Manager over a Store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager for store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction serializes units of work and restores the snapshot taken
// at begin when fn fails. Nested calls join the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	contracts    map[id.ID]contract.Contract
	renewals     map[id.ID][]contract.Renewal
	installments map[id.ID]installment.Installment
	units        map[id.ID]unit.Unit
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	renewals := make(map[id.ID][]contract.Renewal, len(s.renewals))
	for k, v := range s.renewals {
		renewals[k] = append([]contract.Renewal(nil), v...)
	}
	return snapshot{
		contracts:    maps.Clone(s.contracts),
		renewals:     renewals,
		installments: maps.Clone(s.installments),
		units:        maps.Clone(s.units),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts = snap.contracts
	s.renewals = snap.renewals
	s.installments = snap.installments
	s.units = snap.units
}
