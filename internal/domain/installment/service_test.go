package installment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/audit"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/contract"
	"leasebill/internal/domain/installment"
	"leasebill/internal/infrastructure/storage/memory"
)

type svcFixture struct {
	store    *memory.Store
	repo     *memory.InstallmentRepo
	sink     *memory.AuditSink
	svc      *installment.Service
	schedule installment.Schedule
	items    []*installment.Installment
}

func newSvcFixture(t *testing.T, today time.Time) *svcFixture {
	t.Helper()
	store := memory.NewStore()
	repo := memory.NewInstallmentRepo(store)
	sink := memory.NewAuditSink(store)
	svc := installment.NewService(repo, memory.NewContractRepo(store), memory.NewTxManager(store),
		audit.NewRecorder(sink), billing.FixedClock(today))

	schedule := installment.Schedule{
		ContractID:  id.New(),
		UnitID:      store.AddUnit("Sala 7"),
		TenantID:    store.AddTenant("Joao Lima"),
		PeriodStart: date(2025, time.January, 1),
		PeriodEnd:   date(2025, time.June, 30),
		DueDay:      10,
		Rent:        types.MustMoney("900"),
	}
	items, err := installment.NewGenerator(repo, billing.NewCalculator(0)).
		Generate(context.Background(), schedule, installment.ModeAll, installment.Params{})
	require.NoError(t, err)

	return &svcFixture{store: store, repo: repo, sink: sink, svc: svc, schedule: schedule, items: items}
}

func TestBulkSetStatus_PaidStampsOnlyMissingDates(t *testing.T) {
	f := newSvcFixture(t, date(2025, time.March, 12))
	ctx := context.Background()

	earlier := date(2025, time.January, 8)
	_, err := f.repo.SetStatus(ctx, []id.ID{f.items[0].ID}, billing.StatusPaid, earlier)
	require.NoError(t, err)

	n, err := f.svc.BulkSetStatus(ctx, []id.ID{f.items[0].ID, f.items[1].ID, id.New()}, "pago")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "unknown ids are ignored")

	first, _ := f.repo.GetByID(ctx, f.items[0].ID)
	second, _ := f.repo.GetByID(ctx, f.items[1].ID)
	assert.Equal(t, earlier, *first.PaymentDate)
	assert.Equal(t, date(2025, time.March, 12), *second.PaymentDate)

	// Re-applying does not move an existing payment date.
	_, err = f.svc.BulkSetStatus(ctx, []id.ID{f.items[1].ID}, "pago")
	require.NoError(t, err)
	second, _ = f.repo.GetByID(ctx, f.items[1].ID)
	assert.Equal(t, date(2025, time.March, 12), *second.PaymentDate)

	entries := f.sink.Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, "2 parcela(s) marcada(s) como Pago", entries[0].Summary)
}

func TestBulkSetStatus_Validation(t *testing.T) {
	f := newSvcFixture(t, date(2025, time.March, 12))
	ctx := context.Background()

	_, err := f.svc.BulkSetStatus(ctx, []id.ID{f.items[0].ID}, "quitado")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.BulkSetStatus(ctx, nil, "pago")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.BulkSetStatus(ctx, []id.ID{{}}, "pago")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestBulkSetStatus_AllOrNothing(t *testing.T) {
	f := newSvcFixture(t, date(2025, time.March, 12))
	ctx := context.Background()
	f.store.FailOn("installment.SetStatus", errors.New("check constraint violated"))

	_, err := f.svc.BulkSetStatus(ctx, []id.ID{f.items[0].ID, f.items[1].ID}, "cancelado")
	require.Error(t, err)

	for _, item := range f.items[:2] {
		got, _ := f.repo.GetByID(ctx, item.ID)
		assert.Equal(t, billing.StatusPending, got.Status)
	}
	assert.Empty(t, f.sink.Entries())
}

func TestBulkSetStatus_ClosedContractCannotReopen(t *testing.T) {
	f := newSvcFixture(t, date(2025, time.March, 12))
	ctx := context.Background()
	require.NoError(t, memory.NewContractRepo(f.store).Create(ctx, &contract.Contract{
		ID:          f.schedule.ContractID,
		TenantID:    f.schedule.TenantID,
		UnitID:      f.schedule.UnitID,
		PeriodStart: f.schedule.PeriodStart,
		PeriodEnd:   f.schedule.PeriodEnd,
		Rent:        f.schedule.Rent,
		DueDay:      f.schedule.DueDay,
		Closed:      true,
	}))
	_, err := f.repo.SetStatus(ctx, []id.ID{f.items[0].ID, f.items[1].ID}, billing.StatusCancelled, date(2025, time.March, 1))
	require.NoError(t, err)

	for _, status := range []string{"pendente", "atrasado"} {
		n, err := f.svc.BulkSetStatus(ctx, []id.ID{f.items[0].ID, f.items[1].ID}, status)
		require.Error(t, err, status)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState), status)
		assert.Zero(t, n)
	}
	for _, item := range f.items[:2] {
		got, _ := f.repo.GetByID(ctx, item.ID)
		assert.Equal(t, billing.StatusCancelled, got.Status)
	}
	assert.Empty(t, f.sink.Entries())

	// Settling an installment of a closed contract is still allowed.
	n, err := f.svc.BulkSetStatus(ctx, []id.ID{f.items[2].ID}, "pago")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestList_DerivedStatusFilter(t *testing.T) {
	f := newSvcFixture(t, date(2025, time.March, 12))
	ctx := context.Background()
	_, err := f.repo.SetStatus(ctx, []id.ID{f.items[0].ID}, billing.StatusPaid, date(2025, time.January, 9))
	require.NoError(t, err)

	overdue := billing.StatusOverdue
	rows, err := f.svc.List(ctx, installment.ListFilter{Status: &overdue})
	require.NoError(t, err)
	require.Len(t, rows, 2, "february and march are past due")
	for _, row := range rows {
		assert.Equal(t, billing.StatusOverdue, row.EffectiveStatus)
		assert.Equal(t, billing.StatusPending, row.Status)
		assert.Equal(t, "Sala 7", row.UnitLabel)
		assert.Equal(t, "Joao Lima", row.TenantName)
	}

	pending := billing.StatusPending
	rows, err = f.svc.List(ctx, installment.ListFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	from, to := date(2025, time.April, 1), date(2025, time.May, 31)
	rows, err = f.svc.List(ctx, installment.ListFilter{From: &from, To: &to, UnitID: &f.schedule.UnitID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, date(2025, time.April, 10), rows[0].DueDate)

	_, err = f.svc.List(ctx, installment.ListFilter{From: &to, To: &from})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestList_OverdueRevertsWithoutWrite(t *testing.T) {
	f := newSvcFixture(t, date(2025, time.March, 12))
	ctx := context.Background()

	view, err := f.svc.GetByID(ctx, f.items[2].ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusOverdue, view.EffectiveStatus)

	// Due date moved forward: reads as pending again.
	item, _ := f.repo.GetByID(ctx, f.items[2].ID)
	item.DueDate = date(2025, time.March, 20)
	require.NoError(t, f.repo.Update(ctx, item))

	view, err = f.svc.GetByID(ctx, f.items[2].ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, view.EffectiveStatus)
}

func TestCreateCharge(t *testing.T) {
	f := newSvcFixture(t, date(2025, time.March, 12))
	ctx := context.Background()

	// No contract stored for the unit: charge stays unlinked.
	charge, err := f.svc.CreateCharge(ctx, installment.ChargeRequest{
		UnitID:      f.schedule.UnitID,
		Description: "Troca de fechadura",
		DueDate:     date(2025, time.March, 30),
		Amounts:     billing.Amounts{Base: types.MustMoney("180")},
	})
	require.NoError(t, err)
	assert.Nil(t, charge.ContractID)
	assert.Nil(t, charge.Number)
	assert.True(t, charge.IsStandalone())
	assert.Equal(t, billing.StatusPending, charge.Status)

	_, err = f.svc.CreateCharge(ctx, installment.ChargeRequest{UnitID: f.schedule.UnitID, DueDate: date(2025, time.March, 30)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.CreateCharge(ctx, installment.ChargeRequest{UnitID: f.schedule.UnitID, Description: "Multa"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

type stubFinder struct {
	link *installment.ContractLink
}

func (s stubFinder) FindOpenByUnit(ctx context.Context, unitID id.ID) (*installment.ContractLink, error) {
	return s.link, nil
}

func TestCreateCharge_LinksOpenContract(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewInstallmentRepo(store)
	link := &installment.ContractLink{ContractID: id.New(), TenantID: id.New()}
	svc := installment.NewService(repo, stubFinder{link: link}, memory.NewTxManager(store), nil,
		billing.FixedClock(date(2025, time.March, 12)))

	charge, err := svc.CreateCharge(context.Background(), installment.ChargeRequest{
		UnitID:      store.AddUnit("Casa 2"),
		Description: "Condominio extra",
		DueDate:     date(2025, time.April, 5),
		Amounts:     billing.Amounts{Base: types.MustMoney("300")},
	})
	require.NoError(t, err)
	assert.Equal(t, link.ContractID, *charge.ContractID)
	assert.Equal(t, link.TenantID, *charge.TenantID)
	assert.Nil(t, charge.Number)
}

func TestRecordPayment(t *testing.T) {
	f := newSvcFixture(t, date(2025, time.March, 12))
	ctx := context.Background()

	paid, err := f.svc.RecordPayment(ctx, f.items[0].ID, installment.PaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, paid.Status)
	assert.Equal(t, date(2025, time.March, 12), *paid.PaymentDate)
	assert.True(t, paid.PaidAmount.Valid)
	assert.Equal(t, "900.00", paid.PaidAmount.Decimal.StringFixed(2))

	on := date(2025, time.February, 9)
	amount := types.MustMoney("880")
	paid, err = f.svc.RecordPayment(ctx, f.items[1].ID, installment.PaymentRequest{PaymentDate: &on, PaidAmount: &amount})
	require.NoError(t, err)
	assert.Equal(t, on, *paid.PaymentDate)
	assert.True(t, paid.PaidAmount.Decimal.Equal(amount))

	_, err = f.svc.BulkSetStatus(ctx, []id.ID{f.items[2].ID}, "cancelado")
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(ctx, f.items[2].ID, installment.PaymentRequest{})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))

	_, err = f.svc.RecordPayment(ctx, id.New(), installment.PaymentRequest{})
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	f := newSvcFixture(t, date(2025, time.March, 12))
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, f.items[5].ID))
	_, err := f.repo.GetByID(ctx, f.items[5].ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(f.svc.Delete(ctx, f.items[5].ID)))
}
