package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/audit"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc   *LedgerService
	store *sqlite.SQLiteStore
	pub   *recordingPublisher
	group *models.Group
}

func setupLedger(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	group := &models.Group{
		Name: "Trip",
		Members: []models.Member{
			{ID: "u1", Name: "Alice"},
			{ID: "u2", Name: "Bob"},
			{ID: "u3", Name: "Carol"},
		},
	}
	require.NoError(t, store.CreateGroup(context.Background(), group))

	pub := &recordingPublisher{}
	svc := NewLedgerService(store, pub, metrics.New(), logging.Discard())

	// Strictly increasing clock so ordering by time is deterministic.
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	return &fixture{svc: svc, store: store, pub: pub, group: group}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func splits(pairs ...string) []models.ExpenseSplit {
	var out []models.ExpenseSplit
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.ExpenseSplit{MemberID: pairs[i], Amount: dec(pairs[i+1])})
	}
	return out
}

func (f *fixture) addExpense(t *testing.T, desc, paidBy, amount string, date time.Time, sp []models.ExpenseSplit) *models.Expense {
	t.Helper()
	e, err := f.svc.AddExpense(context.Background(), ExpenseInput{
		GroupID:     f.group.ID,
		Description: desc,
		Amount:      dec(amount),
		PaidBy:      paidBy,
		Date:        date,
		Splits:      sp,
	})
	require.NoError(t, err)
	return e
}

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddExpense(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	e := f.addExpense(t, "Hotel", "u1", "300.00", day(5, 1), splits("u1", "100", "u2", "100", "u3", "100"))
	assert.NotEmpty(t, e.ID)

	balances, err := f.svc.GetBalances(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, balances, 3)
	assert.Equal(t, "Alice", balances[0].Name)
	assert.Equal(t, "200.00", balances[0].Amount.StringFixed(2))
	assert.Equal(t, []events.Type{events.ExpenseAdded}, f.pub.types())
}

func TestAddExpense_RejectsMismatchedSplits(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	_, err := f.svc.AddExpense(ctx, ExpenseInput{
		GroupID:     f.group.ID,
		Description: "Taxi",
		Amount:      dec("100"),
		PaidBy:      "u1",
		Date:        day(5, 2),
		Splits:      splits("u1", "60", "u2", "30"),
	})
	require.Error(t, err)
	assert.True(t, ledger.IsValidationError(err))

	list, err := f.svc.ListExpenses(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.pub.types())
}

func TestAddExpense_RejectsOutsiders(t *testing.T) {
	f := setupLedger(t)

	_, err := f.svc.AddExpense(context.Background(), ExpenseInput{
		GroupID:     f.group.ID,
		Description: "Taxi",
		Amount:      dec("10"),
		PaidBy:      "stranger",
		Splits:      splits("u1", "10"),
	})
	assert.True(t, ledger.IsValidationError(err))
}

func TestAddExpense_UnknownGroup(t *testing.T) {
	f := setupLedger(t)

	_, err := f.svc.AddExpense(context.Background(), ExpenseInput{
		GroupID:     "nope",
		Description: "Taxi",
		Amount:      dec("10"),
		PaidBy:      "u1",
		Splits:      splits("u1", "10"),
	})
	assert.True(t, IsNotFound(err))
}

func TestRecordSettlement_Linked(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	e := f.addExpense(t, "Dinner", "u1", "100.00", day(5, 1), splits("u1", "50", "u2", "50"))

	st, err := f.svc.RecordSettlement(ctx, SettlementInput{
		GroupID:         f.group.ID,
		From:            "u2",
		To:              "u1",
		Amount:          dec("20"),
		LinkedExpenseID: e.ID,
		RecordedBy:      "u2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Payment for expense: Dinner", st.Note)

	debts, err := f.svc.GetDebtsWithDetails(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.Equal(t, "30.00", debts[0].Amount.StringFixed(2))

	history, err := f.svc.ExpenseHistory(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.FieldPayment, history[0].FieldName())
	assert.Equal(t, "Bob", history[0].ChangedByName)
	assert.Equal(t, models.PaymentEvent{SettlementID: st.ID, Description: "Bob paid 20.00 to Alice"}, history[0].Change)

	views, err := f.svc.ListExpenses(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].FullyPaid)
}

func TestRecordSettlement_Validation(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SettlementInput
	}{
		{name: "self", in: SettlementInput{GroupID: f.group.ID, From: "u1", To: "u1", Amount: dec("5")}},
		{name: "zero", in: SettlementInput{GroupID: f.group.ID, From: "u1", To: "u2", Amount: dec("0")}},
		{name: "outsider", in: SettlementInput{GroupID: f.group.ID, From: "u1", To: "zed", Amount: dec("5")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordSettlement(ctx, tt.in)
			assert.True(t, ledger.IsValidationError(err), "got %v", err)
		})
	}

	_, err := f.svc.RecordSettlement(ctx, SettlementInput{
		GroupID: f.group.ID, From: "u2", To: "u1", Amount: dec("5"), LinkedExpenseID: "missing",
	})
	assert.True(t, IsNotFound(err))
}

func TestRecordDebtSettlement_PaysEachExpense(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	e1 := f.addExpense(t, "Groceries", "u1", "100.00", day(5, 1), splits("u1", "50", "u2", "50"))
	e2 := f.addExpense(t, "Gas", "u1", "40.00", day(5, 3), splits("u1", "20", "u2", "20"))

	debts, err := f.svc.GetDebtsWithDetails(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	require.Len(t, debts[0].Expenses, 2)

	var payments []ExpensePayment
	for _, ed := range debts[0].Expenses {
		payments = append(payments, ExpensePayment{ExpenseID: ed.ExpenseID, Amount: ed.Amount})
	}

	settlements, err := f.svc.RecordDebtSettlement(ctx, DebtSettlementInput{
		GroupID:    f.group.ID,
		From:       "u2",
		To:         "u1",
		RecordedBy: "u2",
		Expenses:   payments,
	})
	require.NoError(t, err)
	require.Len(t, settlements, 2)
	assert.Equal(t, e2.ID, settlements[0].LinkedExpenseID)
	assert.Equal(t, e1.ID, settlements[1].LinkedExpenseID)

	debts, err = f.svc.GetDebtsWithDetails(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, debts)

	balances, err := f.svc.GetBalances(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, balances)

	views, err := f.svc.ListExpenses(ctx, f.group.ID)
	require.NoError(t, err)
	for _, v := range views {
		assert.True(t, v.FullyPaid, v.ID)
	}
}

func TestRecordDebtSettlement_AllOrNothing(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	e1 := f.addExpense(t, "Groceries", "u1", "100.00", day(5, 1), splits("u1", "50", "u2", "50"))

	_, err := f.svc.RecordDebtSettlement(ctx, DebtSettlementInput{
		GroupID: f.group.ID,
		From:    "u2",
		To:      "u1",
		Expenses: []ExpensePayment{
			{ExpenseID: e1.ID, Amount: dec("50")},
			{ExpenseID: "missing", Amount: dec("10")},
		},
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	txs, err := f.svc.ListTransactions(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1, "only the expense, no settlement")
	assert.Equal(t, ledger.KindExpense, txs[0].Kind)

	history, err := f.svc.ExpenseHistory(ctx, e1.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = f.svc.RecordDebtSettlement(ctx, DebtSettlementInput{GroupID: f.group.ID, From: "u2", To: "u1"})
	assert.True(t, ledger.IsValidationError(err))
}

func TestUpdateExpense_AuditRows(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	e := f.addExpense(t, "Dinner", "u1", "90.00", day(5, 1), splits("u1", "30", "u2", "30", "u3", "30"))

	desc := "Team dinner"
	amount := dec("120")
	payer := "u2"
	updated, changes, err := f.svc.UpdateExpense(ctx, e.ID, "u3", audit.ExpenseUpdate{
		Description: &desc,
		Amount:      &amount,
		PaidBy:      &payer,
		Splits:      splits("u1", "40", "u2", "40", "u3", "40"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Team dinner", updated.Description)
	require.Len(t, changes, 4)

	history, err := f.svc.ExpenseHistory(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)

	fields := map[models.ChangeField]models.FieldChange{}
	for _, h := range history {
		assert.Equal(t, "Carol", h.ChangedByName)
		fc, ok := h.Change.(models.FieldChange)
		require.True(t, ok)
		fields[fc.Field] = fc
	}
	assert.Equal(t, "90.00", fields[models.FieldAmount].OldValue)
	assert.Equal(t, "120.00", fields[models.FieldAmount].NewValue)
	assert.Equal(t, "Alice", fields[models.FieldPaidBy].OldValue)
	assert.Equal(t, "Bob", fields[models.FieldPaidBy].NewValue)
	assert.Equal(t, "Alice: 30.00, Bob: 30.00, Carol: 30.00", fields[models.FieldSplits].OldValue)
	assert.Equal(t, "Alice: 40.00, Bob: 40.00, Carol: 40.00", fields[models.FieldSplits].NewValue)

	stored, err := f.store.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "u2", stored.PaidBy)
	assert.Equal(t, "120.00", stored.Amount.StringFixed(2))
	assert.Len(t, stored.Splits, 3)

	assert.Equal(t, []events.Type{events.ExpenseAdded, events.ExpenseUpdated}, f.pub.types())
}

func TestUpdateExpense_AmountOnlyCheckedAgainstSplits(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	e := f.addExpense(t, "Dinner", "u1", "90.00", day(5, 1), splits("u1", "45", "u2", "45"))

	amount := dec("100")
	_, _, err := f.svc.UpdateExpense(ctx, e.ID, "u1", audit.ExpenseUpdate{Amount: &amount})
	require.Error(t, err)
	assert.True(t, ledger.IsValidationError(err))

	stored, err := f.store.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "90.00", stored.Amount.StringFixed(2))

	history, err := f.svc.ExpenseHistory(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUpdateExpense_NoChanges(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	e := f.addExpense(t, "Dinner", "u1", "90.00", day(5, 1), splits("u1", "45", "u2", "45"))

	desc := "Dinner"
	_, changes, err := f.svc.UpdateExpense(ctx, e.ID, "u1", audit.ExpenseUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, []events.Type{events.ExpenseAdded}, f.pub.types())
}

func TestUpdateExpense_NotFound(t *testing.T) {
	f := setupLedger(t)
	desc := "x"
	_, _, err := f.svc.UpdateExpense(context.Background(), "missing", "u1", audit.ExpenseUpdate{Description: &desc})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetGroupSummary_ViewsFromOneSnapshot(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	f.addExpense(t, "Rent", "u1", "100.00", day(5, 1), splits("u1", "50", "u2", "50"))
	f.addExpense(t, "Power", "u2", "50.00", day(5, 15), splits("u1", "25", "u2", "25"))

	summary, err := f.svc.GetGroupSummary(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip", summary.Group.Name)

	require.Len(t, summary.Balances, 2)
	require.Len(t, summary.SimplifiedDebts, 1)
	assert.Equal(t, "u2", summary.SimplifiedDebts[0].From)
	assert.Equal(t, "25.00", summary.SimplifiedDebts[0].Amount.StringFixed(2))

	require.Len(t, summary.Debts, 1)
	assert.Equal(t, "u2", summary.Debts[0].From)
	assert.Equal(t, "u1", summary.Debts[0].To)
	assert.Equal(t, "25.00", summary.Debts[0].Amount.StringFixed(2))
	require.Len(t, summary.Debts[0].Expenses, 2)
	assert.Equal(t, "Power", summary.Debts[0].Expenses[0].Description)
	assert.Equal(t, "Rent", summary.Debts[0].Expenses[1].Description)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := setupLedger(t)
	f.pub.err = errors.New("broker down")

	e := f.addExpense(t, "Snacks", "u1", "10.00", day(5, 1), splits("u2", "10"))

	got, err := f.store.GetExpense(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Snacks", got.Description)
}

func TestListTransactions(t *testing.T) {
	f := setupLedger(t)
	ctx := context.Background()

	f.addExpense(t, "Rent", "u1", "100.00", day(5, 1), splits("u1", "50", "u2", "50"))
	_, err := f.svc.RecordSettlement(ctx, SettlementInput{
		GroupID: f.group.ID, From: "u2", To: "u1", Amount: dec("50"), RecordedBy: "u2",
	})
	require.NoError(t, err)

	txs, err := f.svc.ListTransactions(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, ledger.KindSettlement, txs[0].Kind)
	assert.Equal(t, "Payment from Bob to Alice", txs[0].Description)
	assert.Equal(t, ledger.KindExpense, txs[1].Kind)
}
