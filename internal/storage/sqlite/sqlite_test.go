package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedGroup(t *testing.T, store *SQLiteStore) *models.Group {
	t.Helper()

	group := &models.Group{
		Name: "Roommates",
		Members: []models.Member{
			{ID: "u1", Name: "Alice"},
			{ID: "u2", Name: "Bob"},
			{ID: "u3", Name: "Carol"},
		},
	}
	require.NoError(t, store.CreateGroup(context.Background(), group))
	return group
}

func newExpense(groupID string) *models.Expense {
	return &models.Expense{
		GroupID:     groupID,
		Description: "Dinner",
		Amount:      decimal.RequireFromString("90.00"),
		PaidBy:      "u1",
		Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Category:    "food",
		Splits: []models.ExpenseSplit{
			{MemberID: "u1", Amount: decimal.RequireFromString("30.00")},
			{MemberID: "u2", Amount: decimal.RequireFromString("30.00")},
			{MemberID: "u3", Amount: decimal.RequireFromString("30.00")},
		},
	}
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup keeps roster order", func(t *testing.T) {
		group := seedGroup(t, store)
		assert.NotEmpty(t, group.ID)
		assert.NotZero(t, group.CreatedAt)

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Roommates", got.Name)
		require.Len(t, got.Members, 3)
		assert.Equal(t, []string{"Alice", "Bob", "Carol"}, []string{got.Members[0].Name, got.Members[1].Name, got.Members[2].Name})
	})

	t.Run("GetGroup returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("GetMember", func(t *testing.T) {
		m, err := store.GetMember(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, "Bob", m.Name)

		_, err = store.GetMember(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	expense := newExpense(group.ID)
	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreateExpense(ctx, expense)
	}))
	assert.NotEmpty(t, expense.ID)
	assert.NotZero(t, expense.CreatedAt)

	t.Run("GetExpense round trips amounts and date", func(t *testing.T) {
		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dinner", got.Description)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("90")))
		assert.Equal(t, "2024-03-05", got.Date.Format(models.DateLayout))
		assert.Equal(t, "food", got.Category)
		require.Len(t, got.Splits, 3)
		assert.Equal(t, "u1", got.Splits[0].MemberID)
		assert.Equal(t, "30.00", got.Splits[0].Amount.StringFixed(2))
	})

	t.Run("UpdateExpense and ReplaceSplits", func(t *testing.T) {
		updated := *expense
		updated.Description = "Late dinner"
		updated.Category = ""
		updated.Amount = decimal.RequireFromString("60")

		require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
			if err := tx.UpdateExpense(ctx, &updated); err != nil {
				return err
			}
			return tx.ReplaceSplits(ctx, expense.ID, []models.ExpenseSplit{
				{MemberID: "u2", Amount: decimal.RequireFromString("60")},
			})
		}))

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "Late dinner", got.Description)
		assert.Empty(t, got.Category)
		require.Len(t, got.Splits, 1)
		assert.Equal(t, "u2", got.Splits[0].MemberID)
	})

	t.Run("UpdateExpense on missing expense", func(t *testing.T) {
		missing := newExpense(group.ID)
		missing.ID = "nope"
		err := store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.UpdateExpense(ctx, missing)
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListExpensesByGroup newest first with splits", func(t *testing.T) {
		older := newExpense(group.ID)
		older.Date = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.CreateExpense(ctx, older)
		}))

		list, err := store.ListExpensesByGroup(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, expense.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)
		assert.Len(t, list[0].Splits, 1)
		assert.Len(t, list[1].Splits, 3)
	})

	t.Run("GetExpense returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetExpense(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestWithTxRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateExpense(ctx, newExpense(group.ID)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := store.ListExpensesByGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSettlementsAndChanges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	expense := newExpense(group.ID)
	free := &models.Settlement{
		GroupID:      group.ID,
		FromMemberID: "u3",
		ToMemberID:   "u1",
		Amount:       decimal.RequireFromString("5.5"),
		RecordedBy:   "u3",
		SettledAt:    100,
	}
	linked := &models.Settlement{
		GroupID:      group.ID,
		FromMemberID: "u2",
		ToMemberID:   "u1",
		Amount:       decimal.RequireFromString("30"),
		RecordedBy:   "u2",
		Note:         "Payment for expense: Dinner",
		SettledAt:    200,
	}

	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateExpense(ctx, expense); err != nil {
			return err
		}
		linked.LinkedExpenseID = expense.ID
		if err := tx.CreateSettlement(ctx, free); err != nil {
			return err
		}
		if err := tx.CreateSettlement(ctx, linked); err != nil {
			return err
		}
		if err := tx.AppendExpenseChange(ctx, &models.ExpenseChange{
			ExpenseID: expense.ID,
			ChangedBy: "u1",
			ChangedAt: 150,
			Change:    models.FieldChange{Field: models.FieldAmount, OldValue: "80.00", NewValue: "90.00"},
		}); err != nil {
			return err
		}
		return tx.AppendExpenseChange(ctx, &models.ExpenseChange{
			ExpenseID: expense.ID,
			ChangedBy: "u2",
			ChangedAt: 200,
			Change:    models.PaymentEvent{SettlementID: linked.ID, Description: "Bob paid 30.00 to Alice"},
		})
	}))

	settlements, err := store.ListSettlementsByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, settlements, 2)
	assert.Equal(t, free.ID, settlements[0].ID)
	assert.Empty(t, settlements[0].Note)
	assert.False(t, settlements[0].IsLinked())
	assert.Equal(t, "5.50", settlements[0].Amount.StringFixed(2))
	assert.Equal(t, expense.ID, settlements[1].LinkedExpenseID)
	assert.Equal(t, "Payment for expense: Dinner", settlements[1].Note)

	changes, err := store.ListExpenseChanges(ctx, expense.ID)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, models.FieldPayment, changes[0].FieldName())
	assert.Equal(t, "Bob", changes[0].ChangedByName)
	assert.Equal(t, models.PaymentEvent{SettlementID: linked.ID, Description: "Bob paid 30.00 to Alice"}, changes[0].Change)

	assert.Equal(t, models.FieldAmount, changes[1].FieldName())
	assert.Equal(t, "Alice", changes[1].ChangedByName)
	assert.Equal(t, models.FieldChange{Field: models.FieldAmount, OldValue: "80.00", NewValue: "90.00"}, changes[1].Change)
	assert.NotZero(t, changes[1].ID)
}

func TestMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, RunMigrations(dbPath))
	require.NoError(t, RunMigrations(dbPath), "second run is a no-op")

	version, dirty, err := SchemaVersion(dbPath)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, RollbackMigrations(dbPath, 1))
	version, _, err = SchemaVersion(dbPath)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
}
