// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("not found")

// Reader loads ledger records.
type Reader interface {
	// GetGroup returns the group with its roster in join order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	GetMember(ctx context.Context, memberID string) (*models.Member, error)

	// GetExpense returns the expense with its splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns all expenses with splits, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)

	// ListSettlementsByGroup returns all settlements, oldest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]models.Settlement, error)

	// ListExpenseChanges returns an expense's history, newest first, with
	// ChangedByName filled in.
	ListExpenseChanges(ctx context.Context, expenseID string) ([]models.ExpenseChange, error)
}

// Writer persists ledger records. IDs and timestamps left empty are
// assigned by the store.
type Writer interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// UpdateExpense overwrites the expense row. Splits are not touched.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// ReplaceSplits deletes the expense's splits and inserts the given set.
	ReplaceSplits(ctx context.Context, expenseID string, splits []models.ExpenseSplit) error

	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	AppendExpenseChange(ctx context.Context, change *models.ExpenseChange) error
}

// Tx is the view of the store inside a transaction.
type Tx interface {
	Reader
	Writer
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	Reader

	// WithTx runs fn in one transaction. It commits when fn returns nil
	// and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// CreateMember and CreateGroup seed rosters for tooling and tests.
	// Membership is otherwise managed outside the ledger.
	CreateMember(ctx context.Context, member *models.Member) error
	CreateGroup(ctx context.Context, group *models.Group) error

	// Close releases any resources held by the store.
	Close() error
}
