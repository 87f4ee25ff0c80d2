package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = "id, group_id, description, amount, paid_by, date, category, created_at"

// CreateExpense persists a new expense and its splits.
func (q *queries) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, paid_by, date, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount, expense.PaidBy,
		expense.Date.Format(models.DateLayout), nullString(expense.Category),
		expense.CreatedAt, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	return q.insertSplits(ctx, expense.ID, expense.Splits)
}

// UpdateExpense overwrites the expense row.
func (q *queries) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount = ?, paid_by = ?, date = ?, category = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Description, expense.Amount, expense.PaidBy,
		expense.Date.Format(models.DateLayout), nullString(expense.Category),
		time.Now().Unix(), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}
	return nil
}

// ReplaceSplits swaps the whole split set of an expense.
func (q *queries) ReplaceSplits(ctx context.Context, expenseID string, splits []models.ExpenseSplit) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	return q.insertSplits(ctx, expenseID, splits)
}

func (q *queries) insertSplits(ctx context.Context, expenseID string, splits []models.ExpenseSplit) error {
	for i := range splits {
		splits[i].ExpenseID = expenseID
		_, err := q.db.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, member_id, amount) VALUES (?, ?, ?)",
			expenseID, splits[i].MemberID, splits[i].Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (q *queries) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		expenseID,
	)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	rows, err := q.db.QueryContext(ctx,
		"SELECT expense_id, member_id, amount FROM expense_splits WHERE expense_id = ? ORDER BY rowid",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sp models.ExpenseSplit
		if err := rows.Scan(&sp.ExpenseID, &sp.MemberID, &sp.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		expense.Splits = append(expense.Splits, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group with their splits,
// newest first.
func (q *queries) ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY date DESC, created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		index[e.ID] = len(expenses)
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	splitRows, err := q.db.QueryContext(ctx,
		`SELECT s.expense_id, s.member_id, s.amount FROM expense_splits s
		 INNER JOIN expenses e ON e.id = s.expense_id
		 WHERE e.group_id = ? ORDER BY s.rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits by group: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var sp models.ExpenseSplit
		if err := splitRows.Scan(&sp.ExpenseID, &sp.MemberID, &sp.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if i, ok := index[sp.ExpenseID]; ok {
			expenses[i].Splits = append(expenses[i].Splits, sp)
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return expenses, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*models.Expense, error) {
	e := &models.Expense{}
	var date string
	var category sql.NullString
	if err := row.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.PaidBy, &date, &category, &e.CreatedAt); err != nil {
		return nil, err
	}

	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expense date %q: %w", date, err)
	}
	e.Date = d
	if category.Valid {
		e.Category = category.String
	}
	return e, nil
}
