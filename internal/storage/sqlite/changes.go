package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// AppendExpenseChange stores one history row. The row kind is taken from the
// change variant.
func (q *queries) AppendExpenseChange(ctx context.Context, change *models.ExpenseChange) error {
	if change.ChangedAt == 0 {
		change.ChangedAt = time.Now().Unix()
	}

	var oldValue, newValue, settlementID any
	switch c := change.Change.(type) {
	case models.FieldChange:
		oldValue, newValue = c.OldValue, c.NewValue
	case models.PaymentEvent:
		newValue, settlementID = c.Description, c.SettlementID
	default:
		return fmt.Errorf("unsupported change type %T", change.Change)
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO expense_changes (expense_id, changed_by, changed_at, kind, field_name, old_value, new_value, settlement_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		change.ExpenseID, change.ChangedBy, change.ChangedAt,
		string(change.Change.Kind()), string(change.FieldName()),
		oldValue, newValue, settlementID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense change: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read expense change id: %w", err)
	}
	change.ID = id
	return nil
}

// ListExpenseChanges returns an expense's history, newest first.
func (q *queries) ListExpenseChanges(ctx context.Context, expenseID string) ([]models.ExpenseChange, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT c.id, c.expense_id, c.changed_by, COALESCE(m.name, c.changed_by), c.changed_at,
		        c.kind, c.field_name, c.old_value, c.new_value, c.settlement_id
		 FROM expense_changes c
		 LEFT JOIN members m ON m.id = c.changed_by
		 WHERE c.expense_id = ?
		 ORDER BY c.changed_at DESC, c.id DESC`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense changes: %w", err)
	}
	defer rows.Close()

	var changes []models.ExpenseChange
	for rows.Next() {
		var ch models.ExpenseChange
		var kind, field string
		var oldValue, newValue, settlementID sql.NullString

		if err := rows.Scan(&ch.ID, &ch.ExpenseID, &ch.ChangedBy, &ch.ChangedByName, &ch.ChangedAt,
			&kind, &field, &oldValue, &newValue, &settlementID); err != nil {
			return nil, fmt.Errorf("failed to scan expense change: %w", err)
		}

		switch models.ChangeKind(kind) {
		case models.KindPayment:
			ch.Change = models.PaymentEvent{SettlementID: settlementID.String, Description: newValue.String}
		case models.KindField:
			ch.Change = models.FieldChange{
				Field:    models.ChangeField(field),
				OldValue: oldValue.String,
				NewValue: newValue.String,
			}
		default:
			return nil, fmt.Errorf("unknown expense change kind %q", kind)
		}
		changes = append(changes, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense changes: %w", err)
	}

	return changes, nil
}
