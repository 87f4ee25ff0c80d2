package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// CreateSettlement persists a new settlement to the database.
func (q *queries) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.SettledAt == 0 {
		settlement.SettledAt = time.Now().Unix()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_member_id, to_member_id, amount, settled_at, recorded_by, note, expense_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromMemberID, settlement.ToMemberID,
		settlement.Amount, settlement.SettledAt, settlement.RecordedBy,
		nullString(settlement.Note), nullString(settlement.LinkedExpenseID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, oldest first.
func (q *queries) ListSettlementsByGroup(ctx context.Context, groupID string) ([]models.Settlement, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, group_id, from_member_id, to_member_id, amount, settled_at, recorded_by, note, expense_id
		 FROM settlements WHERE group_id = ? ORDER BY settled_at, rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		var st models.Settlement
		var note, expenseID sql.NullString

		if err := rows.Scan(&st.ID, &st.GroupID, &st.FromMemberID, &st.ToMemberID,
			&st.Amount, &st.SettledAt, &st.RecordedBy, &note, &expenseID); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}

		st.Note = note.String
		st.LinkedExpenseID = expenseID.String
		settlements = append(settlements, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
