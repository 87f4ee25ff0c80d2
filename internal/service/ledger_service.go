package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/audit"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// LedgerService records expenses and settlements and answers balance and
// debt queries for a group. Every read works on one transactional snapshot;
// every multi-step write commits or rolls back as a whole.
type LedgerService struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewLedgerService creates a LedgerService. publisher may be events.NopPublisher.
func NewLedgerService(store storage.Store, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// ExpenseInput describes a new expense.
type ExpenseInput struct {
	GroupID     string
	Description string
	Amount      decimal.Decimal
	PaidBy      string
	Date        time.Time
	Category    string
	Splits      []models.ExpenseSplit
}

// SettlementInput describes one payment. LinkedExpenseID and Note are optional.
type SettlementInput struct {
	GroupID         string
	From            string
	To              string
	Amount          decimal.Decimal
	Note            string
	LinkedExpenseID string
	RecordedBy      string
}

// ExpensePayment is one entry of a debt settlement.
type ExpensePayment struct {
	ExpenseID string
	Amount    decimal.Decimal
}

// DebtSettlementInput pays off a consolidated debt expense by expense.
type DebtSettlementInput struct {
	GroupID    string
	From       string
	To         string
	RecordedBy string
	Expenses   []ExpensePayment
}

// ExpenseView is an expense with its settlement status.
type ExpenseView struct {
	models.Expense
	FullyPaid bool
}

// GroupSummary holds both debt views computed from one snapshot.
type GroupSummary struct {
	Group           *models.Group
	Balances        []ledger.Balance
	SimplifiedDebts []ledger.Debt
	Debts           []ledger.DebtWithDetails
}

// AddExpense validates and stores a new expense with its splits.
func (s *LedgerService) AddExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	expense := &models.Expense{
		GroupID:     in.GroupID,
		Description: in.Description,
		Amount:      in.Amount,
		PaidBy:      in.PaidBy,
		Date:        truncateDay(in.Date),
		Category:    in.Category,
		CreatedAt:   s.now().Unix(),
		Splits:      in.Splits,
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, in.GroupID)
		if err != nil {
			return err
		}
		if err := ledger.ValidateExpense(group, expense); err != nil {
			return err
		}
		return tx.CreateExpense(ctx, expense)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ExpensesWritten.WithLabelValues("add").Inc()
	s.logger.InfoContext(ctx, "Expense added",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"amount", expense.Amount.StringFixed(2),
		"splits", len(expense.Splits),
	)
	s.publish(ctx, events.Event{
		Type:      events.ExpenseAdded,
		GroupID:   expense.GroupID,
		ExpenseID: expense.ID,
		MemberID:  expense.PaidBy,
		Amount:    expense.Amount,
	})
	return expense, nil
}

// UpdateExpense applies an edit and appends one history row per changed
// field. Supplied splits replace the old set and are summarised in a single
// "splits" row. A new amount without new splits is checked against the
// existing splits.
func (s *LedgerService) UpdateExpense(ctx context.Context, expenseID, editorID string, u audit.ExpenseUpdate) (*models.Expense, []models.ExpenseChange, error) {
	if u.Date != nil {
		d := truncateDay(*u.Date)
		u.Date = &d
	}

	var updated models.Expense
	var changes []models.ExpenseChange
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		old, err := tx.GetExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		group, err := tx.GetGroup(ctx, old.GroupID)
		if err != nil {
			return err
		}

		updated = audit.Apply(old, u)
		if err := ledger.ValidateExpense(group, &updated); err != nil {
			return err
		}

		diff := audit.DiffExpense(old, u, group.MemberNames())
		if len(diff) == 0 {
			return nil
		}

		if err := tx.UpdateExpense(ctx, &updated); err != nil {
			return err
		}
		if u.HasSplits() {
			if err := tx.ReplaceSplits(ctx, expenseID, updated.Splits); err != nil {
				return err
			}
		}

		changedAt := s.now().Unix()
		for _, c := range diff {
			row := models.ExpenseChange{
				ExpenseID: expenseID,
				ChangedBy: editorID,
				ChangedAt: changedAt,
				Change:    c,
			}
			if err := tx.AppendExpenseChange(ctx, &row); err != nil {
				return err
			}
			changes = append(changes, row)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if len(changes) == 0 {
		s.logger.DebugContext(ctx, "Expense update had no changes", "expense_id", expenseID)
		return &updated, nil, nil
	}

	s.metrics.ExpensesWritten.WithLabelValues("update").Inc()
	for _, c := range changes {
		s.metrics.AuditRows.WithLabelValues(string(c.FieldName())).Inc()
	}
	s.logger.InfoContext(ctx, "Expense updated",
		"expense_id", expenseID,
		"editor", editorID,
		"changes", len(changes),
	)
	s.publish(ctx, events.Event{
		Type:      events.ExpenseUpdated,
		GroupID:   updated.GroupID,
		ExpenseID: expenseID,
		MemberID:  editorID,
		Amount:    updated.Amount,
	})
	return &updated, changes, nil
}

// RecordSettlement stores one payment. A payment linked to an expense also
// lands in that expense's history and gets a default note.
func (s *LedgerService) RecordSettlement(ctx context.Context, in SettlementInput) (*models.Settlement, error) {
	var settlement *models.Settlement
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, in.GroupID)
		if err != nil {
			return err
		}
		settlement, err = s.recordSettlement(ctx, tx, group, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.settlementsRecorded(ctx, []models.Settlement{*settlement})
	return settlement, nil
}

// RecordDebtSettlement records one linked settlement per expense entry, all
// in a single transaction. Nothing is written if any entry is rejected.
func (s *LedgerService) RecordDebtSettlement(ctx context.Context, in DebtSettlementInput) ([]models.Settlement, error) {
	if len(in.Expenses) == 0 {
		return nil, &ledger.ValidationError{Field: "expenses", Reason: "at least one expense is required"}
	}

	var settlements []models.Settlement
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, in.GroupID)
		if err != nil {
			return err
		}
		for _, p := range in.Expenses {
			if p.ExpenseID == "" {
				return &ledger.ValidationError{Field: "expenses", Reason: "entry without expense"}
			}
			st, err := s.recordSettlement(ctx, tx, group, SettlementInput{
				GroupID:         in.GroupID,
				From:            in.From,
				To:              in.To,
				Amount:          p.Amount,
				LinkedExpenseID: p.ExpenseID,
				RecordedBy:      in.RecordedBy,
			})
			if err != nil {
				return fmt.Errorf("expense %s: %w", p.ExpenseID, err)
			}
			settlements = append(settlements, *st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.settlementsRecorded(ctx, settlements)
	return settlements, nil
}

func (s *LedgerService) recordSettlement(ctx context.Context, tx storage.Tx, group *models.Group, in SettlementInput) (*models.Settlement, error) {
	if err := ledger.ValidateSettlement(group, in.From, in.To, in.Amount); err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		GroupID:         group.ID,
		FromMemberID:    in.From,
		ToMemberID:      in.To,
		Amount:          in.Amount,
		SettledAt:       s.now().Unix(),
		RecordedBy:      in.RecordedBy,
		Note:            in.Note,
		LinkedExpenseID: in.LinkedExpenseID,
	}

	var expense *models.Expense
	if settlement.IsLinked() {
		var err error
		expense, err = tx.GetExpense(ctx, in.LinkedExpenseID)
		if err != nil {
			return nil, err
		}
		if expense.GroupID != group.ID {
			return nil, &ledger.ValidationError{
				Field:  "linked_expense_id",
				Reason: fmt.Sprintf("expense %s belongs to another group", expense.ID),
			}
		}
		if settlement.Note == "" {
			settlement.Note = "Payment for expense: " + expense.Description
		}
	}

	if err := tx.CreateSettlement(ctx, settlement); err != nil {
		return nil, err
	}

	if expense != nil {
		names := group.MemberNames()
		err := tx.AppendExpenseChange(ctx, &models.ExpenseChange{
			ExpenseID: expense.ID,
			ChangedBy: settlement.FromMemberID,
			ChangedAt: settlement.SettledAt,
			Change: models.PaymentEvent{
				SettlementID: settlement.ID,
				Description:  audit.PaymentDescription(names[in.From], names[in.To], settlement.Amount),
			},
		})
		if err != nil {
			return nil, err
		}
	}

	return settlement, nil
}

func (s *LedgerService) settlementsRecorded(ctx context.Context, settlements []models.Settlement) {
	s.metrics.SettlementsWritten.Add(float64(len(settlements)))
	for _, st := range settlements {
		if st.IsLinked() {
			s.metrics.AuditRows.WithLabelValues(string(models.FieldPayment)).Inc()
		}
		s.logger.InfoContext(ctx, "Settlement recorded",
			"settlement_id", st.ID,
			"group_id", st.GroupID,
			"from", st.FromMemberID,
			"to", st.ToMemberID,
			"amount", st.Amount.StringFixed(2),
			"expense_id", st.LinkedExpenseID,
		)
		s.publish(ctx, events.Event{
			Type:       events.SettlementRecorded,
			GroupID:    st.GroupID,
			ExpenseID:  st.LinkedExpenseID,
			MemberID:   st.FromMemberID,
			Amount:     st.Amount,
			Settlement: st.ID,
		})
	}
}

// GetBalances returns each member's net balance.
func (s *LedgerService) GetBalances(ctx context.Context, groupID string) ([]ledger.Balance, error) {
	_, snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return ledger.CalculateBalances(snap), nil
}

// GetSimplifiedDebts returns the suggested transfers of the net view.
func (s *LedgerService) GetSimplifiedDebts(ctx context.Context, groupID string) ([]ledger.Debt, error) {
	_, snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return ledger.SimplifyDebts(ledger.CalculateBalances(snap)), nil
}

// GetDebtsWithDetails returns consolidated per-pair debts with the expenses
// behind them.
func (s *LedgerService) GetDebtsWithDetails(ctx context.Context, groupID string) ([]ledger.DebtWithDetails, error) {
	_, snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return ledger.ConsolidateDebts(ledger.TrackExpenseDebts(snap)), nil
}

// GetGroupSummary computes both views from the same snapshot in parallel.
func (s *LedgerService) GetGroupSummary(ctx context.Context, groupID string) (*GroupSummary, error) {
	group, snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}

	summary := &GroupSummary{Group: group}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		summary.Balances = ledger.CalculateBalances(snap)
		summary.SimplifiedDebts = ledger.SimplifyDebts(summary.Balances)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		summary.Debts = ledger.ConsolidateDebts(ledger.TrackExpenseDebts(snap))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Group summary computed",
		"group_id", groupID,
		"balances", len(summary.Balances),
		"simplified", len(summary.SimplifiedDebts),
		"debts", len(summary.Debts),
	)
	return summary, nil
}

// ListExpenses returns the group's expenses, newest first, flagged when
// every share has been paid through linked settlements.
func (s *LedgerService) ListExpenses(ctx context.Context, groupID string) ([]ExpenseView, error) {
	_, snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}

	views := make([]ExpenseView, len(snap.Expenses))
	for i, e := range snap.Expenses {
		views[i] = ExpenseView{Expense: e, FullyPaid: ledger.IsExpenseFullyPaid(e, snap.Settlements)}
	}
	return views, nil
}

// ExpenseHistory returns an expense's audit rows, newest first.
func (s *LedgerService) ExpenseHistory(ctx context.Context, expenseID string) ([]models.ExpenseChange, error) {
	var changes []models.ExpenseChange
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetExpense(ctx, expenseID); err != nil {
			return err
		}
		var err error
		changes, err = tx.ListExpenseChanges(ctx, expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// ListTransactions returns expenses and settlements as one timeline.
func (s *LedgerService) ListTransactions(ctx context.Context, groupID string) ([]ledger.Transaction, error) {
	_, snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return ledger.BuildTransactions(snap), nil
}

// snapshot reads the group and all its records in one transaction.
func (s *LedgerService) snapshot(ctx context.Context, groupID string) (*models.Group, ledger.Snapshot, error) {
	var group *models.Group
	var snap ledger.Snapshot
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		if group, err = tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if snap.Expenses, err = tx.ListExpensesByGroup(ctx, groupID); err != nil {
			return err
		}
		if snap.Settlements, err = tx.ListSettlementsByGroup(ctx, groupID); err != nil {
			return err
		}
		snap.Members = group.Members
		return nil
	})
	if err != nil {
		return nil, ledger.Snapshot{}, err
	}

	s.logger.DebugContext(ctx, "Snapshot loaded",
		"group_id", groupID,
		"members", len(snap.Members),
		"expenses", len(snap.Expenses),
		"settlements", len(snap.Settlements),
	)
	return group, snap, nil
}

// publish runs after commit. A broker failure never undoes a write.
func (s *LedgerService) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.EventPublishErrors.Inc()
		s.logger.WarnContext(ctx, "Failed to publish event",
			"type", event.Type,
			"group_id", event.GroupID,
			"error", err,
		)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsNotFound reports whether err means a missing group, expense or member.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
