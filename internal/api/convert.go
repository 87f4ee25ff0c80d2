package api

import (
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// ParseDate reads a YYYY-MM-DD date. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, &ledger.ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", s)}
	}
	return t, nil
}

func ToSplits(in []Split) []models.ExpenseSplit {
	if in == nil {
		return nil
	}
	out := make([]models.ExpenseSplit, len(in))
	for i, s := range in {
		out[i] = models.ExpenseSplit{MemberID: s.MemberID, Amount: s.Amount}
	}
	return out
}

func FromGroup(g *models.Group) Group {
	members := make([]Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = Member{ID: m.ID, Name: m.Name}
	}
	return Group{ID: g.ID, Name: g.Name, Members: members, CreatedAt: g.CreatedAt}
}

func FromExpense(e *models.Expense, fullyPaid bool) Expense {
	splits := make([]Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = Split{MemberID: s.MemberID, Amount: s.Amount}
	}
	return Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount,
		PaidBy:      e.PaidBy,
		Date:        e.Date.Format(models.DateLayout),
		Category:    e.Category,
		CreatedAt:   e.CreatedAt,
		Splits:      splits,
		FullyPaid:   fullyPaid,
	}
}

func FromSettlement(s *models.Settlement) Settlement {
	return Settlement{
		ID:              s.ID,
		GroupID:         s.GroupID,
		FromMemberID:    s.FromMemberID,
		ToMemberID:      s.ToMemberID,
		Amount:          s.Amount,
		SettledAt:       s.SettledAt,
		RecordedBy:      s.RecordedBy,
		Note:            s.Note,
		LinkedExpenseID: s.LinkedExpenseID,
	}
}

func FromSettlements(in []models.Settlement) []Settlement {
	out := make([]Settlement, len(in))
	for i := range in {
		out[i] = FromSettlement(&in[i])
	}
	return out
}

func FromBalances(in []ledger.Balance) []Balance {
	out := make([]Balance, len(in))
	for i, b := range in {
		out[i] = Balance{MemberID: b.MemberID, Name: b.Name, Amount: b.Amount}
	}
	return out
}

func fromDebt(d ledger.Debt) Debt {
	return Debt{From: d.From, FromName: d.FromName, To: d.To, ToName: d.ToName, Amount: d.Amount}
}

func FromDebts(in []ledger.Debt) []Debt {
	out := make([]Debt, len(in))
	for i, d := range in {
		out[i] = fromDebt(d)
	}
	return out
}

func FromDebtsWithDetails(in []ledger.DebtWithDetails) []DebtWithDetails {
	out := make([]DebtWithDetails, len(in))
	for i, d := range in {
		expenses := make([]ExpenseDebt, len(d.Expenses))
		for j, e := range d.Expenses {
			expenses[j] = ExpenseDebt{
				ExpenseID:          e.ExpenseID,
				Description:        e.Description,
				Date:               e.Date.Format(models.DateLayout),
				Category:           e.Category,
				From:               e.From,
				To:                 e.To,
				Amount:             e.Amount,
				TotalExpenseAmount: e.TotalExpenseAmount,
			}
		}
		out[i] = DebtWithDetails{Debt: fromDebt(d.Debt), Expenses: expenses}
	}
	return out
}

func FromChanges(in []models.ExpenseChange) []ExpenseChange {
	out := make([]ExpenseChange, len(in))
	for i, c := range in {
		row := ExpenseChange{
			ID:            c.ID,
			ExpenseID:     c.ExpenseID,
			ChangedBy:     c.ChangedBy,
			ChangedByName: c.ChangedByName,
			ChangedAt:     c.ChangedAt,
			Field:         string(c.FieldName()),
		}
		switch ch := c.Change.(type) {
		case models.FieldChange:
			row.Kind = string(models.KindField)
			row.OldValue = ch.OldValue
			row.NewValue = ch.NewValue
		case models.PaymentEvent:
			row.Kind = string(models.KindPayment)
			row.SettlementID = ch.SettlementID
			row.Description = ch.Description
		}
		out[i] = row
	}
	return out
}

func FromTransactions(in []ledger.Transaction) []Transaction {
	out := make([]Transaction, len(in))
	for i, t := range in {
		out[i] = Transaction{
			Kind:        string(t.Kind),
			ID:          t.ID,
			Description: t.Description,
			Amount:      t.Amount,
			Date:        t.Date.Format(time.RFC3339),
			From:        t.From,
			FromName:    t.FromName,
			To:          t.To,
			ToName:      t.ToName,
			Category:    t.Category,
		}
	}
	return out
}
