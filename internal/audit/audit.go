// Package audit turns an expense edit into the rows of its history.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// ExpenseUpdate holds the fields an editor supplied. Nil means unchanged.
type ExpenseUpdate struct {
	Description *string
	Amount      *decimal.Decimal
	PaidBy      *string
	Date        *time.Time
	Category    *string
	Splits      []models.ExpenseSplit // nil keeps the current splits
}

// HasSplits reports whether the update replaces the splits.
func (u *ExpenseUpdate) HasSplits() bool {
	return u.Splits != nil
}

// DiffExpense compares old against the update and returns one FieldChange
// per attribute that actually differs. Payers are shown by display name,
// amounts with two decimals and dates as YYYY-MM-DD. Supplying splits always
// produces a "splits" row summarising the old and new sets.
func DiffExpense(old *models.Expense, u ExpenseUpdate, names map[string]string) []models.Change {
	var changes []models.Change
	add := func(field models.ChangeField, oldValue, newValue string) {
		changes = append(changes, models.FieldChange{Field: field, OldValue: oldValue, NewValue: newValue})
	}

	if u.Description != nil && *u.Description != old.Description {
		add(models.FieldDescription, old.Description, *u.Description)
	}
	if u.Amount != nil && !u.Amount.Equal(old.Amount) {
		add(models.FieldAmount, FormatAmount(old.Amount), FormatAmount(*u.Amount))
	}
	if u.PaidBy != nil && *u.PaidBy != old.PaidBy {
		add(models.FieldPaidBy, displayName(names, old.PaidBy), displayName(names, *u.PaidBy))
	}
	if u.Date != nil && !sameDay(*u.Date, old.Date) {
		add(models.FieldDate, FormatDate(old.Date), FormatDate(*u.Date))
	}
	if u.Category != nil && *u.Category != old.Category {
		add(models.FieldCategory, old.Category, *u.Category)
	}
	if u.HasSplits() {
		add(models.FieldSplits, FormatSplits(old.Splits, names), FormatSplits(u.Splits, names))
	}

	return changes
}

// Apply returns a copy of e with the update's fields written over it.
func Apply(e *models.Expense, u ExpenseUpdate) models.Expense {
	out := *e
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.Amount != nil {
		out.Amount = *u.Amount
	}
	if u.PaidBy != nil {
		out.PaidBy = *u.PaidBy
	}
	if u.Date != nil {
		out.Date = *u.Date
	}
	if u.Category != nil {
		out.Category = *u.Category
	}
	if u.HasSplits() {
		out.Splits = make([]models.ExpenseSplit, len(u.Splits))
		for i, s := range u.Splits {
			s.ExpenseID = e.ID
			out.Splits[i] = s
		}
	}
	return out
}

// PaymentDescription renders the history line for a linked settlement.
func PaymentDescription(fromName, toName string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s paid %s to %s", fromName, FormatAmount(amount), toName)
}

// FormatSplits renders splits as "Alice: 50.00, Bob: 50.00".
func FormatSplits(splits []models.ExpenseSplit, names map[string]string) string {
	parts := make([]string, len(splits))
	for i, s := range splits {
		parts[i] = fmt.Sprintf("%s: %s", displayName(names, s.MemberID), FormatAmount(s.Amount))
	}
	return strings.Join(parts, ", ")
}

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func FormatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

func sameDay(a, b time.Time) bool {
	return FormatDate(a) == FormatDate(b)
}

func displayName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}
