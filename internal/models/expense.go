package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used for expense dates in storage and audit rows.
const DateLayout = "2006-01-02"

// Expense is a payment made by one member on behalf of some group members.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group whose ledger this expense belongs to.
	GroupID string

	// Description is the human-readable label (e.g., "Groceries").
	Description string

	// Amount is the total paid. Always positive.
	Amount decimal.Decimal

	// PaidBy is the member ID of the payer.
	PaidBy string

	// Date is the calendar day of the expense (time part is zero, UTC).
	Date time.Time

	// Category is optional; empty means uncategorized.
	Category string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// Splits assign portions of Amount to members. They sum to Amount
	// within the ledger tolerance.
	Splits []ExpenseSplit
}

// ExpenseSplit is the portion of an expense owed by one member.
// The payer may have a split of their own.
type ExpenseSplit struct {
	ExpenseID string
	MemberID  string
	Amount    decimal.Decimal
}

// SplitTotal sums the owed amounts of all splits.
func (e *Expense) SplitTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range e.Splits {
		total = total.Add(s.Amount)
	}
	return total
}
