package models

import "github.com/shopspring/decimal"

// Settlement represents a payment between group members to clear debts.
// Settlements are immutable once recorded.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromMemberID is the member who paid (debtor settling up).
	FromMemberID string

	// ToMemberID is the member who received payment (creditor being paid).
	ToMemberID string

	// Amount is the payment amount. Always positive.
	Amount decimal.Decimal

	// SettledAt is the Unix timestamp when the settlement was recorded.
	SettledAt int64

	// RecordedBy is the member ID of whoever recorded this settlement.
	RecordedBy string

	// Note is an optional description for the settlement.
	Note string

	// LinkedExpenseID attributes the payment to one expense.
	// Empty for free-form payments against the overall balance.
	LinkedExpenseID string
}

// IsLinked reports whether the settlement pays down a specific expense.
func (s *Settlement) IsLinked() bool {
	return s.LinkedExpenseID != ""
}
