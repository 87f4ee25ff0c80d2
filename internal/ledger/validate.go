package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid(field, "must be positive, got %s", amount.StringFixed(2))
	}
	return nil
}

// ValidateSplits checks that splits are non-negative, name each member at
// most once and sum to amount within Epsilon.
func ValidateSplits(amount decimal.Decimal, splits []models.ExpenseSplit) error {
	if len(splits) == 0 {
		return invalid("splits", "at least one split is required")
	}

	seen := make(map[string]bool, len(splits))
	total := decimal.Zero
	for _, s := range splits {
		if s.MemberID == "" {
			return invalid("splits", "split without member")
		}
		if seen[s.MemberID] {
			return invalid("splits", "member %s appears more than once", s.MemberID)
		}
		seen[s.MemberID] = true

		if s.Amount.IsNegative() {
			return invalid("splits", "negative amount %s for member %s", s.Amount.StringFixed(2), s.MemberID)
		}
		total = total.Add(s.Amount)
	}

	if diff := total.Sub(amount); !IsNegligible(diff) {
		return invalid("splits", "splits sum to %s but expense amount is %s", total.StringFixed(2), amount.StringFixed(2))
	}
	return nil
}

// ValidateExpense checks an expense before it is written: positive amount,
// a payer on the roster, and valid splits among roster members.
func ValidateExpense(group *models.Group, e *models.Expense) error {
	if e.Description == "" {
		return invalid("description", "must not be empty")
	}
	if err := ValidateAmount("amount", e.Amount); err != nil {
		return err
	}
	if !group.HasMember(e.PaidBy) {
		return invalid("paid_by", "member %s is not in group %s", e.PaidBy, group.ID)
	}
	for _, s := range e.Splits {
		if !group.HasMember(s.MemberID) {
			return invalid("splits", "member %s is not in group %s", s.MemberID, group.ID)
		}
	}
	return ValidateSplits(e.Amount, e.Splits)
}

// ValidateSettlement checks a payment between two roster members.
func ValidateSettlement(group *models.Group, from, to string, amount decimal.Decimal) error {
	if from == to {
		return invalid("to", "cannot settle with yourself")
	}
	if !group.HasMember(from) {
		return invalid("from", "member %s is not in group %s", from, group.ID)
	}
	if !group.HasMember(to) {
		return invalid("to", "member %s is not in group %s", to, group.ID)
	}
	return ValidateAmount("amount", amount)
}
