package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Snapshot is a consistent read of one group's records.
type Snapshot struct {
	Members     []models.Member
	Expenses    []models.Expense
	Settlements []models.Settlement
}

func (s *Snapshot) names() map[string]string {
	names := make(map[string]string, len(s.Members))
	for _, m := range s.Members {
		names[m.ID] = m.Name
	}
	return names
}

// nameOf falls back to the ID for members missing from the roster.
func nameOf(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}

// Balance is a member's net position. Positive means the group owes them.
type Balance struct {
	MemberID string
	Name     string
	Amount   decimal.Decimal
}

// Debt is a suggested or attributed transfer between two members.
type Debt struct {
	From     string
	FromName string
	To       string
	ToName   string
	Amount   decimal.Decimal
}

// ExpenseDebt is what one member still owes the payer for one expense.
type ExpenseDebt struct {
	ExpenseID          string
	Description        string
	Date               time.Time
	Category           string
	CreatedAt          int64
	From               string
	FromName           string
	To                 string
	ToName             string
	Amount             decimal.Decimal
	TotalExpenseAmount decimal.Decimal
}

// DebtWithDetails is a debt together with the expenses it is made of.
type DebtWithDetails struct {
	Debt
	Expenses []ExpenseDebt
}

// directedKey identifies debts flowing from one member to another.
type directedKey struct {
	From string
	To   string
}

// PairKey identifies an unordered pair of members. Low sorts before High.
type PairKey struct {
	Low  string
	High string
}

// NewPairKey returns the same key for (a, b) and (b, a).
func NewPairKey(a, b string) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// expensePairKey sums linked settlements per expense and direction.
type expensePairKey struct {
	ExpenseID string
	From      string
	To        string
}

// linkedPayments totals settlements attributed to an expense, by direction.
func linkedPayments(settlements []models.Settlement) map[expensePairKey]decimal.Decimal {
	paid := make(map[expensePairKey]decimal.Decimal)
	for _, st := range settlements {
		if !st.IsLinked() {
			continue
		}
		k := expensePairKey{ExpenseID: st.LinkedExpenseID, From: st.FromMemberID, To: st.ToMemberID}
		paid[k] = paid[k].Add(st.Amount)
	}
	return paid
}
