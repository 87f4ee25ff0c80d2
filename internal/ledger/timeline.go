package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes timeline rows.
type TransactionKind string

const (
	KindExpense    TransactionKind = "expense"
	KindSettlement TransactionKind = "settlement"
)

// Transaction is one row of a group's activity timeline.
// For expenses From is the payer and To is empty.
type Transaction struct {
	Kind        TransactionKind
	ID          string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	From        string
	FromName    string
	To          string
	ToName      string
	Category    string
}

// BuildTransactions merges expenses and settlements into one list, newest
// first. Settlements without a note are described as "Payment from X to Y".
func BuildTransactions(s Snapshot) []Transaction {
	names := s.names()
	txs := make([]Transaction, 0, len(s.Expenses)+len(s.Settlements))

	for _, e := range s.Expenses {
		txs = append(txs, Transaction{
			Kind:        KindExpense,
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount,
			Date:        e.Date,
			From:        e.PaidBy,
			FromName:    nameOf(names, e.PaidBy),
			Category:    e.Category,
		})
	}

	for _, st := range s.Settlements {
		from, to := nameOf(names, st.FromMemberID), nameOf(names, st.ToMemberID)
		desc := st.Note
		if desc == "" {
			desc = fmt.Sprintf("Payment from %s to %s", from, to)
		}
		txs = append(txs, Transaction{
			Kind:        KindSettlement,
			ID:          st.ID,
			Description: desc,
			Amount:      st.Amount,
			Date:        time.Unix(st.SettledAt, 0).UTC(),
			From:        st.FromMemberID,
			FromName:    from,
			To:          st.ToMemberID,
			ToName:      to,
		})
	}

	slices.SortStableFunc(txs, func(a, b Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return txs
}
