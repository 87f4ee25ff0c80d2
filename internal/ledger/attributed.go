package ledger

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// TrackExpenseDebts lists, for every expense, what each non-payer still owes
// the payer after settlements linked to that expense. Unlinked settlements
// are ignored here; they only move balances.
//
// Debts are grouped by (from, to). Expenses are visited newest first, so
// groups and their expense lists come out in that order.
func TrackExpenseDebts(s Snapshot) []DebtWithDetails {
	names := s.names()
	paid := linkedPayments(s.Settlements)

	expenses := slices.Clone(s.Expenses)
	slices.SortStableFunc(expenses, compareExpenses)

	index := make(map[directedKey]int)
	var result []DebtWithDetails
	for _, e := range expenses {
		for _, sp := range e.Splits {
			if sp.MemberID == e.PaidBy {
				continue
			}
			paidSoFar := paid[expensePairKey{ExpenseID: e.ID, From: sp.MemberID, To: e.PaidBy}]
			remaining := sp.Amount.Sub(paidSoFar)
			if !exceedsEpsilon(remaining) {
				continue
			}

			ed := ExpenseDebt{
				ExpenseID:          e.ID,
				Description:        e.Description,
				Date:               e.Date,
				Category:           e.Category,
				CreatedAt:          e.CreatedAt,
				From:               sp.MemberID,
				FromName:           nameOf(names, sp.MemberID),
				To:                 e.PaidBy,
				ToName:             nameOf(names, e.PaidBy),
				Amount:             Round2(remaining),
				TotalExpenseAmount: e.Amount,
			}

			k := directedKey{From: ed.From, To: ed.To}
			i, ok := index[k]
			if !ok {
				i = len(result)
				index[k] = i
				result = append(result, DebtWithDetails{Debt: Debt{
					From:     ed.From,
					FromName: ed.FromName,
					To:       ed.To,
					ToName:   ed.ToName,
					Amount:   decimal.Zero,
				}})
			}
			result[i].Amount = result[i].Amount.Add(ed.Amount)
			result[i].Expenses = append(result[i].Expenses, ed)
		}
	}

	for i := range result {
		result[i].Amount = Round2(result[i].Amount)
	}
	return result
}

// ConsolidateDebts nets opposing debts between each pair of members.
// When both A->B and B->A exist the larger side wins with the difference and
// keeps the expenses of both sides, newest first. A pair that nets to within
// Epsilon disappears.
func ConsolidateDebts(debts []DebtWithDetails) []DebtWithDetails {
	index := make(map[directedKey]int, len(debts))
	for i, d := range debts {
		index[directedKey{From: d.From, To: d.To}] = i
	}

	done := make(map[PairKey]bool)
	var result []DebtWithDetails
	for _, d := range debts {
		pk := NewPairKey(d.From, d.To)
		if done[pk] {
			continue
		}
		done[pk] = true

		ri, ok := index[directedKey{From: d.To, To: d.From}]
		if !ok {
			d.Amount = Round2(d.Amount)
			if exceedsEpsilon(d.Amount) {
				result = append(result, d)
			}
			continue
		}
		reverse := debts[ri]

		net := d.Amount.Sub(reverse.Amount)
		if IsNegligible(net) {
			continue
		}

		expenses := make([]ExpenseDebt, 0, len(d.Expenses)+len(reverse.Expenses))
		expenses = append(expenses, d.Expenses...)
		expenses = append(expenses, reverse.Expenses...)
		slices.SortStableFunc(expenses, func(a, b ExpenseDebt) int {
			if c := b.Date.Compare(a.Date); c != 0 {
				return c
			}
			return cmp.Compare(b.CreatedAt, a.CreatedAt)
		})

		winner := d.Debt
		if net.IsNegative() {
			winner = reverse.Debt
			net = net.Neg()
		}
		winner.Amount = Round2(net)
		if exceedsEpsilon(winner.Amount) {
			result = append(result, DebtWithDetails{Debt: winner, Expenses: expenses})
		}
	}
	return result
}

// IsExpenseFullyPaid reports whether every non-payer split of e has been
// covered by settlements linked to e, from that member to the payer.
func IsExpenseFullyPaid(e models.Expense, settlements []models.Settlement) bool {
	paid := linkedPayments(settlements)
	for _, sp := range e.Splits {
		if sp.MemberID == e.PaidBy {
			continue
		}
		got := paid[expensePairKey{ExpenseID: e.ID, From: sp.MemberID, To: e.PaidBy}]
		if got.LessThan(sp.Amount.Sub(Epsilon)) {
			return false
		}
	}
	return true
}

// compareExpenses orders by date, then creation time, newest first, then ID.
func compareExpenses(a, b models.Expense) int {
	if c := b.Date.Compare(a.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
