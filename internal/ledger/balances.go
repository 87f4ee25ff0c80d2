package ledger

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// CalculateBalances computes every member's net balance from a snapshot.
//
// Algorithm:
//   - every roster member starts at zero
//   - for each expense: payer += amount, each split member -= owed amount
//     (the payer's own split included)
//   - for each settlement: from += amount, to -= amount
//   - round to cents and drop balances within Epsilon of zero
//
// Members referenced by records but missing from the roster are kept, named
// by ID, so the result still sums to zero. Output follows roster order, then
// member ID for the others.
func CalculateBalances(s Snapshot) []Balance {
	names := s.names()
	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		if _, ok := totals[m.ID]; ok {
			continue
		}
		totals[m.ID] = decimal.Zero
		order = append(order, m.ID)
	}

	var strays []string
	add := func(id string, d decimal.Decimal) {
		cur, ok := totals[id]
		if !ok {
			strays = append(strays, id)
		}
		totals[id] = cur.Add(d)
	}

	for _, e := range s.Expenses {
		add(e.PaidBy, e.Amount)
		for _, sp := range e.Splits {
			add(sp.MemberID, sp.Amount.Neg())
		}
	}

	for _, st := range s.Settlements {
		add(st.FromMemberID, st.Amount)
		add(st.ToMemberID, st.Amount.Neg())
	}

	slices.Sort(strays)
	order = append(order, strays...)

	var balances []Balance
	for _, id := range order {
		amount := Round2(totals[id])
		if IsNegligible(amount) {
			continue
		}
		balances = append(balances, Balance{MemberID: id, Name: nameOf(names, id), Amount: amount})
	}
	return balances
}

type position struct {
	Balance
	remaining decimal.Decimal
}

// SimplifyDebts turns balances into a short list of transfers using greedy
// matching. Creditors are taken largest first, debtors most-indebted first,
// ties broken by member ID. The result has at most
// len(creditors)+len(debtors)-1 transfers. It settles the balances but does
// not say which expenses a transfer pays for.
func SimplifyDebts(balances []Balance) []Debt {
	var creditors, debtors []position
	for _, b := range balances {
		switch {
		case exceedsEpsilon(b.Amount):
			creditors = append(creditors, position{Balance: b, remaining: b.Amount})
		case exceedsEpsilon(b.Amount.Neg()):
			debtors = append(debtors, position{Balance: b, remaining: b.Amount.Neg()})
		}
	}

	// Largest amounts first on both sides.
	byRemaining := func(a, b position) int {
		if c := b.remaining.Cmp(a.remaining); c != 0 {
			return c
		}
		return cmp.Compare(a.MemberID, b.MemberID)
	}
	slices.SortFunc(creditors, byRemaining)
	slices.SortFunc(debtors, byRemaining)

	var debts []Debt
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(debtor.remaining, creditor.remaining)
		if exceedsEpsilon(amount) {
			debts = append(debts, Debt{
				From:     debtor.MemberID,
				FromName: debtor.Name,
				To:       creditor.MemberID,
				ToName:   creditor.Name,
				Amount:   Round2(amount),
			})
		}

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if IsNegligible(debtor.remaining) {
			i++
		}
		if IsNegligible(creditor.remaining) {
			j++
		}
	}

	return debts
}
