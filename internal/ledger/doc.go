// Package ledger derives balances and debts from a group's recorded expenses
// and settlements.
//
// Everything here is a pure function of a Snapshot. Two independent views are
// produced:
//
//   - the net view: CalculateBalances followed by SimplifyDebts, a short list
//     of suggested transfers with no link back to expenses
//   - the attributed view: TrackExpenseDebts followed by ConsolidateDebts,
//     per-pair debts that keep the expenses they came from and honour
//     settlements linked to a specific expense
//
// With more than two members, or with cycles, the two views can disagree.
// Neither is derived from the other.
//
// All money is decimal.Decimal. Results are rounded to cents at every
// aggregation boundary and anything within Epsilon of zero counts as zero.
package ledger
