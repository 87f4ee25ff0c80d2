// Package models defines the stored records of the Splitledger ledger.
//
// # Records
//
// The following records are persisted by the storage layer:
//   - Member: a person who can pay for or owe part of an expense
//   - Group: a roster of members sharing expenses
//   - Expense and ExpenseSplit: what was paid, by whom, and who owes which portion
//   - Settlement: an immutable payment between two members
//   - ExpenseChange: an append-only audit row attached to an expense
//
// Balances and debts are never stored. They are derived on every read by
// package ledger from a consistent snapshot of these records.
//
// # Design Principles
//
//  1. **Exact money**: amounts are decimal.Decimal, never float64
//  2. **IDs, not pointers**: relationships use ID strings
//  3. **Append-only history**: settlements and expense changes are never edited
//  4. **Optional as empty**: an empty Category, Note or LinkedExpenseID means "not set"
package models
