// Package api defines the splitledger.v1.LedgerService wire contract: JSON
// messages, procedure routing and a typed client.
package api

import "github.com/shopspring/decimal"

type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

type Split struct {
	MemberID string          `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paid_by"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Category    string          `json:"category,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	Splits      []Split         `json:"splits"`
	FullyPaid   bool            `json:"fully_paid"`
}

type Settlement struct {
	ID              string          `json:"id"`
	GroupID         string          `json:"group_id"`
	FromMemberID    string          `json:"from_member_id"`
	ToMemberID      string          `json:"to_member_id"`
	Amount          decimal.Decimal `json:"amount"`
	SettledAt       int64           `json:"settled_at"`
	RecordedBy      string          `json:"recorded_by"`
	Note            string          `json:"note,omitempty"`
	LinkedExpenseID string          `json:"linked_expense_id,omitempty"`
}

type Balance struct {
	MemberID string          `json:"member_id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

type Debt struct {
	From     string          `json:"from"`
	FromName string          `json:"from_name"`
	To       string          `json:"to"`
	ToName   string          `json:"to_name"`
	Amount   decimal.Decimal `json:"amount"`
}

type ExpenseDebt struct {
	ExpenseID          string          `json:"expense_id"`
	Description        string          `json:"description"`
	Date               string          `json:"date"`
	Category           string          `json:"category,omitempty"`
	From               string          `json:"from"`
	To                 string          `json:"to"`
	Amount             decimal.Decimal `json:"amount"`
	TotalExpenseAmount decimal.Decimal `json:"total_expense_amount"`
}

type DebtWithDetails struct {
	Debt
	Expenses []ExpenseDebt `json:"expenses"`
}

// ExpenseChange is a history row. Kind is "field" or "payment"; payment rows
// carry SettlementID and Description instead of old and new values.
type ExpenseChange struct {
	ID            int64  `json:"id"`
	ExpenseID     string `json:"expense_id"`
	ChangedBy     string `json:"changed_by"`
	ChangedByName string `json:"changed_by_name"`
	ChangedAt     int64  `json:"changed_at"`
	Kind          string `json:"kind"`
	Field         string `json:"field"`
	OldValue      string `json:"old_value,omitempty"`
	NewValue      string `json:"new_value,omitempty"`
	SettlementID  string `json:"settlement_id,omitempty"`
	Description   string `json:"description,omitempty"`
}

type Transaction struct {
	Kind        string          `json:"kind"`
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"` // RFC 3339
	From        string          `json:"from"`
	FromName    string          `json:"from_name"`
	To          string          `json:"to,omitempty"`
	ToName      string          `json:"to_name,omitempty"`
	Category    string          `json:"category,omitempty"`
}

// GroupRequest addresses every read keyed by group.
type GroupRequest struct {
	GroupID string `json:"group_id"`
}

type AddExpenseRequest struct {
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paid_by"`
	Date        string          `json:"date,omitempty"` // defaults to today
	Category    string          `json:"category,omitempty"`
	Splits      []Split         `json:"splits"`
}

type AddExpenseResponse struct {
	Expense Expense `json:"expense"`
}

// UpdateExpenseRequest changes only the fields present. Splits, when present,
// replace the whole set.
type UpdateExpenseRequest struct {
	ExpenseID   string           `json:"expense_id"`
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	PaidBy      *string          `json:"paid_by,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Splits      []Split          `json:"splits,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense Expense         `json:"expense"`
	Changes []ExpenseChange `json:"changes"`
}

type RecordSettlementRequest struct {
	GroupID         string          `json:"group_id"`
	FromMemberID    string          `json:"from_member_id"`
	ToMemberID      string          `json:"to_member_id"`
	Amount          decimal.Decimal `json:"amount"`
	Note            string          `json:"note,omitempty"`
	LinkedExpenseID string          `json:"linked_expense_id,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type ExpensePayment struct {
	ExpenseID string          `json:"expense_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type RecordDebtSettlementRequest struct {
	GroupID      string           `json:"group_id"`
	FromMemberID string           `json:"from_member_id"`
	ToMemberID   string           `json:"to_member_id"`
	Expenses     []ExpensePayment `json:"expenses"`
}

type RecordDebtSettlementResponse struct {
	Settlements []Settlement `json:"settlements"`
}

type GetBalancesResponse struct {
	Balances []Balance `json:"balances"`
}

type GetSimplifiedDebtsResponse struct {
	Debts []Debt `json:"debts"`
}

type GetDebtsWithDetailsResponse struct {
	Debts []DebtWithDetails `json:"debts"`
}

type GetGroupSummaryResponse struct {
	Group           Group             `json:"group"`
	Balances        []Balance         `json:"balances"`
	SimplifiedDebts []Debt            `json:"simplified_debts"`
	Debts           []DebtWithDetails `json:"debts"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type GetExpenseHistoryRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseHistoryResponse struct {
	Changes []ExpenseChange `json:"changes"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}
