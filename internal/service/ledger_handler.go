package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/audit"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ api.LedgerServiceHandler = (*LedgerHandler)(nil)

// LedgerHandler implements the Connect LedgerService on top of LedgerService.
type LedgerHandler struct {
	svc    *LedgerService
	logger *slog.Logger
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(svc *LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{svc: svc, logger: logger}
}

// toConnectError maps domain errors to RPC codes.
func toConnectError(err error) error {
	var vErr *ledger.ValidationError
	switch {
	case errors.As(err, &vErr):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func requireField(name, value string) error {
	if value == "" {
		return connect.NewError(connect.CodeInvalidArgument, &ledger.ValidationError{Field: name, Reason: "is required"})
	}
	return nil
}

// AddExpense records a new expense paid by a group member.
func (h *LedgerHandler) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	h.logger.DebugContext(ctx, "AddExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount.String(),
		"splits_count", len(req.Msg.Splits),
	)

	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}
	date, err := api.ParseDate(req.Msg.Date)
	if err != nil {
		return nil, toConnectError(err)
	}

	expense, err := h.svc.AddExpense(ctx, ExpenseInput{
		GroupID:     req.Msg.GroupID,
		Description: req.Msg.Description,
		Amount:      req.Msg.Amount,
		PaidBy:      req.Msg.PaidBy,
		Date:        date,
		Category:    req.Msg.Category,
		Splits:      api.ToSplits(req.Msg.Splits),
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.AddExpenseResponse{Expense: api.FromExpense(expense, false)}), nil
}

// UpdateExpense edits an expense on behalf of the calling member.
func (h *LedgerHandler) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	editor := middleware.GetMemberID(ctx)
	h.logger.DebugContext(ctx, "UpdateExpense request received", "expense_id", req.Msg.ExpenseID, "editor", editor)

	if err := requireField("expense_id", req.Msg.ExpenseID); err != nil {
		return nil, err
	}

	u := audit.ExpenseUpdate{
		Description: req.Msg.Description,
		Amount:      req.Msg.Amount,
		PaidBy:      req.Msg.PaidBy,
		Category:    req.Msg.Category,
		Splits:      api.ToSplits(req.Msg.Splits),
	}
	if req.Msg.Date != nil {
		date, err := api.ParseDate(*req.Msg.Date)
		if err != nil {
			return nil, toConnectError(err)
		}
		u.Date = &date
	}

	expense, changes, err := h.svc.UpdateExpense(ctx, req.Msg.ExpenseID, editor, u)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.UpdateExpenseResponse{
		Expense: api.FromExpense(expense, false),
		Changes: api.FromChanges(changes),
	}), nil
}

// RecordSettlement records a payment; the caller is stored as recorder.
func (h *LedgerHandler) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	h.logger.DebugContext(ctx, "RecordSettlement request received",
		"group_id", req.Msg.GroupID,
		"from", req.Msg.FromMemberID,
		"to", req.Msg.ToMemberID,
		"expense_id", req.Msg.LinkedExpenseID,
	)

	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	settlement, err := h.svc.RecordSettlement(ctx, SettlementInput{
		GroupID:         req.Msg.GroupID,
		From:            req.Msg.FromMemberID,
		To:              req.Msg.ToMemberID,
		Amount:          req.Msg.Amount,
		Note:            req.Msg.Note,
		LinkedExpenseID: req.Msg.LinkedExpenseID,
		RecordedBy:      middleware.GetMemberID(ctx),
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: api.FromSettlement(settlement)}), nil
}

// RecordDebtSettlement pays off several expenses between two members at once.
func (h *LedgerHandler) RecordDebtSettlement(ctx context.Context, req *connect.Request[api.RecordDebtSettlementRequest]) (*connect.Response[api.RecordDebtSettlementResponse], error) {
	h.logger.DebugContext(ctx, "RecordDebtSettlement request received",
		"group_id", req.Msg.GroupID,
		"from", req.Msg.FromMemberID,
		"to", req.Msg.ToMemberID,
		"expenses_count", len(req.Msg.Expenses),
	)

	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	payments := make([]ExpensePayment, len(req.Msg.Expenses))
	for i, p := range req.Msg.Expenses {
		payments[i] = ExpensePayment{ExpenseID: p.ExpenseID, Amount: p.Amount}
	}

	settlements, err := h.svc.RecordDebtSettlement(ctx, DebtSettlementInput{
		GroupID:    req.Msg.GroupID,
		From:       req.Msg.FromMemberID,
		To:         req.Msg.ToMemberID,
		RecordedBy: middleware.GetMemberID(ctx),
		Expenses:   payments,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.RecordDebtSettlementResponse{Settlements: api.FromSettlements(settlements)}), nil
}

// GetBalances returns each member's net balance.
func (h *LedgerHandler) GetBalances(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	balances, err := h.svc.GetBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	h.logger.DebugContext(ctx, "GetBalances successful", "group_id", req.Msg.GroupID, "count", len(balances))
	return connect.NewResponse(&api.GetBalancesResponse{Balances: api.FromBalances(balances)}), nil
}

// GetSimplifiedDebts returns the minimal transfer list.
func (h *LedgerHandler) GetSimplifiedDebts(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GetSimplifiedDebtsResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	debts, err := h.svc.GetSimplifiedDebts(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	h.logger.DebugContext(ctx, "GetSimplifiedDebts successful", "group_id", req.Msg.GroupID, "count", len(debts))
	return connect.NewResponse(&api.GetSimplifiedDebtsResponse{Debts: api.FromDebts(debts)}), nil
}

// GetDebtsWithDetails returns consolidated debts with their expenses.
func (h *LedgerHandler) GetDebtsWithDetails(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GetDebtsWithDetailsResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	debts, err := h.svc.GetDebtsWithDetails(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	h.logger.DebugContext(ctx, "GetDebtsWithDetails successful", "group_id", req.Msg.GroupID, "count", len(debts))
	return connect.NewResponse(&api.GetDebtsWithDetailsResponse{Debts: api.FromDebtsWithDetails(debts)}), nil
}

// GetGroupSummary returns the group with both debt views.
func (h *LedgerHandler) GetGroupSummary(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GetGroupSummaryResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	summary, err := h.svc.GetGroupSummary(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetGroupSummaryResponse{
		Group:           api.FromGroup(summary.Group),
		Balances:        api.FromBalances(summary.Balances),
		SimplifiedDebts: api.FromDebts(summary.SimplifiedDebts),
		Debts:           api.FromDebtsWithDetails(summary.Debts),
	}), nil
}

// ListExpenses returns the group's expenses with their fully-paid flag.
func (h *LedgerHandler) ListExpenses(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	views, err := h.svc.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	expenses := make([]api.Expense, len(views))
	for i := range views {
		expenses[i] = api.FromExpense(&views[i].Expense, views[i].FullyPaid)
	}

	h.logger.DebugContext(ctx, "ListExpenses successful", "group_id", req.Msg.GroupID, "count", len(expenses))
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: expenses}), nil
}

// GetExpenseHistory returns the audit trail of one expense.
func (h *LedgerHandler) GetExpenseHistory(ctx context.Context, req *connect.Request[api.GetExpenseHistoryRequest]) (*connect.Response[api.GetExpenseHistoryResponse], error) {
	if err := requireField("expense_id", req.Msg.ExpenseID); err != nil {
		return nil, err
	}

	changes, err := h.svc.ExpenseHistory(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetExpenseHistoryResponse{Changes: api.FromChanges(changes)}), nil
}

// ListTransactions returns the group's activity timeline.
func (h *LedgerHandler) ListTransactions(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	txs, err := h.svc.ListTransactions(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: api.FromTransactions(txs)}), nil
}
