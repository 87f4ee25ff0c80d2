package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the service.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Procedure paths.
const (
	AddExpenseProcedure           = "/" + LedgerServiceName + "/AddExpense"
	UpdateExpenseProcedure        = "/" + LedgerServiceName + "/UpdateExpense"
	RecordSettlementProcedure     = "/" + LedgerServiceName + "/RecordSettlement"
	RecordDebtSettlementProcedure = "/" + LedgerServiceName + "/RecordDebtSettlement"
	GetBalancesProcedure          = "/" + LedgerServiceName + "/GetBalances"
	GetSimplifiedDebtsProcedure   = "/" + LedgerServiceName + "/GetSimplifiedDebts"
	GetDebtsWithDetailsProcedure  = "/" + LedgerServiceName + "/GetDebtsWithDetails"
	GetGroupSummaryProcedure      = "/" + LedgerServiceName + "/GetGroupSummary"
	ListExpensesProcedure         = "/" + LedgerServiceName + "/ListExpenses"
	GetExpenseHistoryProcedure    = "/" + LedgerServiceName + "/GetExpenseHistory"
	ListTransactionsProcedure     = "/" + LedgerServiceName + "/ListTransactions"
)

// LedgerServiceHandler is implemented by the server.
type LedgerServiceHandler interface {
	AddExpense(context.Context, *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error)
	RecordSettlement(context.Context, *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error)
	RecordDebtSettlement(context.Context, *connect.Request[RecordDebtSettlementRequest]) (*connect.Response[RecordDebtSettlementResponse], error)
	GetBalances(context.Context, *connect.Request[GroupRequest]) (*connect.Response[GetBalancesResponse], error)
	GetSimplifiedDebts(context.Context, *connect.Request[GroupRequest]) (*connect.Response[GetSimplifiedDebtsResponse], error)
	GetDebtsWithDetails(context.Context, *connect.Request[GroupRequest]) (*connect.Response[GetDebtsWithDetailsResponse], error)
	GetGroupSummary(context.Context, *connect.Request[GroupRequest]) (*connect.Response[GetGroupSummaryResponse], error)
	ListExpenses(context.Context, *connect.Request[GroupRequest]) (*connect.Response[ListExpensesResponse], error)
	GetExpenseHistory(context.Context, *connect.Request[GetExpenseHistoryRequest]) (*connect.Response[GetExpenseHistoryResponse], error)
	ListTransactions(context.Context, *connect.Request[GroupRequest]) (*connect.Response[ListTransactionsResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler serving every procedure.
// It returns the path prefix to mount it on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(AddExpenseProcedure, connect.NewUnaryHandler(AddExpenseProcedure, svc.AddExpense, opts...))
	mux.Handle(UpdateExpenseProcedure, connect.NewUnaryHandler(UpdateExpenseProcedure, svc.UpdateExpense, opts...))
	mux.Handle(RecordSettlementProcedure, connect.NewUnaryHandler(RecordSettlementProcedure, svc.RecordSettlement, opts...))
	mux.Handle(RecordDebtSettlementProcedure, connect.NewUnaryHandler(RecordDebtSettlementProcedure, svc.RecordDebtSettlement, opts...))
	mux.Handle(GetBalancesProcedure, connect.NewUnaryHandler(GetBalancesProcedure, svc.GetBalances, opts...))
	mux.Handle(GetSimplifiedDebtsProcedure, connect.NewUnaryHandler(GetSimplifiedDebtsProcedure, svc.GetSimplifiedDebts, opts...))
	mux.Handle(GetDebtsWithDetailsProcedure, connect.NewUnaryHandler(GetDebtsWithDetailsProcedure, svc.GetDebtsWithDetails, opts...))
	mux.Handle(GetGroupSummaryProcedure, connect.NewUnaryHandler(GetGroupSummaryProcedure, svc.GetGroupSummary, opts...))
	mux.Handle(ListExpensesProcedure, connect.NewUnaryHandler(ListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(GetExpenseHistoryProcedure, connect.NewUnaryHandler(GetExpenseHistoryProcedure, svc.GetExpenseHistory, opts...))
	mux.Handle(ListTransactionsProcedure, connect.NewUnaryHandler(ListTransactionsProcedure, svc.ListTransactions, opts...))

	return "/" + LedgerServiceName + "/", mux
}

// IsLedgerProcedure reports whether path belongs to this service.
func IsLedgerProcedure(path string) bool {
	return strings.HasPrefix(path, "/"+LedgerServiceName+"/")
}

// LedgerServiceClient calls a LedgerService over HTTP.
type LedgerServiceClient struct {
	addExpense           *connect.Client[AddExpenseRequest, AddExpenseResponse]
	updateExpense        *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	recordSettlement     *connect.Client[RecordSettlementRequest, RecordSettlementResponse]
	recordDebtSettlement *connect.Client[RecordDebtSettlementRequest, RecordDebtSettlementResponse]
	getBalances          *connect.Client[GroupRequest, GetBalancesResponse]
	getSimplifiedDebts   *connect.Client[GroupRequest, GetSimplifiedDebtsResponse]
	getDebtsWithDetails  *connect.Client[GroupRequest, GetDebtsWithDetailsResponse]
	getGroupSummary      *connect.Client[GroupRequest, GetGroupSummaryResponse]
	listExpenses         *connect.Client[GroupRequest, ListExpensesResponse]
	getExpenseHistory    *connect.Client[GetExpenseHistoryRequest, GetExpenseHistoryResponse]
	listTransactions     *connect.Client[GroupRequest, ListTransactionsResponse]
}

// NewLedgerServiceClient creates a client for the service at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)

	return &LedgerServiceClient{
		addExpense:           connect.NewClient[AddExpenseRequest, AddExpenseResponse](httpClient, baseURL+AddExpenseProcedure, opts...),
		updateExpense:        connect.NewClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL+UpdateExpenseProcedure, opts...),
		recordSettlement:     connect.NewClient[RecordSettlementRequest, RecordSettlementResponse](httpClient, baseURL+RecordSettlementProcedure, opts...),
		recordDebtSettlement: connect.NewClient[RecordDebtSettlementRequest, RecordDebtSettlementResponse](httpClient, baseURL+RecordDebtSettlementProcedure, opts...),
		getBalances:          connect.NewClient[GroupRequest, GetBalancesResponse](httpClient, baseURL+GetBalancesProcedure, opts...),
		getSimplifiedDebts:   connect.NewClient[GroupRequest, GetSimplifiedDebtsResponse](httpClient, baseURL+GetSimplifiedDebtsProcedure, opts...),
		getDebtsWithDetails:  connect.NewClient[GroupRequest, GetDebtsWithDetailsResponse](httpClient, baseURL+GetDebtsWithDetailsProcedure, opts...),
		getGroupSummary:      connect.NewClient[GroupRequest, GetGroupSummaryResponse](httpClient, baseURL+GetGroupSummaryProcedure, opts...),
		listExpenses:         connect.NewClient[GroupRequest, ListExpensesResponse](httpClient, baseURL+ListExpensesProcedure, opts...),
		getExpenseHistory:    connect.NewClient[GetExpenseHistoryRequest, GetExpenseHistoryResponse](httpClient, baseURL+GetExpenseHistoryProcedure, opts...),
		listTransactions:     connect.NewClient[GroupRequest, ListTransactionsResponse](httpClient, baseURL+ListTransactionsProcedure, opts...),
	}
}

func (c *LedgerServiceClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordDebtSettlement(ctx context.Context, req *connect.Request[RecordDebtSettlementRequest]) (*connect.Response[RecordDebtSettlementResponse], error) {
	return c.recordDebtSettlement.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetSimplifiedDebts(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GetSimplifiedDebtsResponse], error) {
	return c.getSimplifiedDebts.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetDebtsWithDetails(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GetDebtsWithDetailsResponse], error) {
	return c.getDebtsWithDetails.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetGroupSummary(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GetGroupSummaryResponse], error) {
	return c.getGroupSummary.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetExpenseHistory(ctx context.Context, req *connect.Request[GetExpenseHistoryRequest]) (*connect.Response[GetExpenseHistoryResponse], error) {
	return c.getExpenseHistory.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListTransactions(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}
