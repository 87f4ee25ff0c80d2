package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/logging"
)

// asMember injects a fixed caller instead of validating a token.
func asMember(memberID string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return next(middleware.WithMemberID(ctx, memberID), req)
		}
	}
}

func setupHandler(t *testing.T, interceptors ...connect.Interceptor) (*fixture, *api.LedgerServiceClient) {
	t.Helper()

	f := setupLedger(t)
	path, handler := api.NewLedgerServiceHandler(
		NewLedgerHandler(f.svc, logging.Discard()),
		connect.WithInterceptors(interceptors...),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return f, api.NewLedgerServiceClient(server.Client(), server.URL)
}

func TestLedgerHandler_ExpenseLifecycle(t *testing.T) {
	f, client := setupHandler(t, asMember("u2"))
	ctx := context.Background()

	added, err := client.AddExpense(ctx, connect.NewRequest(&api.AddExpenseRequest{
		GroupID:     f.group.ID,
		Description: "Dinner",
		Amount:      dec("90"),
		PaidBy:      "u1",
		Date:        "2024-05-10",
		Splits: []api.Split{
			{MemberID: "u1", Amount: dec("30")},
			{MemberID: "u2", Amount: dec("30")},
			{MemberID: "u3", Amount: dec("30")},
		},
	}))
	require.NoError(t, err)
	expense := added.Msg.Expense
	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, "2024-05-10", expense.Date)
	assert.Len(t, expense.Splits, 3)

	desc := "Team dinner"
	updated, err := client.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseID:   expense.ID,
		Description: &desc,
	}))
	require.NoError(t, err)
	assert.Equal(t, "Team dinner", updated.Msg.Expense.Description)
	require.Len(t, updated.Msg.Changes, 1)
	assert.Equal(t, "u2", updated.Msg.Changes[0].ChangedBy)
	assert.Equal(t, "description", updated.Msg.Changes[0].Field)
	assert.Equal(t, "Dinner", updated.Msg.Changes[0].OldValue)

	settled, err := client.RecordSettlement(ctx, connect.NewRequest(&api.RecordSettlementRequest{
		GroupID:         f.group.ID,
		FromMemberID:    "u2",
		ToMemberID:      "u1",
		Amount:          dec("30"),
		LinkedExpenseID: expense.ID,
	}))
	require.NoError(t, err)
	assert.Equal(t, "u2", settled.Msg.Settlement.RecordedBy)
	assert.Equal(t, "Payment for expense: Team dinner", settled.Msg.Settlement.Note)

	history, err := client.GetExpenseHistory(ctx, connect.NewRequest(&api.GetExpenseHistoryRequest{ExpenseID: expense.ID}))
	require.NoError(t, err)
	require.Len(t, history.Msg.Changes, 2)
	assert.Equal(t, "payment", history.Msg.Changes[0].Kind)
	assert.Equal(t, "Bob paid 30.00 to Alice", history.Msg.Changes[0].Description)

	balances, err := client.GetBalances(ctx, connect.NewRequest(&api.GroupRequest{GroupID: f.group.ID}))
	require.NoError(t, err)
	require.Len(t, balances.Msg.Balances, 2, "settled members drop out")
	assert.Equal(t, "Alice", balances.Msg.Balances[0].Name)
	assert.Equal(t, "30.00", balances.Msg.Balances[0].Amount.StringFixed(2))
	assert.Equal(t, "Carol", balances.Msg.Balances[1].Name)
	assert.Equal(t, "-30.00", balances.Msg.Balances[1].Amount.StringFixed(2))

	debts, err := client.GetSimplifiedDebts(ctx, connect.NewRequest(&api.GroupRequest{GroupID: f.group.ID}))
	require.NoError(t, err)
	require.Len(t, debts.Msg.Debts, 1)
	assert.Equal(t, "Carol", debts.Msg.Debts[0].FromName)
	assert.Equal(t, "Alice", debts.Msg.Debts[0].ToName)

	list, err := client.ListExpenses(ctx, connect.NewRequest(&api.GroupRequest{GroupID: f.group.ID}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Expenses, 1)
	assert.False(t, list.Msg.Expenses[0].FullyPaid)

	txs, err := client.ListTransactions(ctx, connect.NewRequest(&api.GroupRequest{GroupID: f.group.ID}))
	require.NoError(t, err)
	assert.Len(t, txs.Msg.Transactions, 2)
}

func TestLedgerHandler_DebtSettlement(t *testing.T) {
	f, client := setupHandler(t, asMember("u2"))
	ctx := context.Background()

	a := f.addExpense(t, "Taxi", "u1", "20.00", day(5, 1), splits("u1", "10", "u2", "10"))
	b := f.addExpense(t, "Lunch", "u1", "40.00", day(5, 2), splits("u1", "20", "u2", "20"))

	details, err := client.GetDebtsWithDetails(ctx, connect.NewRequest(&api.GroupRequest{GroupID: f.group.ID}))
	require.NoError(t, err)
	require.Len(t, details.Msg.Debts, 1)
	assert.Equal(t, "30.00", details.Msg.Debts[0].Amount.StringFixed(2))
	assert.Len(t, details.Msg.Debts[0].Expenses, 2)

	resp, err := client.RecordDebtSettlement(ctx, connect.NewRequest(&api.RecordDebtSettlementRequest{
		GroupID:      f.group.ID,
		FromMemberID: "u2",
		ToMemberID:   "u1",
		Expenses: []api.ExpensePayment{
			{ExpenseID: a.ID, Amount: dec("10")},
			{ExpenseID: b.ID, Amount: dec("20")},
		},
	}))
	require.NoError(t, err)
	assert.Len(t, resp.Msg.Settlements, 2)

	summary, err := client.GetGroupSummary(ctx, connect.NewRequest(&api.GroupRequest{GroupID: f.group.ID}))
	require.NoError(t, err)
	assert.Equal(t, "Trip", summary.Msg.Group.Name)
	assert.Empty(t, summary.Msg.SimplifiedDebts)
	assert.Empty(t, summary.Msg.Debts)
}

func TestLedgerHandler_ErrorCodes(t *testing.T) {
	f, client := setupHandler(t, asMember("u1"))
	ctx := context.Background()

	_, err := client.GetBalances(ctx, connect.NewRequest(&api.GroupRequest{GroupID: "missing"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.GetBalances(ctx, connect.NewRequest(&api.GroupRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.AddExpense(ctx, connect.NewRequest(&api.AddExpenseRequest{
		GroupID:     f.group.ID,
		Description: "Taxi",
		Amount:      dec("10"),
		PaidBy:      "u1",
		Splits:      []api.Split{{MemberID: "u1", Amount: dec("5")}},
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.AddExpense(ctx, connect.NewRequest(&api.AddExpenseRequest{
		GroupID:     f.group.ID,
		Description: "Taxi",
		Amount:      dec("10"),
		PaidBy:      "u1",
		Date:        "10/05/2024",
		Splits:      []api.Split{{MemberID: "u1", Amount: dec("10")}},
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.GetExpenseHistory(ctx, connect.NewRequest(&api.GetExpenseHistoryRequest{ExpenseID: "missing"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.RecordDebtSettlement(ctx, connect.NewRequest(&api.RecordDebtSettlementRequest{
		GroupID:      f.group.ID,
		FromMemberID: "u2",
		ToMemberID:   "u1",
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestLedgerHandler_RequiresToken(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-0123456789", time.Hour)
	m := metrics.New()
	f, client := setupHandler(t,
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(logging.Discard(), m),
	)
	ctx := context.Background()

	_, err := client.GetBalances(ctx, connect.NewRequest(&api.GroupRequest{GroupID: f.group.ID}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	bad := connect.NewRequest(&api.GroupRequest{GroupID: f.group.ID})
	bad.Header().Set("Authorization", "Token abc")
	_, err = client.GetBalances(ctx, bad)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	token, err := jwtManager.Generate(&models.Member{ID: "u3", Name: "Carol"})
	require.NoError(t, err)

	req := connect.NewRequest(&api.GroupRequest{GroupID: f.group.ID})
	req.Header().Set("Authorization", "Bearer "+token)
	resp, err := client.GetBalances(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Balances)

	// Only the authenticated call reaches the logging interceptor.
	assert.Equal(t, 1, collectedSeries(t, m, "splitledger_rpc_requests_total"))
}

func collectedSeries(t *testing.T, m *metrics.Metrics, name string) int {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return len(mf.GetMetric())
		}
	}
	return 0
}
