package shopapi_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"clothshop/internal/apiclient"
	"clothshop/internal/backendfake"
	"clothshop/internal/domain"
	"clothshop/internal/repos/repofake"
	"clothshop/internal/session"
	"clothshop/internal/shopapi"
)

func newAPI(t *testing.T) (*backendfake.Server, *shopapi.API) {
	t.Helper()
	srv := backendfake.New()
	t.Cleanup(srv.Close)

	mgr := session.NewManager("sid", repofake.NewMemoryStore(), apiclient.NewAuth(srv.URL, srv.Client()), session.Options{})
	user := domain.User{ID: 1, Name: "Bilal", Role: domain.RoleSalesperson}
	access, refresh := srv.IssueTokens(user)
	require.NoError(t, mgr.Login(context.Background(), domain.AuthResponse{
		AccessToken: access, RefreshToken: refresh, User: user, Tenant: domain.Tenant{ID: 1, Name: "Shop"},
	}))
	return srv, shopapi.New(apiclient.New(srv.URL, srv.Client(), mgr))
}

func TestVarietyCRUD(t *testing.T) {
	_, api := newAPI(t)
	ctx := context.Background()

	created, err := api.Varieties.Create(ctx, domain.Variety{Name: "Khaddar", Unit: domain.UnitMeters, DefaultPrice: 600})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	created.DefaultPrice = 650
	updated, err := api.Varieties.Update(ctx, created.ID, created)
	require.NoError(t, err)
	require.Equal(t, 650.0, updated.DefaultPrice)

	got, err := api.Varieties.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Khaddar", got.Name)

	require.NoError(t, api.Varieties.Delete(ctx, created.ID))
	list, err := api.Varieties.List(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = api.Varieties.Get(ctx, created.ID)
	require.True(t, apiclient.IsStatus(err, 404))
	require.Contains(t, err.Error(), "get variety")
}

func TestInventoryFilterByVariety(t *testing.T) {
	srv, api := newAPI(t)
	srv.Seed(backendfake.Inventory,
		domain.SupplierInventory{VarietyID: 1, SupplierID: 1, Quantity: 10, RemainingQuantity: 4},
		domain.SupplierInventory{VarietyID: 2, SupplierID: 1, Quantity: 5, RemainingQuantity: 5},
	)

	lots, err := api.Inventory.List(context.Background(), shopapi.ByVariety(2))
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.Equal(t, int64(2), lots[0].VarietyID)

	all, err := api.Inventory.List(context.Background(), shopapi.ByVariety(0))
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestLoanPayments(t *testing.T) {
	srv, api := newAPI(t)
	srv.Seed(backendfake.Loans, domain.Loan{ID: 5, CustomerName: "Nadia", Amount: 1000, Status: "unpaid"})
	ctx := context.Background()

	_, err := api.Loans.AddPayment(ctx, 5, domain.LoanPayment{Amount: 400})
	require.NoError(t, err)

	payments, err := api.Loans.Payments(ctx, 5)
	require.NoError(t, err)
	require.Len(t, payments, 1)

	loan, err := api.Loans.Get(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 600.0, loan.Outstanding())
	require.Equal(t, "partial", loan.Status)

	_, err = api.Loans.AddPayment(ctx, 5, domain.LoanPayment{Amount: 700})
	require.Error(t, err)
	require.Equal(t, "Payment exceeds outstanding balance", apiclient.Detail(err))
}

func TestAIAndVoice(t *testing.T) {
	srv, api := newAPI(t)
	srv.Seed(backendfake.Varieties, domain.Variety{Name: "Lawn"})
	ctx := context.Background()

	reply, err := api.AI.Chat(ctx, domain.ChatRequest{Message: "how are sales?"})
	require.NoError(t, err)
	require.Equal(t, srv.ChatReply, reply.Reply)

	forecast, err := api.AI.DemandForecast(ctx, 7)
	require.NoError(t, err)
	require.Len(t, forecast, 1)
	require.Equal(t, "Lawn", forecast[0].VarietyName)

	tr, err := api.Voice.Transcribe(ctx, "sale.webm", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	draft, err := api.Voice.Validate(ctx, tr.Text)
	require.NoError(t, err)
	require.True(t, draft.Valid)
	require.Equal(t, "Lawn", draft.VarietyName)
}
