package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"clothshop/internal/apiclient"
	"clothshop/internal/backendfake"
	"clothshop/internal/domain"
	"clothshop/internal/repos/repofake"
	"clothshop/internal/session"
)

var owner = domain.User{ID: 1, Name: "Asma", Email: "asma@shop.test", Role: domain.RoleOwner}

func signedIn(t *testing.T) (*backendfake.Server, *session.Manager, *repofake.MemoryStore, *apiclient.Client) {
	t.Helper()
	srv := backendfake.New()
	t.Cleanup(srv.Close)

	store := repofake.NewMemoryStore()
	auth := apiclient.NewAuth(srv.URL, srv.Client())
	mgr := session.NewManager("sid-1", store, auth, session.Options{})

	access, refresh := srv.IssueTokens(owner)
	err := mgr.Login(context.Background(), domain.AuthResponse{
		AccessToken: access, RefreshToken: refresh, ExpiresIn: 1800,
		User: owner, Tenant: domain.Tenant{ID: 1, Name: "Asma Fabrics"},
	})
	require.NoError(t, err)

	return srv, mgr, store, apiclient.New(srv.URL, srv.Client(), mgr)
}

func TestClientAttachesBearer(t *testing.T) {
	srv, _, _, client := signedIn(t)
	srv.Seed(backendfake.Varieties, domain.Variety{Name: "Lawn", Unit: domain.UnitMeters})

	var out []domain.Variety
	require.NoError(t, client.Get(context.Background(), "/varieties/", nil, &out))
	require.Len(t, out, 1)
	require.Equal(t, "Lawn", out[0].Name)
	require.Zero(t, srv.RefreshCalls())
}

func TestClientRefreshesAndRetriesOnce(t *testing.T) {
	srv, mgr, _, client := signedIn(t)
	srv.Seed(backendfake.Suppliers, domain.Supplier{Name: "Gul Ahmed"})
	before := mgr.AccessToken()
	srv.ExpireAccess()

	var out []domain.Supplier
	require.NoError(t, client.Get(context.Background(), "/suppliers/", nil, &out))
	require.Len(t, out, 1)
	require.Equal(t, 1, srv.RefreshCalls())
	require.NotEqual(t, before, mgr.AccessToken())
	require.Equal(t, 2, srv.CountRequests("GET /suppliers/"))
}

func TestConcurrentUnauthorizedAllRecover(t *testing.T) {
	srv, _, _, client := signedIn(t)
	srv.Seed(backendfake.Expenses, domain.Expense{Category: "rent", Amount: 100})
	srv.ExpireAccess()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out []domain.Expense
			errs <- client.Get(context.Background(), "/expenses/", nil, &out)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, srv.RefreshCalls(), 1)
	// every request is sent at most twice
	require.LessOrEqual(t, srv.CountRequests("GET /expenses/"), 16)
}

func TestPersistentUnauthorizedIsNotRetriedTwice(t *testing.T) {
	srv, _, _, client := signedIn(t)
	srv.AlwaysUnauthorized = true

	err := client.Get(context.Background(), "/sales/", nil, nil)
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	require.Equal(t, 2, srv.CountRequests("GET /sales/"))
	require.Equal(t, 1, srv.RefreshCalls())
}

func TestRefreshFailureEndsSession(t *testing.T) {
	srv, mgr, store, client := signedIn(t)
	srv.FailRefresh = true
	srv.ExpireAccess()

	err := client.Get(context.Background(), "/loans/", nil, nil)
	require.ErrorIs(t, err, session.ErrSessionEnded)
	require.False(t, mgr.Authenticated())
	require.Zero(t, store.Namespaces())
	require.Empty(t, mgr.AccessToken())
}

func TestRequestBodySurvivesReplay(t *testing.T) {
	srv, _, _, client := signedIn(t)
	srv.ExpireAccess()

	var created domain.Expense
	err := client.Post(context.Background(), "/expenses/", domain.Expense{Category: "utilities", Amount: 250}, &created)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "utilities", created.Category)
}

func TestUploadSendsMultipartAudio(t *testing.T) {
	srv, _, _, client := signedIn(t)
	var out domain.Transcript
	err := client.Upload(context.Background(), "/sales/voice/transcribe", "audio", "clip.webm", strings.NewReader("RIFF"), &out)
	require.NoError(t, err)
	require.Equal(t, srv.TranscribeText, out.Text)
}

func TestBackendDetailSurfaces(t *testing.T) {
	_, _, _, client := signedIn(t)
	err := client.Get(context.Background(), "/varieties/99", nil, nil)
	require.True(t, apiclient.IsStatus(err, http.StatusNotFound))
	require.Equal(t, "Not found", apiclient.Detail(err))
	require.False(t, errors.Is(err, apiclient.ErrUnauthorized))
}

func TestCancelledRequestLeavesSessionIntact(t *testing.T) {
	srv, mgr, _, client := signedIn(t)
	srv.ExpireAccess()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Get(ctx, "/varieties/", nil, nil)
	require.Error(t, err)

	// a fresh request still works with the stored refresh token
	require.NoError(t, client.Get(context.Background(), "/varieties/", nil, nil))
	require.True(t, mgr.Authenticated())
}
