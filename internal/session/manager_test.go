package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"clothshop/internal/domain"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func loginResponse() domain.AuthResponse {
	return domain.AuthResponse{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    1800,
		User:         domain.User{ID: 1, Name: "Amina", Role: domain.RoleOwner},
		Tenant:       domain.Tenant{ID: 7, Name: "Amina Fabrics"},
	}
}

func newLoggedIn(t *testing.T, store Store, auth AuthBackend) *Manager {
	t.Helper()
	m := NewManager("sid-1", store, auth, Options{Now: clock})
	require.NoError(t, m.Login(context.Background(), loginResponse()))
	return m
}

func okResponse() *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}
}

func waitForQueue(t *testing.T, m *Manager, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		got := len(m.queue)
		m.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("queue never reached %d entries", n)
}

func TestConcurrentUnauthorizedRefreshOnceReplayFIFO(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{newToken: "access-2", expiresIn: 1800, gate: make(chan struct{})}
	m := newLoggedIn(t, store, auth)

	var mu sync.Mutex
	var order []int
	var tokens []string
	replayFor := func(i int) Replay {
		return func(ctx context.Context, token string) (*http.Response, error) {
			mu.Lock()
			order = append(order, i)
			tokens = append(tokens, token)
			mu.Unlock()
			return okResponse(), nil
		}
	}

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := m.RecoverUnauthorized(context.Background(), "access-1", replayFor(i))
			if resp != nil {
				resp.Body.Close()
			}
			errs[i] = err
		}(i)
		if i == 0 {
			// the first caller owns the refresh
			require.Eventually(t, func() bool { r, _ := auth.counts(); return r == 1 }, 2*time.Second, time.Millisecond)
		} else {
			waitForQueue(t, m, i)
		}
	}
	close(auth.gate)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}
	refreshes, _ := auth.counts()
	require.Equal(t, 1, refreshes)
	require.Equal(t, []int{1, 2, 3, 4, 0}, order, "parked requests replay in arrival order before the refreshing one")
	for _, tok := range tokens {
		require.Equal(t, "access-2", tok)
	}
	require.Equal(t, "access-2", m.AccessToken())
	require.Equal(t, "access-2", store.raw("sid-1", KeyAccessToken))
}

func TestRefreshFailureRejectsQueueAndClearsStorage(t *testing.T) {
	store := newMemStore()
	boom := errors.New("refresh rejected")
	auth := &fakeAuth{refreshErr: boom, gate: make(chan struct{})}
	m := newLoggedIn(t, store, auth)

	replays := 0
	var mu sync.Mutex
	replay := func(ctx context.Context, token string) (*http.Response, error) {
		mu.Lock()
		replays++
		mu.Unlock()
		return okResponse(), nil
	}

	const n = 3
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.RecoverUnauthorized(context.Background(), "access-1", replay)
		}(i)
		if i == 0 {
			require.Eventually(t, func() bool { r, _ := auth.counts(); return r == 1 }, 2*time.Second, time.Millisecond)
		} else {
			waitForQueue(t, m, i)
		}
	}
	close(auth.gate)
	wg.Wait()

	for i, err := range errs {
		require.Error(t, err, "request %d", i)
		require.ErrorIs(t, err, boom)
		require.ErrorIs(t, err, ErrSessionEnded)
	}
	require.Zero(t, replays)
	require.Equal(t, StateAnonymous, m.State())
	require.Empty(t, m.AccessToken())

	vals, _ := store.Load(context.Background(), "sid-1")
	require.Empty(t, vals, "no stale tokens may remain")
}

func TestMissingRefreshTokenLogsOutWithoutNetwork(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{newToken: "never"}
	m := NewManager("sid-1", store, auth, Options{Now: clock})
	res := loginResponse()
	res.RefreshToken = ""
	require.NoError(t, m.Login(context.Background(), res))

	_, err := m.RecoverUnauthorized(context.Background(), "access-1", func(ctx context.Context, token string) (*http.Response, error) {
		t.Fatal("replay must not run")
		return nil, nil
	})
	require.ErrorIs(t, err, ErrNoRefreshToken)
	require.ErrorIs(t, err, ErrSessionEnded)

	refreshes, _ := auth.counts()
	require.Zero(t, refreshes)
	require.Equal(t, StateAnonymous, m.State())
}

func TestReplayGetsOnlyOneChance(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{newToken: "access-2", expiresIn: 60}
	m := newLoggedIn(t, store, auth)

	calls := 0
	resp, err := m.RecoverUnauthorized(context.Background(), "access-1", func(ctx context.Context, token string) (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: http.StatusUnauthorized, Body: io.NopCloser(strings.NewReader(""))}, nil
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 1, calls)
	refreshes, _ := auth.counts()
	require.Equal(t, 1, refreshes)
}

func TestLogoutDuringRefreshKeepsSessionSignedOut(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{newToken: "access-2", expiresIn: 1800, gate: make(chan struct{})}
	m := newLoggedIn(t, store, auth)

	done := make(chan error, 1)
	go func() { done <- m.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { r, _ := auth.counts(); return r == 1 }, 2*time.Second, time.Millisecond)

	require.NoError(t, m.Logout(context.Background()))
	close(auth.gate)

	err := <-done
	require.ErrorIs(t, err, ErrSessionEnded)
	require.Equal(t, StateAnonymous, m.State())
	require.Empty(t, m.AccessToken())
	require.Empty(t, store.raw("sid-1", KeyAccessToken))
	require.Empty(t, store.raw("sid-1", KeyTokenExpiry))
	vals, _ := store.Load(context.Background(), "sid-1")
	require.Empty(t, vals)
}

func TestStaleTokenReplaysWithoutSecondRefresh(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{newToken: "access-2", expiresIn: 1800}
	m := newLoggedIn(t, store, auth)
	require.NoError(t, m.Refresh(context.Background()))

	// this request went out with access-1 before the refresh finished
	var used string
	resp, err := m.RecoverUnauthorized(context.Background(), "access-1", func(ctx context.Context, token string) (*http.Response, error) {
		used = token
		return okResponse(), nil
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "access-2", used)
	refreshes, _ := auth.counts()
	require.Equal(t, 1, refreshes)

	// a 401 on the current token still refreshes
	auth.newToken = "access-3"
	resp, err = m.RecoverUnauthorized(context.Background(), "access-2", func(ctx context.Context, token string) (*http.Response, error) {
		used = token
		return okResponse(), nil
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "access-3", used)
	refreshes, _ = auth.counts()
	require.Equal(t, 2, refreshes)
}

func TestInitRestoresOnlyWhenMeSucceeds(t *testing.T) {
	store := newMemStore()
	first := newLoggedIn(t, store, &fakeAuth{})

	// a reload builds a fresh manager over the same storage
	ok := &fakeAuth{}
	reloaded := NewManager(first.ID(), store, ok, Options{Now: clock})
	require.Equal(t, StateAuthenticated, reloaded.Init(context.Background()))
	require.Equal(t, "Amina", reloaded.User().Name)
	require.Equal(t, int64(7), reloaded.Tenant().ID)
	require.Equal(t, "access-1", reloaded.AccessToken())
	_, me := ok.counts()
	require.Equal(t, 1, me)

	rejected := &fakeAuth{meErr: errors.New("401")}
	again := NewManager(first.ID(), store, rejected, Options{Now: clock})
	require.Equal(t, StateAnonymous, again.Init(context.Background()))
	vals, _ := store.Load(context.Background(), first.ID())
	require.Empty(t, vals)
}

func TestInitWithPastExpiryClearsWithoutCalls(t *testing.T) {
	store := newMemStore()
	newLoggedIn(t, store, &fakeAuth{})

	later := func() time.Time { return fixedNow.Add(time.Hour) }
	auth := &fakeAuth{}
	m := NewManager("sid-1", store, auth, Options{Now: later})
	require.Equal(t, StateAnonymous, m.Init(context.Background()))

	refreshes, me := auth.counts()
	require.Zero(t, refreshes)
	require.Zero(t, me)
	vals, _ := store.Load(context.Background(), "sid-1")
	require.Empty(t, vals)
}

func TestInitWithoutStoredSessionIsAnonymous(t *testing.T) {
	auth := &fakeAuth{}
	m := NewManager("fresh", newMemStore(), auth, Options{Now: clock})
	require.Equal(t, StateAnonymous, m.Init(context.Background()))
	_, me := auth.counts()
	require.Zero(t, me)
}

func TestLoginExpiryFallsBackToJWTClaim(t *testing.T) {
	exp := fixedNow.Add(12 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix(), "sub": "1"}).
		SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	m := NewManager("sid-jwt", newMemStore(), &fakeAuth{}, Options{Now: clock, DefaultTTL: time.Hour})
	res := loginResponse()
	res.AccessToken = signed
	res.ExpiresIn = 0
	require.NoError(t, m.Login(context.Background(), res))
	require.True(t, m.Expiry().Equal(exp), "want %s got %s", exp, m.Expiry())

	opaque := NewManager("sid-opaque", newMemStore(), &fakeAuth{}, Options{Now: clock, DefaultTTL: time.Hour})
	res.AccessToken = "opaque"
	require.NoError(t, opaque.Login(context.Background(), res))
	require.True(t, opaque.Expiry().Equal(fixedNow.Add(time.Hour)))
}

func TestRefreshIfExpiring(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{newToken: "access-2", expiresIn: 1800}
	m := newLoggedIn(t, store, auth) // expires at now+30m

	refreshed, err := m.RefreshIfExpiring(context.Background(), 5*time.Minute)
	require.NoError(t, err)
	require.False(t, refreshed)

	refreshed, err = m.RefreshIfExpiring(context.Background(), 31*time.Minute)
	require.NoError(t, err)
	require.True(t, refreshed)
	require.Equal(t, "access-2", m.AccessToken())
}

func TestPrefs(t *testing.T) {
	m := newLoggedIn(t, newMemStore(), &fakeAuth{})
	ctx := context.Background()
	require.NoError(t, m.SetPref(ctx, PrefLastSalesperson, "Yusuf"))
	require.Equal(t, "Yusuf", m.Pref(ctx, PrefLastSalesperson))
	require.ErrorIs(t, m.SetPref(ctx, KeyAccessToken, "x"), ErrUnknownPref)

	require.NoError(t, m.Logout(ctx))
	require.Empty(t, m.Pref(ctx, PrefLastSalesperson))
	require.False(t, m.Authenticated())
}
