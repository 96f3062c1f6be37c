// Package session keeps one browser's backend session: the token pair, the
// signed-in user and tenant, and the single refresh coordination point that
// both the 401 recovery path and the proactive sweeper go through.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"clothshop/internal/domain"
	applog "clothshop/internal/log"
)

type State int

const (
	StateUnknown State = iota
	StateRestoring
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// AuthBackend is the unauthenticated part of the REST API the session needs.
type AuthBackend interface {
	Refresh(ctx context.Context, refreshToken string) (domain.RefreshResponse, error)
	Me(ctx context.Context, accessToken string) (domain.User, error)
}

// Replay re-sends one request with the given access token.
type Replay func(ctx context.Context, accessToken string) (*http.Response, error)

type Options struct {
	// DefaultTTL applies when neither expires_in nor a JWT exp claim is available.
	DefaultTTL time.Duration
	Now        func() time.Time
}

type outcome struct {
	resp *http.Response
	err  error
}

type parked struct {
	ctx    context.Context
	replay Replay
	done   chan outcome
}

type Manager struct {
	id    string
	store Store
	auth  AuthBackend
	ttl   time.Duration
	now   func() time.Time

	initOnce sync.Once

	// writeMu orders token writes to the store so a refresh that lost a race
	// with Logout never lands after the clear.
	writeMu sync.Mutex

	mu          sync.Mutex
	gen         uint64
	state       State
	user        domain.User
	tenant      domain.Tenant
	accessToken string
	expiry      time.Time
	refreshing  bool
	queue       []*parked
	disposed    bool
}

func NewManager(id string, store Store, auth AuthBackend, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 30 * time.Minute
	}
	return &Manager{id: id, store: store, auth: auth, ttl: opts.DefaultTTL, now: opts.Now}
}

func (m *Manager) ID() string { return m.id }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Authenticated() bool { return m.State() == StateAuthenticated }

func (m *Manager) User() domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

func (m *Manager) Tenant() domain.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenant
}

func (m *Manager) Expiry() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiry
}

// AccessToken returns the current bearer token, empty when signed out.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken
}

// Init restores the session from durable storage once per manager.
func (m *Manager) Init(ctx context.Context) State {
	m.initOnce.Do(func() { m.restore(ctx) })
	return m.State()
}

func (m *Manager) restore(ctx context.Context) {
	vals, err := m.store.Load(ctx, m.id)
	if err != nil {
		applog.Error(nil, "session.restore.load", err, map[string]any{"sid": m.id})
		m.setAnonymous()
		return
	}

	if raw, ok := vals[KeyTokenExpiry]; ok {
		if exp, ok := parseExpiry(raw); ok && !m.now().Before(exp) {
			m.clear(ctx, "expired")
			return
		}
	}

	token, userJSON, tenantJSON := vals[KeyAccessToken], vals[KeyUser], vals[KeyTenant]
	if token == "" || userJSON == "" || tenantJSON == "" {
		m.setAnonymous()
		return
	}

	m.mu.Lock()
	m.state = StateRestoring
	m.mu.Unlock()

	var user domain.User
	var tenant domain.Tenant
	if json.Unmarshal([]byte(userJSON), &user) != nil || json.Unmarshal([]byte(tenantJSON), &tenant) != nil {
		m.clear(ctx, "corrupt_profile")
		return
	}

	if _, err := m.auth.Me(ctx, token); err != nil {
		applog.Security(nil, "session.restore.rejected", map[string]any{"sid": m.id, "err": err.Error()})
		m.clear(ctx, "me_failed")
		return
	}

	exp, _ := parseExpiry(vals[KeyTokenExpiry])
	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = user
	m.tenant = tenant
	m.accessToken = token
	m.expiry = exp
	m.mu.Unlock()
	applog.Info(nil, "session.restore.ok", map[string]any{"sid": m.id, "user_id": user.ID})
}

// Login stores a fresh token pair with its profile and marks the session authenticated.
func (m *Manager) Login(ctx context.Context, res domain.AuthResponse) error {
	m.initOnce.Do(func() {})

	expiry := tokenExpiry(m.now(), res.AccessToken, res.ExpiresIn, m.ttl)
	userJSON, err := json.Marshal(res.User)
	if err != nil {
		return err
	}
	tenantJSON, err := json.Marshal(res.Tenant)
	if err != nil {
		return err
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.bump()
	if err := m.store.Save(ctx, m.id, map[string]string{
		KeyAccessToken:  res.AccessToken,
		KeyRefreshToken: res.RefreshToken,
		KeyUser:         string(userJSON),
		KeyTenant:       string(tenantJSON),
		KeyTokenExpiry:  formatExpiry(expiry),
	}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = res.User
	m.tenant = res.Tenant
	m.accessToken = res.AccessToken
	m.expiry = expiry
	m.mu.Unlock()
	return nil
}

func (m *Manager) Logout(ctx context.Context) error {
	m.initOnce.Do(func() {})
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.bump()
	if err := m.store.Clear(ctx, m.id); err != nil {
		return err
	}
	m.setAnonymous()
	return nil
}

// RecoverUnauthorized is called once by a request that got a 401. If a
// refresh is already running the request is parked; parked requests are
// replayed in arrival order with the new token once the refresh succeeds, or
// all rejected with the refresh error when it fails. Otherwise this call
// performs the refresh itself and replays its own request last.
//
// usedToken is the token the failed request carried. When the session already
// holds a different one, a refresh finished after that request went out and
// it is replayed straight away with the current token.
//
// A nil replay only refreshes.
func (m *Manager) RecoverUnauthorized(ctx context.Context, usedToken string, replay Replay) (*http.Response, error) {
	m.mu.Lock()
	if !m.refreshing && usedToken != "" && m.accessToken != "" && m.accessToken != usedToken {
		current := m.accessToken
		m.mu.Unlock()
		if replay == nil {
			return nil, nil
		}
		return replay(ctx, current)
	}
	if m.refreshing {
		p := &parked{ctx: ctx, replay: replay, done: make(chan outcome, 1)}
		m.queue = append(m.queue, p)
		m.mu.Unlock()
		select {
		case out := <-p.done:
			return out.resp, out.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.refreshing = true
	m.mu.Unlock()

	// A dropped browser connection must not end the session for everyone parked behind it.
	token, err := m.refresh(context.WithoutCancel(ctx))

	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.refreshing = false
	m.mu.Unlock()

	if err != nil {
		for _, p := range queue {
			p.done <- outcome{err: err}
		}
		return nil, err
	}

	for _, p := range queue {
		if p.replay == nil {
			p.done <- outcome{}
			continue
		}
		resp, rerr := p.replay(p.ctx, token)
		if p.ctx.Err() != nil && resp != nil {
			// nobody is waiting for this one any more
			resp.Body.Close()
			resp = nil
		}
		p.done <- outcome{resp: resp, err: rerr}
	}

	if replay == nil {
		return nil, nil
	}
	return replay(ctx, token)
}

// Refresh forces a token refresh through the shared coordination point.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err := m.RecoverUnauthorized(ctx, "", nil)
	return err
}

// RefreshIfExpiring refreshes when the stored expiry falls within leeway.
// It reports whether a refresh was attempted.
func (m *Manager) RefreshIfExpiring(ctx context.Context, leeway time.Duration) (bool, error) {
	m.mu.Lock()
	state, expiry := m.state, m.expiry
	m.mu.Unlock()
	if state != StateAuthenticated || expiry.IsZero() {
		return false, nil
	}
	if m.now().Add(leeway).Before(expiry) {
		return false, nil
	}
	return true, m.Refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	vals, err := m.store.Load(ctx, m.id)
	if err != nil {
		m.clear(ctx, "refresh_load_failed")
		return "", fmt.Errorf("%w: %w", ErrSessionEnded, err)
	}
	rt := vals[KeyRefreshToken]
	if rt == "" {
		m.clear(ctx, "missing_refresh_token")
		return "", ErrNoRefreshToken
	}

	res, err := m.auth.Refresh(ctx, rt)
	if err == nil && res.AccessToken == "" {
		err = fmt.Errorf("empty access token on refresh")
	}
	if err != nil {
		applog.Security(nil, "session.refresh.fail", map[string]any{"sid": m.id, "err": err.Error()})
		if m.current(gen) {
			m.clear(ctx, "refresh_failed")
		}
		return "", fmt.Errorf("%w: %w", ErrSessionEnded, err)
	}

	expiry := tokenExpiry(m.now(), res.AccessToken, res.ExpiresIn, m.ttl)
	m.writeMu.Lock()
	if !m.current(gen) {
		m.writeMu.Unlock()
		applog.Security(nil, "session.refresh.discarded", map[string]any{"sid": m.id})
		return "", fmt.Errorf("%w: signed out during refresh", ErrSessionEnded)
	}
	if err := m.store.Save(ctx, m.id, map[string]string{
		KeyAccessToken: res.AccessToken,
		KeyTokenExpiry: formatExpiry(expiry),
	}); err != nil {
		m.writeMu.Unlock()
		m.clear(ctx, "refresh_save_failed")
		return "", fmt.Errorf("%w: %w", ErrSessionEnded, err)
	}
	m.mu.Lock()
	m.accessToken = res.AccessToken
	m.expiry = expiry
	m.mu.Unlock()
	m.writeMu.Unlock()
	applog.Info(nil, "session.refresh.ok", map[string]any{"sid": m.id})
	return res.AccessToken, nil
}

// Pref reads a remembered form choice.
func (m *Manager) Pref(ctx context.Context, key string) string {
	if !prefKeys[key] {
		return ""
	}
	vals, err := m.store.Load(ctx, m.id)
	if err != nil {
		return ""
	}
	return vals[key]
}

func (m *Manager) SetPref(ctx context.Context, key, value string) error {
	if !prefKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnknownPref, key)
	}
	return m.store.Save(ctx, m.id, map[string]string{key: value})
}

// Dispose marks the manager unusable; the registry drops it.
func (m *Manager) Dispose() {
	m.mu.Lock()
	m.disposed = true
	m.mu.Unlock()
}

func (m *Manager) Disposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

func (m *Manager) clear(ctx context.Context, reason string) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.bump()
	if err := m.store.Clear(ctx, m.id); err != nil {
		applog.Error(nil, "session.clear.fail", err, map[string]any{"sid": m.id, "reason": reason})
	}
	m.setAnonymous()
	applog.Security(nil, "session.cleared", map[string]any{"sid": m.id, "reason": reason})
}

func (m *Manager) bump() {
	m.mu.Lock()
	m.gen++
	m.mu.Unlock()
}

// current reports whether nothing signed the session in or out since gen was read.
func (m *Manager) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen == gen && m.state != StateAnonymous
}

func (m *Manager) setAnonymous() {
	m.mu.Lock()
	m.state = StateAnonymous
	m.user = domain.User{}
	m.tenant = domain.Tenant{}
	m.accessToken = ""
	m.expiry = time.Time{}
	m.mu.Unlock()
}
