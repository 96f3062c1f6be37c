package session

import (
	"context"
	"sync"
	"time"

	applog "clothshop/internal/log"
)

// Registry owns the live managers, one per browser session id.
type Registry struct {
	store Store
	auth  AuthBackend
	opts  Options

	mu       sync.Mutex
	sessions map[string]*Manager
}

func NewRegistry(store Store, auth AuthBackend, opts Options) *Registry {
	return &Registry{store: store, auth: auth, opts: opts, sessions: map[string]*Manager{}}
}

// Get returns the manager for sid, creating and initialising it on first use.
func (r *Registry) Get(ctx context.Context, sid string) *Manager {
	r.mu.Lock()
	m, ok := r.sessions[sid]
	if !ok || m.Disposed() {
		m = NewManager(sid, r.store, r.auth, r.opts)
		r.sessions[sid] = m
	}
	r.mu.Unlock()

	m.Init(ctx)
	return m
}

// Dispose drops the manager for sid. Durable state is left to Logout.
func (r *Registry) Dispose(sid string) {
	r.mu.Lock()
	m, ok := r.sessions[sid]
	delete(r.sessions, sid)
	r.mu.Unlock()
	if ok {
		m.Dispose()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep refreshes every authenticated session close to expiry and forgets
// anonymous ones; they restore from storage if the browser comes back.
func (r *Registry) Sweep(ctx context.Context, leeway time.Duration) {
	r.mu.Lock()
	live := make([]*Manager, 0, len(r.sessions))
	for sid, m := range r.sessions {
		if m.State() == StateAnonymous {
			delete(r.sessions, sid)
			m.Dispose()
			continue
		}
		live = append(live, m)
	}
	r.mu.Unlock()

	for _, m := range live {
		refreshed, err := m.RefreshIfExpiring(ctx, leeway)
		if err != nil {
			applog.Error(nil, "session.sweep.refresh", err, map[string]any{"sid": m.ID()})
			continue
		}
		if refreshed {
			applog.Info(nil, "session.sweep.refreshed", map[string]any{"sid": m.ID()})
		}
	}
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval, leeway time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(ctx, leeway)
		}
	}
}
