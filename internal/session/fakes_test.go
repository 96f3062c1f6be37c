package session

import (
	"context"
	"sync"

	"clothshop/internal/domain"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]map[string]string{}} }

func (s *memStore) Load(_ context.Context, ns string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for k, v := range s.data[ns] {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Save(_ context.Context, ns string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[ns] == nil {
		s.data[ns] = map[string]string{}
	}
	for k, v := range values {
		s.data[ns][k] = v
	}
	return nil
}

func (s *memStore) Clear(_ context.Context, ns string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, ns)
	return nil
}

func (s *memStore) raw(ns, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[ns][key]
}

type fakeAuth struct {
	mu           sync.Mutex
	refreshCalls int
	meCalls      int
	refreshErr   error
	meErr        error
	newToken     string
	expiresIn    int64
	// gate, when set, blocks Refresh until closed.
	gate chan struct{}
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (domain.RefreshResponse, error) {
	f.mu.Lock()
	f.refreshCalls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.refreshErr != nil {
		return domain.RefreshResponse{}, f.refreshErr
	}
	return domain.RefreshResponse{AccessToken: f.newToken, ExpiresIn: f.expiresIn}, nil
}

func (f *fakeAuth) Me(ctx context.Context, accessToken string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.meErr != nil {
		return domain.User{}, f.meErr
	}
	return domain.User{ID: 1, Name: "Amina", Role: domain.RoleOwner}, nil
}

func (f *fakeAuth) counts() (refresh, me int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls, f.meCalls
}
