package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistryGetReusesManager(t *testing.T) {
	reg := NewRegistry(newMemStore(), &fakeAuth{}, Options{Now: clock})
	a := reg.Get(context.Background(), "sid-a")
	b := reg.Get(context.Background(), "sid-a")
	require.Same(t, a, b)
	require.Equal(t, StateAnonymous, a.State())

	reg.Dispose("sid-a")
	require.True(t, a.Disposed())
	require.NotSame(t, a, reg.Get(context.Background(), "sid-a"))
}

func TestRegistrySweep(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{newToken: "access-2", expiresIn: 1800}
	reg := NewRegistry(store, auth, Options{Now: clock})
	ctx := context.Background()

	anon := reg.Get(ctx, "sid-anon")
	active := reg.Get(ctx, "sid-active")
	require.NoError(t, active.Login(ctx, loginResponse()))
	require.Equal(t, 2, reg.Len())

	// expiry is 30m away; a 40m leeway makes it due
	reg.Sweep(ctx, 40*time.Minute)

	require.True(t, anon.Disposed())
	require.Equal(t, 1, reg.Len())
	refreshes, _ := auth.counts()
	require.Equal(t, 1, refreshes)
	require.Equal(t, "access-2", active.AccessToken())

	reg.Sweep(ctx, time.Minute)
	refreshes, _ = auth.counts()
	require.Equal(t, 1, refreshes, "not due yet")
}

func TestRegistryRunStopsOnCancel(t *testing.T) {
	reg := NewRegistry(newMemStore(), &fakeAuth{}, Options{Now: clock})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, 5*time.Millisecond, time.Minute)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
