package api

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	const callers = 5

	var refreshes atomic.Int32
	arrived := make(chan struct{}, callers)
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/access/access-logs/recent/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer fresh" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		arrived <- struct{}{}
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"access":"fresh"}`))
	})
	store := newStore(t, "stale", "refresh-1")
	client, _ := newTestClient(t, mux, Options{Session: store})

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Do(context.Background(), &Request{Path: "/access/access-logs/recent/"})
		}(i)
	}
	for range callers {
		<-arrived
	}
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, refreshes.Load())
	tok, _ := store.AccessToken()
	require.Equal(t, "fresh", tok)
}

func TestDo_RotatedTokenReplaysWithoutExchange(t *testing.T) {
	var refreshes atomic.Int32
	store := newStore(t, "stale", "refresh-1")

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer rotated" {
			_, _ = w.Write([]byte(`{"id":1}`))
			return
		}
		// Another caller rotates the token while this request is in flight.
		require.NoError(t, store.SetTokens("rotated", ""))
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		_, _ = w.Write([]byte(`{"access":"other"}`))
	})
	client, _ := newTestClient(t, mux, Options{Session: store})

	var out struct {
		ID int `json:"id"`
	}
	require.NoError(t, client.Get(context.Background(), "/auth/me/", nil, &out))
	require.Equal(t, 1, out.ID)
	require.Zero(t, refreshes.Load())
}

func TestDo_RefreshResponseWithoutAccessTokenFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	store := newStore(t, "old", "refresh-1")
	client, _ := newTestClient(t, mux, Options{Session: store})

	err := client.Get(context.Background(), "/auth/me/", nil, nil)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, AuthExpired, Normalize(err).Kind)
	_, ok := store.AccessToken()
	require.False(t, ok)
}

func TestDo_CancelledCallerStopsWaitingForRefresh(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"access":"fresh"}`))
	})
	store := newStore(t, "old", "refresh-1")
	client, _ := newTestClient(t, mux, Options{Session: store})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Do(ctx, &Request{Path: "/auth/me/"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)

	// The shared exchange still completes for everyone else.
	unblock()
	require.Eventually(t, func() bool {
		tok, _ := store.AccessToken()
		return tok == "fresh"
	}, 2*time.Second, 10*time.Millisecond)
}
