package openlib

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server, opts Options) *Client {
	client := NewClient(opts)
	client.httpClient = server.Client()
	client.sleep = func(time.Duration) {}
	return client
}

func TestFetchReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("User-Agent"), "booksanon")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient(server, Options{Contact: "test@example.com"})
	body := client.Fetch(context.Background(), server.URL)
	require.JSONEq(t, `{"ok":true}`, string(body))
}

func TestFetchRetryBound(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server, Options{MaxRetries: 3})
	body := client.Fetch(context.Background(), server.URL)

	require.Nil(t, body, "exhausted retries return nil, not an error")
	require.Equal(t, int32(3), attempts.Load(), "exactly MaxRetries attempts")
}

func TestFetchRecoversMidRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			http.Error(w, "not yet", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`"recovered"`))
	}))
	defer server.Close()

	sleeps := 0
	client := newTestClient(server, Options{MaxRetries: 3, RetryDelay: time.Second})
	client.sleep = func(d time.Duration) {
		require.Equal(t, time.Second, d)
		sleeps++
	}

	body := client.Fetch(context.Background(), server.URL)
	require.NotNil(t, body)
	require.Equal(t, int32(3), attempts.Load())
	require.Equal(t, 2, sleeps, "fixed delay between attempts, none after success")
}

func TestFetchConcurrencyCap(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server, Options{MaxConcurrent: 2})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NotNil(t, client.Fetch(context.Background(), server.URL))
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, peak.Load(), int32(2), "never more than MaxConcurrent in flight")
}

func TestFetchStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "always failing", http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(server, Options{MaxRetries: 10})
	client.sleep = func(time.Duration) { cancel() }

	require.Nil(t, client.Fetch(ctx, server.URL))
}

func TestCloseIsIdempotent(t *testing.T) {
	client := NewClient(Options{})
	client.Close()
	client.Close()
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	require.Equal(t, 3, opts.MaxConcurrent)
	require.Equal(t, 3, opts.MaxRetries)
	require.Equal(t, 3*time.Second, opts.RetryDelay)
	require.Equal(t, 10*time.Second, opts.Timeout)
}
