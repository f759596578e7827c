package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthOK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	require.NoError(t, c.Health(context.Background()))
}

func TestHealthBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL, 5*time.Second).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHealthUnreachable(t *testing.T) {
	t.Parallel()

	// Port reserved then closed; nothing listens there.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url, time.Second).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestSubmitPayload(t *testing.T) {
	t.Parallel()

	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crawl", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", 5*time.Second) // trailing slash is trimmed
	err := c.Submit(context.Background(), Request{
		URL:        "https://nuxt.com/docs",
		MaxPages:   3,
		SameDomain: true,
		UseBrowser: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://nuxt.com/docs", got.URL)
	assert.Equal(t, 3, got.MaxPages)
	assert.True(t, got.SameDomain)
	assert.True(t, got.UseBrowser)
}

func TestSubmitWireFieldNames(t *testing.T) {
	t.Parallel()

	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := New(srv.URL, 5*time.Second).Submit(context.Background(), Request{URL: "http://a.com/1", MaxPages: 1})
	require.NoError(t, err)

	for _, key := range []string{"url", "max_pages", "same_domain", "use_browser"} {
		assert.Contains(t, raw, key)
	}
}

func TestSubmitNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "queue full", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := New(srv.URL, 5*time.Second).Submit(context.Background(), Request{URL: "http://a.com/1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429")
}

func TestSubmitTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	err := New(srv.URL, 50*time.Millisecond).Submit(context.Background(), Request{URL: "http://slow.com/1"})
	require.Error(t, err)
}
