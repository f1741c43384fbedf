package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFetcher_Success verifies headers and document parsing
func TestFetcher_Success(t *testing.T) {
	var userAgent, accept, language string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		language = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><h1>Hello</h1><p>unclosed`)
	}))
	defer server.Close()

	doc, err := NewFetcher(Config{}).Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Find("h1").Text())
	assert.Equal(t, DefaultUserAgent, userAgent)
	assert.Contains(t, accept, "text/html")
	assert.Equal(t, "en-US,en;q=0.5", language)
}

// TestFetcher_DecodesCharset verifies bodies are converted to UTF-8
func TestFetcher_DecodesCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Café" in Latin-1
		_, _ = w.Write([]byte("<html><body><h1>Caf\xe9</h1></body></html>"))
	}))
	defer server.Close()

	doc, err := NewFetcher(Config{}).Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "Café", doc.Find("h1").Text())
}

// TestFetcher_RetriesThenSucceeds verifies transient failures are retried
func TestFetcher_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `<html><body><h1>Third time</h1></body></html>`)
	}))
	defer server.Close()

	fetcher := NewFetcher(Config{MaxRetries: 3, RetryDelay: time.Millisecond})
	doc, err := fetcher.Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "Third time", doc.Find("h1").Text())
	assert.Equal(t, int32(3), calls.Load())
}

// TestFetcher_Exhausted verifies a FetchError after every attempt fails
func TestFetcher_Exhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(Config{MaxRetries: 3, RetryDelay: time.Millisecond})
	_, err := fetcher.Fetch(context.Background(), server.URL+"/missing")

	require.Error(t, err)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.Equal(t, server.URL+"/missing", fetchErr.URL)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

// TestFetcher_Cancelled verifies retries stop when the context ends
func TestFetcher_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(Config{MaxRetries: 5, RetryDelay: time.Hour})
	_, err := fetcher.Fetch(ctx, server.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestLinearBackOff verifies delays grow by one step per attempt
func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{step: 2 * time.Second}

	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, 4*time.Second, b.NextBackOff())
	assert.Equal(t, 6*time.Second, b.NextBackOff())

	b.Reset()
	assert.Equal(t, 2*time.Second, b.NextBackOff())
}
