package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/generator"
	"github.com/pevans/newsdigest/history"
	"github.com/pevans/newsdigest/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGenerator records requests and returns a canned result or error.
type fakeGenerator struct {
	requests []generator.Request
	err      error
	wait     bool
}

func (f *fakeGenerator) Generate(ctx context.Context, req generator.Request) (*generator.Result, error) {
	f.requests = append(f.requests, req)
	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	d := &digest.Digest{
		Headline:         "Headline",
		ArticleSummaries: []digest.ArticleSummary{{Title: "T", Author: "A", Summary: "S", URL: "https://example.com/t"}},
		Style:            digest.StyleClassic,
	}
	return &generator.Result{
		ID:        uuid.New(),
		SourceURL: generator.NormalizeURL(req.URL),
		Style:     digest.StyleClassic,
		Digest:    d,
		Markdown:  digest.Format(d),
	}, nil
}

// Test helper: create a test history store
func setupTestStore(t *testing.T) *history.Store {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: create a test router
func setupTestRouter(t *testing.T, gen Generator, store HistoryStore) *gin.Engine {
	server := NewServer(gen, store, Options{RequestTimeout: time.Second})
	return server.SetupRouter()
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	return errResp
}

// TestHandleHealth verifies the health endpoint
func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(t, &fakeGenerator{}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// TestCORSPreflight verifies OPTIONS requests are answered directly
func TestCORSPreflight(t *testing.T) {
	router := setupTestRouter(t, &fakeGenerator{}, nil)

	w := doRequest(router, http.MethodOptions, "/api/v1/digests", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

// TestHandleListStyles verifies every style is listed
func TestHandleListStyles(t *testing.T) {
	router := setupTestRouter(t, &fakeGenerator{}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/styles", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Styles  []StyleInfo `json:"styles"`
		Default string      `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Styles, len(digest.Styles()))
	assert.Equal(t, "classic", resp.Default)
}

// TestHandleCreateDigest_Success verifies a digest is generated
func TestHandleCreateDigest_Success(t *testing.T) {
	gen := &fakeGenerator{}
	router := setupTestRouter(t, gen, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/digests", `{"url":"example.com/blog","count":5,"style":"social"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, gen.requests, 1)
	assert.Equal(t, "example.com/blog", gen.requests[0].URL)
	assert.Equal(t, 5, gen.requests[0].Count)
	assert.Equal(t, "social", gen.requests[0].Style)

	var result generator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Headline", result.Digest.Headline)
	assert.Equal(t, "https://example.com/blog", result.SourceURL)
	assert.NotEmpty(t, result.Markdown)
}

// TestHandleCreateDigest_CountClamping verifies count handling
func TestHandleCreateDigest_CountClamping(t *testing.T) {
	tests := []struct {
		count string
		want  int
	}{
		{`"abc"`, generator.DefaultCount},
		{`"37"`, generator.MaxCount},
		{`"0"`, generator.MinCount},
		{`0`, generator.MinCount},
		{`99`, generator.MaxCount},
		{`null`, generator.DefaultCount},
		{`1e30`, generator.MaxCount},
		{`9.3e18`, generator.MaxCount},
		{`-1e30`, generator.MinCount},
		{`"99999999999999999999"`, generator.MaxCount},
	}

	for _, tt := range tests {
		t.Run(tt.count, func(t *testing.T) {
			gen := &fakeGenerator{}
			router := setupTestRouter(t, gen, nil)

			w := doRequest(router, http.MethodPost, "/api/v1/digests", `{"url":"example.com","count":`+tt.count+`}`)

			require.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, tt.want, gen.requests[0].Count)
		})
	}
}

// TestHandleCreateDigest_Validation verifies bad requests are rejected
func TestHandleCreateDigest_Validation(t *testing.T) {
	gen := &fakeGenerator{}
	router := setupTestRouter(t, gen, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/digests", `{"count":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/digests", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, gen.requests)
}

// TestHandleCreateDigest_ErrorMapping verifies domain errors map to status codes
func TestHandleCreateDigest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid url", generator.ErrInvalidURL, http.StatusBadRequest, "validation_error"},
		{"unknown style", fmt.Errorf("%w: %q", digest.ErrUnknownStyle, "x"), http.StatusBadRequest, "validation_error"},
		{"no links", scraper.ErrNoLinks, http.StatusUnprocessableEntity, "unsupported_site"},
		{"no articles", scraper.ErrNoArticles, http.StatusUnprocessableEntity, "unsupported_site"},
		{"listing fetch", fmt.Errorf("%w: boom", scraper.ErrListingFetch), http.StatusBadGateway, "fetch_failed"},
		{"fetch error", &scraper.FetchError{URL: "https://x", Attempts: 3, Err: errors.New("boom")}, http.StatusBadGateway, "fetch_failed"},
		{"summarize", fmt.Errorf("%w: quota", generator.ErrSummarize), http.StatusBadGateway, "llm_failed"},
		{"unexpected", fmt.Errorf("%w: panic", generator.ErrUnexpected), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(t, &fakeGenerator{err: tt.err}, nil)

			w := doRequest(router, http.MethodPost, "/api/v1/digests", `{"url":"example.com"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Error.Code)
		})
	}
}

// TestHandleCreateDigest_Timeout verifies the request timeout is applied
func TestHandleCreateDigest_Timeout(t *testing.T) {
	gen := &fakeGenerator{wait: true}
	server := NewServer(gen, nil, Options{RequestTimeout: 10 * time.Millisecond})
	router := server.SetupRouter()

	w := doRequest(router, http.MethodPost, "/api/v1/digests", `{"url":"example.com"}`)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "timeout", decodeError(t, w).Error.Code)
}

// TestHistoryEndpoints_Disabled verifies history routes without a store
func TestHistoryEndpoints_Disabled(t *testing.T) {
	router := setupTestRouter(t, &fakeGenerator{}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/digests", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "history_disabled", decodeError(t, w).Error.Code)
}

// TestHandleListDigests verifies listing with pagination and source filter
func TestHandleListDigests(t *testing.T) {
	store := setupTestStore(t)
	router := setupTestRouter(t, &fakeGenerator{}, store)

	for i := range 3 {
		source := "https://a.example.com"
		if i == 2 {
			source = "https://b.example.com"
		}
		_, err := store.Save(source, 1, &digest.Digest{Headline: fmt.Sprintf("H%d", i)}, "md")
		require.NoError(t, err)
	}

	w := doRequest(router, http.MethodGet, "/api/v1/digests", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp ListDigestsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Digests, 3)
	assert.Equal(t, DefaultListLimit, resp.Limit)
	assert.Equal(t, "H2", resp.Digests[0].Digest.Headline)

	w = doRequest(router, http.MethodGet, "/api/v1/digests?limit=1&offset=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Digests, 1)
	assert.Equal(t, "H1", resp.Digests[0].Digest.Headline)

	w = doRequest(router, http.MethodGet, "/api/v1/digests?source=https://b.example.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Digests, 1)
	assert.Equal(t, "H2", resp.Digests[0].Digest.Headline)
}

// TestHandleListDigests_InvalidParameters verifies pagination validation
func TestHandleListDigests_InvalidParameters(t *testing.T) {
	router := setupTestRouter(t, &fakeGenerator{}, setupTestStore(t))

	for _, params := range []string{"?limit=invalid", "?limit=0", "?offset=-1"} {
		t.Run(params, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/v1/digests"+params, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_parameter", decodeError(t, w).Error.Code)
		})
	}
}

// TestHandleGetDigest verifies retrieval in every format
func TestHandleGetDigest(t *testing.T) {
	store := setupTestStore(t)
	router := setupTestRouter(t, &fakeGenerator{}, store)

	d := &digest.Digest{
		Headline:         "Stored",
		ArticleSummaries: []digest.ArticleSummary{{Title: "First", Author: "Ann", Summary: "S"}},
	}
	record, err := store.Save("https://example.com", 1, d, digest.Format(d))
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/api/v1/digests/"+record.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var got history.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "Stored", got.Digest.Headline)

	w = doRequest(router, http.MethodGet, "/api/v1/digests/"+record.ID.String()+"?format=markdown", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Stored\n"))

	w = doRequest(router, http.MethodGet, "/api/v1/digests/"+record.ID.String()+"?format=html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>First</strong>")

	w = doRequest(router, http.MethodGet, "/api/v1/digests/"+record.ID.String()+"?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestHandleGetDigest_Errors verifies invalid and unknown IDs
func TestHandleGetDigest_Errors(t *testing.T) {
	router := setupTestRouter(t, &fakeGenerator{}, setupTestStore(t))

	w := doRequest(router, http.MethodGet, "/api/v1/digests/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/digests/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error.Code)
}

// TestHandleDeleteDigest verifies deletion
func TestHandleDeleteDigest(t *testing.T) {
	store := setupTestStore(t)
	router := setupTestRouter(t, &fakeGenerator{}, store)

	record, err := store.Save("https://example.com", 1, &digest.Digest{Headline: "H"}, "")
	require.NoError(t, err)

	w := doRequest(router, http.MethodDelete, "/api/v1/digests/"+record.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/v1/digests/"+record.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
