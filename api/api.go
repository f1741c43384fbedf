// Package api exposes digest generation and history over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/generator"
	"github.com/pevans/newsdigest/history"
	"github.com/pevans/newsdigest/scraper"
	"go.uber.org/zap"
)

// Pagination limits for GET /api/v1/digests.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ErrHistoryDisabled is returned by history endpoints when no store is
// configured.
var ErrHistoryDisabled = errors.New("digest history is disabled")

// Generator produces digests.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Result, error)
}

// HistoryStore reads and deletes stored digests.
type HistoryStore interface {
	List(filter history.Filter) ([]history.Record, error)
	Get(id uuid.UUID) (*history.Record, error)
	Delete(id uuid.UUID) error
}

// Options configures a Server.
type Options struct {
	// RequestTimeout bounds one generation; zero means no limit.
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Server represents the HTTP API server for digests.
type Server struct {
	gen     Generator
	history HistoryStore
	timeout time.Duration
	logger  *zap.Logger
}

// NewServer creates a new API server. store may be nil, which disables the
// history endpoints.
func NewServer(gen Generator, store HistoryStore, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		gen:     gen,
		history: store,
		timeout: opts.RequestTimeout,
		logger:  logger,
	}
}

// SetupRouter configures the Gin router with all digest API routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(s.logger), gin.Recovery())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	api.GET("/health", s.HandleHealth)
	api.GET("/styles", s.HandleListStyles)
	api.POST("/digests", s.HandleCreateDigest)
	api.GET("/digests", s.HandleListDigests)
	api.GET("/digests/:id", s.HandleGetDigest)
	api.DELETE("/digests/:id", s.HandleDeleteDigest)

	return router
}

// requestLogger logs one structured line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			logger.Error("HTTP request with errors", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// handleError maps domain errors to HTTP responses.
func (s *Server) handleError(c *gin.Context, err error) {
	var fetchErr *scraper.FetchError
	switch {
	case errors.Is(err, generator.ErrInvalidURL),
		errors.Is(err, digest.ErrUnknownStyle):
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
	case errors.Is(err, history.ErrDigestNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.Is(err, ErrHistoryDisabled):
		c.JSON(http.StatusNotFound, errorResponse("history_disabled", err.Error()))
	case errors.Is(err, scraper.ErrNoLinks),
		errors.Is(err, scraper.ErrNoArticles):
		c.JSON(http.StatusUnprocessableEntity, errorResponse("unsupported_site", err.Error()))
	case errors.Is(err, scraper.ErrListingFetch),
		errors.Is(err, scraper.ErrFeedFetch),
		errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, errorResponse("fetch_failed", err.Error()))
	case errors.Is(err, generator.ErrSummarize):
		c.JSON(http.StatusBadGateway, errorResponse("llm_failed", "Failed to generate summaries"))
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, errorResponse("timeout", "Digest generation timed out"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

// HandleHealth handles GET /api/v1/health.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"history": s.history != nil,
	})
}

// StyleInfo describes one digest style.
type StyleInfo struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	CombinedSummary bool   `json:"combined_summary"`
	AuthorFirst     bool   `json:"author_first"`
	SocialPosts     bool   `json:"social_posts"`
}

// HandleListStyles handles GET /api/v1/styles.
func (s *Server) HandleListStyles(c *gin.Context) {
	styles := make([]StyleInfo, 0, len(digest.Styles()))
	for _, style := range digest.Styles() {
		styles = append(styles, StyleInfo{
			Name:            style.String(),
			Description:     style.Description(),
			CombinedSummary: style.CombinedSummary(),
			AuthorFirst:     style.AuthorFirst(),
			SocialPosts:     style.SocialPosts(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"styles": styles, "default": digest.DefaultStyle})
}

// CreateDigestRequest represents the request for POST /api/v1/digests.
// Count accepts a number or a numeric string.
type CreateDigestRequest struct {
	URL   string          `json:"url"`
	Count json.RawMessage `json:"count,omitempty"`
	URLs  []string        `json:"urls,omitempty"`
	Style string          `json:"style,omitempty"`
	Feed  bool            `json:"feed,omitempty"`
}

// count resolves the requested article count.
func (r CreateDigestRequest) count() int {
	raw := strings.TrimSpace(string(r.Count))
	if raw == "" || raw == "null" {
		return generator.DefaultCount
	}
	var s string
	if err := json.Unmarshal(r.Count, &s); err == nil {
		return generator.ClampCount(s)
	}
	var f float64
	if err := json.Unmarshal(r.Count, &f); err == nil {
		return generator.ClampFloat(f)
	}
	return generator.DefaultCount
}

// HandleCreateDigest handles POST /api/v1/digests.
func (s *Server) HandleCreateDigest(c *gin.Context) {
	var req CreateDigestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", err.Error()))
		return
	}

	if strings.TrimSpace(req.URL) == "" && len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "url is required"))
		return
	}

	ctx := c.Request.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.gen.Generate(ctx, generator.Request{
		URL:   req.URL,
		Count: req.count(),
		URLs:  req.URLs,
		Feed:  req.Feed,
		Style: req.Style,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListDigestsResponse represents the response for GET /api/v1/digests.
type ListDigestsResponse struct {
	Digests []history.Record `json:"digests"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// HandleListDigests handles GET /api/v1/digests.
func (s *Server) HandleListDigests(c *gin.Context) {
	if s.history == nil {
		s.handleError(c, ErrHistoryDisabled)
		return
	}

	limit := DefaultListLimit
	if limitParam := c.Query("limit"); limitParam != "" {
		parsedLimit, err := strconv.Atoi(limitParam)
		if err != nil || parsedLimit < 1 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Invalid limit parameter"))
			return
		}
		limit = min(parsedLimit, MaxListLimit)
	}

	offset := 0
	if offsetParam := c.Query("offset"); offsetParam != "" {
		parsedOffset, err := strconv.Atoi(offsetParam)
		if err != nil || parsedOffset < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Invalid offset parameter"))
			return
		}
		offset = parsedOffset
	}

	filter := history.Filter{Limit: limit, Offset: offset}
	if source := c.Query("source"); source != "" {
		filter.SourceURL = &source
	}

	records, err := s.history.List(filter)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListDigestsResponse{
		Digests: records,
		Limit:   limit,
		Offset:  offset,
	})
}

// HandleGetDigest handles GET /api/v1/digests/{id}. With ?format=markdown
// or ?format=html the rendered digest is returned instead of JSON.
func (s *Server) HandleGetDigest(c *gin.Context) {
	if s.history == nil {
		s.handleError(c, ErrHistoryDisabled)
		return
	}

	digestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid digest ID"))
		return
	}

	record, err := s.history.Get(digestID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	switch c.Query("format") {
	case "", "json":
		c.JSON(http.StatusOK, record)
	case "markdown":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(record.Markdown))
	case "html":
		page, err := digest.RenderHTML(record.Digest, 0)
		if err != nil {
			s.handleError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	default:
		c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Invalid format parameter"))
	}
}

// HandleDeleteDigest handles DELETE /api/v1/digests/{id}.
func (s *Server) HandleDeleteDigest(c *gin.Context) {
	if s.history == nil {
		s.handleError(c, ErrHistoryDisabled)
		return
	}

	digestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid digest ID"))
		return
	}

	if err := s.history.Delete(digestID); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
