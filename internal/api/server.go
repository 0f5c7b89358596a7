// Package api exposes the HTTP interface of the news proxy.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mkovalev/newsstand/internal/cache"
	"github.com/mkovalev/newsstand/internal/config"
	"github.com/mkovalev/newsstand/internal/metrics"
	"github.com/mkovalev/newsstand/internal/news"
	"github.com/mkovalev/newsstand/internal/notify"
	"github.com/mkovalev/newsstand/internal/storage"
)

// defaultQuery mirrors the original proxy behavior for empty searches.
const defaultQuery = "technology"

// NewsSource serves validated news pages, possibly from cache.
type NewsSource interface {
	Get(ctx context.Context, query string, page int) (*news.Response, cache.Status, error)
}

// Server wires HTTP handlers to the news source, upload store and notifier.
type Server struct {
	router   chi.Router
	source   NewsSource
	files    storage.Provider
	registry *notify.Registry
	notifier *notify.Notifier
	clock    news.Clock
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	source NewsSource,
	files storage.Provider,
	registry *notify.Registry,
	notifier *notify.Notifier,
	clock news.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		source:   source,
		files:    files,
		registry: registry,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(corsMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/news", s.getNews)
		r.Get("/files", s.listFiles)
		r.Post("/upload", s.uploadFile)
		r.Delete("/upload/{filename}", s.deleteFile)
		r.Route("/push", func(r chi.Router) {
			r.Post("/register", s.registerToken)
			r.Delete("/register/{token}", s.unregisterToken)
		})
	})
	r.Get("/uploads/{filename}", s.serveFile)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getNews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		query = defaultQuery
	}
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "page must be a positive integer")
			return
		}
		page = parsed
	}

	payload, status, err := s.source.Get(r.Context(), query, page)
	if err != nil {
		s.writeNewsError(w, query, page, err)
		return
	}

	if status == cache.StatusMiss && s.notifier != nil {
		event := notify.RefreshEvent{
			Query:        query,
			Page:         page,
			TotalResults: payload.TotalResults,
			FetchedAt:    s.clock.Now(),
		}
		// Detached from the request context so a fast client disconnect
		// does not cancel the announcement.
		go s.notifier.AnnounceRefresh(context.WithoutCancel(r.Context()), event)
	}

	w.Header().Set("X-Cache", string(status))
	writeJSON(w, http.StatusOK, payload)
}

// writeNewsError maps upstream failures onto the proxy's error contract.
func (s *Server) writeNewsError(w http.ResponseWriter, query string, page int, err error) {
	s.logger.Warn("news fetch failed",
		zap.String("query", query),
		zap.Int("page", page),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, news.ErrRateLimited):
		metrics.ObserveUpstreamError("rate_limited")
		writeError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded, try again later")
	case errors.Is(err, news.ErrUnauthorized):
		metrics.ObserveUpstreamError("unauthorized")
		writeError(w, http.StatusUnauthorized, "unauthorized", "News provider rejected the API key")
	case errors.Is(err, news.ErrMalformed):
		metrics.ObserveUpstreamError("malformed")
		writeError(w, http.StatusInternalServerError, "malformed_upstream", "News provider returned an invalid response")
	default:
		metrics.ObserveUpstreamError("unavailable")
		writeError(w, http.StatusServiceUnavailable, "unavailable", "News provider is unreachable, try again later")
	}
}

type tokenRequest struct {
	Token string `json:"token"`
}

func (s *Server) registerToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "token is required")
		return
	}
	added := s.registry.Register(req.Token)
	msg := "token already registered"
	if added {
		msg = "token registered"
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

func (s *Server) unregisterToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if !s.registry.Unregister(token) {
		writeError(w, http.StatusNotFound, "not_found", "token not registered")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "token removed"})
}
