package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/marko911/tx-lookup/internal/config"
	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txlookup"
)

// Server serves transaction lookups over HTTP.
type Server struct {
	resolver      *txlookup.Resolver
	custom        []explorer.Adapter
	lookupTimeout time.Duration
	logger        *slog.Logger

	metrics http.Handler
	ready   func() bool
}

func NewServer(resolver *txlookup.Resolver, custom []explorer.Adapter, lookupTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		resolver:      resolver,
		custom:        custom,
		lookupTimeout: lookupTimeout,
		logger:        logger.With("component", "lookup-api"),
		ready:         func() bool { return true },
	}
}

// SetMetricsHandler exposes h on /metrics.
func (s *Server) SetMetricsHandler(h http.Handler) {
	s.metrics = h
}

// SetReadiness replaces the readiness probe.
func (s *Server) SetReadiness(ready func() bool) {
	s.ready = ready
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /v1/lookup", s.handleLookupQuery)
	mux.HandleFunc("POST /v1/lookup", s.handleLookupBody)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

// lookupBody is the POST payload. Explorers are merged after the server's
// configured explorers.
type lookupBody struct {
	TransactionID string                  `json:"transaction_id"`
	Chain         string                  `json:"chain"`
	Explorers     []config.ExplorerConfig `json:"explorers"`
}

func (s *Server) handleLookupQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.lookup(w, r, txlookup.Request{
		TransactionID: q.Get("tx"),
		Chain:         blockchain.Parse(q.Get("chain")),
		ExplorerAPIs:  s.custom,
	})
}

func (s *Server) handleLookupBody(w http.ResponseWriter, r *http.Request) {
	var body lookupBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body: " + err.Error()})
		return
	}

	custom := append([]explorer.Adapter(nil), s.custom...)
	for _, e := range body.Explorers {
		a, err := e.Adapter()
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		custom = append(custom, a)
	}

	s.lookup(w, r, txlookup.Request{
		TransactionID: body.TransactionID,
		Chain:         blockchain.Parse(body.Chain),
		ExplorerAPIs:  custom,
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, req txlookup.Request) {
	ctx := r.Context()
	if s.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
	}

	out, err := s.resolver.Run(ctx, req)
	s.writeJSON(w, statusFor(err), out)
}

// statusFor maps a lookup error to an HTTP status.
func statusFor(err error) int {
	var exhausted *explorer.ExhaustedError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, txlookup.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, explorer.ErrConfiguration), errors.Is(err, explorer.ErrUnsupportedChain):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &exhausted):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("JSON encode error", "error", err)
	}
}
