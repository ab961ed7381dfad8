// Package server exposes the question-answering pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"policyrag/internal/domain"
	"policyrag/internal/metrics"
	"policyrag/internal/port"
)

const (
	maxBodySize     = 1 << 20
	shutdownTimeout = 10 * time.Second
	requestIDHeader = "X-Request-ID"
)

// Answerer answers a question with up to k retrieved hits.
type Answerer interface {
	Answer(ctx context.Context, question string, k int) (*domain.Answer, error)
}

// Server serves /ask, /health, /info and /metrics.
type Server struct {
	answers    Answerer
	index      port.VectorIndex
	collection string
	logger     *slog.Logger
	httpServer *http.Server
}

func New(addr string, answers Answerer, index port.VectorIndex, collection string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		answers:    answers,
		index:      index,
		collection: collection,
		logger:     logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with recovery and request IDs applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /ask", metrics.Middleware("ask", http.HandlerFunc(s.handleAsk)))
	mux.Handle("GET /health", metrics.Middleware("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /info", metrics.Middleware("info", http.HandlerFunc(s.handleInfo)))
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.recovery(requestID(mux))
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String(), "collection", s.collection)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

type askRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
}

type askResponse struct {
	RequestID  string                 `json:"request_id"`
	Answer     string                 `json:"answer"`
	TopResults domain.RetrievalResult `json:"top_results"`
	Error      string                 `json:"error,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id := RequestIDFrom(r.Context())

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Invalid JSON in request.", "invalid_request")
		return
	}

	answer, err := s.answers.Answer(r.Context(), req.Question, req.K)
	if err != nil {
		if errors.Is(err, domain.ErrMissingQuestion) {
			s.writeError(w, r, http.StatusBadRequest, "Missing 'question' in request.", domain.ErrorCode(err))
			return
		}
		s.logger.Error("ask failed", "request_id", id, "error", err)
		s.writeError(w, r, http.StatusInternalServerError, err.Error(), domain.ErrorCode(err))
		return
	}

	metrics.RetrievedHits.Observe(float64(len(answer.TopResults)))
	if answer.Error != "" && answer.Error != domain.ErrorCode(domain.ErrNoDocuments) {
		metrics.GenerationErrorsTotal.WithLabelValues(answer.Error).Inc()
	}

	s.logger.Info("answered",
		"request_id", id,
		"hits", len(answer.TopResults),
		"generated", answer.Answer != "" && answer.Error == "",
	)
	writeJSON(w, http.StatusOK, askResponse{
		RequestID:  id,
		Answer:     answer.Answer,
		TopResults: answer.TopResults,
		Error:      answer.Error,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.index.Count(domain.Collection{Name: s.collection})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCollectionNotFound):
		count = 0
	default:
		s.writeError(w, r, http.StatusServiceUnavailable, err.Error(), domain.ErrorCode(err))
		return
	}
	metrics.CollectionDocuments.WithLabelValues(s.collection).Set(float64(count))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"collection": s.collection,
		"count":      count,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.index.Info(domain.Collection{Name: s.collection})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrCollectionNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, r, status, err.Error(), domain.ErrorCode(err))
		return
	}
	metrics.CollectionDocuments.WithLabelValues(s.collection).Set(float64(info.Count))
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg, code string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: RequestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
