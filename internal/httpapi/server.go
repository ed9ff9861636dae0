// Package httpapi exposes the interview engine over HTTP. Input
// validation (required fields) happens here, not in the orchestrator.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sagalabs/interviewd/internal/interview"
	"github.com/sagalabs/interviewd/internal/observability"
	"github.com/sagalabs/interviewd/internal/session"
)

// Server handles the interview HTTP API.
type Server struct {
	orchestrator *interview.Orchestrator
	// exposeDegraded includes the degraded marker in responses when
	// the gateway served fallback text.
	exposeDegraded bool
}

// NewHandler builds the HTTP handler for the interview API, health,
// and metrics endpoints.
func NewHandler(orchestrator *interview.Orchestrator, exposeDegraded bool) http.Handler {
	s := &Server{orchestrator: orchestrator, exposeDegraded: exposeDegraded}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/interview/start", s.handleStart)
	mux.HandleFunc("POST /api/interview/answer", s.handleAnswer)
	mux.HandleFunc("GET /api/interview/progress/{sessionId}", s.handleProgress)
	mux.HandleFunc("GET /api/interview/summary/{sessionId}", s.handleSummary)
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", observability.MetricsHandler())

	return withRequestID(withMetrics(mux))
}

type startRequest struct {
	ModuleName string `json:"moduleName"`
}

type startResponse struct {
	SessionID       string `json:"sessionId"`
	InitialQuestion string `json:"initialQuestion"`
	ModuleName      string `json:"moduleName"`
	Degraded        *bool  `json:"degraded,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := uuid.New().String()

	result, err := s.orchestrator.StartSession(r.Context(), sessionID, req.ModuleName)
	if err != nil {
		s.writeOperationError(w, r, err, "failed to start interview session")
		return
	}

	resp := startResponse{
		SessionID:       result.SessionID,
		InitialQuestion: result.InitialQuestion,
		ModuleName:      result.ModuleName,
	}
	if s.exposeDegraded {
		resp.Degraded = &result.Degraded
	}
	writeJSON(w, http.StatusCreated, resp)
}

type answerRequest struct {
	SessionID string  `json:"sessionId"`
	Answer    *string `json:"answer"`
}

type answerResponse struct {
	IsComplete   bool    `json:"isComplete"`
	Progress     int     `json:"progress"`
	NextQuestion *string `json:"nextQuestion,omitempty"`
	Summary      string  `json:"summary,omitempty"`
	Degraded     *bool   `json:"degraded,omitempty"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing sessionId")
		return
	}
	if req.Answer == nil {
		writeError(w, http.StatusBadRequest, "Missing answer")
		return
	}

	result, err := s.orchestrator.SubmitAnswer(r.Context(), req.SessionID, *req.Answer)
	if err != nil {
		s.writeOperationError(w, r, err, "failed to process answer")
		return
	}

	resp := answerResponse{
		IsComplete: result.IsComplete,
		Progress:   result.Progress,
		Summary:    result.Summary,
	}
	if !result.IsComplete {
		resp.NextQuestion = &result.NextQuestion
	}
	if s.exposeDegraded {
		resp.Degraded = &result.Degraded
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing sessionId")
		return
	}

	result, err := s.orchestrator.Progress(r.Context(), sessionID)
	if err != nil {
		s.writeOperationError(w, r, err, "failed to get session progress")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"progress":     result.Progress,
		"isComplete":   result.IsComplete,
		"messageCount": result.MessageCount,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing sessionId")
		return
	}

	result, err := s.orchestrator.Summary(r.Context(), sessionID)
	if err != nil {
		s.writeOperationError(w, r, err, "failed to get session summary")
		return
	}

	resp := map[string]any{"summary": result.Summary}
	if s.exposeDegraded {
		resp["degraded"] = result.Degraded
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeOperationError maps orchestrator errors to HTTP statuses:
// unknown session → 404, duplicate creation → 409, anything else →
// 500 with a generic message.
func (s *Server) writeOperationError(w http.ResponseWriter, r *http.Request, err error, generic string) {
	log := observability.LoggerFromContext(r.Context())
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrConflict):
		writeError(w, http.StatusConflict, "Session already exists")
	default:
		log.Error(generic, "error", err)
		writeError(w, http.StatusInternalServerError, generic)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// withRequestID attaches a request id to the context for log
// correlation.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		ctx := observability.WithRequestID(r.Context(), reqID)
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withMetrics records request counts and durations.
func withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		observability.RecordHTTPRequest(r.Method, r.URL.Path,
			strconv.Itoa(sw.status), time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
