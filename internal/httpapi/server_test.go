package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagalabs/interviewd/internal/interview"
	"github.com/sagalabs/interviewd/internal/llm"
	"github.com/sagalabs/interviewd/internal/llm/provider"
	"github.com/sagalabs/interviewd/internal/module"
	"github.com/sagalabs/interviewd/internal/session"
)

func newTestHandler(t *testing.T, exposeDegraded bool, responses ...string) (http.Handler, *provider.MockProvider) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	mock := provider.NewMockProvider(responses...)
	providers := provider.NewRegistry()
	providers.Register(mock)

	registry := module.NewRegistry(map[string]module.Config{
		"political": {
			Prompts: module.Prompts{
				Initial:  "political initial",
				FollowUp: "political follow up",
				Summary:  "political summary",
			},
			Settings: module.Settings{InterviewLength: 2, Temperature: 0.7, Model: "gpt-4o"},
		},
	}, "political", module.Defaults{
		Prompts:         module.Prompts{Initial: "i", FollowUp: "f", Summary: "s"},
		InterviewLength: 10,
		Temperature:     0.7,
		Model:           "gpt-4o",
	}, log)

	gateway := llm.NewGateway(providers, "mock", 0, log)
	orchestrator := interview.NewOrchestrator(registry, gateway, session.NewMemoryStore(), interview.Defaults{
		SummaryPrompt: "default summary prompt",
		Temperature:   0.7,
		Model:         "gpt-4o",
	})

	return NewHandler(orchestrator, exposeDegraded), mock
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func startSession(t *testing.T, handler http.Handler, moduleName string) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/interview/start",
		map[string]string{"moduleName": moduleName})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	id, _ := body["sessionId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestStartEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, false, "opening question")

	rec := doJSON(t, handler, http.MethodPost, "/api/interview/start",
		map[string]string{"moduleName": "political"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	body := decodeBody(t, rec)
	assert.Equal(t, "opening question", body["initialQuestion"])
	assert.Equal(t, "political", body["moduleName"])
	assert.NotContains(t, body, "degraded")

	// The server assigns session ids itself.
	_, err := uuid.Parse(body["sessionId"].(string))
	assert.NoError(t, err)
}

func TestStartEndpointUnknownModule(t *testing.T) {
	handler, _ := newTestHandler(t, false, "opening question")

	rec := doJSON(t, handler, http.MethodPost, "/api/interview/start",
		map[string]string{"moduleName": "ethics"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "political", decodeBody(t, rec)["moduleName"],
		"unknown modules fall back to the default and report it")
}

func TestStartEndpointBadBody(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/interview/start",
		bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswerEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, false, "q1", "q2")
	id := startSession(t, handler, "political")

	rec := doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"sessionId": id, "answer": "my answer"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["isComplete"])
	assert.Equal(t, float64(50), body["progress"])
	assert.Equal(t, "q2", body["nextQuestion"])
}

func TestAnswerEndpointCompletion(t *testing.T) {
	handler, _ := newTestHandler(t, false, "q1", "q2", "the summary")
	id := startSession(t, handler, "political")

	doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"sessionId": id, "answer": "one"})
	rec := doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"sessionId": id, "answer": "two"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isComplete"])
	assert.Equal(t, float64(100), body["progress"])
	assert.Equal(t, "the summary", body["summary"])
	assert.NotContains(t, body, "nextQuestion",
		"completed responses omit the next question")
}

func TestAnswerEndpointValidation(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	rec := doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"answer": "hello"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing sessionId", decodeBody(t, rec)["error"])

	rec = doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"sessionId": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing answer", decodeBody(t, rec)["error"])
}

func TestAnswerEndpointEmptyAnswerAccepted(t *testing.T) {
	// Empty string is a present answer; only a missing field is
	// rejected.
	handler, _ := newTestHandler(t, false, "q1", "q2")
	id := startSession(t, handler, "political")

	rec := doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"sessionId": id, "answer": ""})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnswerEndpointUnknownSession(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	rec := doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"sessionId": "no-such-session", "answer": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", decodeBody(t, rec)["error"])
}

func TestProgressEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, false, "q1", "q2")
	id := startSession(t, handler, "political")

	doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"sessionId": id, "answer": "one"})

	rec := doJSON(t, handler, http.MethodGet, "/api/interview/progress/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(50), body["progress"])
	assert.Equal(t, false, body["isComplete"])
	assert.Equal(t, float64(3), body["messageCount"])
}

func TestProgressEndpointUnknownSession(t *testing.T) {
	handler, _ := newTestHandler(t, false)
	rec := doJSON(t, handler, http.MethodGet, "/api/interview/progress/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, false, "q1", "q2", "final summary")
	id := startSession(t, handler, "political")

	doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"sessionId": id, "answer": "one"})
	doJSON(t, handler, http.MethodPost, "/api/interview/answer",
		map[string]string{"sessionId": id, "answer": "two"})

	rec := doJSON(t, handler, http.MethodGet, "/api/interview/summary/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "final summary", decodeBody(t, rec)["summary"])
}

func TestSummaryEndpointUnknownSession(t *testing.T) {
	handler, _ := newTestHandler(t, false)
	rec := doJSON(t, handler, http.MethodGet, "/api/interview/summary/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDegradedMarkerExposure(t *testing.T) {
	// With no provider registered every generation degrades; the marker
	// only shows up when configured.
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	registry := module.NewRegistry(nil, "political", module.Defaults{
		Prompts:         module.Prompts{Initial: "i", FollowUp: "f", Summary: "s"},
		InterviewLength: 10,
		Temperature:     0.7,
		Model:           "gpt-4o",
	}, log)
	gateway := llm.NewGateway(provider.NewRegistry(), "openai", 0, log)

	for _, expose := range []bool{true, false} {
		orchestrator := interview.NewOrchestrator(registry, gateway,
			session.NewMemoryStore(), interview.Defaults{SummaryPrompt: "s"})
		handler := NewHandler(orchestrator, expose)

		rec := doJSON(t, handler, http.MethodPost, "/api/interview/start",
			map[string]string{"moduleName": "political"})
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		if expose {
			assert.Equal(t, true, body["degraded"])
		} else {
			assert.NotContains(t, body, "degraded")
		}
		assert.NotEmpty(t, body["initialQuestion"],
			"fallback text still serves a question")
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, false)
	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestRequestIDPropagation(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}
