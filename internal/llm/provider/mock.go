package provider

import (
	"context"
	"sync"
)

// MockProvider is a scripted provider for tests. It returns queued
// responses in order, falling back to Default when the queue is empty.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	err       error

	// Default is returned when no queued response remains.
	Default string

	// Requests records every request received, in order.
	Requests []CompletionRequest
}

// NewMockProvider creates a mock provider with the given queued
// responses.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{
		responses: responses,
		Default:   "mock response",
	}
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	return "mock"
}

// Fail makes every subsequent call return err.
func (m *MockProvider) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CreateCompletion returns the next scripted response.
func (m *MockProvider) CreateCompletion(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if m.err != nil {
		return nil, m.err
	}

	content := m.Default
	if len(m.responses) > 0 {
		content = m.responses[0]
		m.responses = m.responses[1:]
	}

	return &CompletionResponse{Content: content, FinishReason: "stop"}, nil
}
