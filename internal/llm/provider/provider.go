// Package provider abstracts chat-completion backends behind a small
// interface so the gateway stays provider-agnostic.
package provider

import "context"

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	// Messages is the conversation history, system prompt first.
	Messages []Message `json:"messages"`

	// Model is the model to use.
	Model string `json:"model,omitempty"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps the generated response length.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	// Content is the generated text.
	Content string `json:"content"`

	// FinishReason explains why generation stopped.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage contains token usage information.
	Usage Usage `json:"usage"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider defines the interface for chat-completion backends.
type Provider interface {
	// CreateCompletion issues one completion call. No retries are
	// performed at this layer.
	CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g. "openai").
	Name() string
}

// Error codes for ProviderError.
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeAuthentication = "authentication_error"
	ErrorCodeRateLimit      = "rate_limit_exceeded"
	ErrorCodeServerError    = "server_error"
	ErrorCodeTimeout        = "timeout"
	ErrorCodeUnknown        = "unknown_error"
)

// ProviderError represents a provider-specific failure.
type ProviderError struct {
	Provider      string
	Code          string
	Message       string
	StatusCode    int
	IsRetryable   bool
	OriginalError error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return e.Provider + " error: " + e.Message
}

// Unwrap returns the original error.
func (e *ProviderError) Unwrap() error {
	return e.OriginalError
}

// NewProviderError creates a new provider error.
func NewProviderError(provider, code, message string, original error) *ProviderError {
	return &ProviderError{
		Provider:      provider,
		Code:          code,
		Message:       message,
		OriginalError: original,
		IsRetryable:   code == ErrorCodeRateLimit || code == ErrorCodeServerError || code == ErrorCodeTimeout,
	}
}
