// Package llm provides the generation gateway for the interview
// engine. The gateway never blocks an interview on upstream trouble:
// an unrecognized provider or a failed provider call yields canned
// fallback text, marked as degraded so callers and tests can tell the
// difference.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/sagalabs/interviewd/internal/llm/provider"
	"github.com/sagalabs/interviewd/internal/observability"
	"github.com/sagalabs/interviewd/internal/session"
)

// Output token budgets. Summaries are allowed a larger response than
// questions.
const (
	questionMaxTokens = 150
	summaryMaxTokens  = 300
)

// Fallback strings served when generation is unavailable. Kept distinct
// per failure mode so operators can tell "no provider configured" from
// "provider call failed" in transcripts.
const (
	fallbackQuestionNoProvider = "Could you tell me more about that?"
	fallbackQuestionCallFailed = "I'd be interested to hear more about your perspective on this topic."
	fallbackSummaryNoProvider  = "This concludes the interview session. Thank you for your participation."
	fallbackSummaryCallFailed  = "Thank you for participating in this interview. Your responses have been recorded."
)

// Result is the outcome of a generation call. Degraded marks fallback
// text served in place of generated output; Cause carries the upstream
// error when one occurred.
type Result struct {
	Text     string
	Degraded bool
	Cause    error
}

// QuestionRequest describes one question-generation call.
type QuestionRequest struct {
	// Transcript is the conversation so far (may be empty for the
	// opening question).
	Transcript []session.Message
	// Prompt is the system prompt seeding the call.
	Prompt string
	// Temperature is the sampling temperature.
	Temperature float64
	// Model is the model name.
	Model string
}

// SummaryRequest describes one summary-generation call.
type SummaryRequest struct {
	Transcript  []session.Message
	Prompt      string
	Temperature float64
	Model       string
}

// Gateway issues generation calls against a configured provider.
type Gateway struct {
	registry *provider.Registry
	provider string
	limiter  *rate.Limiter
	log      *slog.Logger
}

// NewGateway creates a gateway selecting providerName from the
// registry at call time. requestsPerSecond of 0 disables rate
// limiting.
func NewGateway(registry *provider.Registry, providerName string, requestsPerSecond float64, log *slog.Logger) *Gateway {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &Gateway{
		registry: registry,
		provider: providerName,
		limiter:  limiter,
		log:      log,
	}
}

// GenerateQuestion generates the next interview question.
func (g *Gateway) GenerateQuestion(ctx context.Context, req QuestionRequest) Result {
	return g.generate(ctx, "question", generateParams{
		transcript:  req.Transcript,
		prompt:      req.Prompt,
		temperature: req.Temperature,
		model:       req.Model,
		maxTokens:   questionMaxTokens,
		noProvider:  fallbackQuestionNoProvider,
		callFailed:  fallbackQuestionCallFailed,
	})
}

// GenerateSummary generates a summary of the conversation.
func (g *Gateway) GenerateSummary(ctx context.Context, req SummaryRequest) Result {
	return g.generate(ctx, "summary", generateParams{
		transcript:  req.Transcript,
		prompt:      req.Prompt,
		temperature: req.Temperature,
		model:       req.Model,
		maxTokens:   summaryMaxTokens,
		noProvider:  fallbackSummaryNoProvider,
		callFailed:  fallbackSummaryCallFailed,
	})
}

type generateParams struct {
	transcript  []session.Message
	prompt      string
	temperature float64
	model       string
	maxTokens   int
	noProvider  string
	callFailed  string
}

func (g *Gateway) generate(ctx context.Context, kind string, p generateParams) Result {
	ctx, span := observability.StartSpan(ctx, "llm.generate",
		attribute.String("kind", kind),
		attribute.String("provider", g.provider),
		attribute.String("model", p.model),
	)
	defer span.End()

	start := time.Now()

	prov, err := g.registry.Get(g.provider)
	if err != nil {
		g.log.Warn("llm provider not configured, using fallback",
			"provider", g.provider, "kind", kind)
		observability.RecordLLMCall(kind, "degraded", time.Since(start).Seconds())
		return Result{
			Text:     p.noProvider,
			Degraded: true,
			Cause:    fmt.Errorf("provider %q not configured: %w", g.provider, err),
		}
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			observability.RecordLLMCall(kind, "degraded", time.Since(start).Seconds())
			return Result{Text: p.callFailed, Degraded: true, Cause: err}
		}
	}

	resp, err := prov.CreateCompletion(ctx, provider.CompletionRequest{
		Messages:    buildMessages(p.prompt, p.transcript),
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		g.log.Error("llm generation failed, using fallback",
			"provider", g.provider, "kind", kind, "error", err)
		observability.RecordLLMCall(kind, "degraded", time.Since(start).Seconds())
		return Result{Text: p.callFailed, Degraded: true, Cause: err}
	}

	observability.RecordLLMCall(kind, "ok", time.Since(start).Seconds())
	return Result{Text: strings.TrimSpace(resp.Content)}
}

// buildMessages translates a transcript into a chat-completion message
// sequence: the system prompt first, then each transcript entry in
// order with ai mapped to assistant and user to user.
func buildMessages(prompt string, transcript []session.Message) []provider.Message {
	messages := make([]provider.Message, 0, len(transcript)+1)
	messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: prompt})

	for _, msg := range transcript {
		role := provider.RoleUser
		if msg.Sender == session.SenderAI {
			role = provider.RoleAssistant
		}
		messages = append(messages, provider.Message{Role: role, Content: msg.Text})
	}
	return messages
}
