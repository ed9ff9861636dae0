// Package interview implements the conversation state machine: session
// lifecycle, turn-taking, progress computation, and module-driven
// prompt selection.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sagalabs/interviewd/internal/llm"
	"github.com/sagalabs/interviewd/internal/module"
	"github.com/sagalabs/interviewd/internal/observability"
	"github.com/sagalabs/interviewd/internal/session"
)

// EndCommand is the sentinel answer that forces immediate completion.
// It is never appended to the transcript.
const EndCommand = "[END_INTERVIEW]"

// Defaults are the process-wide prompt and sampling settings used by
// the on-demand summary path, which deliberately does not use the
// module's own summary prompt.
type Defaults struct {
	SummaryPrompt string
	Temperature   float64
	Model         string
}

// Orchestrator drives interview sessions. It resolves module
// configuration through the registry, reads and writes sessions
// through the store, and requests generation through the gateway.
// Sessions move through exactly two states: active, then completed.
type Orchestrator struct {
	registry *module.Registry
	gateway  *llm.Gateway
	store    session.Store
	defaults Defaults
	now      func() time.Time
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(registry *module.Registry, gateway *llm.Gateway, store session.Store, defaults Defaults) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		gateway:  gateway,
		store:    store,
		defaults: defaults,
		now:      time.Now,
	}
}

// StartResult is the outcome of StartSession.
type StartResult struct {
	SessionID       string
	InitialQuestion string
	// ModuleName is the module actually used after fallback.
	ModuleName string
	// Degraded marks the question as gateway fallback text.
	Degraded bool
}

// StartSession creates a new session for the given module and returns
// the opening question. Unknown module names fall back to the default
// module; the name actually used is returned. Creation is
// all-or-nothing: a store failure leaves no partial session behind.
func (o *Orchestrator) StartSession(ctx context.Context, sessionID, moduleName string) (*StartResult, error) {
	ctx, span := observability.StartSpan(ctx, "interview.start",
		attribute.String("session_id", sessionID),
		attribute.String("module", moduleName),
	)
	defer span.End()

	log := observability.LoggerFromContext(ctx).With("session_id", sessionID)

	resolvedName, cfg := o.registry.Resolve(moduleName)

	// Opening question is generated from the module's initial prompt
	// with no transcript.
	question := o.gateway.GenerateQuestion(ctx, llm.QuestionRequest{
		Prompt:      cfg.Prompts.Initial,
		Temperature: cfg.Settings.Temperature,
		Model:       cfg.Settings.Model,
	})

	sess := session.New(sessionID, session.ModuleSnapshot{
		Name:            resolvedName,
		InterviewLength: cfg.Settings.InterviewLength,
	}, question.Text, o.now())

	if err := o.store.Create(ctx, sess); err != nil {
		log.Error("failed to create session", "error", err)
		if errors.Is(err, session.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to start interview session: %w", err)
	}

	observability.RecordSessionStarted(resolvedName)
	log.Info("session started", "module", resolvedName)

	return &StartResult{
		SessionID:       sessionID,
		InitialQuestion: question.Text,
		ModuleName:      resolvedName,
		Degraded:        question.Degraded,
	}, nil
}

// AnswerResult is the outcome of SubmitAnswer.
type AnswerResult struct {
	IsComplete   bool
	Progress     int
	NextQuestion string
	Summary      string
	// Degraded marks the question or summary as gateway fallback text.
	Degraded bool
}

// SubmitAnswer processes one user answer. Completed sessions are a
// pure no-op. The sentinel EndCommand completes the session without
// recording the sentinel itself. Otherwise the answer is appended,
// progress recomputed from transcript length against the pacing
// captured at creation, and either a summary (on completion) or the
// next question is generated.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID, answer string) (*AnswerResult, error) {
	ctx, span := observability.StartSpan(ctx, "interview.answer",
		attribute.String("session_id", sessionID),
	)
	defer span.End()

	log := observability.LoggerFromContext(ctx).With("session_id", sessionID)

	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.Active {
		return &AnswerResult{IsComplete: true, Progress: 100}, nil
	}

	// Pacing comes from the snapshot taken at creation; only prompts
	// are re-resolved, and by the snapshotted name so a renamed or
	// edited registry cannot shift this session's pacing.
	_, cfg := o.registry.Resolve(sess.Module.Name)

	if answer == EndCommand {
		return o.complete(ctx, log, sess, cfg, "command")
	}

	sess = sess.WithMessage(session.SenderUser, answer, o.now())

	progress := session.ComputeProgress(len(sess.Transcript), sess.Module.InterviewLength)
	sess = sess.WithProgress(progress, o.now())

	if err := o.store.Update(ctx, sess); err != nil {
		log.Error("failed to persist answer", "error", err)
		return nil, fmt.Errorf("failed to process answer: %w", err)
	}
	observability.RecordAnswerProcessed()

	if progress >= 100 {
		return o.complete(ctx, log, sess, cfg, "length")
	}

	question := o.gateway.GenerateQuestion(ctx, llm.QuestionRequest{
		Transcript:  sess.Transcript,
		Prompt:      cfg.Prompts.FollowUp,
		Temperature: cfg.Settings.Temperature,
		Model:       cfg.Settings.Model,
	})

	sess = sess.WithMessage(session.SenderAI, question.Text, o.now())
	if err := o.store.Update(ctx, sess); err != nil {
		log.Error("failed to persist question", "error", err)
		return nil, fmt.Errorf("failed to process answer: %w", err)
	}

	return &AnswerResult{
		Progress:     progress,
		NextQuestion: question.Text,
		Degraded:     question.Degraded,
	}, nil
}

// complete generates a summary from the module's summary prompt, marks
// the session complete, and persists it.
func (o *Orchestrator) complete(ctx context.Context, log *slog.Logger, sess session.Session, cfg module.Config, reason string) (*AnswerResult, error) {
	summary := o.gateway.GenerateSummary(ctx, llm.SummaryRequest{
		Transcript:  sess.Transcript,
		Prompt:      cfg.Prompts.Summary,
		Temperature: cfg.Settings.Temperature,
		Model:       cfg.Settings.Model,
	})

	sess = sess.Completed(summary.Text, o.now())
	if err := o.store.Update(ctx, sess); err != nil {
		log.Error("failed to complete session", "error", err)
		return nil, fmt.Errorf("failed to process answer: %w", err)
	}

	observability.RecordSessionCompleted(sess.Module.Name, reason)
	log.Info("session completed", "reason", reason)

	return &AnswerResult{
		IsComplete: true,
		Progress:   100,
		Summary:    summary.Text,
		Degraded:   summary.Degraded,
	}, nil
}

// ProgressResult is the outcome of Progress.
type ProgressResult struct {
	Progress     int
	IsComplete   bool
	MessageCount int
}

// Progress reports the session's progress without side effects.
func (o *Orchestrator) Progress(ctx context.Context, sessionID string) (*ProgressResult, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &ProgressResult{
		Progress:     sess.Progress,
		IsComplete:   !sess.Active,
		MessageCount: len(sess.Transcript),
	}, nil
}

// SummaryResult is the outcome of Summary.
type SummaryResult struct {
	Summary string
	// Degraded marks an on-demand summary as gateway fallback text.
	// Stored summaries are returned verbatim and never degraded.
	Degraded bool
}

// Summary returns the stored summary for a completed session. For an
// active session it generates a summary on demand with the process
// defaults (not the module's own summary prompt) and leaves the stored
// state untouched.
func (o *Orchestrator) Summary(ctx context.Context, sessionID string) (*SummaryResult, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.Active {
		return &SummaryResult{Summary: sess.Summary}, nil
	}

	summary := o.gateway.GenerateSummary(ctx, llm.SummaryRequest{
		Transcript:  sess.Transcript,
		Prompt:      o.defaults.SummaryPrompt,
		Temperature: o.defaults.Temperature,
		Model:       o.defaults.Model,
	})
	return &SummaryResult{Summary: summary.Text, Degraded: summary.Degraded}, nil
}
