// Package session holds the interview session model and its
// persistence. State changes are pure value transitions; writing the
// result back is the caller's explicit responsibility via a Store.
package session

import (
	"math"
	"time"
)

// Sender identifies who produced a transcript message.
type Sender string

const (
	// SenderAI marks messages produced by the interviewer.
	SenderAI Sender = "ai"
	// SenderUser marks messages produced by the participant.
	SenderUser Sender = "user"
)

// Message is one transcript entry.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ModuleSnapshot captures the module identity and pacing at session
// creation. It is never re-resolved afterwards, so a session's pacing
// cannot shift mid-interview even if the registry changes.
type ModuleSnapshot struct {
	Name            string `json:"name"`
	InterviewLength int    `json:"interviewLength"`
}

// Session is one interview instance.
type Session struct {
	ID         string         `json:"sessionId"`
	Transcript []Message      `json:"transcript"`
	Progress   int            `json:"progress"`
	Active     bool           `json:"isActive"`
	Summary    string         `json:"summary,omitempty"`
	Module     ModuleSnapshot `json:"moduleConfig"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// New creates an active session with an opening AI question.
func New(id string, module ModuleSnapshot, openingQuestion string, now time.Time) Session {
	return Session{
		ID: id,
		Transcript: []Message{
			{Sender: SenderAI, Text: openingQuestion, Timestamp: now},
		},
		Progress:  0,
		Active:    true,
		Module:    module,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithMessage returns a copy of s with one message appended. The
// transcript slice is cloned so the receiver is untouched.
func (s Session) WithMessage(sender Sender, text string, now time.Time) Session {
	transcript := make([]Message, len(s.Transcript), len(s.Transcript)+1)
	copy(transcript, s.Transcript)
	s.Transcript = append(transcript, Message{Sender: sender, Text: text, Timestamp: now})
	s.UpdatedAt = now
	return s
}

// WithProgress returns a copy of s with progress updated.
func (s Session) WithProgress(progress int, now time.Time) Session {
	s.Progress = progress
	s.UpdatedAt = now
	return s
}

// Completed returns a copy of s marked complete: inactive, progress
// pinned to 100, summary recorded.
func (s Session) Completed(summary string, now time.Time) Session {
	s.Active = false
	s.Progress = 100
	s.Summary = summary
	s.UpdatedAt = now
	return s
}

// ComputeProgress derives the progress percentage from the transcript
// length against the planned question count. Each planned question and
// its answer count as two turns; the ratio is capped at 100 and
// rounded. The transcript length counts both AI and user messages.
func ComputeProgress(transcriptLen, interviewLength int) int {
	if interviewLength <= 0 {
		return 100
	}
	expected := interviewLength * 2
	ratio := float64(transcriptLen) / float64(expected) * 100
	return int(math.Round(math.Min(100, ratio)))
}
