package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	sess := New("s1", ModuleSnapshot{Name: "political", InterviewLength: 10}, "Hello, first question?", now)

	assert.Equal(t, "s1", sess.ID)
	assert.True(t, sess.Active)
	assert.Equal(t, 0, sess.Progress)
	assert.Empty(t, sess.Summary)
	require.Len(t, sess.Transcript, 1)
	assert.Equal(t, SenderAI, sess.Transcript[0].Sender)
	assert.Equal(t, "Hello, first question?", sess.Transcript[0].Text)
	assert.Equal(t, now, sess.Transcript[0].Timestamp)
}

func TestWithMessageDoesNotMutateReceiver(t *testing.T) {
	now := time.Now()
	orig := New("s1", ModuleSnapshot{Name: "general", InterviewLength: 2}, "q1", now)

	updated := orig.WithMessage(SenderUser, "a1", now.Add(time.Second))

	assert.Len(t, orig.Transcript, 1, "receiver transcript must be unchanged")
	require.Len(t, updated.Transcript, 2)
	assert.Equal(t, SenderUser, updated.Transcript[1].Sender)
	assert.Equal(t, "a1", updated.Transcript[1].Text)
}

func TestCompleted(t *testing.T) {
	now := time.Now()
	sess := New("s1", ModuleSnapshot{Name: "general", InterviewLength: 2}, "q1", now)
	sess = sess.WithProgress(50, now)

	done := sess.Completed("the summary", now.Add(time.Minute))

	assert.False(t, done.Active)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, "the summary", done.Summary)
	// Receiver untouched.
	assert.True(t, sess.Active)
	assert.Equal(t, 50, sess.Progress)
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name            string
		transcriptLen   int
		interviewLength int
		want            int
	}{
		{"start of interview", 1, 10, 5},
		{"first answer", 2, 10, 10},
		{"halfway", 10, 10, 50},
		{"exactly complete", 20, 10, 100},
		{"beyond planned length", 25, 10, 100},
		{"short interview complete", 2, 1, 100},
		{"short interview first question", 1, 1, 50},
		{"rounding up", 1, 3, 17},   // 1/6*100 = 16.67
		{"rounding down", 2, 3, 33}, // 2/6*100 = 33.33
		{"zero length pins to 100", 4, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeProgress(tt.transcriptLen, tt.interviewLength))
		})
	}
}

func TestComputeProgressMonotone(t *testing.T) {
	prev := 0
	for length := 1; length <= 24; length++ {
		p := ComputeProgress(length, 12)
		assert.GreaterOrEqual(t, p, prev, "progress must never decrease (len=%d)", length)
		prev = p
	}
	assert.Equal(t, 100, prev)
}
