package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestClassifyOutcome(t *testing.T) {
	tests := []struct {
		name    string
		session ExamSession
		want    Outcome
	}{
		{
			name:    "live session",
			session: ExamSession{Status: SessionStatusInProgress, HeartsRemaining: 2},
			want:    OutcomeInProgress,
		},
		{
			name:    "completed and passed",
			session: ExamSession{Status: SessionStatusCompleted, Passed: boolPtr(true)},
			want:    OutcomePassed,
		},
		{
			name:    "completed and failed",
			session: ExamSession{Status: SessionStatusCompleted, Passed: boolPtr(false)},
			want:    OutcomeFailed,
		},
		{
			name:    "completed but never scored",
			session: ExamSession{Status: SessionStatusCompleted},
			want:    OutcomeFailed,
		},
		{
			name:    "disqualified",
			session: ExamSession{Status: SessionStatusDisqualified, Passed: boolPtr(false)},
			want:    OutcomeDisqualified,
		},
		{
			name:    "revoked",
			session: ExamSession{Status: SessionStatusRevoked},
			want:    OutcomeRevoked,
		},
		{
			name:    "zero hearts before the terminal write lands",
			session: ExamSession{Status: SessionStatusInProgress, HeartsRemaining: 0},
			want:    OutcomeDisqualified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyOutcome(&tt.session))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, SessionStatusInProgress.Terminal())
	assert.True(t, SessionStatusCompleted.Terminal())
	assert.True(t, SessionStatusDisqualified.Terminal())
	assert.True(t, SessionStatusRevoked.Terminal())
}
