package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states. Transitions are one-way:
// a session never re-enters a status once it has left it.
type SessionStatus string

const (
	SessionStatusInProgress   SessionStatus = "in_progress"
	SessionStatusCompleted    SessionStatus = "completed"
	SessionStatusDisqualified SessionStatus = "disqualified"
	SessionStatusRevoked      SessionStatus = "revoked"
)

// Terminal reports whether the status is a final state.
func (s SessionStatus) Terminal() bool {
	return s != SessionStatusInProgress
}

// MaxHearts is the integrity-violation tolerance every session starts with.
// Hearts never regenerate while a session is in progress.
const MaxHearts = 3

// ExamSession represents one candidate's exam attempt.
type ExamSession struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"user_id"`
	Language         Language      `json:"language"`
	QuestionIDs      []string      `json:"question_ids"`
	InstanceID       *uuid.UUID    `json:"exam_instance_id,omitempty"`
	Status           SessionStatus `json:"status"`
	HeartsRemaining  int           `json:"hearts_remaining"`
	TotalViolations  int           `json:"total_violations"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	TimeSpentSeconds int           `json:"time_spent_seconds"`
	AutoSubmitted    bool          `json:"auto_submitted"`
	Passed           *bool         `json:"passed,omitempty"`
	Score            *float64      `json:"score,omitempty"`
}

// Deadline returns the wall-clock instant at which the session expires.
func (s *ExamSession) Deadline(duration time.Duration) time.Time {
	return s.StartedAt.Add(duration)
}

// Outcome is the derived classification of a session, computed in one place
// so that display, admin filtering and export all agree.
type Outcome string

const (
	OutcomePassed       Outcome = "passed"
	OutcomeFailed       Outcome = "failed"
	OutcomeInProgress   Outcome = "in_progress"
	OutcomeDisqualified Outcome = "disqualified"
	OutcomeRevoked      Outcome = "revoked"
)

// ClassifyOutcome derives the outcome of a session from its persisted fields.
// A session still in progress with zero hearts is already disqualified in
// substance even if the terminal write has not landed yet.
func ClassifyOutcome(s *ExamSession) Outcome {
	switch s.Status {
	case SessionStatusDisqualified:
		return OutcomeDisqualified
	case SessionStatusRevoked:
		return OutcomeRevoked
	}
	if s.Passed != nil {
		if *s.Passed {
			return OutcomePassed
		}
		return OutcomeFailed
	}
	if s.Status == SessionStatusInProgress && s.HeartsRemaining <= 0 {
		return OutcomeDisqualified
	}
	if s.Status == SessionStatusCompleted {
		// Completed but never scored counts as failed.
		return OutcomeFailed
	}
	return OutcomeInProgress
}

// StartSessionRequest is the payload for starting a new exam session.
type StartSessionRequest struct {
	Language   string  `json:"language" binding:"required,oneof=python javascript java cpp"`
	InstanceID *string `json:"exam_instance_id" binding:"omitempty,uuid"`
}

// ReportViolationRequest is the payload for a proctoring breach report.
type ReportViolationRequest struct {
	Type string `json:"type" binding:"required,oneof=tab_switch window_blur fullscreen_exit copy paste devtools"`
}

// RunCodeRequest is the payload for executing a candidate's code against a
// question's test cases.
type RunCodeRequest struct {
	QuestionIndex int    `json:"question_index" binding:"min=0"`
	Code          string `json:"code" binding:"required"`
	SubmitRun     bool   `json:"submit_run"`
}
