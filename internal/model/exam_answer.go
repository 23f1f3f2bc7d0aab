package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamAnswer is the stored code and latest run outcome for one question
// within a session. One row per (session, question index), created with the
// question's starter code when the session is created and never deleted
// while the session exists.
type ExamAnswer struct {
	ID            uuid.UUID  `json:"id"`
	SessionID     uuid.UUID  `json:"exam_session_id"`
	QuestionID    string     `json:"question_id"`
	QuestionIndex int        `json:"question_index"`
	Code          string     `json:"code"`
	IsCorrect     bool       `json:"is_correct"`
	TestsPassed   int        `json:"tests_passed"`
	TestsTotal    int        `json:"tests_total"`
	RunCount      int        `json:"run_count"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AnswerState summarises how far the candidate has got on a question.
type AnswerState string

const (
	AnswerUnanswered AnswerState = "unanswered"
	AnswerAttempted  AnswerState = "attempted"
	AnswerCompleted  AnswerState = "completed"
)

// State derives the answer's progress state, given the starter code the
// question originally carried.
func (a *ExamAnswer) State(starterCode string) AnswerState {
	if a.IsCorrect {
		return AnswerCompleted
	}
	if a.Code != "" && a.Code != starterCode {
		return AnswerAttempted
	}
	return AnswerUnanswered
}
