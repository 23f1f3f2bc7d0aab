package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamEligibility gates whether a user may start a new exam session. A
// failed, disqualified or revoked attempt blocks the user until an admin
// approves a retake.
type ExamEligibility struct {
	UserID            uuid.UUID  `json:"user_id"`
	IsEligible        bool       `json:"is_eligible"`
	LastExamPassed    *bool      `json:"last_exam_passed,omitempty"`
	LastExamSessionID *uuid.UUID `json:"last_exam_session_id,omitempty"`
	BlockedAt         *time.Time `json:"blocked_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
