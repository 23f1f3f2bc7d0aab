package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationType categorises a detected proctoring breach.
type ViolationType string

const (
	ViolationTabSwitch      ViolationType = "tab_switch"
	ViolationWindowBlur     ViolationType = "window_blur"
	ViolationFullscreenExit ViolationType = "fullscreen_exit"
	ViolationCopy           ViolationType = "copy"
	ViolationPaste          ViolationType = "paste"
	ViolationDevtools       ViolationType = "devtools"
)

// ExamViolation is one append-only audit entry recording a hearts decrement.
// Rows are never updated or deleted; the sequence for a session is the audit
// trail justifying its final hearts count.
type ExamViolation struct {
	ID           uuid.UUID     `json:"id"`
	SessionID    uuid.UUID     `json:"exam_session_id"`
	UserID       uuid.UUID     `json:"user_id"`
	Type         ViolationType `json:"violation_type"`
	HeartsBefore int           `json:"hearts_before"`
	HeartsAfter  int           `json:"hearts_after"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ProctorEvent is raw proctoring telemetry (every focus/fullscreen
// transition the surface observed), persisted asynchronously. Unlike
// ExamViolation it carries no hearts accounting.
type ProctorEvent struct {
	SessionID  uuid.UUID `json:"exam_session_id"`
	UserID     uuid.UUID `json:"user_id"`
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
