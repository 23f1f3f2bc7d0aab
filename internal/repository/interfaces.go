// Package repository implements data access over PostgreSQL.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dsarena/exam-backend/internal/model"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict is returned when a conditional update matched no row,
	// meaning the caller's view of the row was stale.
	ErrConflict = errors.New("repository: conflicting concurrent update")
	// ErrDuplicateActiveSession is returned when creating a session would
	// give a user a second in-progress session.
	ErrDuplicateActiveSession = errors.New("repository: user already has an active session")
)

// SessionFinalization carries the terminal fields written when a session
// leaves the in_progress status.
type SessionFinalization struct {
	Status           model.SessionStatus
	Score            *float64
	Passed           *bool
	TimeSpentSeconds int
	AutoSubmitted    bool
}

// SessionFilter narrows admin session listings.
type SessionFilter struct {
	Status     model.SessionStatus
	UserID     *uuid.UUID
	InstanceID *uuid.UUID
	Limit      int
	Offset     int
}

// SessionStore persists exam sessions and their hearts accounting.
type SessionStore interface {
	// CreateWithAnswers inserts the session and its pre-seeded answer rows
	// in one transaction. Returns ErrDuplicateActiveSession if the user
	// already has an in-progress session.
	CreateWithAnswers(ctx context.Context, s *model.ExamSession, answers []model.ExamAnswer) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error)
	// DecrementHearts atomically takes one heart off the session and writes
	// the violation audit row, but only if the session still holds
	// expectedHearts and is still in progress. Returns ErrConflict when the
	// guard fails.
	DecrementHearts(ctx context.Context, sessionID uuid.UUID, expectedHearts int, v *model.ExamViolation) error
	// Finalize moves an in-progress session into a terminal status. Returns
	// ErrConflict if the session already left in_progress.
	Finalize(ctx context.Context, sessionID uuid.UUID, fin SessionFinalization) error
	List(ctx context.Context, filter SessionFilter) ([]model.ExamSession, int, error)
	ListInProgressStartedBefore(ctx context.Context, before time.Time) ([]model.ExamSession, error)
	CountByInstance(ctx context.Context, instanceID uuid.UUID) (int, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AnswerStore persists per-question answers within a session.
type AnswerStore interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamAnswer, error)
	// RecordRun stores the latest code and run outcome for one answer.
	RecordRun(ctx context.Context, sessionID uuid.UUID, questionIndex int, code string, passed, total int, isCorrect bool) error
	// SaveCode updates the stored code only, used by the autosave path.
	SaveCode(ctx context.Context, sessionID uuid.UUID, questionIndex int, code string) error
}

// ViolationStore persists the append-only violation audit trail plus raw
// proctoring telemetry.
type ViolationStore interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamViolation, error)
	BatchInsertProctorEvents(ctx context.Context, events []model.ProctorEvent) error
	InsertProctorEvent(ctx context.Context, e *model.ProctorEvent) error
}

// EligibilityStore persists the per-user retake gate.
type EligibilityStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.ExamEligibility, error)
	Upsert(ctx context.Context, e *model.ExamEligibility) error
	ApproveRetake(ctx context.Context, userID uuid.UUID) error
	ApproveAll(ctx context.Context) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// InstanceStore persists host-configured exam instances and their questions.
type InstanceStore interface {
	Create(ctx context.Context, i *model.ExamInstance) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamInstance, error)
	List(ctx context.Context, limit, offset int) ([]model.ExamInstance, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.InstanceStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddQuestion(ctx context.Context, q *model.InstanceQuestion) error
	ListQuestions(ctx context.Context, instanceID uuid.UUID) ([]model.InstanceQuestion, error)
}

// AdminStore persists console users.
type AdminStore interface {
	Create(ctx context.Context, a *model.Admin) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
}
