package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dsarena/exam-backend/internal/model"
)

// EligibilityRepository handles the per-user retake gate.
type EligibilityRepository struct {
	pool *pgxpool.Pool
}

// NewEligibilityRepository creates a new EligibilityRepository.
func NewEligibilityRepository(pool *pgxpool.Pool) *EligibilityRepository {
	return &EligibilityRepository{pool: pool}
}

// Get retrieves a user's eligibility row. A user with no row has never
// finished an exam and is eligible by default; callers see ErrNotFound.
func (r *EligibilityRepository) Get(ctx context.Context, userID uuid.UUID) (*model.ExamEligibility, error) {
	e := &model.ExamEligibility{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, is_eligible, last_exam_passed, last_exam_session_id, blocked_at, updated_at
		 FROM exam_eligibility WHERE user_id = $1`, userID,
	).Scan(&e.UserID, &e.IsEligible, &e.LastExamPassed, &e.LastExamSessionID, &e.BlockedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Upsert writes a user's eligibility, replacing any previous row.
func (r *EligibilityRepository) Upsert(ctx context.Context, e *model.ExamEligibility) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_eligibility
		     (user_id, is_eligible, last_exam_passed, last_exam_session_id, blocked_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE
		 SET is_eligible = EXCLUDED.is_eligible,
		     last_exam_passed = EXCLUDED.last_exam_passed,
		     last_exam_session_id = EXCLUDED.last_exam_session_id,
		     blocked_at = EXCLUDED.blocked_at,
		     updated_at = NOW()
		 RETURNING updated_at`,
		e.UserID, e.IsEligible, e.LastExamPassed, e.LastExamSessionID, e.BlockedAt,
	).Scan(&e.UpdatedAt)
}

// ApproveRetake re-opens the gate for one user.
func (r *EligibilityRepository) ApproveRetake(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_eligibility
		 SET is_eligible = TRUE, blocked_at = NULL, updated_at = NOW()
		 WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApproveAll re-opens the gate for every blocked user and returns how many
// rows changed.
func (r *EligibilityRepository) ApproveAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_eligibility
		 SET is_eligible = TRUE, blocked_at = NULL, updated_at = NOW()
		 WHERE is_eligible = FALSE`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByUser removes a user's eligibility row.
func (r *EligibilityRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM exam_eligibility WHERE user_id = $1`, userID)
	return err
}
