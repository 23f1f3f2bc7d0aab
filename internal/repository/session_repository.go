package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dsarena/exam-backend/internal/model"
)

// SessionRepository handles exam session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, user_id, language, question_ids, exam_instance_id, status,
	        hearts_remaining, total_violations, started_at, completed_at,
	        time_spent_seconds, auto_submitted, passed, score`

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(&s.ID, &s.UserID, &s.Language, &s.QuestionIDs, &s.InstanceID, &s.Status,
		&s.HeartsRemaining, &s.TotalViolations, &s.StartedAt, &s.CompletedAt,
		&s.TimeSpentSeconds, &s.AutoSubmitted, &s.Passed, &s.Score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// CreateWithAnswers inserts the session and its starter answer rows in one
// transaction. The partial unique index on (user_id) WHERE status =
// 'in_progress' makes a second active session a constraint violation, which
// surfaces as ErrDuplicateActiveSession.
func (r *SessionRepository) CreateWithAnswers(ctx context.Context, s *model.ExamSession, answers []model.ExamAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO exam_sessions
		     (user_id, language, question_ids, exam_instance_id, status, hearts_remaining, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		s.UserID, s.Language, s.QuestionIDs, s.InstanceID, s.Status, s.HeartsRemaining, s.StartedAt,
	).Scan(&s.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateActiveSession
		}
		return err
	}

	for i := range answers {
		answers[i].SessionID = s.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO exam_answers (exam_session_id, question_id, question_index, code)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, updated_at`,
			answers[i].SessionID, answers[i].QuestionID, answers[i].QuestionIndex, answers[i].Code,
		).Scan(&answers[i].ID, &answers[i].UpdatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a session by its UUID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id))
}

// GetActiveByUser retrieves the user's in-progress session, if any.
func (r *SessionRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE user_id = $1 AND status = 'in_progress'
		 ORDER BY started_at DESC
		 LIMIT 1`, userID))
}

// DecrementHearts takes one heart and records the violation in one
// transaction. The WHERE clause carries the caller's expected hearts count,
// so concurrent decrements cannot double-spend a heart: the loser of the
// race matches zero rows and gets ErrConflict.
func (r *SessionRepository) DecrementHearts(ctx context.Context, sessionID uuid.UUID, expectedHearts int, v *model.ExamViolation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET hearts_remaining = hearts_remaining - 1,
		     total_violations = total_violations + 1
		 WHERE id = $1 AND hearts_remaining = $2 AND status = 'in_progress'`,
		sessionID, expectedHearts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO exam_violations
		     (exam_session_id, user_id, violation_type, hearts_before, hearts_after)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		v.SessionID, v.UserID, v.Type, v.HeartsBefore, v.HeartsAfter,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Finalize moves an in-progress session into a terminal status. The status
// guard makes the transition one-way: a session that already left
// in_progress matches no row and the write is refused with ErrConflict.
func (r *SessionRepository) Finalize(ctx context.Context, sessionID uuid.UUID, fin SessionFinalization) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $1, score = $2, passed = $3, time_spent_seconds = $4,
		     auto_submitted = $5, completed_at = NOW()
		 WHERE id = $6 AND status = 'in_progress'`,
		fin.Status, fin.Score, fin.Passed, fin.TimeSpentSeconds, fin.AutoSubmitted, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// List retrieves sessions for the admin console, newest first.
func (r *SessionRepository) List(ctx context.Context, filter SessionFilter) ([]model.ExamSession, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	appendArg := func(clause string, value interface{}) {
		where += ` AND ` + clause + ` = $` + strconv.Itoa(argIdx)
		args = append(args, value)
		argIdx++
	}
	if filter.Status != "" {
		appendArg("status", filter.Status)
	}
	if filter.UserID != nil {
		appendArg("user_id", *filter.UserID)
	}
	if filter.InstanceID != nil {
		appendArg("exam_instance_id", *filter.InstanceID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_sessions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + sessionColumns + ` FROM exam_sessions` + where +
		` ORDER BY started_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, total, rows.Err()
}

// ListInProgressStartedBefore retrieves in-progress sessions started before
// the given instant. The deadline sweep uses it to find candidates for
// forced submission.
func (r *SessionRepository) ListInProgressStartedBefore(ctx context.Context, before time.Time) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE status = 'in_progress' AND started_at < $1
		 ORDER BY started_at ASC`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// CountByInstance counts sessions created against an instance, enforcing
// its seat limit.
func (r *SessionRepository) CountByInstance(ctx context.Context, instanceID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_sessions WHERE exam_instance_id = $1`, instanceID,
	).Scan(&count)
	return count, err
}

// DeleteByUser removes all of a user's sessions. Answers and violations go
// with them via ON DELETE CASCADE.
func (r *SessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM exam_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
