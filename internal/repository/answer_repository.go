package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dsarena/exam-backend/internal/model"
)

// AnswerRepository handles exam answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// ListBySession retrieves a session's answers ordered by question index.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_session_id, question_id, question_index, code,
		        is_correct, tests_passed, tests_total, run_count, last_run_at, updated_at
		 FROM exam_answers
		 WHERE exam_session_id = $1
		 ORDER BY question_index ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.ExamAnswer
	for rows.Next() {
		var a model.ExamAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.QuestionIndex, &a.Code,
			&a.IsCorrect, &a.TestsPassed, &a.TestsTotal, &a.RunCount, &a.LastRunAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// RecordRun stores the latest code and run outcome for one answer. A
// question that ever passed stays correct even if a later run regresses.
func (r *AnswerRepository) RecordRun(ctx context.Context, sessionID uuid.UUID, questionIndex int, code string, passed, total int, isCorrect bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_answers
		 SET code = $1,
		     tests_passed = $2,
		     tests_total = $3,
		     is_correct = is_correct OR $4,
		     run_count = run_count + 1,
		     last_run_at = NOW(),
		     updated_at = NOW()
		 WHERE exam_session_id = $5 AND question_index = $6`,
		code, passed, total, isCorrect, sessionID, questionIndex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveCode updates the stored code only. Used by the autosave worker, which
// must never touch the run outcome columns.
func (r *AnswerRepository) SaveCode(ctx context.Context, sessionID uuid.UUID, questionIndex int, code string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_answers
		 SET code = $1, updated_at = NOW()
		 WHERE exam_session_id = $2 AND question_index = $3`,
		code, sessionID, questionIndex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
