package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dsarena/exam-backend/internal/model"
)

// ViolationRepository handles violation audit and proctoring telemetry data
// access. Violation rows themselves are written inside the session
// repository's hearts transaction; this repository only reads them.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// ListBySession retrieves a session's violations in insertion order.
func (r *ViolationRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamViolation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_session_id, user_id, violation_type,
		        hearts_before, hearts_after, created_at
		 FROM exam_violations
		 WHERE exam_session_id = $1
		 ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []model.ExamViolation
	for rows.Next() {
		var v model.ExamViolation
		if err := rows.Scan(&v.ID, &v.SessionID, &v.UserID, &v.Type,
			&v.HeartsBefore, &v.HeartsAfter, &v.CreatedAt); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// BatchInsertProctorEvents bulk-inserts raw telemetry rows via COPY.
func (r *ViolationRepository) BatchInsertProctorEvents(ctx context.Context, events []model.ProctorEvent) error {
	if len(events) == 0 {
		return nil
	}
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"proctor_events"},
		[]string{"exam_session_id", "user_id", "kind", "detail", "recorded_at"},
		pgx.CopyFromSlice(len(events), func(i int) ([]interface{}, error) {
			e := events[i]
			return []interface{}{e.SessionID, e.UserID, e.Kind, e.Detail, e.RecordedAt}, nil
		}),
	)
	return err
}

// InsertProctorEvent inserts a single telemetry row. Fallback path when a
// COPY batch is rejected.
func (r *ViolationRepository) InsertProctorEvent(ctx context.Context, e *model.ProctorEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO proctor_events (exam_session_id, user_id, kind, detail, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.SessionID, e.UserID, e.Kind, e.Detail, e.RecordedAt)
	return err
}
