package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dsarena/exam-backend/internal/model"
)

// InstanceRepository handles host-configured exam instance data access.
type InstanceRepository struct {
	pool *pgxpool.Pool
}

// NewInstanceRepository creates a new InstanceRepository.
func NewInstanceRepository(pool *pgxpool.Pool) *InstanceRepository {
	return &InstanceRepository{pool: pool}
}

// Create inserts a new exam instance.
func (r *InstanceRepository) Create(ctx context.Context, i *model.ExamInstance) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_instances
		     (host_admin_id, topic, start_time, end_time, duration_minutes,
		      max_students, score_per_question, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		i.HostAdminID, i.Topic, i.StartTime, i.EndTime, i.DurationMinutes,
		i.MaxStudents, i.ScorePerQuestion, i.Status,
	).Scan(&i.ID, &i.CreatedAt)
}

// GetByID retrieves an instance with its question count.
func (r *InstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamInstance, error) {
	i := &model.ExamInstance{}
	err := r.pool.QueryRow(ctx,
		`SELECT i.id, i.host_admin_id, i.topic, i.start_time, i.end_time,
		        i.duration_minutes, i.max_students,
		        (SELECT COUNT(*) FROM exam_instance_questions q WHERE q.exam_instance_id = i.id),
		        i.score_per_question, i.status, i.created_at
		 FROM exam_instances i WHERE i.id = $1`, id,
	).Scan(&i.ID, &i.HostAdminID, &i.Topic, &i.StartTime, &i.EndTime,
		&i.DurationMinutes, &i.MaxStudents, &i.TotalQuestions,
		&i.ScorePerQuestion, &i.Status, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return i, nil
}

// List retrieves instances newest first with pagination.
func (r *InstanceRepository) List(ctx context.Context, limit, offset int) ([]model.ExamInstance, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_instances`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.host_admin_id, i.topic, i.start_time, i.end_time,
		        i.duration_minutes, i.max_students,
		        (SELECT COUNT(*) FROM exam_instance_questions q WHERE q.exam_instance_id = i.id),
		        i.score_per_question, i.status, i.created_at
		 FROM exam_instances i
		 ORDER BY i.start_time DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var instances []model.ExamInstance
	for rows.Next() {
		var i model.ExamInstance
		if err := rows.Scan(&i.ID, &i.HostAdminID, &i.Topic, &i.StartTime, &i.EndTime,
			&i.DurationMinutes, &i.MaxStudents, &i.TotalQuestions,
			&i.ScorePerQuestion, &i.Status, &i.CreatedAt); err != nil {
			return nil, 0, err
		}
		instances = append(instances, i)
	}
	return instances, total, rows.Err()
}

// UpdateStatus moves an instance through its lifecycle.
func (r *InstanceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.InstanceStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_instances SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an instance and its questions.
func (r *InstanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM exam_instances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddQuestion attaches a question to an instance. Order numbers are
// assigned server-side as max+1.
func (r *InstanceRepository) AddQuestion(ctx context.Context, q *model.InstanceQuestion) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_instance_questions
		     (exam_instance_id, title, description, input_format, starter_code, test_cases, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         (SELECT COALESCE(MAX(order_num), 0) + 1
		          FROM exam_instance_questions WHERE exam_instance_id = $1))
		 RETURNING id, order_num`,
		q.InstanceID, q.Title, q.Description, q.InputFormat, q.StarterCode, q.TestCases,
	).Scan(&q.ID, &q.OrderNum)
}

// ListQuestions retrieves an instance's questions in authored order.
func (r *InstanceRepository) ListQuestions(ctx context.Context, instanceID uuid.UUID) ([]model.InstanceQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_instance_id, title, description, input_format,
		        starter_code, test_cases, order_num
		 FROM exam_instance_questions
		 WHERE exam_instance_id = $1
		 ORDER BY order_num ASC`, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.InstanceQuestion
	for rows.Next() {
		var q model.InstanceQuestion
		if err := rows.Scan(&q.ID, &q.InstanceID, &q.Title, &q.Description, &q.InputFormat,
			&q.StarterCode, &q.TestCases, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
