package model

import (
	"time"

	"github.com/google/uuid"
)

// InstanceStatus enumerates host-configured exam instance states.
type InstanceStatus string

const (
	InstanceStatusScheduled InstanceStatus = "scheduled"
	InstanceStatusActive    InstanceStatus = "active"
	InstanceStatusCompleted InstanceStatus = "completed"
)

// ExamInstance is a host-configured exam: a fixed question set, duration and
// per-question point value. Sessions created against an instance use its
// questions instead of the static bank.
type ExamInstance struct {
	ID               uuid.UUID      `json:"id"`
	HostAdminID      uuid.UUID      `json:"host_admin_id"`
	Topic            string         `json:"topic"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time"`
	DurationMinutes  int            `json:"duration_minutes"`
	MaxStudents      int            `json:"max_students"`
	TotalQuestions   int            `json:"total_questions"`
	ScorePerQuestion float64        `json:"score_per_question"`
	Status           InstanceStatus `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Duration returns the instance's exam duration.
func (i *ExamInstance) Duration() time.Duration {
	return time.Duration(i.DurationMinutes) * time.Minute
}

// InstanceQuestion is one authored question belonging to an instance. Test
// cases are stored as a JSON array in the instance's row set.
type InstanceQuestion struct {
	ID          uuid.UUID  `json:"id"`
	InstanceID  uuid.UUID  `json:"exam_instance_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	InputFormat string     `json:"input_format,omitempty"`
	StarterCode string     `json:"starter_code"`
	TestCases   []TestCase `json:"test_cases"`
	OrderNum    int        `json:"order_num"`
}

// CreateInstanceRequest is the payload for creating or updating an instance.
type CreateInstanceRequest struct {
	Topic            string    `json:"topic" binding:"required,min=3,max=255"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	DurationMinutes  int       `json:"duration_minutes" binding:"required,min=10,max=480"`
	MaxStudents      int       `json:"max_students" binding:"required,min=1,max=1000"`
	ScorePerQuestion float64   `json:"score_per_question" binding:"required,gt=0"`
}

// AddInstanceQuestionRequest is the payload for attaching a question.
type AddInstanceQuestionRequest struct {
	Title       string     `json:"title" binding:"required,min=3,max=255"`
	Description string     `json:"description" binding:"required,min=1"`
	InputFormat string     `json:"input_format"`
	StarterCode string     `json:"starter_code"`
	TestCases   []TestCase `json:"test_cases" binding:"required,min=1,dive"`
}
