package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/repository"
)

// InstanceService handles the host-configured exam instance lifecycle.
type InstanceService struct {
	instances repository.InstanceStore
	logger    zerolog.Logger

	now func() time.Time
}

// NewInstanceService creates a new InstanceService.
func NewInstanceService(instances repository.InstanceStore) *InstanceService {
	return &InstanceService{
		instances: instances,
		logger:    log.With().Str("component", "instance_service").Logger(),
		now:       time.Now,
	}
}

// Create schedules a new exam instance for a host.
func (s *InstanceService) Create(ctx context.Context, hostAdminID uuid.UUID, req *model.CreateInstanceRequest) (*model.ExamInstance, error) {
	instance := &model.ExamInstance{
		HostAdminID:      hostAdminID,
		Topic:            req.Topic,
		StartTime:        req.StartTime,
		EndTime:          req.StartTime.Add(time.Duration(req.DurationMinutes) * time.Minute),
		DurationMinutes:  req.DurationMinutes,
		MaxStudents:      req.MaxStudents,
		ScorePerQuestion: req.ScorePerQuestion,
		Status:           model.InstanceStatusScheduled,
	}
	if err := s.instances.Create(ctx, instance); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("instance_id", instance.ID.String()).
		Str("topic", instance.Topic).
		Msg("Exam instance created")
	return instance, nil
}

// Get retrieves one instance.
func (s *InstanceService) Get(ctx context.Context, id uuid.UUID) (*model.ExamInstance, error) {
	instance, err := s.instances.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInstanceNotAvailable
	}
	return instance, err
}

// List retrieves instances with pagination.
func (s *InstanceService) List(ctx context.Context, limit, offset int) ([]model.ExamInstance, int, error) {
	return s.instances.List(ctx, limit, offset)
}

// Activate opens an instance for candidates. Refused while it has no
// questions, since a session against it could never be graded.
func (s *InstanceService) Activate(ctx context.Context, id uuid.UUID) error {
	instance, err := s.instances.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInstanceNotAvailable
		}
		return err
	}
	if instance.TotalQuestions == 0 {
		return ErrNoQuestions
	}
	return s.instances.UpdateStatus(ctx, id, model.InstanceStatusActive)
}

// Complete closes an instance to new sessions.
func (s *InstanceService) Complete(ctx context.Context, id uuid.UUID) error {
	err := s.instances.UpdateStatus(ctx, id, model.InstanceStatusCompleted)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInstanceNotAvailable
	}
	return err
}

// Delete removes an instance and its questions.
func (s *InstanceService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.instances.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInstanceNotAvailable
	}
	return err
}

// AddQuestion attaches an authored question to an instance.
func (s *InstanceService) AddQuestion(ctx context.Context, instanceID uuid.UUID, req *model.AddInstanceQuestionRequest) (*model.InstanceQuestion, error) {
	if _, err := s.instances.GetByID(ctx, instanceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstanceNotAvailable
		}
		return nil, err
	}
	question := &model.InstanceQuestion{
		InstanceID:  instanceID,
		Title:       req.Title,
		Description: req.Description,
		InputFormat: req.InputFormat,
		StarterCode: req.StarterCode,
		TestCases:   req.TestCases,
	}
	if err := s.instances.AddQuestion(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// ListQuestions retrieves an instance's questions in authored order.
func (s *InstanceService) ListQuestions(ctx context.Context, instanceID uuid.UUID) ([]model.InstanceQuestion, error) {
	return s.instances.ListQuestions(ctx, instanceID)
}
