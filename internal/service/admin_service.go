package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dsarena/exam-backend/internal/config"
	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/repository"
)

// AdminService handles session oversight: listing, repair, revocation and
// the retake gate.
type AdminService struct {
	sessions    repository.SessionStore
	violations  repository.ViolationStore
	eligibility repository.EligibilityStore
	instances   repository.InstanceStore
	cfg         config.ExamConfig
	logger      zerolog.Logger

	now func() time.Time
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	sessions repository.SessionStore,
	violations repository.ViolationStore,
	eligibility repository.EligibilityStore,
	instances repository.InstanceStore,
	cfg config.ExamConfig,
) *AdminService {
	return &AdminService{
		sessions:    sessions,
		violations:  violations,
		eligibility: eligibility,
		instances:   instances,
		cfg:         cfg,
		logger:      log.With().Str("component", "admin_service").Logger(),
		now:         time.Now,
	}
}

// SessionSummary is a session as shown in the admin console, with its
// derived outcome attached.
type SessionSummary struct {
	model.ExamSession
	Outcome model.Outcome `json:"outcome"`
}

// ListSessions retrieves sessions with derived outcomes for the console.
func (s *AdminService) ListSessions(ctx context.Context, filter repository.SessionFilter) ([]SessionSummary, int, error) {
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]SessionSummary, len(sessions))
	for i := range sessions {
		summaries[i] = SessionSummary{
			ExamSession: sessions[i],
			Outcome:     model.ClassifyOutcome(&sessions[i]),
		}
	}
	return summaries, total, nil
}

// GetSessionDetail retrieves one session with its violation audit trail.
func (s *AdminService) GetSessionDetail(ctx context.Context, sessionID uuid.UUID) (*SessionSummary, []model.ExamViolation, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}
	violations, err := s.violations.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return &SessionSummary{
		ExamSession: *session,
		Outcome:     model.ClassifyOutcome(session),
	}, violations, nil
}

// FixStaleSession force-disqualifies a session the browser never closed out.
func (s *AdminService) FixStaleSession(ctx context.Context, sessionID uuid.UUID) error {
	return s.terminate(ctx, sessionID, model.SessionStatusDisqualified, "Stale session fixed")
}

// RevokeSession withdraws an in-progress session by admin decision. The
// candidate's attempt is voided and the retake gate closes.
func (s *AdminService) RevokeSession(ctx context.Context, sessionID uuid.UUID) error {
	return s.terminate(ctx, sessionID, model.SessionStatusRevoked, "Session revoked")
}

func (s *AdminService) terminate(ctx context.Context, sessionID uuid.UUID, status model.SessionStatus, msg string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.Status.Terminal() {
		return ErrSessionNotActive
	}

	timeSpent := int(s.now().Sub(session.StartedAt).Seconds())
	if duration, err := s.sessionDuration(ctx, session); err == nil {
		if max := int(duration.Seconds()); timeSpent > max {
			timeSpent = max
		}
	}
	err = s.sessions.Finalize(ctx, sessionID, repository.SessionFinalization{
		Status:           status,
		TimeSpentSeconds: timeSpent,
		AutoSubmitted:    true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrSessionNotActive
		}
		return err
	}

	passed := false
	now := s.now()
	elig := &model.ExamEligibility{
		UserID:            session.UserID,
		IsEligible:        false,
		LastExamPassed:    &passed,
		LastExamSessionID: &sessionID,
		BlockedAt:         &now,
	}
	if err := s.eligibility.Upsert(ctx, elig); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", session.UserID.String()).
			Msg("Failed to block eligibility")
	}

	s.logger.Info().
		Str("session_id", sessionID.String()).
		Str("status", string(status)).
		Msg(msg)
	return nil
}

func (s *AdminService) sessionDuration(ctx context.Context, session *model.ExamSession) (time.Duration, error) {
	if session.InstanceID == nil {
		return s.cfg.DefaultDuration, nil
	}
	instance, err := s.instances.GetByID(ctx, *session.InstanceID)
	if err != nil {
		return 0, err
	}
	return instance.Duration(), nil
}

// ApproveRetake re-opens the retake gate for one user.
func (s *AdminService) ApproveRetake(ctx context.Context, userID uuid.UUID) error {
	err := s.eligibility.ApproveRetake(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// ApproveAllRetakes re-opens the gate for every blocked user.
func (s *AdminService) ApproveAllRetakes(ctx context.Context) (int64, error) {
	return s.eligibility.ApproveAll(ctx)
}

// DeleteUserHistory removes a user's sessions (answers and violations
// cascade) and their eligibility row, giving them a clean slate.
func (s *AdminService) DeleteUserHistory(ctx context.Context, userID uuid.UUID) (int64, error) {
	deleted, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.eligibility.DeleteByUser(ctx, userID); err != nil {
		return deleted, err
	}
	s.logger.Info().
		Str("user_id", userID.String()).
		Int64("sessions_deleted", deleted).
		Msg("User exam history deleted")
	return deleted, nil
}
