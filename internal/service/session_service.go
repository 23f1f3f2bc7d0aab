package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dsarena/exam-backend/internal/config"
	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/questionbank"
	"github.com/dsarena/exam-backend/internal/repository"
	"github.com/dsarena/exam-backend/internal/runner"
)

// QuestionWeights is the score contribution of each question in a
// three-question static-bank exam, in easy, medium, hard order.
var QuestionWeights = []float64{0.30, 0.30, 0.40}

// heartsRetries bounds the reload-and-retry loop around the conditional
// hearts decrement.
const heartsRetries = 3

// SessionService handles the exam session lifecycle.
type SessionService struct {
	sessions    repository.SessionStore
	answers     repository.AnswerStore
	violations  repository.ViolationStore
	eligibility repository.EligibilityStore
	instances   repository.InstanceStore
	bank        *questionbank.Bank
	runner      runner.Runner
	rdb         *redis.Client
	cfg         config.ExamConfig
	logger      zerolog.Logger

	// now is swappable so tests can drive the clock.
	now func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessions repository.SessionStore,
	answers repository.AnswerStore,
	violations repository.ViolationStore,
	eligibility repository.EligibilityStore,
	instances repository.InstanceStore,
	bank *questionbank.Bank,
	run runner.Runner,
	rdb *redis.Client,
	cfg config.ExamConfig,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		answers:     answers,
		violations:  violations,
		eligibility: eligibility,
		instances:   instances,
		bank:        bank,
		runner:      run,
		rdb:         rdb,
		cfg:         cfg,
		logger:      log.With().Str("component", "session_service").Logger(),
		now:         time.Now,
	}
}

// SessionView is a session as presented to its candidate: the session row
// plus its questions (hidden tests stripped via JSON tags), current answers
// and timing information.
type SessionView struct {
	Session          *model.ExamSession   `json:"session"`
	Questions        []model.ExamQuestion `json:"questions"`
	Answers          []model.ExamAnswer   `json:"answers"`
	Deadline         time.Time            `json:"deadline"`
	SubmitUnlockAt   time.Time            `json:"submit_unlock_at"`
	RemainingSeconds int                  `json:"remaining_seconds"`
}

// ViolationOutcome reports what a breach report did to the session.
type ViolationOutcome struct {
	HeartsRemaining int  `json:"hearts_remaining"`
	TotalViolations int  `json:"total_violations"`
	Disqualified    bool `json:"disqualified"`
}

// SubmitResult is the graded outcome of a finished session.
type SubmitResult struct {
	SessionID     uuid.UUID     `json:"session_id"`
	Score         float64       `json:"score"`
	Passed        bool          `json:"passed"`
	Outcome       model.Outcome `json:"outcome"`
	AutoSubmitted bool          `json:"auto_submitted"`
}

// Start creates a new exam session for the user: eligibility gate, question
// draw, session row plus starter answer rows in one transaction, then a
// Redis warm-up of the session clock.
func (s *SessionService) Start(ctx context.Context, userID uuid.UUID, req *model.StartSessionRequest) (*SessionView, error) {
	if err := s.checkEligibility(ctx, userID); err != nil {
		return nil, err
	}

	language := model.Language(req.Language)
	var (
		questions  []model.ExamQuestion
		instanceID *uuid.UUID
		err        error
	)
	if req.InstanceID != nil {
		id, parseErr := uuid.Parse(*req.InstanceID)
		if parseErr != nil {
			return nil, fmt.Errorf("parse instance id: %w", parseErr)
		}
		questions, err = s.joinInstance(ctx, id)
		if err != nil {
			return nil, err
		}
		instanceID = &id
	} else {
		questions, err = s.bank.SelectRandom(language, s.cfg.QuestionCount)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	session := &model.ExamSession{
		UserID:          userID,
		Language:        language,
		QuestionIDs:     questionIDs(questions),
		InstanceID:      instanceID,
		Status:          model.SessionStatusInProgress,
		HeartsRemaining: model.MaxHearts,
		StartedAt:       now,
	}
	answers := make([]model.ExamAnswer, len(questions))
	for i, q := range questions {
		answers[i] = model.ExamAnswer{
			QuestionID:    q.ID,
			QuestionIndex: i,
			Code:          q.StarterCode,
		}
	}

	if err := s.sessions.CreateWithAnswers(ctx, session, answers); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveSession) {
			return nil, ErrDuplicateActiveSession
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cacheSessionStart(ctx, session)
	s.logger.Info().
		Str("session_id", session.ID.String()).
		Str("user_id", userID.String()).
		Str("language", string(language)).
		Msg("Exam session started")

	return s.buildView(ctx, session, questions, answers)
}

// Resume returns the user's in-progress session with its questions and
// saved answers. An expired session is force-submitted on the spot and
// reported as no longer active.
func (s *SessionService) Resume(ctx context.Context, userID uuid.UUID) (*SessionView, error) {
	session, err := s.sessions.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotActive
		}
		return nil, err
	}

	if session.HeartsRemaining <= 0 {
		// The disqualification write was lost. Repair before reporting.
		if err := s.disqualify(ctx, session); err != nil && !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		return nil, ErrSessionNotActive
	}

	duration, err := s.sessionDuration(ctx, session)
	if err != nil {
		return nil, err
	}
	if s.now().After(session.Deadline(duration)) {
		if _, err := s.finalizeSubmission(ctx, session, true); err != nil && !errors.Is(err, ErrSessionNotActive) {
			return nil, err
		}
		return nil, ErrSessionNotActive
	}

	questions, err := s.loadQuestions(ctx, session)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, session, questions, answers)
}

// State returns the current view of one session for its owner, whatever its
// status.
func (s *SessionService) State(ctx context.Context, userID, sessionID uuid.UUID) (*SessionView, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	questions, err := s.loadQuestions(ctx, session)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, session, questions, answers)
}

// RecordViolation applies one integrity breach to the session: a conditional
// hearts decrement with its audit row, retried on concurrent interleavings,
// and a forced disqualification when the last heart goes.
func (s *SessionService) RecordViolation(ctx context.Context, userID, sessionID uuid.UUID, vtype model.ViolationType) (*ViolationOutcome, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < heartsRetries; attempt++ {
		if session.Status.Terminal() {
			return nil, ErrSessionNotActive
		}
		if session.HeartsRemaining <= 0 {
			// A zero-hearts session still marked in_progress means the
			// terminal write was lost. Repair it before rejecting.
			if err := s.disqualify(ctx, session); err != nil && !errors.Is(err, repository.ErrConflict) {
				return nil, err
			}
			return nil, ErrSessionNotActive
		}

		violation := &model.ExamViolation{
			SessionID:    session.ID,
			UserID:       session.UserID,
			Type:         vtype,
			HeartsBefore: session.HeartsRemaining,
			HeartsAfter:  session.HeartsRemaining - 1,
		}
		err = s.sessions.DecrementHearts(ctx, session.ID, session.HeartsRemaining, violation)
		if err == nil {
			outcome := &ViolationOutcome{
				HeartsRemaining: violation.HeartsAfter,
				TotalViolations: session.TotalViolations + 1,
			}
			s.logger.Warn().
				Str("session_id", session.ID.String()).
				Str("violation_type", string(vtype)).
				Int("hearts_remaining", outcome.HeartsRemaining).
				Msg("Integrity violation recorded")

			if violation.HeartsAfter <= 0 {
				session.HeartsRemaining = 0
				if err := s.disqualify(ctx, session); err != nil && !errors.Is(err, repository.ErrConflict) {
					return nil, err
				}
				outcome.Disqualified = true
			}
			return outcome, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("decrement hearts: %w", err)
		}

		// Lost the race against a concurrent decrement or terminal write.
		// Reload and re-evaluate.
		session, err = s.sessions.GetByID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
	}
	return nil, ErrSessionNotActive
}

// RecordRun executes the candidate's code for one question and stores the
// outcome on the answer row.
func (s *SessionService) RecordRun(ctx context.Context, userID, sessionID uuid.UUID, req *model.RunCodeRequest) (*runner.RunResult, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, ErrSessionNotActive
	}
	duration, err := s.sessionDuration(ctx, session)
	if err != nil {
		return nil, err
	}
	if s.now().After(session.Deadline(duration)) {
		if _, err := s.finalizeSubmission(ctx, session, true); err != nil && !errors.Is(err, ErrSessionNotActive) {
			return nil, err
		}
		return nil, ErrSessionNotActive
	}

	questions, err := s.loadQuestions(ctx, session)
	if err != nil {
		return nil, err
	}
	if req.QuestionIndex < 0 || req.QuestionIndex >= len(questions) {
		return nil, ErrQuestionIndex
	}
	question := questions[req.QuestionIndex]

	tests := question.RunTests(req.SubmitRun)
	result, err := s.runner.Run(ctx, session.Language, req.Code, tests)
	if err != nil {
		// Sandbox trouble is the candidate's retry, not the session's
		// failure. Surface it as failing results and leave the stored
		// answer untouched.
		s.logger.Error().Err(err).
			Str("session_id", session.ID.String()).
			Msg("Code execution failed")
		failed := &runner.RunResult{TestsTotal: len(tests)}
		for _, tc := range tests {
			failed.Results = append(failed.Results, runner.TestResult{
				Error:  "Execution failed, please try again",
				Hidden: tc.Hidden,
			})
		}
		return failed, nil
	}

	// Correctness requires the full suite, hidden cases included.
	isCorrect := req.SubmitRun && result.AllPassed()
	if err := s.answers.RecordRun(ctx, session.ID, req.QuestionIndex, req.Code,
		result.TestsPassed, result.TestsTotal, isCorrect); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	// Hidden case outputs never leave the backend.
	for i := range result.Results {
		if result.Results[i].Hidden {
			result.Results[i].ActualOutput = ""
			result.Results[i].Error = ""
		}
	}
	return result, nil
}

// Submit grades and closes the session. Manual submissions are refused
// until the unlock fraction of the exam duration has elapsed; forced
// submissions (deadline sweep, resume of an expired session) skip the gate.
func (s *SessionService) Submit(ctx context.Context, userID, sessionID uuid.UUID, forced bool) (*SubmitResult, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, ErrSessionNotActive
	}
	if session.HeartsRemaining <= 0 {
		// De-facto disqualified; the terminal write was lost. A submit
		// must not convert that into a completed session.
		if err := s.disqualify(ctx, session); err != nil && !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		return nil, ErrSessionNotActive
	}

	if !forced {
		duration, err := s.sessionDuration(ctx, session)
		if err != nil {
			return nil, err
		}
		unlockAt := session.StartedAt.Add(time.Duration(float64(duration) * s.cfg.SubmitUnlockRatio))
		if s.now().Before(unlockAt) {
			return nil, ErrSubmissionTooEarly
		}
	}
	return s.finalizeSubmission(ctx, session, forced)
}

// ForceSubmit closes a session on behalf of the system, used by the
// deadline sweep. Ownership is not checked.
func (s *SessionService) ForceSubmit(ctx context.Context, sessionID uuid.UUID) (*SubmitResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, ErrSessionNotActive
	}
	if session.HeartsRemaining <= 0 {
		if err := s.disqualify(ctx, session); err != nil && !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		return nil, ErrSessionNotActive
	}
	return s.finalizeSubmission(ctx, session, true)
}

// Disqualify force-closes a session without grading. Used for zero-hearts
// repair and admin revocation paths.
func (s *SessionService) Disqualify(ctx context.Context, sessionID uuid.UUID) error {
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
	return s.disqualify(ctx, session)
}

// ComputeInstanceScore derives the score of an instance-bound session:
// fully correct questions earn the instance's per-question points, nothing
// partial.
func ComputeInstanceScore(answers []model.ExamAnswer, scorePerQuestion float64) float64 {
	var score float64
	for _, a := range answers {
		if a.IsCorrect {
			score += scorePerQuestion
		}
	}
	return score
}

// ComputeScore derives a 0-100 score from the answers. With exactly three
// questions each carries its static weight; otherwise questions weigh
// equally. Partial credit follows the fraction of test cases passed.
func ComputeScore(answers []model.ExamAnswer) float64 {
	if len(answers) == 0 {
		return 0
	}
	weights := make([]float64, len(answers))
	if len(answers) == len(QuestionWeights) {
		copy(weights, QuestionWeights)
	} else {
		for i := range weights {
			weights[i] = 1.0 / float64(len(answers))
		}
	}

	var score float64
	for i, a := range answers {
		if a.TestsTotal == 0 {
			continue
		}
		fraction := float64(a.TestsPassed) / float64(a.TestsTotal)
		if a.IsCorrect {
			fraction = 1
		}
		score += weights[i] * fraction * 100
	}
	return score
}

// SweepExpired walks the in-progress sessions and closes out the ones the
// browser never finished: zero-hearts sessions are disqualified, sessions
// past their deadline are force-submitted. Returns the counts of each.
func (s *SessionService) SweepExpired(ctx context.Context) (submitted, disqualified int, err error) {
	sessions, err := s.sessions.ListInProgressStartedBefore(ctx, s.now())
	if err != nil {
		return 0, 0, err
	}
	for i := range sessions {
		session := &sessions[i]

		if session.HeartsRemaining <= 0 {
			if err := s.disqualify(ctx, session); err != nil {
				if !errors.Is(err, repository.ErrConflict) {
					s.logger.Error().Err(err).
						Str("session_id", session.ID.String()).
						Msg("Sweep disqualify failed")
				}
				continue
			}
			disqualified++
			continue
		}

		duration, err := s.sessionDuration(ctx, session)
		if err != nil {
			s.logger.Error().Err(err).
				Str("session_id", session.ID.String()).
				Msg("Sweep duration lookup failed")
			continue
		}
		if s.now().After(session.Deadline(duration)) {
			if _, err := s.finalizeSubmission(ctx, session, true); err != nil {
				if !errors.Is(err, ErrSessionNotActive) {
					s.logger.Error().Err(err).
						Str("session_id", session.ID.String()).
						Msg("Sweep submit failed")
				}
				continue
			}
			submitted++
		}
	}
	return submitted, disqualified, nil
}

// QueueAutosave buffers a code snapshot in Redis for the autosave worker.
func (s *SessionService) QueueAutosave(ctx context.Context, sessionID uuid.UUID, questionIndex int, code string) error {
	payload, err := json.Marshal(autosavePayload{
		SessionID:     sessionID,
		QuestionIndex: questionIndex,
		Code:          code,
	})
	if err != nil {
		return err
	}
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, config.CacheKey.SessionCodeKey(sessionID.String()),
		fmt.Sprintf("%d", questionIndex), code)
	pipe.LPush(ctx, config.WorkerKey.PersistCodeQueue, payload)
	_, err = pipe.Exec(ctx)
	return err
}

// QueueProctorEvent buffers raw telemetry in Redis for batch persistence.
func (s *SessionService) QueueProctorEvent(ctx context.Context, event *model.ProctorEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.rdb.LPush(ctx, config.WorkerKey.PersistProctorEventsQueue, payload).Err()
}

// autosavePayload is the queue entry format shared with the autosave worker.
type autosavePayload struct {
	SessionID     uuid.UUID `json:"exam_session_id"`
	QuestionIndex int       `json:"question_index"`
	Code          string    `json:"code"`
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (s *SessionService) checkEligibility(ctx context.Context, userID uuid.UUID) error {
	elig, err := s.eligibility.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil // never examined, eligible by default
		}
		return err
	}
	if !elig.IsEligible {
		return ErrNotEligible
	}
	return nil
}

func (s *SessionService) joinInstance(ctx context.Context, instanceID uuid.UUID) ([]model.ExamQuestion, error) {
	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstanceNotAvailable
		}
		return nil, err
	}
	now := s.now()
	if instance.Status != model.InstanceStatusActive || now.Before(instance.StartTime) || now.After(instance.EndTime) {
		return nil, ErrInstanceNotAvailable
	}
	seated, err := s.sessions.CountByInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if seated >= instance.MaxStudents {
		return nil, ErrInstanceFull
	}

	raw, err := s.instances.ListQuestions(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoQuestions
	}
	return instanceQuestions(raw), nil
}

// loadQuestions resolves the exact question set the session was created
// with, never a fresh draw.
func (s *SessionService) loadQuestions(ctx context.Context, session *model.ExamSession) ([]model.ExamQuestion, error) {
	if session.InstanceID == nil {
		return s.bank.GetByIDs(session.QuestionIDs, session.Language)
	}
	raw, err := s.instances.ListQuestions(ctx, *session.InstanceID)
	if err != nil {
		return nil, err
	}
	questions := instanceQuestions(raw)
	byID := make(map[string]model.ExamQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]model.ExamQuestion, 0, len(session.QuestionIDs))
	for _, id := range session.QuestionIDs {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("instance question not found: %s", id)
		}
		ordered = append(ordered, q)
	}
	return ordered, nil
}

func (s *SessionService) getOwned(ctx context.Context, userID, sessionID uuid.UUID) (*model.ExamSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) sessionDuration(ctx context.Context, session *model.ExamSession) (time.Duration, error) {
	if session.InstanceID == nil {
		return s.cfg.DefaultDuration, nil
	}
	instance, err := s.instances.GetByID(ctx, *session.InstanceID)
	if err != nil {
		return 0, err
	}
	return instance.Duration(), nil
}

func (s *SessionService) buildView(ctx context.Context, session *model.ExamSession, questions []model.ExamQuestion, answers []model.ExamAnswer) (*SessionView, error) {
	duration, err := s.sessionDuration(ctx, session)
	if err != nil {
		return nil, err
	}
	session.StartedAt = s.startedAt(ctx, session)
	deadline := session.Deadline(duration)
	remaining := int(deadline.Sub(s.now()).Seconds())
	if remaining < 0 || session.Status.Terminal() {
		remaining = 0
	}
	return &SessionView{
		Session:          session,
		Questions:        questions,
		Answers:          answers,
		Deadline:         deadline,
		SubmitUnlockAt:   session.StartedAt.Add(time.Duration(float64(duration) * s.cfg.SubmitUnlockRatio)),
		RemainingSeconds: remaining,
	}, nil
}

// finalizeSubmission grades the session, writes the terminal row and
// updates the retake gate. Score computation itself is pure; everything
// stateful funnels through here.
func (s *SessionService) finalizeSubmission(ctx context.Context, session *model.ExamSession, forced bool) (*SubmitResult, error) {
	answers, err := s.answers.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	var score float64
	if session.InstanceID != nil {
		instance, err := s.instances.GetByID(ctx, *session.InstanceID)
		if err != nil {
			return nil, err
		}
		score = ComputeInstanceScore(answers, instance.ScorePerQuestion)
	} else {
		score = ComputeScore(answers)
	}
	passed := score >= s.cfg.MinPassScore

	duration, err := s.sessionDuration(ctx, session)
	if err != nil {
		return nil, err
	}
	timeSpent := int(s.now().Sub(session.StartedAt).Seconds())
	if max := int(duration.Seconds()); timeSpent > max {
		timeSpent = max
	}

	err = s.sessions.Finalize(ctx, session.ID, repository.SessionFinalization{
		Status:           model.SessionStatusCompleted,
		Score:            &score,
		Passed:           &passed,
		TimeSpentSeconds: timeSpent,
		AutoSubmitted:    forced,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSessionNotActive
		}
		return nil, fmt.Errorf("finalize session: %w", err)
	}

	session.Status = model.SessionStatusCompleted
	session.Score = &score
	session.Passed = &passed
	session.AutoSubmitted = forced
	session.TimeSpentSeconds = timeSpent

	s.updateEligibility(ctx, session, passed)
	s.dropSessionCache(ctx, session)
	s.logger.Info().
		Str("session_id", session.ID.String()).
		Float64("score", score).
		Bool("passed", passed).
		Bool("forced", forced).
		Msg("Exam session submitted")

	return &SubmitResult{
		SessionID:     session.ID,
		Score:         score,
		Passed:        passed,
		Outcome:       model.ClassifyOutcome(session),
		AutoSubmitted: forced,
	}, nil
}

func (s *SessionService) disqualify(ctx context.Context, session *model.ExamSession) error {
	timeSpent := int(s.now().Sub(session.StartedAt).Seconds())
	if duration, err := s.sessionDuration(ctx, session); err == nil {
		if max := int(duration.Seconds()); timeSpent > max {
			timeSpent = max
		}
	}
	err := s.sessions.Finalize(ctx, session.ID, repository.SessionFinalization{
		Status:           model.SessionStatusDisqualified,
		TimeSpentSeconds: timeSpent,
		AutoSubmitted:    true,
	})
	if err != nil {
		return err
	}
	session.Status = model.SessionStatusDisqualified
	s.updateEligibility(ctx, session, false)
	s.dropSessionCache(ctx, session)
	s.logger.Warn().
		Str("session_id", session.ID.String()).
		Str("user_id", session.UserID.String()).
		Msg("Exam session disqualified")
	return nil
}

// updateEligibility records the attempt outcome on the retake gate. A pass
// keeps the gate open; anything else closes it until an admin approves.
func (s *SessionService) updateEligibility(ctx context.Context, session *model.ExamSession, passed bool) {
	sessionID := session.ID
	elig := &model.ExamEligibility{
		UserID:            session.UserID,
		IsEligible:        passed,
		LastExamPassed:    &passed,
		LastExamSessionID: &sessionID,
	}
	if !passed {
		now := s.now()
		elig.BlockedAt = &now
	}
	if err := s.eligibility.Upsert(ctx, elig); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", session.UserID.String()).
			Msg("Failed to update exam eligibility")
	}
}

// startedAt resolves the session start from the Redis hot cache, falling
// back to the database row and re-warming the cache on a miss. The row is
// authoritative; the two can only disagree by cache loss.
func (s *SessionService) startedAt(ctx context.Context, session *model.ExamSession) time.Time {
	if s.rdb == nil || session.Status.Terminal() {
		return session.StartedAt
	}
	raw, err := s.rdb.Get(ctx, config.CacheKey.SessionStartKey(session.ID.String())).Result()
	if err != nil {
		s.cacheSessionStart(ctx, session)
		return session.StartedAt
	}
	cached, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return session.StartedAt
	}
	return cached
}

func (s *SessionService) cacheSessionStart(ctx context.Context, session *model.ExamSession) {
	if s.rdb == nil {
		return
	}
	ttl := s.cfg.DefaultDuration + time.Hour
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SessionStartKey(session.ID.String()),
		session.StartedAt.UTC().Format(time.RFC3339), ttl)
	pipe.Set(ctx, config.CacheKey.UserActiveSessionKey(session.UserID.String()),
		session.ID.String(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to warm session cache")
	}
}

func (s *SessionService) dropSessionCache(ctx context.Context, session *model.ExamSession) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx,
		config.CacheKey.SessionStartKey(session.ID.String()),
		config.CacheKey.SessionCodeKey(session.ID.String()),
		config.CacheKey.UserActiveSessionKey(session.UserID.String()))
}

func questionIDs(questions []model.ExamQuestion) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

// instanceQuestions converts authored instance questions into the runtime
// question shape. Authored test cases keep their own hidden flags.
func instanceQuestions(raw []model.InstanceQuestion) []model.ExamQuestion {
	questions := make([]model.ExamQuestion, len(raw))
	for i, q := range raw {
		var visible, hidden []model.TestCase
		for _, tc := range q.TestCases {
			if tc.Hidden {
				hidden = append(hidden, tc)
			} else {
				visible = append(visible, tc)
			}
		}
		questions[i] = model.ExamQuestion{
			ID:           q.ID.String(),
			Title:        q.Title,
			Description:  q.Description,
			InputFormat:  q.InputFormat,
			StarterCode:  q.StarterCode,
			VisibleTests: visible,
			HiddenTests:  hidden,
		}
	}
	return questions
}
