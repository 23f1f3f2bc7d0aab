package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsarena/exam-backend/internal/config"
	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/questionbank"
	"github.com/dsarena/exam-backend/internal/runner"
)

type stubRunner struct {
	err     error
	passAll bool
	calls   int
}

func (r *stubRunner) Run(ctx context.Context, language model.Language, code string, tests []model.TestCase) (*runner.RunResult, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	res := &runner.RunResult{TestsTotal: len(tests)}
	for _, tc := range tests {
		tr := runner.TestResult{Hidden: tc.Hidden, ActualOutput: "output"}
		if r.passAll {
			tr.Passed = true
			res.TestsPassed++
		}
		res.Results = append(res.Results, tr)
	}
	return res, nil
}

type fixture struct {
	svc       *SessionService
	sessions  *fakeSessionStore
	answers   *fakeAnswerStore
	elig      *fakeEligibilityStore
	instances *fakeInstanceStore
	runner    *stubRunner
	rdb       *redis.Client
	mr        *miniredis.Miniredis
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	answers := newFakeAnswerStore()
	f := &fixture{
		sessions:  newFakeSessionStore(answers),
		answers:   answers,
		elig:      newFakeEligibilityStore(),
		instances: newFakeInstanceStore(),
		runner:    &stubRunner{passAll: true},
		rdb:       rdb,
		mr:        mr,
		clock:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	cfg := config.ExamConfig{
		DefaultDuration:   2 * time.Hour,
		QuestionCount:     3,
		SubmitUnlockRatio: 0.5,
		MinPassScore:      60,
		ViolationDebounce: 2 * time.Second,
	}
	f.svc = NewSessionService(
		f.sessions, f.answers, &fakeViolationStore{}, f.elig, f.instances,
		questionbank.New(rand.New(rand.NewSource(1))),
		f.runner, rdb, cfg,
	)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) start(t *testing.T) (uuid.UUID, *SessionView) {
	t.Helper()
	userID := uuid.New()
	view, err := f.svc.Start(context.Background(), userID, &model.StartSessionRequest{Language: "python"})
	require.NoError(t, err)
	return userID, view
}

func TestStartCreatesSessionWithAnswers(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	session := view.Session
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, model.SessionStatusInProgress, session.Status)
	assert.Equal(t, model.MaxHearts, session.HeartsRemaining)
	assert.Equal(t, 0, session.TotalViolations)
	require.Len(t, view.Questions, 3)
	assert.Equal(t, "easy", view.Questions[0].Difficulty)
	assert.Equal(t, "hard", view.Questions[2].Difficulty)

	require.Len(t, view.Answers, 3)
	for i, a := range view.Answers {
		assert.Equal(t, i, a.QuestionIndex)
		assert.Equal(t, view.Questions[i].StarterCode, a.Code)
		assert.False(t, a.IsCorrect)
	}

	assert.Equal(t, session.StartedAt.Add(2*time.Hour), view.Deadline)
	assert.Equal(t, session.StartedAt.Add(time.Hour), view.SubmitUnlockAt)

	// Session clock warmed in Redis.
	assert.True(t, f.mr.Exists("session:"+session.ID.String()+":started_at"))
	assert.True(t, f.mr.Exists("user:"+userID.String()+":active_session"))
}

func TestStartRejectsDuplicateActiveSession(t *testing.T) {
	f := newFixture(t)
	userID, _ := f.start(t)

	_, err := f.svc.Start(context.Background(), userID, &model.StartSessionRequest{Language: "python"})
	assert.ErrorIs(t, err, ErrDuplicateActiveSession)
}

func TestStartRejectsBlockedUser(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	require.NoError(t, f.elig.Upsert(context.Background(), &model.ExamEligibility{
		UserID:     userID,
		IsEligible: false,
	}))

	_, err := f.svc.Start(context.Background(), userID, &model.StartSessionRequest{Language: "python"})
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestResumeReturnsSameQuestionSet(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	f.advance(10 * time.Minute)
	resumed, err := f.svc.Resume(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, view.Session.ID, resumed.Session.ID)
	require.Len(t, resumed.Questions, 3)
	for i := range view.Questions {
		assert.Equal(t, view.Questions[i].ID, resumed.Questions[i].ID)
	}
	// No duplicated answer rows, same count as the original create.
	assert.Len(t, resumed.Answers, 3)
	assert.Equal(t, (2*time.Hour - 10*time.Minute), time.Duration(resumed.RemainingSeconds)*time.Second)
}

func TestResumeWithoutActiveSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Resume(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestResumeExpiredSessionAutoSubmits(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	f.advance(3 * time.Hour)
	_, err := f.svc.Resume(context.Background(), userID)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	session, err := f.sessions.GetByID(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, session.Status)
	assert.True(t, session.AutoSubmitted)
	// Time spent clamps to the exam duration.
	assert.Equal(t, int((2 * time.Hour).Seconds()), session.TimeSpentSeconds)
}

func TestResumeRepairsZeroHeartsSession(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	f.sessions.mu.Lock()
	f.sessions.sessions[view.Session.ID].HeartsRemaining = 0
	f.sessions.mu.Unlock()

	_, err := f.svc.Resume(context.Background(), userID)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	session, err := f.sessions.GetByID(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusDisqualified, session.Status)
}

func TestDisqualifyClampsTimeSpent(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	f.sessions.mu.Lock()
	f.sessions.sessions[view.Session.ID].HeartsRemaining = 0
	f.sessions.mu.Unlock()

	// Found three hours later: time spent caps at the exam duration.
	f.advance(3 * time.Hour)
	_, err := f.svc.Resume(context.Background(), userID)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	session, err := f.sessions.GetByID(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusDisqualified, session.Status)
	assert.Equal(t, 7200, session.TimeSpentSeconds)
}

func TestRecordViolationDecrementsOnce(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	outcome, err := f.svc.RecordViolation(context.Background(), userID, view.Session.ID, model.ViolationTabSwitch)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.HeartsRemaining)
	assert.Equal(t, 1, outcome.TotalViolations)
	assert.False(t, outcome.Disqualified)

	session, err := f.sessions.GetByID(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, session.HeartsRemaining)
	assert.Equal(t, model.SessionStatusInProgress, session.Status)
}

func TestRecordViolationRetriesLostRace(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	// First attempt loses to a concurrent decrement, the retry must
	// succeed against the reloaded hearts count.
	raced := false
	f.sessions.decrementHook = func() {
		if raced {
			return
		}
		raced = true
		f.sessions.mu.Lock()
		s := f.sessions.sessions[view.Session.ID]
		s.HeartsRemaining--
		s.TotalViolations++
		f.sessions.mu.Unlock()
	}

	outcome, err := f.svc.RecordViolation(context.Background(), userID, view.Session.ID, model.ViolationWindowBlur)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.HeartsRemaining)

	session, err := f.sessions.GetByID(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, session.HeartsRemaining)
	assert.Equal(t, 2, session.TotalViolations)
}

func TestThirdViolationDisqualifies(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		outcome, err := f.svc.RecordViolation(ctx, userID, view.Session.ID, model.ViolationCopy)
		require.NoError(t, err)
		assert.False(t, outcome.Disqualified)
	}

	outcome, err := f.svc.RecordViolation(ctx, userID, view.Session.ID, model.ViolationCopy)
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.HeartsRemaining)
	assert.True(t, outcome.Disqualified)

	session, err := f.sessions.GetByID(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusDisqualified, session.Status)
	assert.Equal(t, model.OutcomeDisqualified, model.ClassifyOutcome(session))

	// Retake gate closed.
	elig, err := f.elig.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, elig.IsEligible)

	// Terminal sessions reject further violations.
	_, err = f.svc.RecordViolation(ctx, userID, view.Session.ID, model.ViolationCopy)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestSubmitRejectedBeforeUnlock(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	f.advance(30 * time.Minute) // unlock is at 1h of the 2h duration
	_, err := f.svc.Submit(context.Background(), userID, view.Session.ID, false)
	assert.ErrorIs(t, err, ErrSubmissionTooEarly)

	// Rejection leaves the session untouched.
	session, err := f.sessions.GetByID(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, session.Status)
	assert.Nil(t, session.Score)
}

func TestSubmitAfterUnlockGradesAndFreezes(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)
	ctx := context.Background()

	// Solve everything with submit runs.
	for i := range view.Questions {
		_, err := f.svc.RecordRun(ctx, userID, view.Session.ID, &model.RunCodeRequest{
			QuestionIndex: i,
			Code:          "solution",
			SubmitRun:     true,
		})
		require.NoError(t, err)
	}

	f.advance(90 * time.Minute)
	result, err := f.svc.Submit(ctx, userID, view.Session.ID, false)
	require.NoError(t, err)
	assert.InDelta(t, 100, result.Score, 0.001)
	assert.True(t, result.Passed)
	assert.Equal(t, model.OutcomePassed, result.Outcome)
	assert.False(t, result.AutoSubmitted)

	// A pass keeps the retake gate open.
	elig, err := f.elig.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, elig.IsEligible)

	// Terminal freeze: no second submit, no late violations.
	_, err = f.svc.Submit(ctx, userID, view.Session.ID, false)
	assert.ErrorIs(t, err, ErrSessionNotActive)
	_, err = f.svc.RecordViolation(ctx, userID, view.Session.ID, model.ViolationPaste)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestSubmitRepairsZeroHeartsSession(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)
	ctx := context.Background()

	f.sessions.mu.Lock()
	f.sessions.sessions[view.Session.ID].HeartsRemaining = 0
	f.sessions.mu.Unlock()

	// Exhausted hearts never convert into a completed session, even past
	// the unlock gate.
	f.advance(90 * time.Minute)
	_, err := f.svc.Submit(ctx, userID, view.Session.ID, false)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	session, err := f.sessions.GetByID(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusDisqualified, session.Status)

	elig, err := f.elig.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, elig.IsEligible)
}

func TestForceSubmitRepairsZeroHeartsSession(t *testing.T) {
	f := newFixture(t)
	_, view := f.start(t)

	f.sessions.mu.Lock()
	f.sessions.sessions[view.Session.ID].HeartsRemaining = 0
	f.sessions.mu.Unlock()

	_, err := f.svc.ForceSubmit(context.Background(), view.Session.ID)
	assert.ErrorIs(t, err, ErrSessionNotActive)

	session, err := f.sessions.GetByID(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusDisqualified, session.Status)
}

func TestSubmitFailingScoreClosesRetakeGate(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)
	ctx := context.Background()

	f.advance(90 * time.Minute)
	result, err := f.svc.Submit(ctx, userID, view.Session.ID, false)
	require.NoError(t, err)
	assert.Zero(t, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, model.OutcomeFailed, result.Outcome)

	elig, err := f.elig.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, elig.IsEligible)
	assert.NotNil(t, elig.BlockedAt)

	// Blocked users cannot start again until an admin approves.
	_, err = f.svc.Start(ctx, userID, &model.StartSessionRequest{Language: "python"})
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestForcedSubmitBypassesUnlockGate(t *testing.T) {
	f := newFixture(t)
	_, view := f.start(t)

	f.advance(5 * time.Minute)
	result, err := f.svc.ForceSubmit(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.True(t, result.AutoSubmitted)

	session, err := f.sessions.GetByID(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, session.Status)
}

func TestRecordRunPersistsOutcome(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)
	ctx := context.Background()

	result, err := f.svc.RecordRun(ctx, userID, view.Session.ID, &model.RunCodeRequest{
		QuestionIndex: 0,
		Code:          "print(42)",
		SubmitRun:     true,
	})
	require.NoError(t, err)
	assert.True(t, result.AllPassed())

	// Hidden case outputs are masked in the returned results.
	for _, tr := range result.Results {
		if tr.Hidden {
			assert.Empty(t, tr.ActualOutput)
		}
	}

	answers, err := f.answers.ListBySession(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "print(42)", answers[0].Code)
	assert.True(t, answers[0].IsCorrect)
	assert.Equal(t, 1, answers[0].RunCount)
	assert.NotNil(t, answers[0].LastRunAt)
}

func TestRecordRunVisibleOnlyNeverMarksCorrect(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	_, err := f.svc.RecordRun(context.Background(), userID, view.Session.ID, &model.RunCodeRequest{
		QuestionIndex: 0,
		Code:          "print(42)",
		SubmitRun:     false,
	})
	require.NoError(t, err)

	answers, err := f.answers.ListBySession(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.False(t, answers[0].IsCorrect)
}

func TestRecordRunRejectsBadIndex(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)

	_, err := f.svc.RecordRun(context.Background(), userID, view.Session.ID, &model.RunCodeRequest{
		QuestionIndex: 7,
		Code:          "x",
	})
	assert.ErrorIs(t, err, ErrQuestionIndex)
}

func TestRunnerFailureSurfacesAsFailingResults(t *testing.T) {
	f := newFixture(t)
	userID, view := f.start(t)
	f.runner.err = errors.New("sandbox unreachable")

	result, err := f.svc.RecordRun(context.Background(), userID, view.Session.ID, &model.RunCodeRequest{
		QuestionIndex: 0,
		Code:          "x",
		SubmitRun:     true,
	})
	require.NoError(t, err)
	assert.False(t, result.AllPassed())
	assert.Zero(t, result.TestsPassed)

	// The stored answer stays untouched so a transient outage cannot
	// clobber a previous good run.
	answers, err := f.answers.ListBySession(context.Background(), view.Session.ID)
	require.NoError(t, err)
	assert.Zero(t, answers[0].RunCount)
}

func TestStateForForeignSession(t *testing.T) {
	f := newFixture(t)
	_, view := f.start(t)

	_, err := f.svc.State(context.Background(), uuid.New(), view.Session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestComputeScoreWeights(t *testing.T) {
	correct := func(passed, total int, isCorrect bool) model.ExamAnswer {
		return model.ExamAnswer{TestsPassed: passed, TestsTotal: total, IsCorrect: isCorrect}
	}

	// Easy and medium solved, hard untouched: 30 + 30.
	answers := []model.ExamAnswer{
		correct(4, 4, true),
		correct(4, 4, true),
		correct(0, 0, false),
	}
	assert.InDelta(t, 60, ComputeScore(answers), 0.001)

	// Partial credit on the hard question.
	answers[2] = correct(2, 4, false)
	assert.InDelta(t, 80, ComputeScore(answers), 0.001)

	// Pure: same input, same output.
	assert.Equal(t, ComputeScore(answers), ComputeScore(answers))

	// Non-three answer sets weigh equally.
	two := []model.ExamAnswer{correct(1, 1, true), correct(0, 1, false)}
	assert.InDelta(t, 50, ComputeScore(two), 0.001)

	assert.Zero(t, ComputeScore(nil))
}

func TestComputeInstanceScore(t *testing.T) {
	answers := []model.ExamAnswer{
		{IsCorrect: true},
		{IsCorrect: false},
		{IsCorrect: true},
	}
	assert.InDelta(t, 50, ComputeInstanceScore(answers, 25), 0.001)
}

func TestSweepExpiredClosesStaleSessions(t *testing.T) {
	f := newFixture(t)
	_, expired := f.start(t)
	_, zeroHearts := f.start(t)

	f.sessions.mu.Lock()
	f.sessions.sessions[zeroHearts.Session.ID].HeartsRemaining = 0
	f.sessions.mu.Unlock()

	f.advance(3 * time.Hour)
	submitted, disqualified, err := f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, submitted)
	assert.Equal(t, 1, disqualified)

	s1, err := f.sessions.GetByID(context.Background(), expired.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, s1.Status)
	assert.True(t, s1.AutoSubmitted)

	s2, err := f.sessions.GetByID(context.Background(), zeroHearts.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusDisqualified, s2.Status)

	// Second sweep finds nothing left to do.
	submitted, disqualified, err = f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, submitted)
	assert.Zero(t, disqualified)
}

func TestQueueAutosaveBuffersInRedis(t *testing.T) {
	f := newFixture(t)
	_, view := f.start(t)
	ctx := context.Background()

	err := f.svc.QueueAutosave(ctx, view.Session.ID, 1, "draft code")
	require.NoError(t, err)

	saved := f.mr.HGet("session:"+view.Session.ID.String()+":code", "1")
	assert.Equal(t, "draft code", saved)

	queued, err := f.rdb.LLen(ctx, config.WorkerKey.PersistCodeQueue).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)
}
