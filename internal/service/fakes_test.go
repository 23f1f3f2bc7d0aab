package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/repository"
)

// In-memory stores mirroring the repository guarantees: the conditional
// hearts decrement, the one-way finalize guard and the single active
// session constraint.

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.ExamSession
	// answers mirrors the real store's transaction: answer rows land
	// together with the session row.
	answers *fakeAnswerStore
	// decrementHook runs inside DecrementHearts before the guard check,
	// letting tests interleave a concurrent writer.
	decrementHook func()
}

func newFakeSessionStore(answers *fakeAnswerStore) *fakeSessionStore {
	return &fakeSessionStore{
		sessions: map[uuid.UUID]*model.ExamSession{},
		answers:  answers,
	}
}

func (f *fakeSessionStore) CreateWithAnswers(ctx context.Context, s *model.ExamSession, answers []model.ExamAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.UserID == s.UserID && existing.Status == model.SessionStatusInProgress {
			return repository.ErrDuplicateActiveSession
		}
	}
	s.ID = uuid.New()
	clone := *s
	f.sessions[s.ID] = &clone
	if f.answers != nil {
		f.answers.seed(s.ID, answers)
	}
	return nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSessionStore) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status == model.SessionStatusInProgress {
			clone := *s
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSessionStore) DecrementHearts(ctx context.Context, sessionID uuid.UUID, expectedHearts int, v *model.ExamViolation) error {
	if f.decrementHook != nil {
		f.decrementHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.HeartsRemaining != expectedHearts || s.Status != model.SessionStatusInProgress {
		return repository.ErrConflict
	}
	s.HeartsRemaining--
	s.TotalViolations++
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	return nil
}

func (f *fakeSessionStore) Finalize(ctx context.Context, sessionID uuid.UUID, fin repository.SessionFinalization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.Status != model.SessionStatusInProgress {
		return repository.ErrConflict
	}
	now := time.Now()
	s.Status = fin.Status
	s.Score = fin.Score
	s.Passed = fin.Passed
	s.TimeSpentSeconds = fin.TimeSpentSeconds
	s.AutoSubmitted = fin.AutoSubmitted
	s.CompletedAt = &now
	return nil
}

func (f *fakeSessionStore) List(ctx context.Context, filter repository.SessionFilter) ([]model.ExamSession, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamSession
	for _, s := range f.sessions {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.UserID != nil && s.UserID != *filter.UserID {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeSessionStore) ListInProgressStartedBefore(ctx context.Context, before time.Time) ([]model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamSession
	for _, s := range f.sessions {
		if s.Status == model.SessionStatusInProgress && s.StartedAt.Before(before) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) CountByInstance(ctx context.Context, instanceID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.sessions {
		if s.InstanceID != nil && *s.InstanceID == instanceID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

type answerKey struct {
	sessionID uuid.UUID
	index     int
}

type fakeAnswerStore struct {
	mu      sync.Mutex
	answers map[answerKey]*model.ExamAnswer
}

func newFakeAnswerStore() *fakeAnswerStore {
	return &fakeAnswerStore{answers: map[answerKey]*model.ExamAnswer{}}
}

func (f *fakeAnswerStore) seed(sessionID uuid.UUID, answers []model.ExamAnswer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range answers {
		a := answers[i]
		a.ID = uuid.New()
		a.SessionID = sessionID
		f.answers[answerKey{sessionID, a.QuestionIndex}] = &a
	}
}

func (f *fakeAnswerStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamAnswer
	for i := 0; ; i++ {
		a, ok := f.answers[answerKey{sessionID, i}]
		if !ok {
			break
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAnswerStore) RecordRun(ctx context.Context, sessionID uuid.UUID, questionIndex int, code string, passed, total int, isCorrect bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.answers[answerKey{sessionID, questionIndex}]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	a.Code = code
	a.TestsPassed = passed
	a.TestsTotal = total
	a.IsCorrect = a.IsCorrect || isCorrect
	a.RunCount++
	a.LastRunAt = &now
	a.UpdatedAt = now
	return nil
}

func (f *fakeAnswerStore) SaveCode(ctx context.Context, sessionID uuid.UUID, questionIndex int, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.answers[answerKey{sessionID, questionIndex}]
	if !ok {
		return repository.ErrNotFound
	}
	a.Code = code
	a.UpdatedAt = time.Now()
	return nil
}

type fakeViolationStore struct {
	mu     sync.Mutex
	events []model.ProctorEvent
}

func (f *fakeViolationStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamViolation, error) {
	return nil, nil
}

func (f *fakeViolationStore) BatchInsertProctorEvents(ctx context.Context, events []model.ProctorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeViolationStore) InsertProctorEvent(ctx context.Context, e *model.ProctorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return nil
}

type fakeEligibilityStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.ExamEligibility
}

func newFakeEligibilityStore() *fakeEligibilityStore {
	return &fakeEligibilityStore{rows: map[uuid.UUID]*model.ExamEligibility{}}
}

func (f *fakeEligibilityStore) Get(ctx context.Context, userID uuid.UUID) (*model.ExamEligibility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (f *fakeEligibilityStore) Upsert(ctx context.Context, e *model.ExamEligibility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *e
	clone.UpdatedAt = time.Now()
	f.rows[e.UserID] = &clone
	return nil
}

func (f *fakeEligibilityStore) ApproveRetake(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[userID]
	if !ok {
		return repository.ErrNotFound
	}
	e.IsEligible = true
	e.BlockedAt = nil
	return nil
}

func (f *fakeEligibilityStore) ApproveAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.rows {
		if !e.IsEligible {
			e.IsEligible = true
			e.BlockedAt = nil
			n++
		}
	}
	return n, nil
}

func (f *fakeEligibilityStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, userID)
	return nil
}

type fakeInstanceStore struct {
	mu        sync.Mutex
	instances map[uuid.UUID]*model.ExamInstance
	questions map[uuid.UUID][]model.InstanceQuestion
}

func newFakeInstanceStore() *fakeInstanceStore {
	return &fakeInstanceStore{
		instances: map[uuid.UUID]*model.ExamInstance{},
		questions: map[uuid.UUID][]model.InstanceQuestion{},
	}
}

func (f *fakeInstanceStore) Create(ctx context.Context, i *model.ExamInstance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i.ID = uuid.New()
	i.CreatedAt = time.Now()
	clone := *i
	f.instances[i.ID] = &clone
	return nil
}

func (f *fakeInstanceStore) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.instances[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *i
	clone.TotalQuestions = len(f.questions[id])
	return &clone, nil
}

func (f *fakeInstanceStore) List(ctx context.Context, limit, offset int) ([]model.ExamInstance, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamInstance
	for _, i := range f.instances {
		out = append(out, *i)
	}
	return out, len(out), nil
}

func (f *fakeInstanceStore) UpdateStatus(ctx context.Context, id uuid.UUID, status model.InstanceStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.instances[id]
	if !ok {
		return repository.ErrNotFound
	}
	i.Status = status
	return nil
}

func (f *fakeInstanceStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.instances[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.instances, id)
	delete(f.questions, id)
	return nil
}

func (f *fakeInstanceStore) AddQuestion(ctx context.Context, q *model.InstanceQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.ID = uuid.New()
	q.OrderNum = len(f.questions[q.InstanceID]) + 1
	f.questions[q.InstanceID] = append(f.questions[q.InstanceID], *q)
	return nil
}

func (f *fakeInstanceStore) ListQuestions(ctx context.Context, instanceID uuid.UUID) ([]model.InstanceQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.InstanceQuestion(nil), f.questions[instanceID]...), nil
}
