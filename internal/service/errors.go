package service

import "errors"

// Sentinel errors the handlers translate into API error codes.
var (
	// ErrSubmissionTooEarly rejects a manual submit before the unlock
	// fraction of the exam duration has elapsed.
	ErrSubmissionTooEarly = errors.New("submission attempted before the unlock threshold")
	// ErrSessionNotActive rejects mutations against a session that already
	// reached a terminal status.
	ErrSessionNotActive = errors.New("session is not active")
	// ErrDuplicateActiveSession rejects starting a second session while one
	// is still in progress.
	ErrDuplicateActiveSession = errors.New("user already has an active session")
	// ErrNotEligible rejects starting a session while the retake gate is
	// closed.
	ErrNotEligible = errors.New("user is blocked from starting an exam")
	// ErrSessionNotFound covers lookups of unknown or foreign sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuestionIndex rejects a run against an index outside the session's
	// question set.
	ErrQuestionIndex = errors.New("question index out of range")
	// ErrInstanceNotAvailable rejects joining an instance outside its
	// active window.
	ErrInstanceNotAvailable = errors.New("exam instance is not open")
	// ErrInstanceFull rejects joining an instance at its seat limit.
	ErrInstanceFull = errors.New("exam instance has no free seats")
	// ErrNoQuestions rejects activating or joining an instance that has no
	// questions attached.
	ErrNoQuestions = errors.New("exam instance has no questions")
	// ErrInvalidCredentials covers failed admin logins.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
