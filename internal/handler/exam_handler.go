package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dsarena/exam-backend/internal/middleware"
	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/response"
	"github.com/dsarena/exam-backend/internal/service"
	"github.com/dsarena/exam-backend/internal/validator"
)

// ExamHandler handles the candidate-facing exam session endpoints.
type ExamHandler struct {
	sessionService *service.SessionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(sessionService *service.SessionService) *ExamHandler {
	return &ExamHandler{sessionService: sessionService}
}

// StartSession godoc
// POST /api/v1/exam/sessions
func (h *ExamHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.Start(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// ResumeSession godoc
// GET /api/v1/exam/sessions/active
func (h *ExamHandler) ResumeSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	view, err := h.sessionService.Resume(c.Request.Context(), claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SessionState godoc
// GET /api/v1/exam/sessions/:session_id
func (h *ExamHandler) SessionState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.sessionService.State(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// RunCode godoc
// POST /api/v1/exam/sessions/:session_id/run
func (h *ExamHandler) RunCode(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.RunCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.sessionService.RecordRun(c.Request.Context(), claims.UserID, sessionID, &req)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ReportViolation godoc
// POST /api/v1/exam/sessions/:session_id/violations
// REST fallback for surfaces without a live proctor stream.
func (h *ExamHandler) ReportViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReportViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.sessionService.RecordViolation(c.Request.Context(), claims.UserID, sessionID, model.ViolationType(req.Type))
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, outcome)
}

// SubmitSession godoc
// POST /api/v1/exam/sessions/:session_id/submit
func (h *ExamHandler) SubmitSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), claims.UserID, sessionID, false)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// failSessionError maps service sentinels onto the API error taxonomy.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubmissionTooEarly):
		response.Fail(c, http.StatusConflict, response.ErrSubmissionTooEarly)
	case errors.Is(err, service.ErrSessionNotActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
	case errors.Is(err, service.ErrDuplicateActiveSession):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateActiveSession)
	case errors.Is(err, service.ErrNotEligible):
		response.Fail(c, http.StatusForbidden, response.ErrExamAccessBlocked)
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrQuestionIndex):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrInstanceNotAvailable):
		response.Fail(c, http.StatusConflict, response.ErrInstanceNotAvailable)
	case errors.Is(err, service.ErrInstanceFull):
		response.Fail(c, http.StatusConflict, response.ErrInstanceFull)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
