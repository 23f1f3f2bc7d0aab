package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dsarena/exam-backend/internal/middleware"
	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/repository"
	"github.com/dsarena/exam-backend/internal/response"
	"github.com/dsarena/exam-backend/internal/service"
	"github.com/dsarena/exam-backend/internal/validator"
)

// AdminHandler handles the console endpoints: session oversight, the
// retake gate, exports and instance management.
type AdminHandler struct {
	adminService    *service.AdminService
	instanceService *service.InstanceService
	exportService   *service.ExportService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	adminService *service.AdminService,
	instanceService *service.InstanceService,
	exportService *service.ExportService,
) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		instanceService: instanceService,
		exportService:   exportService,
	}
}

func parsePagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 200 {
		limit = 20
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func sessionFilter(c *gin.Context) (repository.SessionFilter, error) {
	limit, offset := parsePagination(c)
	filter := repository.SessionFilter{Limit: limit, Offset: offset}

	if status := c.Query("status"); status != "" {
		filter.Status = model.SessionStatus(status)
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.UserID = &id
	}
	if raw := c.Query("instance_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.InstanceID = &id
	}
	return filter, nil
}

// ListSessions godoc
// GET /api/v1/admin/sessions
func (h *AdminHandler) ListSessions(c *gin.Context) {
	filter, err := sessionFilter(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	summaries, total, err := h.adminService.ListSessions(c.Request.Context(), filter)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	page := filter.Offset/filter.Limit + 1
	response.SuccessWithPagination(c, http.StatusOK, summaries, &response.Pagination{
		Page:       page,
		PerPage:    filter.Limit,
		TotalItems: total,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
	})
}

// GetSession godoc
// GET /api/v1/admin/sessions/:session_id
func (h *AdminHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	summary, violations, err := h.adminService.GetSessionDetail(c.Request.Context(), sessionID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session":    summary,
		"violations": violations,
	})
}

// FixStaleSession godoc
// POST /api/v1/admin/sessions/:session_id/fix-stale
func (h *AdminHandler) FixStaleSession(c *gin.Context) {
	h.terminate(c, h.adminService.FixStaleSession)
}

// RevokeSession godoc
// POST /api/v1/admin/sessions/:session_id/revoke
func (h *AdminHandler) RevokeSession(c *gin.Context) {
	h.terminate(c, h.adminService.RevokeSession)
}

func (h *AdminHandler) terminate(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if err := fn(c.Request.Context(), sessionID); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// ApproveRetake godoc
// POST /api/v1/admin/eligibility/:user_id/approve
func (h *AdminHandler) ApproveRetake(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if err := h.adminService.ApproveRetake(c.Request.Context(), userID); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "approved"})
}

// ApproveAllRetakes godoc
// POST /api/v1/admin/eligibility/approve-all
func (h *AdminHandler) ApproveAllRetakes(c *gin.Context) {
	n, err := h.adminService.ApproveAllRetakes(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"approved": n})
}

// DeleteUserHistory godoc
// DELETE /api/v1/admin/users/:user_id/history
func (h *AdminHandler) DeleteUserHistory(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	deleted, err := h.adminService.DeleteUserHistory(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sessions_deleted": deleted})
}

// ExportResults godoc
// GET /api/v1/admin/sessions/export
// Streams an XLSX of all sessions matching the filter.
func (h *AdminHandler) ExportResults(c *gin.Context) {
	filter, err := sessionFilter(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	buf, err := h.exportService.ResultsXLSX(c.Request.Context(), filter)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	filename := fmt.Sprintf("exam-results-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// ─── Instances ──────────────────────────────────────────────────────

// CreateInstance godoc
// POST /api/v1/admin/instances
func (h *AdminHandler) CreateInstance(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateInstanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	instance, err := h.instanceService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, instance)
}

// ListInstances godoc
// GET /api/v1/admin/instances
func (h *AdminHandler) ListInstances(c *gin.Context) {
	limit, offset := parsePagination(c)
	instances, total, err := h.instanceService.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, instances, &response.Pagination{
		Page:       offset/limit + 1,
		PerPage:    limit,
		TotalItems: total,
		TotalPages: (total + limit - 1) / limit,
	})
}

// GetInstance godoc
// GET /api/v1/admin/instances/:instance_id
func (h *AdminHandler) GetInstance(c *gin.Context) {
	instanceID, err := uuid.Parse(c.Param("instance_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	instance, err := h.instanceService.Get(c.Request.Context(), instanceID)
	if err != nil {
		failSessionError(c, err)
		return
	}
	questions, err := h.instanceService.ListQuestions(c.Request.Context(), instanceID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"instance":  instance,
		"questions": questions,
	})
}

// ActivateInstance godoc
// POST /api/v1/admin/instances/:instance_id/activate
func (h *AdminHandler) ActivateInstance(c *gin.Context) {
	h.instanceAction(c, h.instanceService.Activate)
}

// CompleteInstance godoc
// POST /api/v1/admin/instances/:instance_id/complete
func (h *AdminHandler) CompleteInstance(c *gin.Context) {
	h.instanceAction(c, h.instanceService.Complete)
}

// DeleteInstance godoc
// DELETE /api/v1/admin/instances/:instance_id
func (h *AdminHandler) DeleteInstance(c *gin.Context) {
	h.instanceAction(c, h.instanceService.Delete)
}

func (h *AdminHandler) instanceAction(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error) {
	instanceID, err := uuid.Parse(c.Param("instance_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if err := fn(c.Request.Context(), instanceID); err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// AddInstanceQuestion godoc
// POST /api/v1/admin/instances/:instance_id/questions
func (h *AdminHandler) AddInstanceQuestion(c *gin.Context) {
	instanceID, err := uuid.Parse(c.Param("instance_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddInstanceQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.instanceService.AddQuestion(c.Request.Context(), instanceID, &req)
	if err != nil {
		failSessionError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, question)
}
