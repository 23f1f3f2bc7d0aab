// Package handler wires HTTP endpoints to the service layer.
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

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CandidateEnterRequest is the payload for entering the arena.
type CandidateEnterRequest struct {
	Name string `json:"name" binding:"omitempty,max=100"`
}

// CandidateEnter godoc
// POST /api/v1/auth/candidate
// Mints a candidate identity and token. Anonymous by design: candidates are
// identified by the UUID baked into the token.
func (h *AuthHandler) CandidateEnter(c *gin.Context) {
	var req CandidateEnterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, userID, err := h.authService.IssueCandidateToken(uuid.Nil, req.Name)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":   token,
		"user_id": userID,
	})
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, admin, err := h.authService.LoginAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"admin": admin,
	})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the identity baked into the presented token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user_id":    claims.UserID,
		"name":       claims.Name,
		"token_type": claims.TokenType,
	})
}
