package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dsarena/exam-backend/internal/config"
	"github.com/dsarena/exam-backend/internal/middleware"
	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/service"
	ws "github.com/dsarena/exam-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the proctor stream: autosave, breach reports,
// heartbeats and submission over one WebSocket per session.
type WSHandler struct {
	sessionService *service.SessionService
	cfg            config.ExamConfig
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, cfg config.ExamConfig, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		cfg:            cfg,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ProctorStream godoc
// WS /ws/v1/exam/sessions/:session_id/stream
func (h *WSHandler) ProctorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := claims.UserID

	// Only the session's owner may stream, and only while it is active.
	if _, err := h.sessionService.State(c.Request.Context(), userID, sessionID); err != nil {
		ws.WriteError(conn, "no active session")
		return
	}

	wsLog := h.log.With().
		Str("user_id", userID.String()).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Candidate connected")

	// One physical breach can fire several browser events (blur +
	// visibilitychange). Collapse reports inside the debounce window so a
	// single incident costs at most one heart.
	var lastViolation time.Time

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, sessionID, &msg)
		case ws.ActionViolation:
			if h.handleViolation(conn, wsLog, userID, sessionID, &msg, &lastViolation) {
				return // disqualified, stream over
			}
		case ws.ActionHeartbeat:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, userID, sessionID)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAutosave(conn *websocket.Conn, sessionID uuid.UUID, msg *ws.RequestEnvelope) {
	if msg.Code == "" {
		ws.WriteError(conn, "code is required")
		return
	}
	if err := h.sessionService.QueueAutosave(context.Background(), sessionID, msg.QuestionIndex, msg.Code); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Autosave queue error")
		ws.WriteError(conn, "save failed")
		return
	}
	ws.WriteTyped(conn, ws.SuccessResponse{Event: ws.EventSuccess, Status: "saved"})
}

// handleViolation applies a breach report. Returns true when the session
// was disqualified, which ends the stream.
func (h *WSHandler) handleViolation(conn *websocket.Conn, wsLog zerolog.Logger, userID, sessionID uuid.UUID, msg *ws.RequestEnvelope, lastViolation *time.Time) bool {
	ctx := context.Background()
	vtype := model.ViolationType(msg.ViolationType)
	switch vtype {
	case model.ViolationTabSwitch, model.ViolationWindowBlur, model.ViolationFullscreenExit,
		model.ViolationCopy, model.ViolationPaste, model.ViolationDevtools:
	default:
		ws.WriteError(conn, "unknown violation type")
		return false
	}

	// Raw telemetry always lands, debounced or not.
	event := &model.ProctorEvent{
		SessionID:  sessionID,
		UserID:     userID,
		Kind:       string(vtype),
		Detail:     msg.Detail,
		RecordedAt: time.Now(),
	}
	if err := h.sessionService.QueueProctorEvent(ctx, event); err != nil {
		wsLog.Warn().Err(err).Msg("Proctor event queue error")
	}

	now := time.Now()
	if !lastViolation.IsZero() && now.Sub(*lastViolation) < h.cfg.ViolationDebounce {
		ws.WriteTyped(conn, ws.SuccessResponse{Event: ws.EventSuccess, Status: "debounced"})
		return false
	}
	*lastViolation = now

	outcome, err := h.sessionService.RecordViolation(ctx, userID, sessionID, vtype)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotActive) {
			ws.WriteTyped(conn, ws.DisqualifiedResponse{Event: ws.EventDisqualified, Reason: "session is no longer active"})
			return true
		}
		wsLog.Error().Err(err).Msg("Violation record error")
		ws.WriteError(conn, "violation not recorded")
		return false
	}

	if outcome.Disqualified {
		ws.WriteTyped(conn, ws.DisqualifiedResponse{Event: ws.EventDisqualified, Reason: "integrity violation limit reached"})
		return true
	}
	ws.WriteTyped(conn, ws.ViolationResponse{
		Event:           ws.EventViolation,
		HeartsRemaining: outcome.HeartsRemaining,
		TotalViolations: outcome.TotalViolations,
	})
	return false
}

func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, userID, sessionID uuid.UUID) {
	result, err := h.sessionService.Submit(context.Background(), userID, sessionID, false)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionTooEarly):
			ws.WriteError(conn, "submission not unlocked yet")
		case errors.Is(err, service.ErrSessionNotActive):
			ws.WriteError(conn, "session is no longer active")
		default:
			wsLog.Error().Err(err).Msg("Submit error")
			ws.WriteError(conn, "submit failed")
		}
		return
	}
	ws.WriteTyped(conn, ws.GradedResponse{
		Event:  ws.EventGraded,
		Score:  result.Score,
		Passed: result.Passed,
	})
}
