// Package websocket defines the proctor stream wire schema shared by the
// handler and any test client.
package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave  Action = "autosave"
	ActionViolation Action = "violation"
	ActionHeartbeat Action = "heartbeat"
	ActionSubmit    Action = "submit"
)

// RequestEnvelope carries every client message; fields beyond Action are
// action-specific.
type RequestEnvelope struct {
	Action Action `json:"action"`

	// Autosave fields.
	QuestionIndex int    `json:"question_index,omitempty"`
	Code          string `json:"code,omitempty"`

	// Violation fields.
	ViolationType string `json:"violation_type,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSuccess      Event = "success"
	EventViolation    Event = "violation"
	EventDisqualified Event = "disqualified"
	EventGraded       Event = "graded"
	EventError        Event = "error"
	EventPong         Event = "pong"
)

type SuccessResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// ViolationResponse reports the hearts state after a breach was applied.
type ViolationResponse struct {
	Event           Event `json:"event"`
	HeartsRemaining int   `json:"hearts_remaining"`
	TotalViolations int   `json:"total_violations"`
}

// DisqualifiedResponse tells the client the session is over for integrity
// reasons. The connection closes after this event.
type DisqualifiedResponse struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
}

type GradedResponse struct {
	Event  Event   `json:"event"`
	Score  float64 `json:"score"`
	Passed bool    `json:"passed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
