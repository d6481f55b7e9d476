package websocket

import (
	"time"

	"github.com/radcr/radcr-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPreview  Action = "preview"
	ActionAutosave Action = "autosave"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
// Seq is chosen by the client and must grow with every request, starting
// at 1: seq 0 is the stored report sent on connect.
type RequestEnvelope struct {
	Action Action `json:"action"`
	Seq    uint64 `json:"seq"`
}

// PreviewRequest asks for the report of an answer state. A nil Questions
// uses the stored tree of the questionnaire.
type PreviewRequest struct {
	Action    Action           `json:"action"`
	Seq       uint64           `json:"seq"`
	Questions []model.Question `json:"questions"`
	model.AnswerState
}

// AutosaveRequest caches an answer state and queues it for persistence.
type AutosaveRequest struct {
	Action Action            `json:"action"`
	Seq    uint64            `json:"seq"`
	State  model.AnswerState `json:"state"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReport Event = "report"
	EventSaved  Event = "saved"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// ReportResponse carries a generated report. Reports are only sent in
// increasing Seq order; a generation overtaken by a newer one is dropped.
type ReportResponse struct {
	Event Event  `json:"event"`
	Seq   uint64 `json:"seq"`
	Title string `json:"title"`
	Text  string `json:"text"`
	HTML  string `json:"html"`
}

type SavedResponse struct {
	Event   Event     `json:"event"`
	Seq     uint64    `json:"seq"`
	SavedAt time.Time `json:"saved_at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Seq   uint64 `json:"seq"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event  `json:"event"`
	Seq   uint64 `json:"seq"`
}
