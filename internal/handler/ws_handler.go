package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/radcr/radcr-backend/internal/metrics"
	"github.com/radcr/radcr-backend/internal/middleware"
	"github.com/radcr/radcr-backend/internal/report"
	"github.com/radcr/radcr-backend/internal/service"
	ws "github.com/radcr/radcr-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
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

// WSHandler streams live report previews while a questionnaire is filled in.
type WSHandler struct {
	svc      *service.QuestionnaireService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(svc *service.QuestionnaireService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		svc:      svc,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// previewSession is the state of one connection.
type previewSession struct {
	conn    *ws.Conn
	id      uuid.UUID
	userID  int
	seq     report.Sequencer
	publish sync.Mutex // keeps accepted reports in seq order on the wire
	pending sync.WaitGroup
	log     zerolog.Logger
}

// PreviewStream godoc
// WS /ws/v1/questionnaires/:id/preview
// Every "preview" action is generated off the read loop; results are
// published in sequence order and overtaken generations are dropped.
// "autosave" caches the answer state and queues it for persistence.
func (h *WSHandler) PreviewStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id := middleware.GetResourceID(c)

	q, err := h.svc.Get(c.Request.Context(), id, claims.UserID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	s := &previewSession{
		conn:   ws.NewConn(raw),
		id:     id,
		userID: claims.UserID,
		log: h.log.With().
			Int("user_id", claims.UserID).
			Str("questionnaire_id", id.String()).
			Logger(),
	}
	defer s.conn.Close()
	defer s.pending.Wait()

	metrics.PreviewOpened()
	defer metrics.PreviewClosed()
	s.log.Info().Msg("Preview connected")

	// The stored report is the baseline at seq 0.
	doc := report.Build(q)
	if s.seq.Offer(0, doc.Text) {
		s.conn.WriteTyped(reportEvent(0, doc))
	}

	ctx := context.Background()
	for {
		env, data, err := s.conn.ReadRaw()
		if err != nil {
			if errors.Is(err, ws.ErrMalformedMessage) {
				s.conn.WriteError(0, "malformed message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				s.log.Debug().Msg("Connection closed")
			}
			return
		}

		switch env.Action {
		case ws.ActionPreview:
			h.handlePreview(ctx, s, env, data)
		case ws.ActionAutosave:
			h.handleAutosave(ctx, s, env, data)
		case ws.ActionPing:
			s.conn.WriteTyped(ws.PongResponse{Event: ws.EventPong, Seq: env.Seq})
		default:
			s.log.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			s.conn.WriteError(env.Seq, "unknown action: "+string(env.Action))
		}
	}
}

// handlePreview generates the report in its own goroutine.
func (h *WSHandler) handlePreview(ctx context.Context, s *previewSession, env ws.RequestEnvelope, data []byte) {
	var req ws.PreviewRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.conn.WriteError(env.Seq, "invalid preview payload")
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		title := ""
		questions := req.Questions
		if questions == nil {
			q, err := h.svc.Get(ctx, s.id, s.userID)
			if err != nil {
				s.log.Error().Err(err).Msg("Load questionnaire failed")
				s.conn.WriteError(req.Seq, "questionnaire unavailable")
				return
			}
			questions, title = q.Questions, q.Title
		}

		text := report.Generate(report.Input{
			Questions:       questions,
			SelectedOptions: req.SelectedOptions,
			CRData:          req.CRData,
			HiddenQuestions: req.HiddenQuestions,
		})
		s.publish.Lock()
		defer s.publish.Unlock()
		if !s.seq.Offer(req.Seq, text) {
			s.log.Debug().Uint64("seq", req.Seq).Msg("Dropped stale preview")
			return
		}
		metrics.RecordReport("live")
		s.conn.WriteTyped(reportEvent(req.Seq, report.Document{Title: title, Text: text}))
	}()
}

// handleAutosave caches the answer state and queues it for persistence.
func (h *WSHandler) handleAutosave(ctx context.Context, s *previewSession, env ws.RequestEnvelope, data []byte) {
	var req ws.AutosaveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.conn.WriteError(env.Seq, "invalid autosave payload")
		return
	}

	savedAt, err := h.svc.Autosave(ctx, s.id, s.userID, req.State)
	if err != nil {
		s.log.Error().Err(err).Msg("Autosave failed")
		s.conn.WriteError(req.Seq, "save failed")
		return
	}
	s.conn.WriteTyped(ws.SavedResponse{Event: ws.EventSaved, Seq: req.Seq, SavedAt: savedAt})
}

func reportEvent(seq uint64, doc report.Document) ws.ReportResponse {
	return ws.ReportResponse{
		Event: ws.EventReport,
		Seq:   seq,
		Title: doc.Title,
		Text:  doc.Text,
		HTML:  report.ClipboardHTML(doc.Text),
	}
}
