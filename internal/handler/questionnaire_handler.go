package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radcr/radcr-backend/internal/metrics"
	"github.com/radcr/radcr-backend/internal/middleware"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/radcr/radcr-backend/internal/report"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/radcr/radcr-backend/internal/service"
	"github.com/radcr/radcr-backend/internal/validator"
	"github.com/rs/zerolog"
)

// QuestionnaireHandler serves questionnaire documents, their editor
// operations, the answer callbacks and report generation.
type QuestionnaireHandler struct {
	svc *service.QuestionnaireService
	log zerolog.Logger
}

// NewQuestionnaireHandler creates a new QuestionnaireHandler.
func NewQuestionnaireHandler(svc *service.QuestionnaireService, log zerolog.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{
		svc: svc,
		log: log.With().Str("component", "questionnaire_handler").Logger(),
	}
}

// reportBody is the JSON shape of a generated report.
type reportBody struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	HTML  string `json:"html"`
}

func newReportBody(doc report.Document) reportBody {
	return reportBody{Title: doc.Title, Text: doc.Text, HTML: report.ClipboardHTML(doc.Text)}
}

// List godoc
// GET /api/v1/questionnaires
func (h *QuestionnaireHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	list, err := h.svc.List(c.Request.Context(), claims.UserID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaires": list})
}

// Create godoc
// POST /api/v1/questionnaires
func (h *QuestionnaireHandler) Create(c *gin.Context) {
	var req model.SaveQuestionnaireRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.svc.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"questionnaire": q})
}

// Get godoc
// GET /api/v1/questionnaires/:id
func (h *QuestionnaireHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	q, err := h.svc.Get(c.Request.Context(), middleware.GetResourceID(c), claims.UserID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// Save godoc
// PUT /api/v1/questionnaires/:id
// Replaces the whole document.
func (h *QuestionnaireHandler) Save(c *gin.Context) {
	var req model.SaveQuestionnaireRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.svc.Save(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// Delete godoc
// DELETE /api/v1/questionnaires/:id
func (h *QuestionnaireHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.svc.Delete(c.Request.Context(), middleware.GetResourceID(c), claims.UserID); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Duplicate godoc
// POST /api/v1/questionnaires/:id/duplicate
// Copies a questionnaire with fresh node ids and its answers.
func (h *QuestionnaireHandler) Duplicate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	q, err := h.svc.Duplicate(c.Request.Context(), middleware.GetResourceID(c), claims.UserID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"questionnaire": q})
}

// Report godoc
// GET /api/v1/questionnaires/:id/report
// Returns the generated report as text and as clipboard HTML.
func (h *QuestionnaireHandler) Report(c *gin.Context) {
	claims := middleware.GetClaims(c)
	doc, err := h.svc.Report(c.Request.Context(), middleware.GetResourceID(c), claims.UserID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	metrics.RecordReport("stored")
	response.Success(c, http.StatusOK, newReportBody(doc))
}

// Preview godoc
// POST /api/v1/questionnaires/report/preview
// Generates a report from an unsaved tree and answer state.
func (h *QuestionnaireHandler) Preview(c *gin.Context) {
	var req model.PreviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	metrics.RecordReport("preview")
	response.Success(c, http.StatusOK, newReportBody(h.svc.Preview(req)))
}
