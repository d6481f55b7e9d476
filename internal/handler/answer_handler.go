package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radcr/radcr-backend/internal/middleware"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/radcr/radcr-backend/internal/validator"
)

// ToggleOption godoc
// POST /api/v1/questionnaires/:id/answers/options
// Option click: single questions keep one selection, multiple questions toggle.
func (h *QuestionnaireHandler) ToggleOption(c *gin.Context) {
	var req model.ToggleOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.svc.ToggleOption(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req.QuestionID, *req.OptionIndex)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// SetFreeText godoc
// PUT /api/v1/questionnaires/:id/answers/free-texts
func (h *QuestionnaireHandler) SetFreeText(c *gin.Context) {
	var req model.FreeTextRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.svc.SetFreeText(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req.QuestionID, req.Value)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// SetCRText godoc
// PUT /api/v1/questionnaires/:id/answers/cr-texts
// Sets the report fragment emitted when an option is selected.
func (h *QuestionnaireHandler) SetCRText(c *gin.Context) {
	var req model.CRTextRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.svc.SetCRText(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req.QuestionID, *req.OptionIndex, req.Text)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// ToggleVisibility godoc
// POST /api/v1/questionnaires/:id/answers/visibility
func (h *QuestionnaireHandler) ToggleVisibility(c *gin.Context) {
	var req model.VisibilityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.svc.ToggleVisibility(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req.QuestionID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// Autosave godoc
// POST /api/v1/questionnaires/:id/answers/autosave
// Caches the whole answer state and queues it for persistence.
func (h *QuestionnaireHandler) Autosave(c *gin.Context) {
	var req model.AnswerState
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	savedAt, err := h.svc.Autosave(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"saved_at": savedAt})
}
