package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radcr/radcr-backend/internal/metrics"
	"github.com/radcr/radcr-backend/internal/middleware"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/radcr/radcr-backend/internal/questionnaire"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/radcr/radcr-backend/internal/validator"
)

// Tree edits address nodes with wire paths such as [0,"options",2,"subQuestions",1].
// Every edit answers with the updated document so the client can replace its copy.

// AddQuestion godoc
// POST /api/v1/questionnaires/:id/tree/questions
// Appends a question to the root list (empty path) or to an option's sub-questions.
func (h *QuestionnaireHandler) AddQuestion(c *gin.Context) {
	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	owner, err := questionnaire.ParseListOwner(req.Path)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	claims := middleware.GetClaims(c)
	q, added, err := h.svc.AddQuestion(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, owner, req.Template)
	metrics.RecordTreeEdit("add_question", err)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"questionnaire": q, "question": added})
}

// DuplicateQuestion godoc
// POST /api/v1/questionnaires/:id/tree/questions/duplicate
// Appends a copy of a question, with fresh ids, to its own list.
func (h *QuestionnaireHandler) DuplicateQuestion(c *gin.Context) {
	var req model.DuplicateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	p, err := questionnaire.ParsePath(req.Path)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	claims := middleware.GetClaims(c)
	q, added, err := h.svc.DuplicateQuestion(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, p)
	metrics.RecordTreeEdit("duplicate_question", err)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"questionnaire": q, "question": added})
}

// AddOption godoc
// POST /api/v1/questionnaires/:id/tree/options
func (h *QuestionnaireHandler) AddOption(c *gin.Context) {
	var req model.PathRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	p, err := questionnaire.ParsePath(req.Path)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	claims := middleware.GetClaims(c)
	q, added, err := h.svc.AddOption(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, p)
	metrics.RecordTreeEdit("add_option", err)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"questionnaire": q, "option": added})
}

// SetField godoc
// PATCH /api/v1/questionnaires/:id/tree/node
// Sets text, type or image of a node.
func (h *QuestionnaireHandler) SetField(c *gin.Context) {
	var req model.SetFieldRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	p, err := questionnaire.ParsePath(req.Path)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.svc.SetField(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, p, questionnaire.Field(req.Field), req.Value)
	metrics.RecordTreeEdit("set_"+req.Field, err)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// DeleteNode godoc
// DELETE /api/v1/questionnaires/:id/tree/node
// Removes a question or an option together with its subtree.
func (h *QuestionnaireHandler) DeleteNode(c *gin.Context) {
	var req model.PathRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	p, err := questionnaire.ParsePath(req.Path)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.svc.DeleteNode(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, p)
	metrics.RecordTreeEdit("delete", err)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// Move godoc
// POST /api/v1/questionnaires/:id/tree/move
// Drag and drop: moves the node at dragPath to hoverPath.
func (h *QuestionnaireHandler) Move(c *gin.Context) {
	var req model.MoveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	drag, err := questionnaire.ParsePath(req.DragPath)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	hover, err := questionnaire.ParsePath(req.HoverPath)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	claims := middleware.GetClaims(c)
	q, err := h.svc.Move(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, drag, hover)
	metrics.RecordTreeEdit("move", err)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}
