package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/radcr/radcr-backend/internal/middleware"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/radcr/radcr-backend/internal/service"
	"github.com/radcr/radcr-backend/internal/validator"
	"github.com/rs/zerolog"
)

// CaseHandler handles teaching case endpoints.
type CaseHandler struct {
	svc *service.CaseService
	log zerolog.Logger
}

// NewCaseHandler creates a new CaseHandler.
func NewCaseHandler(svc *service.CaseService, log zerolog.Logger) *CaseHandler {
	return &CaseHandler{
		svc: svc,
		log: log.With().Str("component", "case_handler").Logger(),
	}
}

// parseCaseFilter reads ?difficulty=1,2&difficulty=5&tag=neuro.
func parseCaseFilter(c *gin.Context) (model.CaseFilter, map[string]string) {
	f := model.CaseFilter{Tag: strings.TrimSpace(c.Query("tag"))}
	for _, raw := range c.QueryArray("difficulty") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, err := strconv.Atoi(part)
			if err != nil || d < model.MinDifficulty || d > model.MaxDifficulty {
				return f, map[string]string{"difficulty": "difficulty must be between 1 and 5"}
			}
			f.Difficulties = append(f.Difficulties, d)
		}
	}
	return f, nil
}

// List godoc
// GET /api/v1/cases
// Lists the user's cases, optionally filtered by difficulty and tag.
func (h *CaseHandler) List(c *gin.Context) {
	f, fields := parseCaseFilter(c)
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	cases, err := h.svc.List(c.Request.Context(), claims.UserID, f)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cases": cases})
}

// Quiz godoc
// GET /api/v1/cases/quiz
// Draws a random case for review.
func (h *CaseHandler) Quiz(c *gin.Context) {
	f, fields := parseCaseFilter(c)
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	cs, err := h.svc.Quiz(c.Request.Context(), claims.UserID, f)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// Create godoc
// POST /api/v1/cases
func (h *CaseHandler) Create(c *gin.Context) {
	var req model.CreateCaseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	cs, err := h.svc.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"case": cs})
}

// Get godoc
// GET /api/v1/cases/:id
func (h *CaseHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	cs, err := h.svc.Get(c.Request.Context(), middleware.GetResourceID(c), claims.UserID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// Delete godoc
// DELETE /api/v1/cases/:id
// Removes the case and its uploaded files.
func (h *CaseHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.svc.Delete(c.Request.Context(), middleware.GetResourceID(c), claims.UserID); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Update godoc
// PATCH /api/v1/cases/:id
// Patches difficulty, answer and sheet.
func (h *CaseHandler) Update(c *gin.Context) {
	var req model.UpdateCaseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	cs, err := h.svc.Update(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// UpdateTags godoc
// PATCH /api/v1/cases/:id/tags
func (h *CaseHandler) UpdateTags(c *gin.Context) {
	var req model.UpdateTagsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	cs, err := h.svc.UpdateTags(c.Request.Context(), middleware.GetResourceID(c), claims.UserID,
		strings.TrimSpace(req.TagToAdd), strings.TrimSpace(req.TagToRemove))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// ─── Folders & images ──────────────────────────────────────────────────

// AddFolder godoc
// POST /api/v1/cases/:id/folders
func (h *CaseHandler) AddFolder(c *gin.Context) {
	var req model.FolderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	cs, err := h.svc.AddFolder(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req.Folder)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// DeleteFolder godoc
// DELETE /api/v1/cases/:id/folders/:folder
func (h *CaseHandler) DeleteFolder(c *gin.Context) {
	claims := middleware.GetClaims(c)
	cs, err := h.svc.DeleteFolder(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, c.Param("folder"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// UploadImages godoc
// POST /api/v1/cases/:id/images
// Multipart form: "folder" and one or more "images" (JPEG, PNG, GIF, WebP or DICOM).
func (h *CaseHandler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	folder := c.PostForm("folder")
	if folder == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"folder": "folder is a required field"})
		return
	}

	claims := middleware.GetClaims(c)
	cs, stored, err := h.svc.UploadImages(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, folder, form.File["images"])
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs, "files": stored})
}

// DeleteImage godoc
// DELETE /api/v1/cases/:id/images
func (h *CaseHandler) DeleteImage(c *gin.Context) {
	var req model.ImageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	cs, err := h.svc.DeleteImage(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req.Folder, req.Image)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// SetMainImage godoc
// POST /api/v1/cases/:id/main-image
// JSON {"image"} picks an image of the case; a multipart "mainImage" uploads a new cover.
func (h *CaseHandler) SetMainImage(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id := middleware.GetResourceID(c)

	if header, err := c.FormFile("mainImage"); err == nil {
		cs, err := h.svc.UploadCover(c.Request.Context(), id, claims.UserID, "", header)
		if err != nil {
			writeServiceError(c, h.log, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"case": cs})
		return
	}

	var req model.MainImageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	cs, err := h.svc.SetMainImage(c.Request.Context(), id, claims.UserID, req.Image)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// SetFolderMainImage godoc
// POST /api/v1/cases/:id/folder-main-image
// JSON {"folder","image"} picks an image of the folder; a multipart
// "folderMainImage" with "folder" uploads a new folder cover.
func (h *CaseHandler) SetFolderMainImage(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id := middleware.GetResourceID(c)

	if header, err := c.FormFile("folderMainImage"); err == nil {
		folder := c.PostForm("folder")
		if folder == "" {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"folder": "folder is a required field"})
			return
		}
		cs, err := h.svc.UploadCover(c.Request.Context(), id, claims.UserID, folder, header)
		if err != nil {
			writeServiceError(c, h.log, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"case": cs})
		return
	}

	var req model.ImageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	cs, err := h.svc.SetFolderMainImage(c.Request.Context(), id, claims.UserID, req.Folder, req.Image)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"case": cs})
}

// ─── Revision sheet ────────────────────────────────────────────────────

// GetSheet godoc
// GET /api/v1/cases/:id/sheet
func (h *CaseHandler) GetSheet(c *gin.Context) {
	claims := middleware.GetClaims(c)
	cs, err := h.svc.Get(c.Request.Context(), middleware.GetResourceID(c), claims.UserID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sheet": cs.Sheet})
}

// SaveSheet godoc
// POST /api/v1/cases/:id/sheet
func (h *CaseHandler) SaveSheet(c *gin.Context) {
	var req model.SheetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	cs, err := h.svc.SaveSheet(c.Request.Context(), middleware.GetResourceID(c), claims.UserID, req.Sheet)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sheet": cs.Sheet})
}
