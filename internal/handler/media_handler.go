package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radcr/radcr-backend/internal/middleware"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/radcr/radcr-backend/internal/service"
	"github.com/rs/zerolog"
)

// MediaHandler handles media upload endpoints.
type MediaHandler struct {
	mediaService *service.MediaService
	caseService  *service.CaseService
	log          zerolog.Logger
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService *service.MediaService, caseService *service.CaseService, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		caseService:  caseService,
		log:          log.With().Str("component", "media_handler").Logger(),
	}
}

// UploadSheetImage godoc
// POST /api/v1/cases/:id/sheet/images
// Uploads an image embedded in a revision sheet. The rich-text editor
// expects the URL under "location".
func (h *MediaHandler) UploadSheetImage(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if _, err := h.caseService.Get(c.Request.Context(), middleware.GetResourceID(c), claims.UserID); err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	url, err := h.mediaService.SaveUpload(file, header)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"location": url})
}

// UploadMedia godoc
// POST /api/v1/media/upload
// Uploads a question or option illustration and returns its URL.
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	url, err := h.mediaService.SaveUpload(file, header)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"url": url})
}
