package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radcr/radcr-backend/internal/questionnaire"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/radcr/radcr-backend/internal/service"
	"github.com/rs/zerolog"
)

// failure maps a domain error to its HTTP status and error code.
type failure struct {
	err    error
	status int
	code   response.ErrCode
	detail bool
}

var failures = []failure{
	{err: service.ErrNotFound, status: http.StatusNotFound, code: response.ErrNotFound},
	{err: service.ErrInvalidCredentials, status: http.StatusUnauthorized, code: response.ErrInvalidCredentials},
	{err: service.ErrSessionInvalidated, status: http.StatusUnauthorized, code: response.ErrSessionInvalidated},
	{err: service.ErrUsernameTaken, status: http.StatusConflict, code: response.ErrUsernameTaken},

	// A stale path means the client's copy of the tree is out of date.
	{err: questionnaire.ErrPathNotFound, status: http.StatusConflict, code: response.ErrPathNotFound},
	{err: questionnaire.ErrInvalidMove, status: http.StatusUnprocessableEntity, code: response.ErrInvalidMove},
	{err: questionnaire.ErrMalformedPath, status: http.StatusBadRequest, code: response.ErrMalformedPath, detail: true},
	{err: questionnaire.ErrUnknownField, status: http.StatusBadRequest, code: response.ErrInvalidPayload, detail: true},
	{err: questionnaire.ErrInvalidValue, status: http.StatusBadRequest, code: response.ErrInvalidPayload, detail: true},
	{err: questionnaire.ErrDuplicateID, status: http.StatusUnprocessableEntity, code: response.ErrInvalidTree, detail: true},
	{err: questionnaire.ErrInvalidNode, status: http.StatusUnprocessableEntity, code: response.ErrInvalidTree, detail: true},
	{err: service.ErrQuestionNotFound, status: http.StatusNotFound, code: response.ErrQuestionNotFound},

	{err: service.ErrFolderNotFound, status: http.StatusNotFound, code: response.ErrFolderNotFound},
	{err: service.ErrImageNotFound, status: http.StatusNotFound, code: response.ErrImageNotFound},
	{err: service.ErrNoCaseMatches, status: http.StatusNotFound, code: response.ErrNoCaseMatches},

	{err: service.ErrUnsupportedFileType, status: http.StatusBadRequest, code: response.ErrUnsupportedFile, detail: true},
	{err: service.ErrFileTooLarge, status: http.StatusRequestEntityTooLarge, code: response.ErrFileTooLarge},
	{err: service.ErrInvalidDicom, status: http.StatusBadRequest, code: response.ErrInvalidDicom},
}

// writeServiceError sends the error response matching err. Unknown errors
// are logged and reported as internal errors.
func writeServiceError(c *gin.Context, log zerolog.Logger, err error) {
	for _, f := range failures {
		if !errors.Is(err, f.err) {
			continue
		}
		if f.detail {
			response.FailWithDetail(c, f.status, f.code, err.Error())
		} else {
			response.Fail(c, f.status, f.code)
		}
		return
	}

	log.Error().Err(err).
		Str("request_id", c.GetString(response.ContextKeyRequestID)).
		Str("route", c.FullPath()).
		Msg("Unhandled service error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
