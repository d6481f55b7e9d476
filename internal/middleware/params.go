package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/radcr/radcr-backend/internal/response"
)

// ContextKeyResourceID is the Gin context key for the parsed :id parameter.
const ContextKeyResourceID = "resource_id"

// RequireUUIDParam parses the :id path parameter once for a route group.
func RequireUUIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.AbortFail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		c.Set(ContextKeyResourceID, id)
		c.Next()
	}
}

// GetResourceID returns the id parsed by RequireUUIDParam.
func GetResourceID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ContextKeyResourceID)
	v, _ := id.(uuid.UUID)
	return v
}
