package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheControl marks responses as publicly cacheable for maxAge. Uploaded
// files never change once written, so they can also be marked immutable.
func CacheControl(maxAge time.Duration, immutable bool) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	if immutable {
		value += ", immutable"
	}
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// NoStore forbids caching. Questionnaires and reports carry patient findings.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
