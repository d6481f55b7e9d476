package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/radcr/radcr-backend/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
)

// RequireUserJWT validates the bearer token and checks that it is still the
// user's active session. A later login on another device revokes it.
func RequireUserJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authenticate(c, authService, tokenStr)
	}
}

// RequireUserWSAuth validates a JWT from the query param ?token=...
// Browsers cannot set headers on WebSocket upgrade requests.
func RequireUserWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authenticate(c, authService, tokenStr)
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

func authenticate(c *gin.Context, authService *service.AuthService, tokenStr string) {
	claims, err := authService.ValidateToken(tokenStr)
	if err != nil {
		code := response.ErrTokenInvalid
		if errors.Is(err, jwt.ErrTokenExpired) {
			code = response.ErrTokenExpired
		}
		response.AbortFail(c, http.StatusUnauthorized, code)
		return
	}

	if err := authService.ValidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
		if errors.Is(err, service.ErrSessionInvalidated) {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}
		response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.Set(ContextKeyClaims, claims)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
