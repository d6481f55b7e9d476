package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/radcr/radcr-backend/internal/middleware"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/radcr/radcr-backend/internal/service"
	"github.com/radcr/radcr-backend/internal/validator"
	"github.com/rs/zerolog"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates an account. The client logs in separately.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	h.log.Info().Int("user_id", user.ID).Str("username", user.Username).Msg("Account created")
	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// Login godoc
// POST /api/v1/auth/login
// Validates credentials and returns a JWT. Any previous session of the user is revoked.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.authService.Logout(c.Request.Context(), claims.UserID); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the account of the current token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	user, err := h.authService.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}
