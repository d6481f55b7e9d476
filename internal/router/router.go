package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/radcr/radcr-backend/internal/config"
	"github.com/radcr/radcr-backend/internal/handler"
	"github.com/radcr/radcr-backend/internal/metrics"
	"github.com/radcr/radcr-backend/internal/middleware"
	"github.com/radcr/radcr-backend/internal/response"
	"github.com/radcr/radcr-backend/internal/service"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Questionnaire *handler.QuestionnaireHandler
	Case          *handler.CaseHandler
	Media         *handler.MediaHandler
	WS            *handler.WSHandler
	System        *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	authLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so every log line and response carries it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	if cfg.MetricsEnabled {
		router.Use(metrics.Middleware())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	router.Use(middleware.Brotli())

	// Uploaded files get a fresh name on every upload and never change.
	uploads := router.Group("/uploads")
	uploads.Use(middleware.CacheControl(365*24*time.Hour, true))
	{
		uploads.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.System.Health)
	router.GET("/ready", handlers.System.Ready)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		auth.POST("/logout", middleware.RequireUserJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireUserJWT(authService), handlers.Auth.Me)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.RequireUserJWT(authService), middleware.NoStore())

	// ─── 2. Questionnaires ─────────────────────────────────────────────
	qs := api.Group("/questionnaires")
	{
		qs.GET("", handlers.Questionnaire.List)
		qs.POST("", handlers.Questionnaire.Create)
		qs.POST("/report/preview", handlers.Questionnaire.Preview)

		q := qs.Group("/:id", middleware.RequireUUIDParam())
		q.GET("", handlers.Questionnaire.Get)
		q.PUT("", handlers.Questionnaire.Save)
		q.DELETE("", handlers.Questionnaire.Delete)
		q.POST("/duplicate", handlers.Questionnaire.Duplicate)
		q.GET("/report", handlers.Questionnaire.Report)

		q.POST("/tree/questions", handlers.Questionnaire.AddQuestion)
		q.POST("/tree/questions/duplicate", handlers.Questionnaire.DuplicateQuestion)
		q.POST("/tree/options", handlers.Questionnaire.AddOption)
		q.PATCH("/tree/node", handlers.Questionnaire.SetField)
		q.DELETE("/tree/node", handlers.Questionnaire.DeleteNode)
		q.POST("/tree/move", handlers.Questionnaire.Move)

		q.POST("/answers/options", handlers.Questionnaire.ToggleOption)
		q.PUT("/answers/free-texts", handlers.Questionnaire.SetFreeText)
		q.PUT("/answers/cr-texts", handlers.Questionnaire.SetCRText)
		q.POST("/answers/visibility", handlers.Questionnaire.ToggleVisibility)
		q.POST("/answers/autosave", handlers.Questionnaire.Autosave)
	}

	// ─── 3. Cases ──────────────────────────────────────────────────────
	cases := api.Group("/cases")
	{
		cases.GET("", handlers.Case.List)
		cases.POST("", handlers.Case.Create)
		cases.GET("/quiz", handlers.Case.Quiz)

		cs := cases.Group("/:id", middleware.RequireUUIDParam())
		cs.GET("", handlers.Case.Get)
		cs.PATCH("", handlers.Case.Update)
		cs.DELETE("", handlers.Case.Delete)
		cs.PATCH("/tags", handlers.Case.UpdateTags)

		cs.POST("/folders", handlers.Case.AddFolder)
		cs.DELETE("/folders/:folder", handlers.Case.DeleteFolder)
		cs.POST("/images", handlers.Case.UploadImages)
		cs.DELETE("/images", handlers.Case.DeleteImage)
		cs.POST("/main-image", handlers.Case.SetMainImage)
		cs.POST("/folder-main-image", handlers.Case.SetFolderMainImage)

		cs.GET("/sheet", handlers.Case.GetSheet)
		cs.POST("/sheet", handlers.Case.SaveSheet)
		cs.POST("/sheet/images", handlers.Media.UploadSheetImage)
	}

	// ─── 4. Media ──────────────────────────────────────────────────────
	api.POST("/media/upload", handlers.Media.UploadMedia)

	// ─── 5. WebSocket Group (query-token auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireUserWSAuth(authService))
	{
		ws.GET("/questionnaires/:id/preview", middleware.RequireUUIDParam(), handlers.WS.PreviewStream)
	}

	return router
}
