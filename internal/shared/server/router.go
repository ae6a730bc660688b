package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "docchat-backend/internal/auth"
	"docchat-backend/internal/billing"
	"docchat-backend/internal/chat"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
	"docchat-backend/internal/users"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	ChatHandler     *chat.Handler
	UserHandler     *users.Handler
	BillingHandler  *billing.Handler
	GoogleAuth      *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(generationRateLimits()),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
	}
	if deps.BillingHandler != nil {
		deps.BillingHandler.RegisterRoutes(api)
	}

	if cfg.Env == "dev" || cfg.Env == "local" {
		api.GET("/metrics", metrics.Handler())
	}

	return r
}

// generationRateLimits keeps provider-backed routes on a tighter budget than
// the rest of the API.
func generationRateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"GENERATE": {Rate: 1, Burst: 5},
			"DEFAULT":  {Rate: 20, Burst: 40},
		},
		GroupFor: func(c *gin.Context) string {
			path := c.FullPath()
			if c.Request.Method == http.MethodPost && strings.HasSuffix(path, "/messages") {
				return "GENERATE"
			}
			if c.Request.Method == http.MethodGet && strings.HasSuffix(path, "/session") {
				return "GENERATE"
			}
			return "DEFAULT"
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
