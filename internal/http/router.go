package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/service"
)

// Handlers agrupa los handlers que monta el router.
type Handlers struct {
	Users         *UserHandler
	Campaigns     *CampaignHandler
	Contributions *ContributionHandler
	Chat          *ChatHandler
	Predictions   *PredictionHandler
	Admin         *AdminHandler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, jwtSvc *service.JWTService, h Handlers) *gin.Engine {
	RegisterValidators()

	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Publicas.
	r.POST("/users", h.Users.CreateUser)
	auth := r.Group("/auth")
	auth.POST("/login", h.Users.Login)
	auth.POST("/refresh", h.Users.RefreshToken)
	auth.POST("/logout", h.Users.Logout)

	r.GET("/campaigns", h.Campaigns.List)
	r.GET("/campaigns/:id", h.Campaigns.Get)
	r.GET("/campaigns/:id/contributions", h.Contributions.ListByCampaign)

	// Autenticadas.
	authed := r.Group("", JWTAuthMiddleware(jwtSvc))
	authed.GET("/users/me", h.Users.Me)
	authed.GET("/users/me/contributions", h.Contributions.ListMine)
	authed.GET("/users/me/transactions", h.Contributions.ListMyTransactions)

	authed.POST("/campaigns", h.Campaigns.Create)
	authed.PUT("/campaigns/:id", h.Campaigns.Update)
	authed.DELETE("/campaigns/:id", h.Campaigns.Delete)
	authed.POST("/campaigns/:id/close", h.Campaigns.Close)
	authed.POST("/campaigns/:id/contributions", h.Contributions.Contribute)
	authed.POST("/transactions", h.Contributions.RecordTransaction)

	authed.POST("/chat", h.Chat.PostMessage)
	authed.GET("/chat/sessions", h.Chat.ListSessions)
	authed.GET("/chat/sessions/:id", h.Chat.GetSession)
	authed.DELETE("/chat/sessions/:id", h.Chat.DeleteSession)

	authed.GET("/predictions", h.Predictions.List)
	authed.GET("/predictions/:id", h.Predictions.Get)

	admin := authed.Group("/admin", AdminOnly())
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/predictions", h.Admin.ListPredictions)
	admin.POST("/predictions/verify", h.Admin.VerifyPredictions)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if claims, ok := GetAuthClaims(c); ok {
			fields = append(fields, zap.String("user_id", claims.UserID))
		}
		logger.Info("request", fields...)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
