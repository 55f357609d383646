package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. The WhatsApp
// webhook routes are registered only when webhook is non-nil.
func New(handler *handlers.SalesHandler, webhook *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.SetHTMLTemplate(handlers.Templates())

	r.GET("/", handler.Page)
	r.POST("/sales", handler.CreateForm)
	r.POST("/sales/:id/delete", handler.DeleteForm)
	r.POST("/refresh", handler.RefreshForm)

	api := r.Group("/api")
	api.GET("/sales", handler.ListSales)
	api.POST("/sales", handler.CreateSale)
	api.DELETE("/sales/:id", handler.DeleteSale)
	api.POST("/refresh", handler.Refresh)
	api.GET("/totals", handler.Totals)

	if webhook != nil {
		r.GET("/webhook", webhook.Verify)
		r.POST("/webhook", webhook.Receive)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
