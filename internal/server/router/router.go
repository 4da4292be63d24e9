package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/server/handlers"
)

// Handlers groups the HTTP adapters. Webhook is nil when chat is disabled.
type Handlers struct {
	Stock    *handlers.StockHandler
	Sessions *handlers.SessionHandler
	Webhook  *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/lots", h.Stock.ListLots)
		api.GET("/lots/locations", h.Stock.Locations)
		api.GET("/lots/:id", h.Stock.GetLot)
		api.POST("/lots", h.Stock.RegisterLot)

		api.GET("/stock", h.Stock.Stock)
		api.GET("/stock/breakdown", h.Stock.Breakdown)

		api.POST("/sessions", h.Sessions.Start)
		api.GET("/sessions/:id", h.Sessions.Get)
		api.PUT("/sessions/:id/allocations", h.Sessions.SetAllocation)
		api.DELETE("/sessions/:id/allocations/*key", h.Sessions.RemoveAllocation)
		api.DELETE("/sessions/:id", h.Sessions.Discard)
		api.POST("/sessions/:id/submit", h.Sessions.Submit)

		api.GET("/deliveries", h.Sessions.ListDeliveries)
		api.GET("/deliveries/:id", h.Sessions.GetDelivery)
	}

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	logger.Info("router initialized", zap.Bool("webhook", h.Webhook != nil))
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
