package main

import (
	"database/sql"
	"time"

	"github.com/Deverdnd/neverdnd-call-handler/internal/telephony"
	"github.com/Deverdnd/neverdnd-call-handler/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, db *sql.DB, webhooks telephony.VoiceWebhookHandler) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	voice := r.Group("/webhooks/voice")
	{
		voice.POST("", webhooks.HandleInboundCall)
		voice.POST("/conversation", webhooks.HandleConversation)
		voice.POST("/status", webhooks.HandleStatus)
	}
}
