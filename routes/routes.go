package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/config"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/controllers"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/database"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/middleware"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/services"
)

// SetupRoutes wires services, controllers and endpoints. The store is
// optional; without it the bridge runs with no message log.
func SetupRoutes(router *gin.Engine, cfg *config.Config, store *database.Store) {
	// Initialize services
	whatsappService := services.NewWhatsAppService(cfg)
	openclawService := services.NewOpenClawService(cfg)
	relayService := services.NewRelayService(cfg, whatsappService, openclawService)

	// Initialize controllers
	webhookController := controllers.NewWebhookController(whatsappService, relayService)
	messageController := controllers.NewMessageController(cfg, whatsappService, openclawService)
	streamController := controllers.NewStreamController()

	relayService.SetSink(streamController)
	if store != nil {
		relayService.SetStore(store)
		messageController.SetStore(store)
	}

	sendLimiter := middleware.NewWindowLimiter(cfg.Relay.RateLimitPerMin)

	// Health and service info
	router.GET("/health", func(c *gin.Context) {
		dbStatus := gin.H{"enabled": false}
		if store != nil {
			dbStatus = gin.H{
				"enabled": true,
				"healthy": store.HealthCheck(c.Request.Context()) == nil,
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "whatsapp-webhook",
			"timestamp": time.Now(),
			"connections": gin.H{
				"openclaw": gin.H{
					"configured": openclawService.Configured(),
				},
				"whatsapp": gin.H{
					"configured": whatsappService.Configured(),
				},
				"database": dbStatus,
			},
		})
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "WhatsApp Webhook Handler",
			"description": "Meta WhatsApp Cloud API integration for the OpenClaw dashboard",
			"endpoints": gin.H{
				"health":          "/health",
				"webhook_verify":  "/webhook/whatsapp (GET)",
				"webhook_receive": "/webhook/whatsapp (POST)",
				"send_message":    "/send",
			},
		})
	})

	// Webhook endpoints (no auth; Meta authenticates via verify token
	// and, when configured, the payload signature)
	webhook := router.Group("/webhook")
	{
		webhook.GET("/whatsapp", webhookController.VerifyWebhook)
		webhook.POST("/whatsapp",
			middleware.VerifyWhatsAppSignature(cfg.WhatsApp.AppSecret),
			webhookController.HandleWebhook)
	}

	// Outbound message endpoints
	router.POST("/send", middleware.RateLimit(sendLimiter), messageController.SendMessage)
	router.POST("/send/interactive", middleware.RateLimit(sendLimiter), messageController.SendInteractive)
	router.POST("/mark-read", messageController.MarkRead)

	// Dashboard endpoints
	router.GET("/status", messageController.GetStatus)
	router.GET("/messages", messageController.RecentMessages)
	router.GET("/ws", streamController.HandleStream)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})
}
