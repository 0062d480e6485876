// controllers/webhook_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/models"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/services"
)

type WebhookController struct {
	whatsappService *services.WhatsAppService
	relayService    *services.RelayService

	// async controls whether inbound processing is detached from the
	// request. Tests disable it to observe the relay synchronously.
	async bool
}

func NewWebhookController(whatsappService *services.WhatsAppService, relayService *services.RelayService) *WebhookController {
	return &WebhookController{
		whatsappService: whatsappService,
		relayService:    relayService,
		async:           true,
	}
}

// SetAsync toggles detached processing. Used by tests.
func (wc *WebhookController) SetAsync(async bool) {
	wc.async = async
}

// VerifyWebhook handles the webhook verification handshake from Meta
func (wc *WebhookController) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == wc.whatsappService.GetVerifyToken() {
		log.Println("Webhook verified successfully")
		c.String(http.StatusOK, challenge)
		return
	}

	log.Printf("Webhook verification failed: mode=%q", mode)
	c.JSON(http.StatusForbidden, gin.H{"error": "Verification failed"})
}

// HandleWebhook receives inbound events from Meta. Meta requires a 2xx
// regardless of processing outcome to prevent redelivery storms, so even
// malformed payloads are acknowledged.
func (wc *WebhookController) HandleWebhook(c *gin.Context) {
	var payload models.WebhookPayload

	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("Ignoring malformed webhook payload: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if wc.async {
		// Respond immediately; the request context dies with the
		// response, so processing runs on a fresh one.
		go wc.relayService.ProcessWebhook(context.Background(), payload)
	} else {
		wc.relayService.ProcessWebhook(c.Request.Context(), payload)
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
