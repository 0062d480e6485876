// controllers/message_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/config"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/models"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/services"
)

const serviceVersion = "1.0.0"

type MessageController struct {
	whatsappService *services.WhatsAppService
	openclawService *services.OpenClawService
	store           services.MessageStore
	maxLength       int
}

func NewMessageController(cfg *config.Config, whatsappService *services.WhatsAppService, openclawService *services.OpenClawService) *MessageController {
	return &MessageController{
		whatsappService: whatsappService,
		openclawService: openclawService,
		maxLength:       cfg.Relay.MaxMessageLength,
	}
}

// SetStore attaches the optional message log for /messages
func (mc *MessageController) SetStore(store services.MessageStore) {
	mc.store = store
}

// SendMessage sends an outbound message via the Cloud API. Plain text by
// default; type "template" sends the pre-approved template named by the
// message field.
func (mc *MessageController) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.SendResponse{
			Success: false,
			Error:   "Fields 'to' and 'message' are required",
		})
		return
	}

	var messageID string
	var err error

	switch req.Type {
	case "", "text":
		if utf8.RuneCountInString(req.Message) > mc.maxLength {
			c.JSON(http.StatusBadRequest, models.SendResponse{
				Success: false,
				Error:   "Message exceeds maximum length",
			})
			return
		}
		messageID, err = mc.whatsappService.SendTextMessage(c.Request.Context(), req.To, req.Message)

	case "template":
		messageID, err = mc.whatsappService.SendTemplateMessage(c.Request.Context(), req.To, req.Message, req.TemplateParams)

	default:
		c.JSON(http.StatusBadRequest, models.SendResponse{
			Success: false,
			Error:   "Unsupported message type: " + req.Type,
		})
		return
	}

	if err != nil {
		c.JSON(http.StatusBadGateway, models.SendResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SendResponse{
		Success:   true,
		MessageID: messageID,
	})
}

// SendInteractive sends a button-style interactive message
func (mc *MessageController) SendInteractive(c *gin.Context) {
	var req models.SendInteractiveRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.SendResponse{
			Success: false,
			Error:   "Fields 'to', 'text' and 'buttons' are required",
		})
		return
	}

	messageID, err := mc.whatsappService.SendInteractiveButtons(c.Request.Context(), req.To, req.Text, req.Buttons)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.SendResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SendResponse{
		Success:   true,
		MessageID: messageID,
	})
}

// MarkRead marks an inbound message as read
func (mc *MessageController) MarkRead(c *gin.Context) {
	var req models.MarkReadRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Field 'message_id' is required"})
		return
	}

	if err := mc.whatsappService.MarkMessageAsRead(c.Request.Context(), req.MessageID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetStatus returns bridge status and counters
func (mc *MessageController) GetStatus(c *gin.Context) {
	lastMessage, countToday := mc.whatsappService.Status()

	c.JSON(http.StatusOK, models.BridgeStatus{
		Status:              "running",
		WebhookConfigured:   mc.whatsappService.Configured(),
		OpenClawConfigured:  mc.openclawService.Configured(),
		LastMessageReceived: lastMessage,
		MessageCountToday:   countToday,
		Version:             serviceVersion,
	})
}

// RecentMessages returns the most recent relay log entries
func (mc *MessageController) RecentMessages(c *gin.Context) {
	if mc.store == nil {
		c.JSON(http.StatusOK, gin.H{"messages": []models.MessageLog{}, "enabled": false})
		return
	}

	limit := 50
	if v, ok := c.GetQuery("limit"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := mc.store.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load message log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": entries, "enabled": true})
}
