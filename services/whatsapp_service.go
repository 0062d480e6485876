// services/whatsapp_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/config"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/models"
)

type WhatsAppService struct {
	apiURL        string
	apiVersion    string
	accessToken   string
	phoneNumberID string
	businessID    string
	verifyToken   string
	httpClient    *http.Client

	// Status tracking
	statusMu        sync.RWMutex
	lastMessageTime time.Time
	messageCount    int64
	dailyCount      map[string]int
}

func NewWhatsAppService(cfg *config.Config) *WhatsAppService {
	return &WhatsAppService{
		apiURL:        "https://graph.facebook.com",
		apiVersion:    cfg.WhatsApp.APIVersion,
		accessToken:   cfg.WhatsApp.AccessToken,
		phoneNumberID: cfg.WhatsApp.PhoneID,
		businessID:    cfg.WhatsApp.BusinessID,
		verifyToken:   cfg.WhatsApp.VerifyToken,
		httpClient: &http.Client{
			Timeout: cfg.Relay.MessageTimeout,
		},
		dailyCount: make(map[string]int),
	}
}

// GetVerifyToken returns the webhook verification token
func (ws *WhatsAppService) GetVerifyToken() string {
	return ws.verifyToken
}

// SendTextMessage sends a simple text message and returns the message reference
func (ws *WhatsAppService) SendTextMessage(ctx context.Context, to string, message string) (string, error) {
	payload := models.CloudSendMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               ws.CleanPhoneNumber(to),
		Type:             "text",
		Text: &models.CloudText{
			Body: message,
		},
	}

	return ws.sendMessage(ctx, payload)
}

// SendTemplateMessage sends a pre-approved template message
func (ws *WhatsAppService) SendTemplateMessage(ctx context.Context, to string, templateName string, params []string) (string, error) {
	var components []models.CloudTemplateComponent
	if len(params) > 0 {
		templateParams := make([]models.CloudTemplateParam, len(params))
		for i, param := range params {
			templateParams[i] = models.CloudTemplateParam{Type: "text", Text: param}
		}
		components = []models.CloudTemplateComponent{
			{Type: "body", Parameters: templateParams},
		}
	}

	payload := models.CloudSendMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               ws.CleanPhoneNumber(to),
		Type:             "template",
		Template: &models.CloudTemplate{
			Name:       templateName,
			Language:   models.CloudTemplateLanguage{Code: "en"},
			Components: components,
		},
	}

	return ws.sendMessage(ctx, payload)
}

// SendInteractiveButtons sends a button-style interactive message.
// WhatsApp caps reply buttons at three per message.
func (ws *WhatsAppService) SendInteractiveButtons(ctx context.Context, to string, text string, buttons []models.ButtonSpec) (string, error) {
	cloudButtons := make([]models.CloudButton, 0, 3)
	for i, btn := range buttons {
		if i >= 3 {
			break
		}
		id := btn.ID
		if id == "" {
			id = fmt.Sprintf("btn_%d", i)
		}
		title := btn.Title
		if title == "" {
			title = fmt.Sprintf("Button %d", i+1)
		}
		cloudButtons = append(cloudButtons, models.CloudButton{
			Type:  "reply",
			Reply: models.ButtonReply{ID: id, Title: title},
		})
	}

	payload := models.CloudSendMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               ws.CleanPhoneNumber(to),
		Type:             "interactive",
		Interactive: &models.CloudInteractive{
			Type:   "button",
			Body:   &models.CloudInteractiveBody{Text: text},
			Action: &models.CloudInteractiveAction{Buttons: cloudButtons},
		},
	}

	return ws.sendMessage(ctx, payload)
}

// sendMessage sends a message via the Cloud API messages endpoint
func (ws *WhatsAppService) sendMessage(ctx context.Context, payload interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/messages", ws.apiURL, ws.apiVersion, ws.phoneNumberID)

	body, err := ws.postJSON(ctx, url, payload)
	if err != nil {
		return "", err
	}

	ws.updateMessageStatus()

	var result models.CloudSendResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode send response: %w", err)
	}
	if len(result.Messages) > 0 && result.Messages[0].ID != "" {
		return result.Messages[0].ID, nil
	}
	if len(result.Contacts) > 0 {
		return result.Contacts[0].Input, nil
	}
	return "", nil
}

// MarkMessageAsRead marks an inbound message as read
func (ws *WhatsAppService) MarkMessageAsRead(ctx context.Context, messageID string) error {
	url := fmt.Sprintf("%s/%s/%s/messages", ws.apiURL, ws.apiVersion, ws.phoneNumberID)

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}

	_, err := ws.postJSON(ctx, url, payload)
	return err
}

// ResolveMediaURL dereferences a media id into a downloadable URL via the
// Cloud API media endpoint. The URL expires after a few minutes and must be
// fetched with the same bearer token.
func (ws *WhatsAppService) ResolveMediaURL(ctx context.Context, mediaID string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", ws.apiURL, ws.apiVersion, mediaID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+ws.accessToken)

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch media info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("media lookup failed (%d): %s", resp.StatusCode, string(body))
	}

	var info models.CloudMediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to decode media info: %w", err)
	}

	return info.URL, nil
}

// GetBusinessProfile retrieves the business profile information. The
// profile lives under the business account id, not the phone number id.
func (ws *WhatsAppService) GetBusinessProfile(ctx context.Context) (map[string]interface{}, error) {
	if ws.businessID == "" {
		return nil, fmt.Errorf("WHATSAPP_BUSINESS_ID not configured")
	}
	url := fmt.Sprintf("%s/%s/%s/whatsapp_business_profile", ws.apiURL, ws.apiVersion, ws.businessID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+ws.accessToken)

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var profile map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// postJSON posts a JSON payload with bearer auth and returns the response body
func (ws *WhatsAppService) postJSON(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+ws.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorResp map[string]interface{}
		if err := json.Unmarshal(body, &errorResp); err == nil {
			log.Printf("WhatsApp API error details: %+v", errorResp)
			return nil, fmt.Errorf("WhatsApp API error: %v", errorResp)
		}
		return nil, fmt.Errorf("WhatsApp API error: %s", string(body))
	}

	return body, nil
}

// CleanPhoneNumber strips formatting characters. The Cloud API wants the
// number without the leading plus.
func (ws *WhatsAppService) CleanPhoneNumber(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// updateMessageStatus updates internal message tracking
func (ws *WhatsAppService) updateMessageStatus() {
	ws.statusMu.Lock()
	defer ws.statusMu.Unlock()

	ws.lastMessageTime = time.Now()
	ws.messageCount++

	today := time.Now().Format("2006-01-02")
	ws.dailyCount[today]++
}

// RecordInbound notes an inbound message for status reporting
func (ws *WhatsAppService) RecordInbound() {
	ws.updateMessageStatus()
}

// Status returns current counters for the /status endpoint
func (ws *WhatsAppService) Status() (lastMessage time.Time, countToday int) {
	ws.statusMu.RLock()
	defer ws.statusMu.RUnlock()

	today := time.Now().Format("2006-01-02")
	return ws.lastMessageTime, ws.dailyCount[today]
}

// Configured reports whether the Cloud API credentials are present
func (ws *WhatsAppService) Configured() bool {
	return ws.accessToken != "" && ws.phoneNumberID != ""
}

// SetAPIURL overrides the Graph API base URL. Used by tests.
func (ws *WhatsAppService) SetAPIURL(url string) {
	ws.apiURL = strings.TrimRight(url, "/")
}
