// services/openclaw_service.go
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
	"time"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/config"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/models"
)

// OpenClawService is the client for the OpenClaw Gateway, the downstream
// dashboard service that consumes normalized inbound messages.
type OpenClawService struct {
	baseURL    string
	apiKey     string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
}

func NewOpenClawService(cfg *config.Config) *OpenClawService {
	return &OpenClawService{
		baseURL:    strings.TrimRight(cfg.OpenClaw.URL, "/"),
		apiKey:     cfg.OpenClaw.APIKey,
		maxRetries: cfg.Relay.MaxRetries,
		retryDelay: cfg.Relay.RetryDelay,
		httpClient: &http.Client{
			Timeout: cfg.OpenClaw.Timeout,
		},
	}
}

// Configured reports whether a gateway URL is set
func (oc *OpenClawService) Configured() bool {
	return oc.baseURL != ""
}

// Forward delivers a normalized event to the gateway. A failed delivery is
// retried up to the configured number of times before giving up; the last
// error is returned so the caller can log the drop.
func (oc *OpenClawService) Forward(ctx context.Context, event models.GatewayEvent) (*models.GatewayReply, error) {
	if !oc.Configured() {
		return nil, fmt.Errorf("openclaw gateway not configured")
	}

	url := oc.baseURL + "/webhook/whatsapp"

	var lastErr error
	for attempt := 0; attempt <= oc.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(oc.retryDelay):
			}
			log.Printf("Retrying gateway forward (attempt %d/%d) for message %s", attempt, oc.maxRetries, event.MessageID)
		}

		reply, err := oc.post(ctx, url, event)
		if err == nil {
			return reply, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("gateway forward failed after %d attempts: %w", oc.maxRetries+1, lastErr)
}

func (oc *OpenClawService) post(ctx context.Context, url string, event models.GatewayEvent) (*models.GatewayReply, error) {
	jsonPayload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if oc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+oc.apiKey)
	}

	resp, err := oc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var reply models.GatewayReply
	if len(body) > 0 {
		if err := json.Unmarshal(body, &reply); err != nil {
			// A 200 with an unparseable body still counts as delivered.
			log.Printf("Gateway reply not decodable, ignoring: %v", err)
			return &models.GatewayReply{}, nil
		}
	}

	return &reply, nil
}

// HealthCheck probes the gateway health endpoint
func (oc *OpenClawService) HealthCheck(ctx context.Context) bool {
	if !oc.Configured() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oc.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := oc.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// SetBaseURL overrides the gateway URL. Used by tests.
func (oc *OpenClawService) SetBaseURL(url string) {
	oc.baseURL = strings.TrimRight(url, "/")
}
