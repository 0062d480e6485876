package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/config"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/models"
)

func testConfig() *config.Config {
	return &config.Config{
		WhatsApp: config.WhatsAppConfig{
			VerifyToken: "verify-me",
			PhoneID:     "555001",
			AccessToken: "test-token",
			BusinessID:  "biz9000",
			APIVersion:  "v18.0",
		},
		OpenClaw: config.OpenClawConfig{
			Timeout: 5 * time.Second,
		},
		Relay: config.RelayConfig{
			MessageTimeout:   5 * time.Second,
			MaxMessageLength: 4096,
			MaxRetries:       2,
			RetryDelay:       10 * time.Millisecond,
			RateLimitPerMin:  60,
		},
	}
}

func TestSendTextMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload models.CloudSendMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(models.CloudSendResult{
			Contacts: []models.CloudContactRef{{Input: "15551234567", WaID: "15551234567"}},
			Messages: []models.CloudMessageRef{{ID: "wamid.test1"}},
		})
	}))
	defer server.Close()

	ws := NewWhatsAppService(testConfig())
	ws.SetAPIURL(server.URL)

	msgID, err := ws.SendTextMessage(context.Background(), "+1 (555) 123-4567", "hello")
	if err != nil {
		t.Fatalf("SendTextMessage: %v", err)
	}

	if msgID != "wamid.test1" {
		t.Errorf("expected wamid.test1, got %q", msgID)
	}
	if gotPath != "/v18.0/555001/messages" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotPayload.To != "15551234567" {
		t.Errorf("phone number not cleaned: %q", gotPayload.To)
	}
	if gotPayload.Type != "text" || gotPayload.Text == nil || gotPayload.Text.Body != "hello" {
		t.Errorf("unexpected payload: %+v", gotPayload)
	}
}

func TestSendTextMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":190,"message":"Invalid OAuth access token"}}`))
	}))
	defer server.Close()

	ws := NewWhatsAppService(testConfig())
	ws.SetAPIURL(server.URL)

	if _, err := ws.SendTextMessage(context.Background(), "15551234567", "hello"); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestSendTemplateMessage(t *testing.T) {
	var gotPayload models.CloudSendMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(models.CloudSendResult{
			Messages: []models.CloudMessageRef{{ID: "wamid.tpl1"}},
		})
	}))
	defer server.Close()

	ws := NewWhatsAppService(testConfig())
	ws.SetAPIURL(server.URL)

	msgID, err := ws.SendTemplateMessage(context.Background(), "15551234567", "appointment_reminder", []string{"Alice", "Tuesday"})
	if err != nil {
		t.Fatalf("SendTemplateMessage: %v", err)
	}
	if msgID != "wamid.tpl1" {
		t.Errorf("expected wamid.tpl1, got %q", msgID)
	}

	if gotPayload.Type != "template" || gotPayload.Template == nil {
		t.Fatalf("unexpected payload: %+v", gotPayload)
	}
	if gotPayload.Template.Name != "appointment_reminder" {
		t.Errorf("unexpected template name %q", gotPayload.Template.Name)
	}
	if len(gotPayload.Template.Components) != 1 {
		t.Fatalf("expected one body component, got %d", len(gotPayload.Template.Components))
	}
	params := gotPayload.Template.Components[0].Parameters
	if len(params) != 2 || params[0].Text != "Alice" || params[1].Text != "Tuesday" {
		t.Errorf("unexpected template params %+v", params)
	}
}

func TestSendTemplateMessage_NoParams(t *testing.T) {
	var gotPayload models.CloudSendMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(models.CloudSendResult{})
	}))
	defer server.Close()

	ws := NewWhatsAppService(testConfig())
	ws.SetAPIURL(server.URL)

	if _, err := ws.SendTemplateMessage(context.Background(), "15551234567", "hello_world", nil); err != nil {
		t.Fatalf("SendTemplateMessage: %v", err)
	}
	if gotPayload.Template == nil || len(gotPayload.Template.Components) != 0 {
		t.Errorf("parameterless template should have no components: %+v", gotPayload)
	}
}

func TestGetBusinessProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/biz9000/whatsapp_business_profile" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", auth)
		}
		w.Write([]byte(`{"data":[{"about":"Bridge HQ"}]}`))
	}))
	defer server.Close()

	ws := NewWhatsAppService(testConfig())
	ws.SetAPIURL(server.URL)

	profile, err := ws.GetBusinessProfile(context.Background())
	if err != nil {
		t.Fatalf("GetBusinessProfile: %v", err)
	}
	if _, ok := profile["data"]; !ok {
		t.Errorf("unexpected profile %+v", profile)
	}
}

func TestGetBusinessProfile_RequiresBusinessID(t *testing.T) {
	cfg := testConfig()
	cfg.WhatsApp.BusinessID = ""
	ws := NewWhatsAppService(cfg)

	if _, err := ws.GetBusinessProfile(context.Background()); err == nil {
		t.Fatal("expected error without business id")
	}
}

func TestSendInteractiveButtons_CapsAtThree(t *testing.T) {
	var gotPayload models.CloudSendMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(models.CloudSendResult{})
	}))
	defer server.Close()

	ws := NewWhatsAppService(testConfig())
	ws.SetAPIURL(server.URL)

	buttons := []models.ButtonSpec{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"},
		{ID: "c", Title: "C"}, {ID: "d", Title: "D"},
	}
	if _, err := ws.SendInteractiveButtons(context.Background(), "15551234567", "pick one", buttons); err != nil {
		t.Fatalf("SendInteractiveButtons: %v", err)
	}

	if gotPayload.Interactive == nil || gotPayload.Interactive.Action == nil {
		t.Fatal("interactive payload missing")
	}
	if n := len(gotPayload.Interactive.Action.Buttons); n != 3 {
		t.Errorf("expected 3 buttons, got %d", n)
	}
}

func TestResolveMediaURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/media123" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(models.CloudMediaInfo{
			ID:  "media123",
			URL: "https://lookaside.example.com/media123",
		})
	}))
	defer server.Close()

	ws := NewWhatsAppService(testConfig())
	ws.SetAPIURL(server.URL)

	url, err := ws.ResolveMediaURL(context.Background(), "media123")
	if err != nil {
		t.Fatalf("ResolveMediaURL: %v", err)
	}
	if url != "https://lookaside.example.com/media123" {
		t.Errorf("unexpected url %q", url)
	}
}

func TestCleanPhoneNumber(t *testing.T) {
	ws := NewWhatsAppService(testConfig())

	cases := map[string]string{
		"+1 (555) 123-4567": "15551234567",
		"915551234567":      "915551234567",
		"+49 170 1234567":   "491701234567",
	}
	for in, want := range cases {
		if got := ws.CleanPhoneNumber(in); got != want {
			t.Errorf("CleanPhoneNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusCounters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.CloudSendResult{})
	}))
	defer server.Close()

	ws := NewWhatsAppService(testConfig())
	ws.SetAPIURL(server.URL)

	ws.SendTextMessage(context.Background(), "15551234567", "one")
	ws.SendTextMessage(context.Background(), "15551234567", "two")

	last, count := ws.Status()
	if count != 2 {
		t.Errorf("expected 2 messages today, got %d", count)
	}
	if last.IsZero() {
		t.Error("last message time should be set")
	}
}
