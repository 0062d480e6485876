package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/models"
)

func TestStreamController_PublishReachesClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sc := NewStreamController()
	router := gin.New()
	router.GET("/ws", sc.HandleStream)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the server side to register the client
	deadline := time.Now().Add(time.Second)
	for sc.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sc.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", sc.ClientCount())
	}

	sc.Publish(models.GatewayEvent{
		Channel: "whatsapp",
		From:    "15551234567",
		Message: "hello",
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var event models.GatewayEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.From != "15551234567" || event.Message != "hello" {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestStreamController_DropsStalledClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	oldWait := writeWait
	writeWait = 100 * time.Millisecond
	defer func() { writeWait = oldWait }()

	sc := NewStreamController()
	router := gin.New()
	router.GET("/ws", sc.HandleStream)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for sc.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sc.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", sc.ClientCount())
	}

	// The client never reads. Large events fill the socket buffers until
	// a write hits the deadline, which must unregister the client rather
	// than block the relay.
	event := models.GatewayEvent{
		Channel: "whatsapp",
		From:    "15551234567",
		Message: strings.Repeat("x", 1<<18),
	}
	testDeadline := time.Now().Add(10 * time.Second)
	for sc.ClientCount() != 0 {
		if time.Now().After(testDeadline) {
			t.Fatal("stalled client was never dropped")
		}
		sc.Publish(event)
	}
}

func TestStreamController_DropsClosedClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sc := NewStreamController()
	router := gin.New()
	router.GET("/ws", sc.HandleStream)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	// The read loop should unregister the client
	deadline := time.Now().Add(time.Second)
	for sc.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sc.ClientCount() != 0 {
		t.Errorf("closed client should be unregistered, got %d", sc.ClientCount())
	}
}
