package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GatewayEvent is the normalized payload forwarded to the OpenClaw Gateway.
type GatewayEvent struct {
	Channel       string                 `json:"channel"`
	From          string                 `json:"from"`
	Message       string                 `json:"message"`
	MessageID     string                 `json:"message_id,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// GatewayReply is what OpenClaw may answer with. Either a single response
// string or a list of messages to relay back to the sender.
type GatewayReply struct {
	Response string   `json:"response,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

// Replies flattens the reply into the list of texts to send back.
func (r *GatewayReply) Replies() []string {
	if r == nil {
		return nil
	}
	if r.Response != "" {
		return append([]string{r.Response}, r.Messages...)
	}
	return r.Messages
}

// MessageDirection marks which way a logged message travelled.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// MessageLog is one relay record in the optional Mongo-backed audit log.
type MessageLog struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Direction     MessageDirection       `bson:"direction" json:"direction"`
	From          string                 `bson:"from,omitempty" json:"from,omitempty"`
	To            string                 `bson:"to,omitempty" json:"to,omitempty"`
	Type          string                 `bson:"type" json:"type"`
	Body          string                 `bson:"body" json:"body"`
	MessageID     string                 `bson:"message_id,omitempty" json:"message_id,omitempty"`
	CorrelationID string                 `bson:"correlation_id,omitempty" json:"correlation_id,omitempty"`
	Forwarded     bool                   `bson:"forwarded" json:"forwarded"`
	Metadata      map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp     time.Time              `bson:"timestamp" json:"timestamp"`
}

// BridgeStatus is the /status response.
type BridgeStatus struct {
	Status              string    `json:"status"`
	WebhookConfigured   bool      `json:"webhook_configured"`
	OpenClawConfigured  bool      `json:"openclaw_configured"`
	LastMessageReceived time.Time `json:"last_message_received"`
	MessageCountToday   int       `json:"message_count_today"`
	Version             string    `json:"version"`
}
