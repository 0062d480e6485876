// services/relay_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/config"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/models"
)

// MessageStore records relayed messages for the audit log.
type MessageStore interface {
	Record(ctx context.Context, entry models.MessageLog) error
	Recent(ctx context.Context, limit int) ([]models.MessageLog, error)
}

// EventSink receives normalized events as they are relayed, e.g. the
// dashboard websocket hub.
type EventSink interface {
	Publish(event models.GatewayEvent)
}

// RelayService normalizes inbound WhatsApp events, forwards them to the
// OpenClaw Gateway and relays gateway replies back to the sender.
type RelayService struct {
	whatsapp    *WhatsAppService
	gateway     *OpenClawService
	store       MessageStore
	sink        EventSink
	enableMedia bool
	markAsRead  bool
}

func NewRelayService(cfg *config.Config, whatsapp *WhatsAppService, gateway *OpenClawService) *RelayService {
	return &RelayService{
		whatsapp:    whatsapp,
		gateway:     gateway,
		enableMedia: cfg.Relay.EnableMedia,
		markAsRead:  true,
	}
}

// SetStore attaches the optional message log
func (rs *RelayService) SetStore(store MessageStore) {
	rs.store = store
}

// SetSink attaches the optional live event sink
func (rs *RelayService) SetSink(sink EventSink) {
	rs.sink = sink
}

// ProcessWebhook walks a webhook payload and relays every message in it.
// Meta has already been acknowledged by the time this runs, so errors are
// logged, never returned upstream.
func (rs *RelayService) ProcessWebhook(ctx context.Context, payload models.WebhookPayload) {
	if payload.Object != "whatsapp_business_account" {
		log.Printf("Ignoring webhook for object %q", payload.Object)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}

			for _, message := range change.Value.Messages {
				rs.handleMessage(ctx, message)
			}

			for _, status := range change.Value.Statuses {
				rs.handleStatusUpdate(status)
			}
		}
	}
}

func (rs *RelayService) handleMessage(ctx context.Context, message models.InboundMessage) {
	rs.whatsapp.RecordInbound()

	event, ok := rs.normalize(ctx, message)
	if !ok {
		log.Printf("Skipping unsupported message type %q from %s", message.Type, message.From)
		return
	}

	rs.record(ctx, models.MessageLog{
		Direction:     models.DirectionInbound,
		From:          event.From,
		Type:          message.Type,
		Body:          event.Message,
		MessageID:     event.MessageID,
		CorrelationID: event.CorrelationID,
		Forwarded:     rs.gateway.Configured(),
		Metadata:      event.Metadata,
		Timestamp:     time.Now(),
	})

	if rs.sink != nil {
		rs.sink.Publish(event)
	}

	if !rs.gateway.Configured() {
		log.Printf("Gateway not configured, dropping message %s from %s", event.MessageID, event.From)
		return
	}

	reply, err := rs.gateway.Forward(ctx, event)
	if err != nil {
		log.Printf("Dropping message %s after forward failure: %v", event.MessageID, err)
		return
	}

	for _, text := range reply.Replies() {
		msgID, err := rs.whatsapp.SendTextMessage(ctx, event.From, text)
		if err != nil {
			log.Printf("Failed to relay gateway reply to %s: %v", event.From, err)
			continue
		}
		rs.record(ctx, models.MessageLog{
			Direction:     models.DirectionOutbound,
			To:            event.From,
			Type:          "text",
			Body:          text,
			MessageID:     msgID,
			CorrelationID: event.CorrelationID,
			Forwarded:     true,
			Timestamp:     time.Now(),
		})
	}

	if rs.markAsRead && message.ID != "" {
		if err := rs.whatsapp.MarkMessageAsRead(ctx, message.ID); err != nil {
			log.Printf("Failed to mark message %s as read: %v", message.ID, err)
		}
	}
}

// normalize maps one inbound message onto the gateway event shape. Media
// messages become placeholder text with the media reference (and, when
// enabled, the dereferenced download URL) in the metadata.
func (rs *RelayService) normalize(ctx context.Context, message models.InboundMessage) (models.GatewayEvent, bool) {
	event := models.GatewayEvent{
		Channel:       "whatsapp",
		From:          message.From,
		MessageID:     message.ID,
		CorrelationID: uuid.NewString(),
		Metadata: map[string]interface{}{
			"type":      message.Type,
			"timestamp": message.Timestamp,
		},
	}

	switch message.Type {
	case "text":
		if message.Text == nil {
			return event, false
		}
		event.Message = message.Text.Body

	case "image":
		event.Message = mediaPlaceholder("Image", captionOf(message.Image))
		rs.attachMedia(ctx, &event, message.Image)

	case "video":
		event.Message = mediaPlaceholder("Video", captionOf(message.Video))
		rs.attachMedia(ctx, &event, message.Video)

	case "audio":
		event.Message = "[Audio]"
		rs.attachMedia(ctx, &event, message.Audio)

	case "document":
		filename := ""
		if message.Document != nil {
			filename = message.Document.Filename
		}
		event.Message = mediaPlaceholder("Document", filename)
		if message.Document != nil {
			event.Metadata["filename"] = message.Document.Filename
		}
		rs.attachMedia(ctx, &event, message.Document)

	case "interactive":
		if message.Interactive == nil {
			return event, false
		}
		switch {
		case message.Interactive.ButtonReply != nil:
			event.Message = fmt.Sprintf("[Button] %s", message.Interactive.ButtonReply.Title)
			event.Metadata["button_id"] = message.Interactive.ButtonReply.ID
		case message.Interactive.ListReply != nil:
			event.Message = fmt.Sprintf("[List Selection] %s", message.Interactive.ListReply.Title)
			event.Metadata["list_id"] = message.Interactive.ListReply.ID
		default:
			return event, false
		}

	case "button":
		if message.Button == nil {
			return event, false
		}
		event.Message = fmt.Sprintf("[Button] %s", message.Button.Title)
		event.Metadata["button_id"] = message.Button.ID

	default:
		return event, false
	}

	return event, true
}

func (rs *RelayService) attachMedia(ctx context.Context, event *models.GatewayEvent, media *models.MediaAttachment) {
	if media == nil {
		return
	}
	event.Metadata["media_id"] = media.ID
	if media.MimeType != "" {
		event.Metadata["mime_type"] = media.MimeType
	}

	if !rs.enableMedia {
		return
	}
	url, err := rs.whatsapp.ResolveMediaURL(ctx, media.ID)
	if err != nil {
		log.Printf("Failed to resolve media %s: %v", media.ID, err)
		return
	}
	event.Metadata["media_url"] = url
}

func (rs *RelayService) handleStatusUpdate(status models.DeliveryStatus) {
	log.Printf("Message %s to %s: %s", status.ID, status.RecipientID, status.Status)

	for _, werr := range status.Errors {
		log.Printf("WhatsApp delivery error %d - %s: %s", werr.Code, werr.Title, werr.Message)
	}
}

func (rs *RelayService) record(ctx context.Context, entry models.MessageLog) {
	if rs.store == nil {
		return
	}
	if err := rs.store.Record(ctx, entry); err != nil {
		log.Printf("Failed to record message log: %v", err)
	}
}

func mediaPlaceholder(kind, caption string) string {
	if caption != "" {
		return fmt.Sprintf("[%s] %s", kind, caption)
	}
	return fmt.Sprintf("[%s]", kind)
}

func captionOf(media *models.MediaAttachment) string {
	if media == nil {
		return ""
	}
	return media.Caption
}
