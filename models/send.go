package models

// Request/response models for the outbound send endpoints.

// SendMessageRequest is the outbound send payload. Type defaults to
// "text"; for "template" the message field carries the template name and
// template_params fill the body variables.
type SendMessageRequest struct {
	To             string   `json:"to" binding:"required"`
	Message        string   `json:"message" binding:"required"`
	Type           string   `json:"type"`
	TemplateParams []string `json:"template_params"`
}

type SendInteractiveRequest struct {
	To      string       `json:"to" binding:"required"`
	Text    string       `json:"text" binding:"required"`
	Buttons []ButtonSpec `json:"buttons" binding:"required"`
}

type ButtonSpec struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type MarkReadRequest struct {
	MessageID string `json:"message_id" binding:"required"`
}

type SendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WhatsApp Cloud API send payloads.

type CloudSendMessage struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type,omitempty"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *CloudText          `json:"text,omitempty"`
	Template         *CloudTemplate      `json:"template,omitempty"`
	Interactive      *CloudInteractive   `json:"interactive,omitempty"`
}

type CloudText struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url,omitempty"`
}

type CloudTemplate struct {
	Name       string                   `json:"name"`
	Language   CloudTemplateLanguage    `json:"language"`
	Components []CloudTemplateComponent `json:"components,omitempty"`
}

type CloudTemplateLanguage struct {
	Code string `json:"code"`
}

type CloudTemplateComponent struct {
	Type       string               `json:"type"`
	Parameters []CloudTemplateParam `json:"parameters,omitempty"`
}

type CloudTemplateParam struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type CloudInteractive struct {
	Type   string                  `json:"type"`
	Body   *CloudInteractiveBody   `json:"body,omitempty"`
	Action *CloudInteractiveAction `json:"action,omitempty"`
}

type CloudInteractiveBody struct {
	Text string `json:"text"`
}

type CloudInteractiveAction struct {
	Buttons []CloudButton `json:"buttons,omitempty"`
}

type CloudButton struct {
	Type  string      `json:"type"`
	Reply ButtonReply `json:"reply"`
}

// CloudSendResult is the Cloud API response to a send call. The API echoes
// the recipient under contacts[0].input, which the original dashboard used
// as the message reference.
type CloudSendResult struct {
	Contacts []CloudContactRef `json:"contacts"`
	Messages []CloudMessageRef `json:"messages"`
}

type CloudContactRef struct {
	Input string `json:"input"`
	WaID  string `json:"wa_id"`
}

type CloudMessageRef struct {
	ID string `json:"id"`
}

// CloudMediaInfo is returned by the media endpoint when dereferencing a
// media id into a downloadable URL.
type CloudMediaInfo struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	FileSize int64  `json:"file_size"`
}
