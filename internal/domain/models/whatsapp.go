package models

// WebhookPayload is the subset of Meta's WhatsApp webhook body the service reads.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry groups changes for one business account.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange carries one notification.
type WebhookChange struct {
	Value WebhookValue `json:"value"`
	Field string       `json:"field"`
}

// WebhookValue holds inbound messages; delivery statuses are ignored.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is a message sent by a store operator.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

// TextContent contains a text message body.
type TextContent struct {
	Body string `json:"body"`
}

// InteractiveContent represents a quick-reply button press.
type InteractiveContent struct {
	Type        string       `json:"type"`
	ButtonReply *ButtonReply `json:"button_reply,omitempty"`
}

// ButtonReply is the pressed button payload; its ID carries a command.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CommandText returns the command text carried by the message, if any.
func (m InboundMessage) CommandText() string {
	if m.Text != nil {
		return m.Text.Body
	}
	if m.Interactive != nil && m.Interactive.ButtonReply != nil {
		return m.Interactive.ButtonReply.ID
	}
	return ""
}
