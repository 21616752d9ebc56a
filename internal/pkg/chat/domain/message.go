package chat

import (
	"strconv"
	"strings"
	"time"
)

// Attachment is immutable once attached to a message. PayloadRef is either a
// data URI (inline upload) or a storage URL; the chat core never inspects it.
type Attachment struct {
	Filename   string `json:"filename"`
	MimeKind   string `json:"mimeKind"`
	PayloadRef string `json:"payloadRef"`
	SizeHint   int64  `json:"sizeHint,omitempty"`
}

// Message is an append-only log entry in a conversation. Content and
// Attachments never change after the append; only IsRead mutates (analyst
// chats track read state per message, group/direct use a client watermark).
type Message struct {
	ID             string       `db:"id" json:"id"`
	ConversationID string       `db:"conversation_id" json:"conversationId"`
	SenderID       string       `db:"sender_id" json:"sender"`
	SenderName     string       `db:"sender_name" json:"senderName,omitempty"`
	Content        string       `db:"content" json:"content"`
	Attachments    []Attachment `db:"-" json:"attachment"`
	SentAt         time.Time    `db:"sent_at" json:"timestamp"`
	IsRead         bool         `db:"is_read" json:"isRead"`

	// Failed marks an optimistic client append whose durable write errored.
	// Never persisted; the message stays visible, rendered distinctly, with
	// no automatic retry.
	Failed bool `db:"-" json:"failed,omitempty"`
}

// NewMessage validates and normalizes a draft before it is persisted.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" || m.SenderID == "" {
		return nil, ErrValidation
	}

	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" && len(m.Attachments) == 0 {
		return nil, ErrValidation
	}

	if m.SentAt.IsZero() {
		m.SentAt = time.Now().UTC()
	}

	return &m, nil
}

// Summary is the one-line preview shown in chat lists: the text, or an
// attachment count when the message carries only files.
func (m *Message) Summary() string {
	if m == nil {
		return ""
	}
	if m.Content == "" && len(m.Attachments) > 0 {
		if len(m.Attachments) == 1 {
			return "1 attachment"
		}
		return strconv.Itoa(len(m.Attachments)) + " attachments"
	}
	return m.Content
}
