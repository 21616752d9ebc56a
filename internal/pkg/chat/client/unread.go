package client

import (
	"sync"
	"time"

	chat "wrenconnect/internal/pkg/chat/domain"
)

// UnreadTracker computes per-conversation unread counts. The two tracking
// strategies are deliberately different and both preserved: group and direct
// threads use a client-side read watermark keyed by conversation id, analyst
// threads use the server-tracked per-message isRead flag. The watermark
// advances only on explicit selection, never on passive receipt.
type UnreadTracker struct {
	mu         sync.Mutex
	watermarks map[string]time.Time
}

func NewUnreadTracker() *UnreadTracker {
	return &UnreadTracker{watermarks: make(map[string]time.Time)}
}

// Watermark returns the reader's last recorded read time for the
// conversation; the zero time when nothing was ever read.
func (t *UnreadTracker) Watermark(conversationID string) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.watermarks[conversationID]
}

// Advance moves the watermark forward. A stale timestamp never rewinds it.
func (t *UnreadTracker) Advance(conversationID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if at.After(t.watermarks[conversationID]) {
		t.watermarks[conversationID] = at
	}
}

// Count derives the unread count for a conversation per its kind's policy.
func (t *UnreadTracker) Count(conv *chat.Conversation, readerRef string) int {
	if conv == nil {
		return 0
	}
	if conv.Kind == chat.KindAnalyst {
		n := 0
		for i := range conv.Messages {
			m := &conv.Messages[i]
			if !m.IsRead && m.SenderID != readerRef {
				n++
			}
		}
		return n
	}

	mark := t.Watermark(conv.ID)
	n := 0
	for i := range conv.Messages {
		if conv.Messages[i].SentAt.After(mark) {
			n++
		}
	}
	return n
}

// ApplyReadReceipt applies a counterpart's read receipt to an analyst
// conversation's embedded log: every message they did not send flips to
// read. Watermark kinds carry no per-message state, so this is a no-op for
// them.
func ApplyReadReceipt(conv *chat.Conversation, readerRef string) {
	if conv == nil || conv.Kind != chat.KindAnalyst {
		return
	}
	for i := range conv.Messages {
		if conv.Messages[i].SenderID != readerRef {
			conv.Messages[i].IsRead = true
		}
	}
}
