// Package client implements the browser-facing reconciliation core: the
// conversation registry the UI renders from, the resolver that normalizes
// ambiguous chat references, the unread tracker, and the binder that keeps
// the registry consistent with the push channel and the durable store.
package client

import (
	"context"
	"errors"

	chat "wrenconnect/internal/pkg/chat/domain"
)

// ErrTransport signals a socket or network failure. Sends still attempt the
// durable-store path when the channel is down; the registry copy is marked
// best-effort instead of dropped.
var ErrTransport = errors.New("client: transport failure")

// Store is the request/response face of the durable message store. The
// registry reconciles against it and never shares state with it by
// reference. Implementations surface the domain sentinels (chat.ErrNotFound,
// chat.ErrClosed, chat.ErrAccountUnknown).
type Store interface {
	// FetchMessages returns the conversation's log in arrival order.
	FetchMessages(ctx context.Context, kind chat.Kind, conversationID string) ([]chat.Message, error)

	// AppendMessage persists a draft. Analyst sends return the stored copy
	// with its server id and timestamp; group sends are queued server-side
	// and echo the draft back unchanged.
	AppendMessage(ctx context.Context, kind chat.Kind, draft chat.Message) (*chat.Message, error)

	// MarkRead records that readerRef has read the conversation. Only
	// analyst chats track read state server-side; other kinds are a no-op.
	MarkRead(ctx context.Context, kind chat.Kind, conversationID, readerRef string) error

	// ListConversations returns conversation summaries for the account.
	ListConversations(ctx context.Context, accountRef string, kind chat.Kind) ([]chat.Conversation, error)

	// FindAnalystChat returns the active analyst chat between the pair, or
	// chat.ErrNotFound when none exists.
	FindAnalystChat(ctx context.Context, userRef, analystRef string) (*chat.Conversation, error)

	// InitAnalystChat opens the analyst chat for the pair. Idempotent:
	// concurrent calls resolve to one conversation with one welcome message.
	InitAnalystChat(ctx context.Context, userRef, analystRef string) (*chat.Conversation, error)
}
