package repository

import (
	"context"

	chat "wrenconnect/internal/pkg/chat/domain"
)

// ChatRepository defines the durable side of the message store: an
// append-only per-conversation message log plus conversation records.
// Implementations surface the domain sentinels (chat.ErrNotFound,
// chat.ErrClosed) so callers can map them without knowing the engine.
type ChatRepository interface {
	// CreateConversation persists a new conversation and its participants,
	// returning the assigned canonical id.
	CreateConversation(ctx context.Context, c chat.Conversation) (string, error)

	// GetConversation loads one conversation without its message log.
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)

	// FindAnalystChat returns the active analyst chat between the pair, or
	// chat.ErrNotFound when none exists.
	FindAnalystChat(ctx context.Context, userID, analystID string) (*chat.Conversation, error)

	// InitAnalystChat creates the analyst chat for the pair if absent and
	// appends the welcome message exactly once. The operation is idempotent:
	// concurrent calls for the same pair all return the same conversation,
	// and created reports whether this call was the winner.
	InitAnalystChat(ctx context.Context, userID, analystID string, welcome chat.Message) (conv *chat.Conversation, created bool, err error)

	// ListConversations returns conversation summaries where accountID is a
	// participant (or creator, for groups), newest activity first. A zero
	// kind means all kinds. Analyst summaries embed their message log.
	ListConversations(ctx context.Context, accountID string, kind chat.Kind) ([]chat.Conversation, error)

	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, id string) error

	// SetAvatar stores presentation metadata (group icon data URI or URL).
	SetAvatar(ctx context.Context, id string, avatarRef string) error

	// SetStatus transitions the conversation lifecycle state.
	SetStatus(ctx context.Context, id string, status chat.Status) error

	// AppendMessage assigns a server id and timestamp and appends the draft.
	// Fails with chat.ErrNotFound when the conversation is absent and
	// chat.ErrClosed when it no longer accepts sends.
	AppendMessage(ctx context.Context, m chat.Message) (*chat.Message, error)

	// FetchMessages returns the full log in arrival order.
	FetchMessages(ctx context.Context, conversationID string) ([]chat.Message, error)

	// MarkRead flags every message not sent by readerID as read. Idempotent.
	MarkRead(ctx context.Context, conversationID, readerID string) error

	// IsParticipant tells whether accountID may access the conversation.
	IsParticipant(ctx context.Context, conversationID, accountID string) (bool, error)

	// ListParticipantIDs returns account ids of everyone in the conversation.
	ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error)
}

// AccountRepository exposes the slice of account data the chat feature
// consumes. Account lifecycle belongs to the auth service.
type AccountRepository interface {
	// ListAccounts returns accounts, optionally filtered by role.
	ListAccounts(ctx context.Context, role string) ([]chat.Account, error)

	// GetAccount returns one account or chat.ErrAccountUnknown.
	GetAccount(ctx context.Context, id string) (*chat.Account, error)
}
