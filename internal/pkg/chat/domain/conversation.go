package chat

import (
	"errors"
	"time"
)

// Domain-level errors for chat behaviors
var (
	ErrNotFound       = errors.New("chat: conversation not found")
	ErrClosed         = errors.New("chat: conversation is closed")
	ErrValidation     = errors.New("chat: invalid payload")
	ErrNotParticipant = errors.New("chat: sender is not a participant in the conversation")
	ErrAccountUnknown = errors.New("chat: account not found")
)

// Kind discriminates the three thread flavors.
type Kind string

const (
	KindDirect  Kind = "direct"
	KindGroup   Kind = "groups"
	KindAnalyst Kind = "analyst"
)

// Status is the conversation lifecycle state. Closed is terminal: a closed
// analyst chat must not accept further sends. Pending exists in the stored
// enum but no flow ever sets it.
type Status string

const (
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
	StatusPending Status = "pending"
)

// Conversation is one thread (direct, group or analyst-support) as the store
// knows it. The client registry keeps its own view; the two are reconciled by
// value, never shared.
type Conversation struct {
	ID           string    `db:"id" json:"_id"`
	Kind         Kind      `db:"kind" json:"kind"`
	Name         string    `db:"name" json:"name,omitempty"`
	AvatarRef    string    `db:"avatar_ref" json:"icon,omitempty"`
	CreatedBy    string    `db:"created_by" json:"createdBy,omitempty"`
	Participants []string  `db:"-" json:"members,omitempty"`
	Status       Status    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	// Messages is populated on listings that embed the log (analyst chats)
	// and on message fetches; otherwise nil.
	Messages []Message `db:"-" json:"messages,omitempty"`
}

// HasParticipant tells whether accountID may read or write this thread.
// Group creators count as members even when absent from the member list.
func (c *Conversation) HasParticipant(accountID string) bool {
	if c == nil {
		return false
	}
	if c.Kind == KindGroup && c.CreatedBy == accountID {
		return true
	}
	for _, id := range c.Participants {
		if id == accountID {
			return true
		}
	}
	return false
}

// AcceptsSends reports whether the thread can take another message.
func (c *Conversation) AcceptsSends() bool {
	return c != nil && c.Status != StatusClosed
}

// Account is the slice of an account the chat feature needs: identity,
// display fields and presence. Auth owns the rest.
type Account struct {
	ID         string `db:"id" json:"id"`
	FirstName  string `db:"first_name" json:"firstName"`
	LastName   string `db:"last_name" json:"lastName"`
	Role       string `db:"role" json:"role"`
	ProfileImg string `db:"profile_img" json:"profileImg,omitempty"`
	IsOnline   bool   `db:"-" json:"isOnline"`
}

// DisplayName joins first and last name the way the chat UI renders senders.
func (a Account) DisplayName() string {
	if a.FirstName == "" {
		return a.LastName
	}
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
