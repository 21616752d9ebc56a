package usecase

import (
	"context"
	"sync"
	"time"

	chat "wrenconnect/internal/pkg/chat/domain"
)

// memRepo is an in-memory ChatRepository mirroring the Postgres adapter's
// behavior, including first-writer-wins analyst init.
type memRepo struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation
	pairs         map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{
		conversations: make(map[string]*chat.Conversation),
		pairs:         make(map[string]string),
	}
}

func (r *memRepo) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = chat.NewID()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	r.conversations[c.ID] = &c
	return c.ID, nil
}

func (r *memRepo) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	out := *c
	out.Messages = nil
	return &out, nil
}

func (r *memRepo) FindAnalystChat(ctx context.Context, userID, analystID string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.pairs[userID+"|"+analystID]
	if !ok {
		return nil, chat.ErrNotFound
	}
	out := *r.conversations[id]
	return &out, nil
}

func (r *memRepo) InitAnalystChat(ctx context.Context, userID, analystID string, welcome chat.Message) (*chat.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID + "|" + analystID
	if id, ok := r.pairs[key]; ok {
		out := *r.conversations[id]
		return &out, false, nil
	}
	now := time.Now().UTC()
	conv := chat.Conversation{
		ID:           chat.NewID(),
		Kind:         chat.KindAnalyst,
		Participants: []string{userID, analystID},
		Status:       chat.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	welcome.ID = chat.NewID()
	welcome.ConversationID = conv.ID
	welcome.SentAt = now
	conv.Messages = []chat.Message{welcome}
	r.conversations[conv.ID] = &conv
	r.pairs[key] = conv.ID
	out := conv
	return &out, true, nil
}

func (r *memRepo) ListConversations(ctx context.Context, accountID string, kind chat.Kind) ([]chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Conversation
	for _, c := range r.conversations {
		if kind != "" && c.Kind != kind {
			continue
		}
		if accountID != "" && !c.HasParticipant(accountID) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *memRepo) DeleteConversation(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[id]; !ok {
		return chat.ErrNotFound
	}
	delete(r.conversations, id)
	return nil
}

func (r *memRepo) SetAvatar(ctx context.Context, id string, avatarRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return chat.ErrNotFound
	}
	c.AvatarRef = avatarRef
	return nil
}

func (r *memRepo) SetStatus(ctx context.Context, id string, status chat.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return chat.ErrNotFound
	}
	c.Status = status
	return nil
}

func (r *memRepo) AppendMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[m.ConversationID]
	if !ok {
		return nil, chat.ErrNotFound
	}
	if !c.AcceptsSends() {
		return nil, chat.ErrClosed
	}
	m.ID = chat.NewID()
	m.SentAt = time.Now().UTC()
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = m.SentAt
	out := m
	return &out, nil
}

func (r *memRepo) FetchMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return append([]chat.Message(nil), c.Messages...), nil
}

func (r *memRepo) MarkRead(ctx context.Context, conversationID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return chat.ErrNotFound
	}
	for i := range c.Messages {
		if c.Messages[i].SenderID != readerID {
			c.Messages[i].IsRead = true
		}
	}
	return nil
}

func (r *memRepo) IsParticipant(ctx context.Context, conversationID, accountID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return false, nil
	}
	return c.HasParticipant(accountID), nil
}

func (r *memRepo) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return append([]string(nil), c.Participants...), nil
}

// memAccounts is an in-memory AccountRepository.
type memAccounts struct {
	accounts map[string]chat.Account
}

func newMemAccounts(accounts ...chat.Account) *memAccounts {
	m := &memAccounts{accounts: make(map[string]chat.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *memAccounts) ListAccounts(ctx context.Context, role string) ([]chat.Account, error) {
	var out []chat.Account
	for _, a := range m.accounts {
		if role == "" || a.Role == role {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAccounts) GetAccount(ctx context.Context, id string) (*chat.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, chat.ErrAccountUnknown
	}
	return &a, nil
}
