package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	chat "wrenconnect/internal/pkg/chat/domain"
	"wrenconnect/internal/pkg/chat/wire"
)

// fakeStore is an in-memory Store with scriptable failures. Analyst-chat
// initialization is first-writer-wins under the mutex, mirroring the
// server's behavior.
type fakeStore struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation
	pairs         map[string]string // user|analyst -> conversation id
	markReadCalls []string
	initCalls     int

	appendErr   error
	markReadErr error
	fetchErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[string]*chat.Conversation),
		pairs:         make(map[string]string),
	}
}

func (s *fakeStore) addConversation(conv chat.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := conv
	s.conversations[c.ID] = &c
}

func (s *fakeStore) FetchMessages(ctx context.Context, kind chat.Kind, conversationID string) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return append([]chat.Message(nil), conv.Messages...), nil
}

func (s *fakeStore) AppendMessage(ctx context.Context, kind chat.Kind, draft chat.Message) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	conv, ok := s.conversations[draft.ConversationID]
	if !ok {
		return nil, chat.ErrNotFound
	}
	if !conv.AcceptsSends() {
		return nil, chat.ErrClosed
	}
	stored := draft
	stored.ID = chat.NewID()
	stored.SentAt = time.Now().UTC()
	conv.Messages = append(conv.Messages, stored)
	return &stored, nil
}

func (s *fakeStore) MarkRead(ctx context.Context, kind chat.Kind, conversationID, readerRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markReadErr != nil {
		return s.markReadErr
	}
	s.markReadCalls = append(s.markReadCalls, conversationID)
	return nil
}

func (s *fakeStore) ListConversations(ctx context.Context, accountRef string, kind chat.Kind) ([]chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []chat.Conversation
	for _, c := range s.conversations {
		if kind != "" && c.Kind != kind {
			continue
		}
		if accountRef != "" && !c.HasParticipant(accountRef) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeStore) FindAnalystChat(ctx context.Context, userRef, analystRef string) (*chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.pairs[userRef+"|"+analystRef]
	if !ok {
		return nil, chat.ErrNotFound
	}
	conv := *s.conversations[id]
	return &conv, nil
}

func (s *fakeStore) InitAnalystChat(ctx context.Context, userRef, analystRef string) (*chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initCalls++
	if analystRef == "" || analystRef == "no-such-account" {
		return nil, chat.ErrAccountUnknown
	}
	key := userRef + "|" + analystRef
	if id, ok := s.pairs[key]; ok {
		conv := *s.conversations[id]
		return &conv, nil
	}
	conv := chat.Conversation{
		ID:           chat.NewID(),
		Kind:         chat.KindAnalyst,
		Participants: []string{userRef, analystRef},
		Status:       chat.StatusActive,
		Messages: []chat.Message{{
			ID:       chat.NewID(),
			SenderID: analystRef,
			Content:  "Welcome to your analyst chat",
			SentAt:   time.Now().UTC(),
		}},
	}
	conv.Messages[0].ConversationID = conv.ID
	s.conversations[conv.ID] = &conv
	s.pairs[key] = conv.ID
	copied := conv
	return &copied, nil
}

// fakeChannel is a scriptable Channel. Tests push inbound envelopes, drop
// the session, and script dial outcomes.
type fakeChannel struct {
	mu       sync.Mutex
	socketID string
	dialErrs []error // consumed per Dial; empty means success
	dials    int
	emits    []queuedEmit
	events   chan wire.Envelope
}

func newFakeChannel(socketID string) *fakeChannel {
	return &fakeChannel{socketID: socketID}
}

func (ch *fakeChannel) Dial(ctx context.Context) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.dials++
	if len(ch.dialErrs) > 0 {
		err := ch.dialErrs[0]
		ch.dialErrs = ch.dialErrs[1:]
		if err != nil {
			return err
		}
	}
	ch.events = make(chan wire.Envelope, 32)
	return nil
}

func (ch *fakeChannel) SocketID() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.socketID
}

func (ch *fakeChannel) Emit(event string, data any) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.emits = append(ch.emits, queuedEmit{event: event, data: data})
	return nil
}

func (ch *fakeChannel) Events() <-chan wire.Envelope {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.events
}

func (ch *fakeChannel) Close() error { return nil }

// push injects an inbound envelope as if the server relayed it.
func (ch *fakeChannel) push(t *testing.T, event string, data any) {
	t.Helper()
	ch.mu.Lock()
	events := ch.events
	ch.mu.Unlock()
	select {
	case events <- makeEnvelope(t, event, data):
	case <-time.After(time.Second):
		t.Fatalf("push %s: event buffer full", event)
	}
}

// drop simulates a network drop by closing the current session's stream.
func (ch *fakeChannel) drop() {
	ch.mu.Lock()
	events := ch.events
	ch.mu.Unlock()
	close(events)
}

func (ch *fakeChannel) emitted() []queuedEmit {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return append([]queuedEmit(nil), ch.emits...)
}

func (ch *fakeChannel) dialCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.dials
}

func makeEnvelope(t *testing.T, event string, data any) wire.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s data: %v", event, err)
	}
	return wire.Envelope{Event: event, Data: raw}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func groupConversation(id string, msgs ...chat.Message) chat.Conversation {
	for i := range msgs {
		msgs[i].ConversationID = id
	}
	return chat.Conversation{
		ID:           id,
		Kind:         chat.KindGroup,
		Name:         fmt.Sprintf("group %s", id),
		CreatedBy:    "alice",
		Participants: []string{"alice", "bob"},
		Status:       chat.StatusActive,
		Messages:     msgs,
	}
}
