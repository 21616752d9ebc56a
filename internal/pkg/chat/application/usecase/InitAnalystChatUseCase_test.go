package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	chat "wrenconnect/internal/pkg/chat/domain"
)

func analystFixtures() (*memRepo, *memAccounts) {
	repo := newMemRepo()
	accounts := newMemAccounts(
		chat.Account{ID: "user-1", FirstName: "Ada", LastName: "L", Role: "user"},
		chat.Account{ID: "ana-1", FirstName: "Ana", LastName: "Lyst", Role: "analyst"},
	)
	return repo, accounts
}

func TestInitAnalystChatCreatesWithWelcome(t *testing.T) {
	repo, accounts := analystFixtures()
	uc := NewInitAnalystChatUseCase(repo, accounts)

	conv, err := uc.Execute(context.Background(), InitAnalystChatInput{UserID: "user-1", AnalystID: "ana-1"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if conv.Kind != chat.KindAnalyst || conv.Status != chat.StatusActive {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
	if len(conv.Messages) != 1 {
		t.Fatalf("got %d messages, want 1 welcome", len(conv.Messages))
	}
	w := conv.Messages[0]
	if w.SenderID != "ana-1" || !strings.Contains(w.Content, "Ana Lyst") {
		t.Fatalf("unexpected welcome: %+v", w)
	}
}

func TestInitAnalystChatIsIdempotent(t *testing.T) {
	repo, accounts := analystFixtures()
	uc := NewInitAnalystChatUseCase(repo, accounts)
	in := InitAnalystChatInput{UserID: "user-1", AnalystID: "ana-1"}

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := uc.Execute(context.Background(), in)
			if err != nil {
				t.Errorf("execute %d: %v", i, err)
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("call %d created a second chat: %q vs %q", i, ids[i], ids[0])
		}
	}

	conv, err := repo.FindAnalystChat(context.Background(), "user-1", "ana-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(conv.Messages) != 1 {
		t.Fatalf("chat carries %d messages, want exactly one welcome", len(conv.Messages))
	}
}

func TestInitAnalystChatRejectsUnknownAccounts(t *testing.T) {
	repo, accounts := analystFixtures()
	uc := NewInitAnalystChatUseCase(repo, accounts)

	if _, err := uc.Execute(context.Background(), InitAnalystChatInput{UserID: "ghost", AnalystID: "ana-1"}); !errors.Is(err, chat.ErrAccountUnknown) {
		t.Fatalf("unknown user: err = %v", err)
	}
	// A counterpart without the analyst role cannot anchor an analyst chat.
	if _, err := uc.Execute(context.Background(), InitAnalystChatInput{UserID: "user-1", AnalystID: "user-1"}); !errors.Is(err, chat.ErrAccountUnknown) {
		t.Fatalf("non-analyst counterpart: err = %v", err)
	}
}

func TestAppendMessageEnforcesMembershipAndStatus(t *testing.T) {
	repo, accounts := analystFixtures()
	init := NewInitAnalystChatUseCase(repo, accounts)
	conv, err := init.Execute(context.Background(), InitAnalystChatInput{UserID: "user-1", AnalystID: "ana-1"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	uc := NewAppendMessageUseCase(repo)

	if _, err := uc.Execute(context.Background(), AppendMessageInput{
		ConversationID: conv.ID, SenderID: "mallory", Content: "hi",
	}); !errors.Is(err, chat.ErrNotParticipant) {
		t.Fatalf("outsider send: err = %v", err)
	}

	if _, err := uc.Execute(context.Background(), AppendMessageInput{
		ConversationID: conv.ID, SenderID: "user-1", Content: "hello",
	}); err != nil {
		t.Fatalf("member send: %v", err)
	}

	closeUC := NewCloseChatUseCase(repo)
	if err := closeUC.Execute(context.Background(), CloseChatInput{ChatID: conv.ID}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := uc.Execute(context.Background(), AppendMessageInput{
		ConversationID: conv.ID, SenderID: "user-1", Content: "too late",
	}); !errors.Is(err, chat.ErrClosed) {
		t.Fatalf("send to closed: err = %v", err)
	}
}
