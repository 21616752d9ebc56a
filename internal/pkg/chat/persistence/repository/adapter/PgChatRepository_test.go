package adapter

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wrenconnect/internal/infrastructure/database"
	chat "wrenconnect/internal/pkg/chat/domain"
)

// testPool connects to the database named by DB_URL, or skips the test when
// none is configured. The schema from persistence/schema.sql must already be
// applied.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("DB_URL") == "" {
		t.Skip("DB_URL not set; skipping Postgres integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestGroupConversationLifecycle(t *testing.T) {
	pool := testPool(t)
	repo := NewPgChatRepository(pool)
	ctx := context.Background()

	id, err := repo.CreateConversation(ctx, chat.Conversation{
		Kind:         chat.KindGroup,
		Name:         "integration test group",
		CreatedBy:    "11111111-1111-1111-1111-111111111111",
		Participants: []string{"22222222-2222-2222-2222-222222222222"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = repo.DeleteConversation(ctx, id) }()

	conv, err := repo.GetConversation(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv.Status != chat.StatusActive || len(conv.Participants) != 2 {
		t.Fatalf("conversation = %+v", conv)
	}

	stored, err := repo.AppendMessage(ctx, chat.Message{
		ConversationID: id,
		SenderID:       "11111111-1111-1111-1111-111111111111",
		SenderName:     "Tester",
		Content:        "hello",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !chat.IsCanonicalID(stored.ID) {
		t.Fatalf("stored message id %q is not canonical", stored.ID)
	}

	msgs, err := repo.FetchMessages(ctx, id)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Fatalf("messages = %+v", msgs)
	}

	if err := repo.MarkRead(ctx, id, "22222222-2222-2222-2222-222222222222"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	msgs, _ = repo.FetchMessages(ctx, id)
	if !msgs[0].IsRead {
		t.Fatal("message not flagged read")
	}

	if err := repo.SetStatus(ctx, id, chat.StatusClosed); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := repo.AppendMessage(ctx, chat.Message{
		ConversationID: id, SenderID: "x", Content: "late",
	}); !errors.Is(err, chat.ErrClosed) {
		t.Fatalf("append to closed chat: err = %v, want ErrClosed", err)
	}

	if err := repo.DeleteConversation(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetConversation(ctx, id); !errors.Is(err, chat.ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestInitAnalystChatFirstWriterWins(t *testing.T) {
	pool := testPool(t)
	repo := NewPgChatRepository(pool)
	ctx := context.Background()

	userRef := "33333333-3333-3333-3333-333333333333"
	analystRef := "44444444-4444-4444-4444-444444444444"
	welcome := chat.Message{SenderID: analystRef, SenderName: "Analyst", Content: "welcome"}

	first, created, err := repo.InitAnalystChat(ctx, userRef, analystRef, welcome)
	if err != nil {
		t.Fatalf("first init: %v", err)
	}
	defer func() { _ = repo.DeleteConversation(ctx, first.ID) }()
	if !created {
		t.Fatal("first init did not create")
	}

	second, created, err := repo.InitAnalystChat(ctx, userRef, analystRef, welcome)
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("second init created=%v id=%s, want existing %s", created, second.ID, first.ID)
	}
	if len(second.Messages) != 1 {
		t.Fatalf("welcome message count = %d, want 1", len(second.Messages))
	}
}
