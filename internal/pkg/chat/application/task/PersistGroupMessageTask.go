package task

import (
	"context"
	"encoding/json"
	"time"

	qport "wrenconnect/internal/infrastructure/queue/port"
	"wrenconnect/internal/pkg/chat/application/usecase"
	chat "wrenconnect/internal/pkg/chat/domain"
	repoAdapter "wrenconnect/internal/pkg/chat/persistence/repository/adapter"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PersistGroupMessageTaskType is the queue task name for durably appending
// a group message after the HTTP handler has already acknowledged it.
const PersistGroupMessageTaskType = "chat:save_group_message"

// PersistGroupMessageTaskPayload is the JSON payload transported via the
// queue. Kept decoupled from domain types to avoid tight coupling with
// JSON tags.
type PersistGroupMessageTaskPayload struct {
	GroupID     string            `json:"groupId"`
	SenderID    string            `json:"senderId"`
	SenderName  string            `json:"senderName"`
	Content     string            `json:"content"`
	Attachments []chat.Attachment `json:"attachments,omitempty"`
}

// RegisterPersistGroupMessageTask binds the task handler to the provided
// server. The handler executes AppendMessageUseCase using the provided
// DB pool.
func RegisterPersistGroupMessageTask(srv qport.Server, pool *pgxpool.Pool) {
	srv.Register(PersistGroupMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p PersistGroupMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		repo := repoAdapter.NewPgChatRepository(pool)
		uc := usecase.NewAppendMessageUseCase(repo)

		in := usecase.AppendMessageInput{
			ConversationID: p.GroupID,
			SenderID:       p.SenderID,
			SenderName:     p.SenderName,
			Content:        p.Content,
			Attachments:    p.Attachments,
		}

		// give DB a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if _, err := uc.Execute(ctx, in); err != nil {
			// retry/backoff policy is controlled by the adapter/server
			return err
		}
		return nil
	})
}
