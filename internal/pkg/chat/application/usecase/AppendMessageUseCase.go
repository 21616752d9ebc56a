package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// AppendMessageInput carries the draft to append to a conversation log.
type AppendMessageInput struct {
	ConversationID string
	SenderID       string
	SenderName     string
	Content        string
	Attachments    []chat.Attachment
}

// AppendMessageUseCase persists one message: membership check, draft
// validation, then append. The store assigns id and server timestamp.
type AppendMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewAppendMessageUseCase(repo repository.ChatRepository) *AppendMessageUseCase {
	return &AppendMessageUseCase{Repo: repo}
}

func (uc *AppendMessageUseCase) Execute(ctx context.Context, in AppendMessageInput) (*chat.Message, error) {
	if in.ConversationID == "" || in.SenderID == "" {
		return nil, fmt.Errorf("%w: conversationId and senderId are required", chat.ErrValidation)
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, in.ConversationID, in.SenderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return nil, chat.ErrNotParticipant
	}

	draft, err := chat.NewMessage(chat.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		SenderName:     in.SenderName,
		Content:        in.Content,
		Attachments:    in.Attachments,
	})
	if err != nil {
		return nil, err
	}

	msg, err := uc.Repo.AppendMessage(ctx, *draft)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) || errors.Is(err, chat.ErrClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msg, nil
}
