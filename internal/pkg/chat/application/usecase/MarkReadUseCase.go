package usecase

import (
	"context"
	"fmt"

	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput names the conversation and the reader whose counterpart
// messages become read.
type MarkReadInput struct {
	ConversationID string
	ReaderID       string
}

// MarkReadUseCase flips is_read on every message not sent by the reader.
// Calling twice has the same effect as once.
type MarkReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkReadUseCase(repo repository.ChatRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) error {
	if in.ConversationID == "" || in.ReaderID == "" {
		return fmt.Errorf("%w: conversationId and readerId are required", chat.ErrValidation)
	}
	if err := uc.Repo.MarkRead(ctx, in.ConversationID, in.ReaderID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
