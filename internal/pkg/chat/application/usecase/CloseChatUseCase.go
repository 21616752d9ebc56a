package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// CloseChatInput names the analyst chat to close.
type CloseChatInput struct {
	ChatID string
}

// CloseChatUseCase transitions an analyst chat to its terminal closed state.
// Closing twice is a no-op.
type CloseChatUseCase struct {
	Repo repository.ChatRepository
}

func NewCloseChatUseCase(repo repository.ChatRepository) *CloseChatUseCase {
	return &CloseChatUseCase{Repo: repo}
}

func (uc *CloseChatUseCase) Execute(ctx context.Context, in CloseChatInput) error {
	if in.ChatID == "" {
		return fmt.Errorf("%w: chatId is required", chat.ErrValidation)
	}
	if err := uc.Repo.SetStatus(ctx, in.ChatID, chat.StatusClosed); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
