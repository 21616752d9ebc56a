package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// FetchMessagesInput wraps the conversation to read.
type FetchMessagesInput struct {
	ConversationID string
}

// FetchMessagesUseCase returns the full message log in arrival order.
type FetchMessagesUseCase struct {
	Repo repository.ChatRepository
}

func NewFetchMessagesUseCase(repo repository.ChatRepository) *FetchMessagesUseCase {
	return &FetchMessagesUseCase{Repo: repo}
}

func (uc *FetchMessagesUseCase) Execute(ctx context.Context, in FetchMessagesInput) ([]chat.Message, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversationId is required", chat.ErrValidation)
	}
	msgs, err := uc.Repo.FetchMessages(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
