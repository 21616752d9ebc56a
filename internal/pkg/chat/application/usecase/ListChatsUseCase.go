package usecase

import (
	"context"
	"fmt"

	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// ListChatsInput filters the listing. AccountID may be empty for "all groups"
// (the legacy group endpoint returned everything and let clients filter);
// Kind may be empty for all kinds.
type ListChatsInput struct {
	AccountID string
	Kind      chat.Kind
}

// ListChatsUseCase returns conversation summaries, newest activity first.
type ListChatsUseCase struct {
	Repo repository.ChatRepository
}

func NewListChatsUseCase(repo repository.ChatRepository) *ListChatsUseCase {
	return &ListChatsUseCase{Repo: repo}
}

func (uc *ListChatsUseCase) Execute(ctx context.Context, in ListChatsInput) ([]chat.Conversation, error) {
	convs, err := uc.Repo.ListConversations(ctx, in.AccountID, in.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return convs, nil
}
