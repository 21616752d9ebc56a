package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// InitAnalystChatInput identifies the requesting user and the analyst.
type InitAnalystChatInput struct {
	UserID    string
	AnalystID string
}

// InitAnalystChatUseCase opens (or finds) the analyst-support chat for a
// (user, analyst) pair. Initialization is idempotent: concurrent requests for
// the same pair resolve to one conversation carrying a single welcome message.
type InitAnalystChatUseCase struct {
	Repo     repository.ChatRepository
	Accounts repository.AccountRepository
}

func NewInitAnalystChatUseCase(repo repository.ChatRepository, accounts repository.AccountRepository) *InitAnalystChatUseCase {
	return &InitAnalystChatUseCase{Repo: repo, Accounts: accounts}
}

func (uc *InitAnalystChatUseCase) Execute(ctx context.Context, in InitAnalystChatInput) (*chat.Conversation, error) {
	if in.UserID == "" || in.AnalystID == "" {
		return nil, fmt.Errorf("%w: userId and analystId are required", chat.ErrValidation)
	}

	if _, err := uc.Accounts.GetAccount(ctx, in.UserID); err != nil {
		if errors.Is(err, chat.ErrAccountUnknown) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	analyst, err := uc.Accounts.GetAccount(ctx, in.AnalystID)
	if err != nil {
		if errors.Is(err, chat.ErrAccountUnknown) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if analyst.Role != "analyst" {
		return nil, chat.ErrAccountUnknown
	}

	// Fast path: an active chat already exists for the pair.
	if existing, err := uc.Repo.FindAnalystChat(ctx, in.UserID, in.AnalystID); err == nil {
		return existing, nil
	} else if !errors.Is(err, chat.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	welcome := chat.Message{
		SenderID:   in.AnalystID,
		SenderName: analyst.DisplayName(),
		Content:    fmt.Sprintf("Welcome to your analyst chat with %s", analyst.DisplayName()),
	}

	conv, _, err := uc.Repo.InitAnalystChat(ctx, in.UserID, in.AnalystID, welcome)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
