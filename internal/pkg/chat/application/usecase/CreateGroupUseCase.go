package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// CreateGroupInput carries the group creation form.
type CreateGroupInput struct {
	Name      string
	Icon      string
	CreatedBy string
	MemberIDs []string
}

// CreateGroupUseCase creates a group conversation and seeds it with the
// creator's welcome message.
type CreateGroupUseCase struct {
	Repo     repository.ChatRepository
	Accounts repository.AccountRepository
}

func NewCreateGroupUseCase(repo repository.ChatRepository, accounts repository.AccountRepository) *CreateGroupUseCase {
	return &CreateGroupUseCase{Repo: repo, Accounts: accounts}
}

func (uc *CreateGroupUseCase) Execute(ctx context.Context, in CreateGroupInput) (*chat.Conversation, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.CreatedBy == "" {
		return nil, fmt.Errorf("%w: group name and creator are required", chat.ErrValidation)
	}

	creator, err := uc.Accounts.GetAccount(ctx, in.CreatedBy)
	if err != nil {
		if errors.Is(err, chat.ErrAccountUnknown) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	conv := chat.Conversation{
		Kind:         chat.KindGroup,
		Name:         name,
		AvatarRef:    in.Icon,
		CreatedBy:    in.CreatedBy,
		Participants: in.MemberIDs,
		Status:       chat.StatusActive,
	}

	id, err := uc.Repo.CreateConversation(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.ID = id

	welcome := chat.Message{
		ConversationID: id,
		SenderID:       in.CreatedBy,
		SenderName:     creator.DisplayName(),
		Content:        fmt.Sprintf("Welcome to the group!\nCreated by %s", creator.DisplayName()),
	}
	if msg, err := uc.Repo.AppendMessage(ctx, welcome); err == nil {
		conv.Messages = []chat.Message{*msg}
	}
	// Group creation stands even when the welcome message fails; the legacy
	// service behaved the same way.

	return &conv, nil
}
