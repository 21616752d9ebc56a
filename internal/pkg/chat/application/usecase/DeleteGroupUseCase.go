package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// DeleteGroupInput names the group to remove.
type DeleteGroupInput struct {
	GroupID string
}

// DeleteGroupUseCase removes a group conversation and its message log.
type DeleteGroupUseCase struct {
	Repo repository.ChatRepository
}

func NewDeleteGroupUseCase(repo repository.ChatRepository) *DeleteGroupUseCase {
	return &DeleteGroupUseCase{Repo: repo}
}

func (uc *DeleteGroupUseCase) Execute(ctx context.Context, in DeleteGroupInput) error {
	if in.GroupID == "" {
		return fmt.Errorf("%w: groupId is required", chat.ErrValidation)
	}

	conv, err := uc.Repo.GetConversation(ctx, in.GroupID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if conv.Kind != chat.KindGroup {
		return fmt.Errorf("%w: conversation %s is not a group", chat.ErrValidation, in.GroupID)
	}

	if err := uc.Repo.DeleteConversation(ctx, in.GroupID); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
