package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// UploadGroupIconInput carries the icon as a data URI (or raw base64)
// to be stored as the group's avatar reference.
type UploadGroupIconInput struct {
	GroupID string
	Icon    string
}

type UploadGroupIconUseCase struct {
	Repo repository.ChatRepository
}

func NewUploadGroupIconUseCase(repo repository.ChatRepository) *UploadGroupIconUseCase {
	return &UploadGroupIconUseCase{Repo: repo}
}

func (uc *UploadGroupIconUseCase) Execute(ctx context.Context, in UploadGroupIconInput) error {
	if in.GroupID == "" {
		return fmt.Errorf("%w: groupId is required", chat.ErrValidation)
	}
	if strings.TrimSpace(in.Icon) == "" {
		return fmt.Errorf("%w: icon is required", chat.ErrValidation)
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

	if err := uc.Repo.SetAvatar(ctx, in.GroupID, in.Icon); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
