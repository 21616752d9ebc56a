package usecase

import (
	"context"
	"fmt"

	cache "wrenconnect/internal/infrastructure/cache/port"
	chat "wrenconnect/internal/pkg/chat/domain"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
)

// ListAccountsInput filters the directory listing. An empty Role returns
// every account; Exclude drops the requesting account from the result.
type ListAccountsInput struct {
	Role    string
	Exclude string
}

// ListAccountsUseCase lists accounts for the contact picker, decorating
// each entry with live presence from the cache.
type ListAccountsUseCase struct {
	Repo  repository.AccountRepository
	Cache cache.Cache
}

func NewListAccountsUseCase(repo repository.AccountRepository, c cache.Cache) *ListAccountsUseCase {
	return &ListAccountsUseCase{Repo: repo, Cache: c}
}

// PresenceKey is the cache key holding "1" while the account has at least
// one live realtime session.
func PresenceKey(accountID string) string {
	return "presence:" + accountID
}

func (uc *ListAccountsUseCase) Execute(ctx context.Context, in ListAccountsInput) ([]chat.Account, error) {
	accounts, err := uc.Repo.ListAccounts(ctx, in.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	out := accounts[:0]
	for _, a := range accounts {
		if a.ID == in.Exclude {
			continue
		}
		if uc.Cache != nil {
			// Presence is best effort; a cache outage must not break listing.
			if _, err := uc.Cache.Get(ctx, PresenceKey(a.ID)); err == nil {
				a.IsOnline = true
			}
		}
		out = append(out, a)
	}
	return out, nil
}
