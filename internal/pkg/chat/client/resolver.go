package client

import (
	"context"
	"errors"
	"fmt"

	chat "wrenconnect/internal/pkg/chat/domain"
)

// Resolver normalizes an opaque chat reference into a canonical conversation
// id. Callers sometimes hold a conversation id and sometimes only the
// counterpart's account id (opening an analyst chat that may not exist yet);
// the two spaces are disjoint by format, so a shape check settles which case
// applies without a store round-trip.
type Resolver struct {
	store      Store
	accountRef string
}

func NewResolver(store Store, accountRef string) *Resolver {
	return &Resolver{store: store, accountRef: accountRef}
}

// Resolve returns the conversation id behind reference. A reference already
// in canonical shape is trusted and returned unchanged. Anything else is
// treated as a counterpart account id: an existing chat with that
// counterpart wins, otherwise one is initialized. Initialization is
// idempotent end to end, so concurrent resolves for the same pair converge
// on one id; duplicates are resolved, never rejected.
func (r *Resolver) Resolve(ctx context.Context, reference, counterpartHint string) (string, error) {
	if chat.IsCanonicalID(reference) {
		return reference, nil
	}

	counterpart := counterpartHint
	if counterpart == "" {
		counterpart = reference
	}
	if counterpart == "" {
		return "", fmt.Errorf("%w: empty chat reference", chat.ErrValidation)
	}

	existing, err := r.store.FindAnalystChat(ctx, r.accountRef, counterpart)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, chat.ErrNotFound) {
		return "", err
	}

	conv, err := r.store.InitAnalystChat(ctx, r.accountRef, counterpart)
	if err != nil {
		if errors.Is(err, chat.ErrAccountUnknown) {
			return "", chat.ErrNotFound
		}
		return "", err
	}
	return conv.ID, nil
}
