package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	chat "wrenconnect/internal/pkg/chat/domain"
)

func TestResolveCanonicalIDPassesThrough(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, "alice")

	id := chat.NewID()
	got, err := r.Resolve(context.Background(), id, "ana")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != id {
		t.Fatalf("got %q, want the input id %q", got, id)
	}
	if store.initCalls != 0 {
		t.Fatal("canonical id triggered a store round-trip")
	}
}

func TestResolveFindsExistingPair(t *testing.T) {
	store := newFakeStore()
	existing, err := store.InitAnalystChat(context.Background(), "alice", "ana")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := NewResolver(store, "alice")

	got, err := r.Resolve(context.Background(), "ana", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != existing.ID {
		t.Fatalf("got %q, want existing chat %q", got, existing.ID)
	}
}

func TestResolveInitializesMissingPair(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, "alice")

	got, err := r.Resolve(context.Background(), "ana", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !chat.IsCanonicalID(got) {
		t.Fatalf("resolved id %q is not canonical", got)
	}
}

func TestResolveUnknownCounterpart(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, "alice")

	if _, err := r.Resolve(context.Background(), "no-such-account", ""); !errors.Is(err, chat.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestConcurrentResolveIsIdempotent(t *testing.T) {
	store := newFakeStore()

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := NewResolver(store, "alice")
			id, err := r.Resolve(context.Background(), "ana", "")
			if err != nil {
				t.Errorf("resolve %d: %v", i, err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("resolve %d returned %q, others returned %q", i, ids[i], ids[0])
		}
	}

	conv, err := store.FindAnalystChat(context.Background(), "alice", "ana")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	welcomes := 0
	for _, m := range conv.Messages {
		if m.SenderID == "ana" {
			welcomes++
		}
	}
	if welcomes != 1 {
		t.Fatalf("chat carries %d welcome messages, want exactly 1", welcomes)
	}
}
