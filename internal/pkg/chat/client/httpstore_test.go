package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chat "wrenconnect/internal/pkg/chat/domain"
)

func TestHTTPStoreFetchGroupMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/getgroup/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("groupId"); got != "g1" {
			t.Errorf("groupId = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []chat.Message{
				{ID: "m1", ConversationID: "g1", SenderID: "bob", Content: "hi", SentAt: time.Now().UTC()},
			},
		})
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL)
	msgs, err := store.FetchMessages(context.Background(), chat.KindGroup, "g1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestHTTPStoreFetchAnalystMessagesUsesEmbeddedLog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyst/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(chat.Conversation{
			ID: "a1", Kind: chat.KindAnalyst,
			Messages: []chat.Message{{ID: "m1", SenderID: "ana", Content: "welcome"}},
		})
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL)
	msgs, err := store.FetchMessages(context.Background(), chat.KindAnalyst, "a1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestHTTPStoreStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, chat.ErrNotFound},
		{http.StatusForbidden, chat.ErrNotParticipant},
		{http.StatusConflict, chat.ErrClosed},
		{http.StatusBadRequest, chat.ErrValidation},
		{http.StatusInternalServerError, ErrTransport},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		store := NewHTTPStore(srv.URL)
		_, err := store.FetchMessages(context.Background(), chat.KindGroup, "g1")
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestHTTPStoreGroupAppendFallsBackToDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/savemessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["groupId"] != "g1" || body["messageText"] != "hello" {
			t.Errorf("unexpected body: %v", body)
		}
		// Queued server-side: acknowledged without a stored copy.
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL)
	draft := chat.Message{ID: "local-1", ConversationID: "g1", SenderID: "alice", Content: "hello"}
	got, err := store.AppendMessage(context.Background(), chat.KindGroup, draft)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if got.ID != draft.ID {
		t.Fatalf("got id %q, want the draft echoed back", got.ID)
	}
}

func TestHTTPStoreMarkReadSkipsWatermarkKinds(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL)
	if err := store.MarkRead(context.Background(), chat.KindGroup, "g1", "alice"); err != nil {
		t.Fatalf("group mark read: %v", err)
	}
	if called {
		t.Fatal("group mark read hit the server; it is client-side only")
	}

	if err := store.MarkRead(context.Background(), chat.KindAnalyst, "a1", "alice"); err != nil {
		t.Fatalf("analyst mark read: %v", err)
	}
	if !called {
		t.Fatal("analyst mark read never hit the server")
	}
}

func TestHTTPStoreInitAnalystChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyst/initialize" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"chatId": "aaaaaaaaaaaaaaaaaaaaaaaa",
			"chat":   chat.Conversation{ID: "aaaaaaaaaaaaaaaaaaaaaaaa", Kind: chat.KindAnalyst},
		})
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL)
	conv, err := store.InitAnalystChat(context.Background(), "alice", "ana")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if conv.ID != "aaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Fatalf("conv id = %q", conv.ID)
	}
}
