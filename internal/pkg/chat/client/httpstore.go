package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	chat "wrenconnect/internal/pkg/chat/domain"
)

// HTTPStore implements Store against the REST surface. Paths are the frozen
// legacy ones the deployed server answers on.
type HTTPStore struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPStore builds a store for the given API base URL, e.g.
// "http://localhost:8080/api/v1".
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPStore) FetchMessages(ctx context.Context, kind chat.Kind, conversationID string) ([]chat.Message, error) {
	if kind == chat.KindAnalyst {
		var conv chat.Conversation
		if err := s.getJSON(ctx, "/analyst/messages?chatId="+url.QueryEscape(conversationID), &conv); err != nil {
			return nil, err
		}
		return conv.Messages, nil
	}

	var body struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := s.getJSON(ctx, "/chat/getgroup/messages?groupId="+url.QueryEscape(conversationID), &body); err != nil {
		return nil, err
	}
	return body.Messages, nil
}

func (s *HTTPStore) AppendMessage(ctx context.Context, kind chat.Kind, draft chat.Message) (*chat.Message, error) {
	if kind == chat.KindAnalyst {
		req := map[string]any{
			"chatId":      draft.ConversationID,
			"senderId":    draft.SenderID,
			"senderName":  draft.SenderName,
			"messageText": draft.Content,
			"attachment":  draft.Attachments,
		}
		var stored chat.Message
		if err := s.postJSON(ctx, "/analyst/message", req, &stored); err != nil {
			return nil, err
		}
		return &stored, nil
	}

	req := map[string]any{
		"groupId":     draft.ConversationID,
		"senderId":    draft.SenderID,
		"senderName":  draft.SenderName,
		"messageText": draft.Content,
		"attachment":  draft.Attachments,
	}
	var body struct {
		Success bool         `json:"success"`
		Message chat.Message `json:"message"`
	}
	if err := s.postJSON(ctx, "/chat/savemessage", req, &body); err != nil {
		return nil, err
	}
	if body.Message.ID != "" {
		return &body.Message, nil
	}
	// The group path is queued server-side and acknowledges without a stored
	// copy; the draft stands in until a fetch replaces it.
	return &draft, nil
}

func (s *HTTPStore) MarkRead(ctx context.Context, kind chat.Kind, conversationID, readerRef string) error {
	if kind != chat.KindAnalyst {
		// Group/direct read state is the client watermark, never persisted.
		return nil
	}
	req := map[string]any{"chatId": conversationID, "userId": readerRef}
	return s.postJSON(ctx, "/analyst/read", req, nil)
}

func (s *HTTPStore) ListConversations(ctx context.Context, accountRef string, kind chat.Kind) ([]chat.Conversation, error) {
	switch kind {
	case chat.KindAnalyst:
		var chats []chat.Conversation
		if err := s.getJSON(ctx, "/analyst/chats?userId="+url.QueryEscape(accountRef), &chats); err != nil {
			return nil, err
		}
		return chats, nil
	default:
		var body struct {
			Groups []chat.Conversation `json:"groups"`
		}
		path := "/chat/groups"
		if accountRef != "" {
			path += "?userId=" + url.QueryEscape(accountRef)
		}
		if err := s.getJSON(ctx, path, &body); err != nil {
			return nil, err
		}
		return body.Groups, nil
	}
}

func (s *HTTPStore) FindAnalystChat(ctx context.Context, userRef, analystRef string) (*chat.Conversation, error) {
	chats, err := s.ListConversations(ctx, userRef, chat.KindAnalyst)
	if err != nil {
		return nil, err
	}
	for i := range chats {
		c := &chats[i]
		if c.Status == chat.StatusClosed {
			continue
		}
		if c.HasParticipant(analystRef) {
			return c, nil
		}
	}
	return nil, chat.ErrNotFound
}

func (s *HTTPStore) InitAnalystChat(ctx context.Context, userRef, analystRef string) (*chat.Conversation, error) {
	req := map[string]any{"userId": userRef, "analystId": analystRef}
	var body struct {
		ChatID string            `json:"chatId"`
		Chat   chat.Conversation `json:"chat"`
	}
	if err := s.postJSON(ctx, "/analyst/initialize", req, &body); err != nil {
		return nil, err
	}
	if body.Chat.ID == "" {
		body.Chat.ID = body.ChatID
	}
	return &body.Chat, nil
}

func (s *HTTPStore) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return s.do(req, out)
}

func (s *HTTPStore) postJSON(ctx context.Context, path string, in any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

// do executes the request and maps HTTP statuses onto the domain sentinels
// the reconciliation core branches on.
func (s *HTTPStore) do(req *http.Request, out any) error {
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return chat.ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return chat.ErrNotParticipant
	case resp.StatusCode == http.StatusConflict:
		return chat.ErrClosed
	case resp.StatusCode == http.StatusBadRequest:
		return chat.ErrValidation
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: server status %d", ErrTransport, resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}
