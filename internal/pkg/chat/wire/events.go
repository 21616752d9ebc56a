// Package wire defines the realtime event vocabulary shared by the socket
// server and the embedded client. Event names are frozen: deployed clients
// match on these exact strings, including the legacy misspelling of
// "receive".
package wire

import (
	"encoding/json"

	chat "wrenconnect/internal/pkg/chat/domain"
)

// Client → server events.
const (
	EventAddUser            = "add-user"
	EventJoinRoom           = "join-room"
	EventJoinAnalystRoom    = "join-analyst-room"
	EventSendMsg            = "send-msg"
	EventSendGroupMsg       = "send-group-msg"
	EventSendAnalystMessage = "send-analyst-message"
	EventMarkRead           = "markMessagesAsRead"
	EventMarkAnalystRead    = "mark-analyst-messages-read"
)

// Server → client events.
const (
	EventConnected         = "connected"
	EventMsgReceive        = "msg-recieve"
	EventGroupMsgReceive   = "group-msg-recieve"
	EventAnalystMsgReceive = "analyst-msg-recieve"
	EventUserStatus        = "user-status"
	EventError             = "error"
)

// Envelope frames every websocket payload: an event name plus its
// event-specific data.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Marshal frames data under the given event name.
func Marshal(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// ConnectedEvent acknowledges an identified session. SocketID is what the
// server stamps on relayed messages as originSocketId; the client keeps it
// for echo suppression.
type ConnectedEvent struct {
	SocketID string `json:"socketId"`
}

// IdentifyEvent carries the account behind a socket session (add-user).
type IdentifyEvent struct {
	UserID string `json:"userId"`
}

// JoinEvent subscribes the session to a conversation room.
type JoinEvent struct {
	RoomID string `json:"roomId"`
}

// MessageEvent carries one message over the push channel. OriginSocketID is
// attached by the server on relay and is what receivers compare against their
// own socket id to drop the echo of their own send.
type MessageEvent struct {
	ConversationID string       `json:"conversationId"`
	Message        chat.Message `json:"message"`
	OriginSocketID string       `json:"originSocketId,omitempty"`
}

// ReadEvent notifies a room that readerRef has read the conversation.
type ReadEvent struct {
	ConversationID string `json:"conversationId"`
	ReaderID       string `json:"readerId"`
}

// UserStatusEvent announces presence changes.
type UserStatusEvent struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// ErrorEvent reports a rejected frame back to the offending session.
type ErrorEvent struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
