package client

import (
	"context"

	"wrenconnect/internal/pkg/chat/wire"
)

// State is the push channel's connection state as the binder tracks it.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Channel is one bidirectional socket session. A Channel does not reconnect
// itself: when the session drops, Events closes and the binder decides
// whether to dial again. Room subscriptions die with the session.
type Channel interface {
	// Dial establishes the session and completes the identify handshake.
	// After a successful Dial, SocketID and Events refer to the new session.
	Dial(ctx context.Context) error

	// SocketID is the server-assigned id of the current session. Inbound
	// messages stamped with it are echoes of this client's own sends.
	SocketID() string

	// Emit frames data under the event name and writes it to the session.
	Emit(event string, data any) error

	// Events streams inbound envelopes. The channel closes it when the
	// session drops, for any reason.
	Events() <-chan wire.Envelope

	// Close tears the session down. Events closes as a consequence.
	Close() error
}
