package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"wrenconnect/internal/pkg/chat/wire"

	"github.com/gorilla/websocket"
)

const handshakeTimeout = 10 * time.Second

// WSChannel is the gorilla/websocket implementation of Channel. One value
// may be dialed repeatedly; each Dial replaces the previous session.
type WSChannel struct {
	url        string
	accountRef string
	dialer     *websocket.Dialer

	mu       sync.Mutex
	ws       *websocket.Conn
	socketID string
	events   chan wire.Envelope
}

// NewWSChannel builds a channel for the socket endpoint, e.g.
// "ws://localhost:8080/api/v1/chat/ws".
func NewWSChannel(socketURL, accountRef string) *WSChannel {
	return &WSChannel{
		url:        socketURL,
		accountRef: accountRef,
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

func (ch *WSChannel) Dial(ctx context.Context) error {
	target := ch.url + "?userId=" + url.QueryEscape(ch.accountRef)
	ws, _, err := ch.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("%w: dial: %v", ErrTransport, err)
	}

	// The server acknowledges an identified session with our socket id;
	// nothing can be relayed correctly before it arrives.
	_ = ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	socketID, err := awaitConnected(ws)
	if err != nil {
		_ = ws.Close()
		return err
	}
	_ = ws.SetReadDeadline(time.Time{})

	ch.mu.Lock()
	if ch.ws != nil {
		_ = ch.ws.Close()
	}
	ch.ws = ws
	ch.socketID = socketID
	ch.events = make(chan wire.Envelope, 32)
	events := ch.events
	ch.mu.Unlock()

	go ch.readLoop(ws, events)
	return nil
}

func awaitConnected(ws *websocket.Conn) (string, error) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("%w: handshake: %v", ErrTransport, err)
		}
		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if env.Event != wire.EventConnected {
			continue
		}
		var ack wire.ConnectedEvent
		if err := json.Unmarshal(env.Data, &ack); err != nil || ack.SocketID == "" {
			return "", fmt.Errorf("%w: malformed handshake ack", ErrTransport)
		}
		return ack.SocketID, nil
	}
}

func (ch *WSChannel) readLoop(ws *websocket.Conn, events chan wire.Envelope) {
	defer close(events)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		select {
		case events <- env:
		default:
			// A stalled consumer drops frames rather than blocking reads;
			// the registry re-syncs from the store on the next fetch.
		}
	}
}

func (ch *WSChannel) SocketID() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.socketID
}

func (ch *WSChannel) Emit(event string, data any) error {
	payload, err := wire.Marshal(event, data)
	if err != nil {
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.ws == nil {
		return fmt.Errorf("%w: channel not connected", ErrTransport)
	}
	if err := ch.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

func (ch *WSChannel) Events() <-chan wire.Envelope {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.events
}

func (ch *WSChannel) Close() error {
	ch.mu.Lock()
	ws := ch.ws
	ch.ws = nil
	ch.mu.Unlock()
	if ws == nil {
		return nil
	}
	deadline := time.Now().Add(time.Second)
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	if err := ws.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return err
	}
	return nil
}
