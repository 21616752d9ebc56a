package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chat "wrenconnect/internal/pkg/chat/domain"
	"wrenconnect/internal/pkg/chat/wire"

	"github.com/gorilla/websocket"
)

// wsTestServer speaks just enough of the socket protocol for the channel:
// it acks the handshake with a socket id, records inbound frames, and relays
// whatever the test scripts.
type wsTestServer struct {
	t        *testing.T
	srv      *httptest.Server
	socketID string

	frames chan wire.Envelope
	conns  chan *websocket.Conn
}

func newWSTestServer(t *testing.T, socketID string) *wsTestServer {
	t.Helper()
	s := &wsTestServer{
		t:        t,
		socketID: socketID,
		frames:   make(chan wire.Envelope, 16),
		conns:    make(chan *websocket.Conn, 4),
	}
	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("userId"); got != "alice" {
			t.Errorf("userId = %q, want alice", got)
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ack, _ := wire.Marshal(wire.EventConnected, wire.ConnectedEvent{SocketID: socketID})
		_ = ws.WriteMessage(websocket.TextMessage, ack)
		s.conns <- ws
		go func() {
			for {
				_, data, err := ws.ReadMessage()
				if err != nil {
					return
				}
				var env wire.Envelope
				if json.Unmarshal(data, &env) == nil {
					s.frames <- env
				}
			}
		}()
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsTestServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsTestServer) nextFrame() (wire.Envelope, bool) {
	select {
	case env := <-s.frames:
		return env, true
	case <-time.After(time.Second):
		return wire.Envelope{}, false
	}
}

func TestWSChannelHandshakeCapturesSocketID(t *testing.T) {
	srv := newWSTestServer(t, "sock-42")
	ch := NewWSChannel(srv.url(), "alice")
	defer ch.Close()

	if err := ch.Dial(context.Background()); err != nil {
		t.Fatalf("dial: %v", err)
	}
	if got := ch.SocketID(); got != "sock-42" {
		t.Fatalf("socket id = %q, want sock-42", got)
	}
}

func TestWSChannelEmitAndReceive(t *testing.T) {
	srv := newWSTestServer(t, "sock-1")
	ch := NewWSChannel(srv.url(), "alice")
	defer ch.Close()

	if err := ch.Dial(context.Background()); err != nil {
		t.Fatalf("dial: %v", err)
	}

	if err := ch.Emit(wire.EventJoinRoom, wire.JoinEvent{RoomID: "g1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	env, ok := srv.nextFrame()
	if !ok {
		t.Fatal("server never saw the emit")
	}
	if env.Event != wire.EventJoinRoom {
		t.Fatalf("event = %q", env.Event)
	}
	var join wire.JoinEvent
	if err := json.Unmarshal(env.Data, &join); err != nil || join.RoomID != "g1" {
		t.Fatalf("join payload = %s (%v)", env.Data, err)
	}

	// Server relays a message; it must surface on Events.
	server := <-srv.conns
	relay, _ := wire.Marshal(wire.EventGroupMsgReceive, wire.MessageEvent{
		ConversationID: "g1",
		Message:        chat.Message{ID: "m1", SenderID: "bob", Content: "hi"},
		OriginSocketID: "sock-bob",
	})
	_ = server.WriteMessage(websocket.TextMessage, relay)

	select {
	case got := <-ch.Events():
		if got.Event != wire.EventGroupMsgReceive {
			t.Fatalf("inbound event = %q", got.Event)
		}
	case <-time.After(time.Second):
		t.Fatal("inbound frame never surfaced")
	}
}

func TestWSChannelEventsCloseOnDrop(t *testing.T) {
	srv := newWSTestServer(t, "sock-1")
	ch := NewWSChannel(srv.url(), "alice")
	defer ch.Close()

	if err := ch.Dial(context.Background()); err != nil {
		t.Fatalf("dial: %v", err)
	}
	events := ch.Events()

	server := <-srv.conns
	_ = server.Close()

	select {
	case _, open := <-events:
		if open {
			t.Fatal("got a frame instead of a close")
		}
	case <-time.After(time.Second):
		t.Fatal("events stream never closed after drop")
	}
}

func TestWSChannelEmitWithoutSession(t *testing.T) {
	ch := NewWSChannel("ws://unreachable.invalid/ws", "alice")
	if err := ch.Emit(wire.EventJoinRoom, wire.JoinEvent{RoomID: "g1"}); err == nil {
		t.Fatal("emit on undialed channel succeeded")
	}
}
