package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	cacheport "wrenconnect/internal/infrastructure/cache/port"
	"wrenconnect/internal/infrastructure/realtime"
	"wrenconnect/internal/pkg/chat/application/usecase"
	"wrenconnect/internal/pkg/chat/persistence/repository/adapter"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"
	"wrenconnect/internal/pkg/chat/wire"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic. The socket layer is a relay: it fans messages out to rooms with
// the origin socket id attached and leaves durability to the REST surface.
// Receivers use originSocketId to drop the echo of their own send while
// sibling tabs of the same account still get the frame.
type ChatSocketController struct {
	router          *realtime.Router
	repo            repository.ChatRepository
	presence        cacheport.Cache
	inflightTimeout time.Duration
}

func NewChatSocketController(pool *pgxpool.Pool, router *realtime.Router, presence cacheport.Cache) *ChatSocketController {
	return &ChatSocketController{
		router:          router,
		repo:            adapter.NewPgChatRepository(pool),
		presence:        presence,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth is added.
		return true
	},
}

const (
	defaultReadTimeout = 60 * time.Second
	presenceTTL        = 90 * time.Second
)

// Handle upgrades HTTP connections to websocket and relays frames until the
// client disconnects. Sessions identify via the userId query parameter or a
// first add-user frame; everything before identification is rejected.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		var conn *realtime.Connection
		if userID := c.Query("userId"); userID != "" {
			conn = ctl.attach(userID, ws)
		}
		defer func() {
			if conn != nil {
				ctl.detach(conn)
			} else {
				_ = ws.Close()
			}
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			if conn != nil {
				ctl.refreshPresence(conn.UserID)
			}
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				return
			}

			var env wire.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				ctl.replyError(conn, ws, "bad_request", "invalid payload")
				continue
			}

			if conn == nil {
				if env.Event != wire.EventAddUser {
					ctl.replyError(nil, ws, "unidentified", "identify with add-user first")
					continue
				}
				var id wire.IdentifyEvent
				if err := json.Unmarshal(env.Data, &id); err != nil || id.UserID == "" {
					ctl.replyError(nil, ws, "bad_request", "userId is required")
					continue
				}
				conn = ctl.attach(id.UserID, ws)
				continue
			}

			switch env.Event {
			case wire.EventAddUser:
				// Already identified; re-announce is a no-op.
			case wire.EventJoinRoom, wire.EventJoinAnalystRoom:
				ctl.handleJoin(c, conn, env.Data)
			case wire.EventSendMsg:
				ctl.handleSend(conn, env.Data, wire.EventMsgReceive)
			case wire.EventSendGroupMsg:
				ctl.handleSend(conn, env.Data, wire.EventGroupMsgReceive)
			case wire.EventSendAnalystMessage:
				ctl.handleSend(conn, env.Data, wire.EventAnalystMsgReceive)
			case wire.EventMarkRead, wire.EventMarkAnalystRead:
				ctl.handleMarkRead(conn, env.Event, env.Data)
			default:
				ctl.replyError(conn, ws, "unsupported_event", "unknown event "+env.Event)
			}
		}
	}
}

// attach registers the session and, when it is the user's first live one,
// publishes presence.
func (ctl *ChatSocketController) attach(userID string, ws *websocket.Conn) *realtime.Connection {
	conn := realtime.NewConnection(userID, ws)
	first := ctl.router.Attach(conn) == 1
	if ack, err := wire.Marshal(wire.EventConnected, wire.ConnectedEvent{SocketID: conn.ID}); err == nil {
		_ = conn.Send(ack)
	}
	if first {
		ctl.refreshPresence(userID)
		ctl.broadcastStatus(userID, true, conn.ID)
	}
	return conn
}

// detach drops the session and publishes offline presence when it was the
// user's last one.
func (ctl *ChatSocketController) detach(conn *realtime.Connection) {
	remaining := ctl.router.Detach(conn)
	conn.Close(websocket.CloseNormalClosure, "session closed")
	if remaining == 0 {
		if ctl.presence != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			if _, err := ctl.presence.Del(ctx, usecase.PresenceKey(conn.UserID)); err != nil {
				log.Printf("presence del for %s: %v", conn.UserID, err)
			}
			cancel()
		}
		ctl.broadcastStatus(conn.UserID, false, conn.ID)
	}
}

func (ctl *ChatSocketController) refreshPresence(userID string) {
	if ctl.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ctl.presence.Set(ctx, usecase.PresenceKey(userID), "1", presenceTTL); err != nil {
		log.Printf("presence set for %s: %v", userID, err)
	}
}

func (ctl *ChatSocketController) broadcastStatus(userID string, online bool, excludeSessionID string) {
	payload, err := wire.Marshal(wire.EventUserStatus, wire.UserStatusEvent{UserID: userID, IsOnline: online})
	if err != nil {
		return
	}
	ctl.router.BroadcastAll(payload, excludeSessionID)
}

func (ctl *ChatSocketController) handleJoin(c *gin.Context, conn *realtime.Connection, data json.RawMessage) {
	var join wire.JoinEvent
	if err := json.Unmarshal(data, &join); err != nil || join.RoomID == "" {
		ctl.replyError(conn, nil, "bad_request", "roomId is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	ok, err := ctl.repo.IsParticipant(ctx, join.RoomID, conn.UserID)
	if err != nil {
		ctl.replyError(conn, nil, "internal_error", "membership check failed")
		return
	}
	if !ok {
		ctl.replyError(conn, nil, "forbidden", "not a participant of "+join.RoomID)
		return
	}

	ctl.router.Join(join.RoomID, conn)
}

// handleSend relays a message to its room under the matching receive event.
// The relay stamps originSocketId; the room broadcast intentionally includes
// the origin session, whose client discards the echo by that stamp.
func (ctl *ChatSocketController) handleSend(conn *realtime.Connection, data json.RawMessage, receiveEvent string) {
	var msg wire.MessageEvent
	if err := json.Unmarshal(data, &msg); err != nil || msg.ConversationID == "" {
		ctl.replyError(conn, nil, "bad_request", "conversationId is required")
		return
	}

	msg.OriginSocketID = conn.ID
	payload, err := wire.Marshal(receiveEvent, msg)
	if err != nil {
		ctl.replyError(conn, nil, "internal_error", "failed to encode message")
		return
	}

	ctl.router.Broadcast(msg.ConversationID, payload, "")
}

func (ctl *ChatSocketController) handleMarkRead(conn *realtime.Connection, event string, data json.RawMessage) {
	var read wire.ReadEvent
	if err := json.Unmarshal(data, &read); err != nil || read.ConversationID == "" {
		ctl.replyError(conn, nil, "bad_request", "conversationId is required")
		return
	}
	if read.ReaderID == "" {
		read.ReaderID = conn.UserID
	}

	payload, err := wire.Marshal(event, read)
	if err != nil {
		return
	}
	// Read receipts go to everyone else in the room.
	ctl.router.Broadcast(read.ConversationID, payload, conn.ID)
}

// replyError writes an error frame to the session, falling back to the raw
// socket when the session is not yet attached.
func (ctl *ChatSocketController) replyError(conn *realtime.Connection, ws *websocket.Conn, code string, message string) {
	payload, err := wire.Marshal(wire.EventError, wire.ErrorEvent{Code: code, Error: message})
	if err != nil {
		return
	}
	if conn != nil {
		_ = conn.Send(payload)
		return
	}
	if ws != nil {
		_ = ws.WriteMessage(websocket.TextMessage, payload)
	}
}
