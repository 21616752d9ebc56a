package client

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	chat "wrenconnect/internal/pkg/chat/domain"
	"wrenconnect/internal/pkg/chat/wire"
)

const (
	defaultMaxRetries = 5
	defaultRetryDelay = time.Second
)

type queuedEmit struct {
	event string
	data  any
}

// Binder owns the process-wide push channel: connection lifecycle, room
// membership, and the translation between push events and registry
// mutations. There is exactly one channel per client session, shared by
// every conversation; rooms multiplex over it.
//
// Room membership does not survive a drop. Whenever Connected is
// (re-)entered the binder re-joins every room the registry currently holds
// before flushing queued outbound emits, so a queued send can never outrun
// its own room subscription.
type Binder struct {
	channel    Channel
	registry   *Registry
	store      Store
	accountRef string

	mu      sync.Mutex
	state   State
	pending []queuedEmit
	closed  bool
	done    chan struct{}

	maxRetries int
	retryDelay time.Duration

	// OnUserStatus, when set, observes presence events. Called off the
	// event pump; must not block for long.
	OnUserStatus func(wire.UserStatusEvent)
}

func NewBinder(channel Channel, registry *Registry, store Store, accountRef string) *Binder {
	b := &Binder{
		channel:    channel,
		registry:   registry,
		store:      store,
		accountRef: accountRef,
		state:      Disconnected,
		done:       make(chan struct{}),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	registry.BindEmitter(b)
	return b
}

// State reports the connection state.
func (b *Binder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Connect dials the channel and starts the event pump. Safe to call
// repeatedly; only a Disconnected binder dials.
func (b *Binder) Connect(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrTransport
	}
	if b.state != Disconnected {
		b.mu.Unlock()
		return nil
	}
	b.state = Connecting
	b.mu.Unlock()

	if err := b.channel.Dial(ctx); err != nil {
		b.mu.Lock()
		b.state = Disconnected
		b.mu.Unlock()
		return err
	}

	b.enterConnected()
	go b.pump(b.channel.Events())
	return nil
}

// Close tears the session down for good. The binder will not reconnect.
func (b *Binder) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.state = Disconnected
	close(b.done)
	b.mu.Unlock()
	return b.channel.Close()
}

// enterConnected re-subscribes every held room, then flushes emits queued
// while offline. The order is load-bearing: a flushed send broadcast for a
// room the server no longer has us in would be silently dropped.
func (b *Binder) enterConnected() {
	for _, id := range b.registry.RoomIDs() {
		if view, ok := b.registry.Get(id); ok {
			b.joinRoom(id, view.Kind)
		}
	}

	b.mu.Lock()
	b.state = Connected
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, q := range pending {
		if err := b.channel.Emit(q.event, q.data); err != nil {
			log.Printf("flush %s: %v", q.event, err)
		}
	}
}

func (b *Binder) joinRoom(conversationID string, kind chat.Kind) {
	event := wire.EventJoinRoom
	if kind == chat.KindAnalyst {
		event = wire.EventJoinAnalystRoom
	}
	if err := b.channel.Emit(event, wire.JoinEvent{RoomID: conversationID}); err != nil {
		log.Printf("join room %s: %v", conversationID, err)
	}
}

// JoinConversation subscribes to a thread's room, e.g. right after a group
// is created or an analyst chat resolved. Queued while offline.
func (b *Binder) JoinConversation(conversationID string, kind chat.Kind) {
	event := wire.EventJoinRoom
	if kind == chat.KindAnalyst {
		event = wire.EventJoinAnalystRoom
	}
	b.EmitEvent(event, wire.JoinEvent{RoomID: conversationID})
}

// EmitEvent implements Emitter. Connected emits go straight to the wire;
// anything else queues until the next Connected entry.
func (b *Binder) EmitEvent(event string, data any) {
	b.mu.Lock()
	if b.state != Connected {
		if !b.closed {
			b.pending = append(b.pending, queuedEmit{event: event, data: data})
		}
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	if err := b.channel.Emit(event, data); err != nil {
		log.Printf("emit %s: %v", event, err)
	}
}

// pump dispatches inbound envelopes until the session drops, then hands off
// to the reconnect loop.
func (b *Binder) pump(events <-chan wire.Envelope) {
	for env := range events {
		b.handleEnvelope(env)
	}
	b.reconnect()
}

// reconnect makes a bounded number of fixed-delay dial attempts. Exhausting
// them parks the binder in Disconnected; a later explicit Connect may try
// again.
func (b *Binder) reconnect() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.state = Reconnecting
	b.mu.Unlock()

	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		select {
		case <-b.done:
			return
		case <-time.After(b.retryDelay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
		err := b.channel.Dial(ctx)
		cancel()
		if err != nil {
			log.Printf("reconnect attempt %d/%d: %v", attempt, b.maxRetries, err)
			continue
		}

		b.enterConnected()
		go b.pump(b.channel.Events())
		return
	}

	b.mu.Lock()
	if !b.closed {
		b.state = Disconnected
	}
	b.mu.Unlock()
	log.Printf("reconnect: gave up after %d attempts", b.maxRetries)
}

// handleEnvelope routes one inbound frame to its registry mutation. Kept
// free of socket concerns so it is exercisable without a live connection.
func (b *Binder) handleEnvelope(env wire.Envelope) {
	switch env.Event {
	case wire.EventMsgReceive, wire.EventGroupMsgReceive, wire.EventAnalystMsgReceive:
		var ev wire.MessageEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			log.Printf("malformed %s frame: %v", env.Event, err)
			return
		}
		b.registry.ReconcileInbound(ev, b.channel.SocketID())

	case wire.EventMarkRead, wire.EventMarkAnalystRead:
		var ev wire.ReadEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			log.Printf("malformed %s frame: %v", env.Event, err)
			return
		}
		b.registry.ApplyReadReceipt(ev.ConversationID, ev.ReaderID)

	case wire.EventUserStatus:
		if b.OnUserStatus == nil {
			return
		}
		var ev wire.UserStatusEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return
		}
		b.OnUserStatus(ev)

	case wire.EventConnected, wire.EventError:
		// Handshake acks are consumed during Dial; server error frames are
		// advisory.

	default:
		log.Printf("unhandled event %q", env.Event)
	}
}

// Send runs the outbound protocol: optimistic registry append, push
// broadcast, durable append. A durable failure flags the optimistic message
// as failed and leaves it in place. The broadcast carries this session's
// socket id so other clients of the same account keep the message while
// this one drops its echo.
func (b *Binder) Send(ctx context.Context, conversationID string, draft chat.Message) (string, error) {
	view, ok := b.registry.Get(conversationID)
	if !ok {
		return "", chat.ErrNotFound
	}

	localID, err := b.registry.AppendOptimistic(conversationID, draft)
	if err != nil {
		return "", err
	}

	msg := draft
	msg.ID = localID
	msg.ConversationID = conversationID
	msg.SenderID = b.accountRef
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	b.EmitEvent(sendEventFor(view.Kind), wire.MessageEvent{
		ConversationID: conversationID,
		Message:        msg,
		OriginSocketID: b.channel.SocketID(),
	})

	stored, err := b.store.AppendMessage(ctx, view.Kind, msg)
	if err != nil {
		b.registry.MarkFailed(conversationID, localID)
		return localID, err
	}

	if view.Kind == chat.KindAnalyst && stored != nil && stored.ID != "" && stored.ID != localID {
		b.registry.ReplaceMessage(conversationID, localID, *stored)
	}
	return localID, nil
}

func sendEventFor(kind chat.Kind) string {
	switch kind {
	case chat.KindGroup:
		return wire.EventSendGroupMsg
	case chat.KindAnalyst:
		return wire.EventSendAnalystMessage
	default:
		return wire.EventSendMsg
	}
}
