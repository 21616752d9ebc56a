package client

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	chat "wrenconnect/internal/pkg/chat/domain"
	"wrenconnect/internal/pkg/chat/wire"
)

// Emitter is the outbound half of the push channel as the registry sees it.
// Emits are best effort: the binder queues them while offline and flushes
// after rooms are re-joined.
type Emitter interface {
	EmitEvent(event string, data any)
}

// ConversationView is the rendered shape of one thread: the conversation
// plus the derived fields the chat list shows. Views are value snapshots;
// mutating one never touches registry state.
type ConversationView struct {
	chat.Conversation
	UnreadCount        int
	LastMessageSummary string
	LastActivityAt     time.Time
}

type conversationState struct {
	conv         chat.Conversation
	unread       int
	summary      string
	lastActivity time.Time
}

// Registry is the exclusive mutation surface for client-visible chat state
// and the single source of truth the UI renders from. It owns its copies of
// the conversation graph; the store's copies are reconciled in by value.
// Every mutation is serialized through one mutex, which is what makes the
// ordering rules hold: an optimistic append is in the map before the send's
// echo can possibly be reconciled, and a stale fetch merges instead of
// overwriting.
type Registry struct {
	mu         sync.Mutex
	accountRef string
	store      Store
	emitter    Emitter
	tracker    *UnreadTracker

	conversations map[string]*conversationState
	selected      string
}

func NewRegistry(store Store, tracker *UnreadTracker, accountRef string) *Registry {
	return &Registry{
		accountRef:    accountRef,
		store:         store,
		tracker:       tracker,
		conversations: make(map[string]*conversationState),
	}
}

// BindEmitter attaches the push channel handle. The registry works without
// one; read receipts simply stop being broadcast.
func (r *Registry) BindEmitter(e Emitter) {
	r.mu.Lock()
	r.emitter = e
	r.mu.Unlock()
}

// Upsert merges a conversation into the registry by id. Fields overwrite
// the held copy except the message log, which merges by message id with
// arrival order preserved: held messages keep their positions, unseen
// incoming ones append in their own order.
func (r *Registry) Upsert(conv chat.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertLocked(conv)
}

// UpsertAll merges a fetched conversation listing.
func (r *Registry) UpsertAll(convs []chat.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range convs {
		r.upsertLocked(c)
	}
}

func (r *Registry) upsertLocked(conv chat.Conversation) {
	if conv.ID == "" {
		return
	}
	st, ok := r.conversations[conv.ID]
	if !ok {
		st = &conversationState{}
		r.conversations[conv.ID] = st
	}
	merged := r.mergeMessagesLocked(st.conv.Messages, conv.Messages)
	st.conv = conv
	st.conv.Messages = merged
	r.refreshDerivedLocked(st)
}

// MergeMessages applies a fetched message log to a conversation. A fetch
// that raced an inbound push must not clobber it, so this merges by id
// rather than replacing the log.
func (r *Registry) MergeMessages(conversationID string, msgs []chat.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.conversations[conversationID]
	if !ok {
		// The view may have been torn down while the fetch was in flight.
		return
	}
	st.conv.Messages = r.mergeMessagesLocked(st.conv.Messages, msgs)
	r.refreshDerivedLocked(st)
}

// Peer push frames carry the sender's provisional id until the durable write
// assigns a server id; the canonical copy from a fetch has to match back onto
// that held frame by content. The window bounds clock skew between the peer
// and the server.
const provisionalMatchWindow = time.Minute

// mergeMessagesLocked unions two logs by message id, keeping the held order
// and appending unseen incoming messages in their own order. A held peer
// message still under its provisional id is replaced in place when the
// incoming canonical copy matches it, so one logical message never renders
// twice.
func (r *Registry) mergeMessagesLocked(held, incoming []chat.Message) []chat.Message {
	if len(held) == 0 {
		return append([]chat.Message(nil), incoming...)
	}
	seen := make(map[string]struct{}, len(held))
	out := append([]chat.Message(nil), held...)
	for _, m := range held {
		seen[m.ID] = struct{}{}
	}
	for _, m := range incoming {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		if chat.IsCanonicalID(m.ID) {
			if i := r.provisionalPeerSlot(out, m); i >= 0 {
				out[i] = m
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// provisionalPeerSlot finds the held provisional copy of a canonical message
// delivered by a peer's push. The local account's own optimistic appends also
// carry provisional ids, but always with the local account as sender, so they
// never match here; their lifecycle runs through ReplaceMessage and
// ReconcileInbound instead.
func (r *Registry) provisionalPeerSlot(held []chat.Message, m chat.Message) int {
	for i := range held {
		h := &held[i]
		if !chat.IsLocalID(h.ID) || h.SenderID == r.accountRef {
			continue
		}
		if h.SenderID != m.SenderID || h.Content != m.Content {
			continue
		}
		if d := m.SentAt.Sub(h.SentAt); d < -provisionalMatchWindow || d > provisionalMatchWindow {
			continue
		}
		return i
	}
	return -1
}

// Select marks the conversation as the active one and zeroes its unread
// count before any network call resolves: the badge must clear the instant
// the user opens the thread. The durable mark-read, the read-receipt
// broadcast and a message re-fetch run in the background; their failures are
// logged, never rolled back, because the unread count is advisory.
func (r *Registry) Select(conversationID string) (ConversationView, error) {
	r.mu.Lock()
	st, ok := r.conversations[conversationID]
	if !ok {
		r.mu.Unlock()
		return ConversationView{}, chat.ErrNotFound
	}

	r.selected = conversationID
	st.unread = 0
	r.tracker.Advance(conversationID, time.Now())
	if st.conv.Kind == chat.KindAnalyst {
		ApplyReadReceipt(&st.conv, r.accountRef)
	}
	kind := st.conv.Kind
	view := r.viewLocked(st)
	emitter := r.emitter
	r.mu.Unlock()

	go r.settleRead(conversationID, kind, emitter)
	go r.refetch(conversationID, kind)

	return view, nil
}

// ClearSelection drops the active selection, e.g. when the window closes.
func (r *Registry) ClearSelection() {
	r.mu.Lock()
	r.selected = ""
	r.mu.Unlock()
}

// Selected returns the active conversation id, empty when none.
func (r *Registry) Selected() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

func (r *Registry) settleRead(conversationID string, kind chat.Kind, emitter Emitter) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.MarkRead(ctx, kind, conversationID, r.accountRef); err != nil {
		log.Printf("mark read for %s: %v", conversationID, err)
	}
	if emitter != nil {
		emitter.EmitEvent(readEventFor(kind), wire.ReadEvent{
			ConversationID: conversationID,
			ReaderID:       r.accountRef,
		})
	}
}

func (r *Registry) refetch(conversationID string, kind chat.Kind) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	msgs, err := r.store.FetchMessages(ctx, kind, conversationID)
	if err != nil {
		log.Printf("fetch messages for %s: %v", conversationID, err)
		return
	}
	r.MergeMessages(conversationID, msgs)
}

func readEventFor(kind chat.Kind) string {
	if kind == chat.KindAnalyst {
		return wire.EventMarkAnalystRead
	}
	return wire.EventMarkRead
}

// AppendOptimistic appends the draft with a provisional id before any
// network confirmation and returns that id so the caller can later mark the
// message failed or replace it with the stored copy. Provisional ids live in
// their own namespace and can never collide with a server id.
func (r *Registry) AppendOptimistic(conversationID string, draft chat.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.conversations[conversationID]
	if !ok {
		return "", chat.ErrNotFound
	}
	if !st.conv.AcceptsSends() {
		return "", chat.ErrClosed
	}

	draft.ConversationID = conversationID
	draft.SenderID = r.accountRef
	msg, err := chat.NewMessage(draft)
	if err != nil {
		return "", err
	}
	msg.ID = chat.NewLocalID()

	st.conv.Messages = append(st.conv.Messages, *msg)
	r.refreshDerivedLocked(st)
	if r.selected == conversationID {
		r.tracker.Advance(conversationID, msg.SentAt)
	}
	return msg.ID, nil
}

// MarkFailed flags an optimistic message whose durable append errored. The
// message stays in the log, rendered distinctly; there is no automatic
// retry.
func (r *Registry) MarkFailed(conversationID, messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.conversations[conversationID]
	if !ok {
		return
	}
	for i := range st.conv.Messages {
		if st.conv.Messages[i].ID == messageID {
			st.conv.Messages[i].Failed = true
			return
		}
	}
}

// ReplaceMessage swaps a provisional message for its stored copy, keeping
// its position in the log. Used by the analyst send path, where the server
// returns the persisted message synchronously.
func (r *Registry) ReplaceMessage(conversationID, localID string, stored chat.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.conversations[conversationID]
	if !ok {
		return
	}
	for i := range st.conv.Messages {
		if st.conv.Messages[i].ID == localID {
			st.conv.Messages[i] = stored
			r.refreshDerivedLocked(st)
			return
		}
	}
}

// ReconcileInbound applies a push event to the registry. The dedup rule
// compares both the sender and the origin socket: only the echo of this
// client's own send is discarded. A frame from another socket of the same
// account (a second tab) must append.
func (r *Registry) ReconcileInbound(ev wire.MessageEvent, selfSocketID string) {
	r.mu.Lock()

	if ev.Message.SenderID == r.accountRef && selfSocketID != "" && ev.OriginSocketID == selfSocketID {
		r.mu.Unlock()
		return
	}

	st, ok := r.conversations[ev.ConversationID]
	if !ok {
		// Push for a thread the registry no longer (or doesn't yet) hold.
		r.mu.Unlock()
		return
	}

	for i := range st.conv.Messages {
		if st.conv.Messages[i].ID == ev.Message.ID {
			r.mu.Unlock()
			return
		}
	}

	st.conv.Messages = append(st.conv.Messages, ev.Message)
	st.summary = ev.Message.Summary()
	st.lastActivity = ev.Message.SentAt

	selected := r.selected == ev.ConversationID
	kind := st.conv.Kind
	emitter := r.emitter
	if selected {
		st.unread = 0
		r.tracker.Advance(ev.ConversationID, ev.Message.SentAt)
	} else {
		st.unread++
	}
	r.mu.Unlock()

	if selected {
		// Reading the thread live: acknowledge immediately.
		go r.settleRead(ev.ConversationID, kind, emitter)
	}
}

// ApplyReadReceipt handles a counterpart's inbound read receipt.
func (r *Registry) ApplyReadReceipt(conversationID, readerRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.conversations[conversationID]
	if !ok {
		return
	}
	ApplyReadReceipt(&st.conv, readerRef)
}

// Get returns a snapshot of one conversation.
func (r *Registry) Get(conversationID string) (ConversationView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.conversations[conversationID]
	if !ok {
		return ConversationView{}, false
	}
	return r.viewLocked(st), true
}

// Conversations returns snapshots of every held thread, newest activity
// first.
func (r *Registry) Conversations() []ConversationView {
	r.mu.Lock()
	out := make([]ConversationView, 0, len(r.conversations))
	for _, st := range r.conversations {
		out = append(out, r.viewLocked(st))
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out
}

// RoomIDs lists every conversation id the registry holds. The binder
// re-joins exactly this set whenever the channel (re-)connects.
func (r *Registry) RoomIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.conversations))
	for id := range r.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) viewLocked(st *conversationState) ConversationView {
	conv := st.conv
	conv.Messages = append([]chat.Message(nil), st.conv.Messages...)
	return ConversationView{
		Conversation:       conv,
		UnreadCount:        st.unread,
		LastMessageSummary: st.summary,
		LastActivityAt:     st.lastActivity,
	}
}

// refreshDerivedLocked recomputes summary, activity and (for unselected
// threads) the unread count after the log changed.
func (r *Registry) refreshDerivedLocked(st *conversationState) {
	if n := len(st.conv.Messages); n > 0 {
		last := &st.conv.Messages[n-1]
		st.summary = last.Summary()
		if last.SentAt.After(st.lastActivity) {
			st.lastActivity = last.SentAt
		}
	}
	if st.lastActivity.IsZero() {
		st.lastActivity = st.conv.UpdatedAt
	}
	if r.selected == st.conv.ID {
		st.unread = 0
		return
	}
	st.unread = r.tracker.Count(&st.conv, r.accountRef)
}
