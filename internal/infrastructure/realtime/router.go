package realtime

import (
	"sync"
)

// Router coordinates websocket sessions and logical rooms (conversations).
// A user may hold multiple concurrent sessions (one per open tab or device)
// and each session subscribes to rooms independently. Fan-out exclusion is by
// session id, never by user id: a second tab of the same account must still
// receive the messages its sibling tab sends.
type Router struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	userSessions map[string]map[string]struct{}    // userID -> set of sessionIDs
	rooms        map[string]map[string]*Connection // conversationID -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of conversationIDs
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[string]map[string]struct{}),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a connection and starts its write loop. Returns the number
// of sessions the user now holds, so callers can emit presence only on the
// first one.
func (r *Router) Attach(conn *Connection) int {
	r.mu.Lock()
	r.sessions[conn.ID] = conn
	set := r.userSessions[conn.UserID]
	if set == nil {
		set = make(map[string]struct{})
		r.userSessions[conn.UserID] = set
	}
	set[conn.ID] = struct{}{}
	r.sessionRooms[conn.ID] = make(map[string]struct{})
	n := len(set)
	r.mu.Unlock()

	conn.Start()
	return n
}

// Detach removes a connection if it is still tracked and returns how many
// sessions the user still holds (0 means the user went offline).
func (r *Router) Detach(conn *Connection) int {
	r.mu.Lock()
	r.detachLocked(conn.ID)
	n := len(r.userSessions[conn.UserID])
	r.mu.Unlock()
	return n
}

// Join adds the connection to the conversation room.
func (r *Router) Join(conversationID string, conn *Connection) {
	r.mu.Lock()
	if _, ok := r.sessions[conn.ID]; !ok {
		r.mu.Unlock()
		return
	}

	room := r.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[conversationID] = room
	}
	room[conn.ID] = conn

	memberships := r.sessionRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.sessionRooms[conn.ID] = memberships
	}
	memberships[conversationID] = struct{}{}
	r.mu.Unlock()
}

// Leave removes the connection from the conversation room.
func (r *Router) Leave(conversationID string, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(conversationID, conn.ID)
	r.mu.Unlock()
}

// Broadcast writes payload to all sessions in the conversation room.
// excludeSessionID, when non-empty, skips the originating socket so a sender
// is not echoed its own frame; sibling tabs of the same user still receive it.
func (r *Router) Broadcast(conversationID string, payload []byte, excludeSessionID string) int {
	r.mu.RLock()
	room := r.rooms[conversationID]
	if len(room) == 0 {
		r.mu.RUnlock()
		return 0
	}

	delivered := 0
	for id, conn := range room {
		if excludeSessionID != "" && id == excludeSessionID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	r.mu.RUnlock()
	return delivered
}

// BroadcastAll writes payload to every tracked session. Used for presence
// (user-status) events, which are not scoped to a room.
func (r *Router) BroadcastAll(payload []byte, excludeSessionID string) int {
	r.mu.RLock()
	delivered := 0
	for id, conn := range r.sessions {
		if excludeSessionID != "" && id == excludeSessionID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	r.mu.RUnlock()
	return delivered
}

// NotifyUser delivers payload to every live session of the given user.
func (r *Router) NotifyUser(userID string, payload []byte) bool {
	r.mu.RLock()
	var conns []*Connection
	for id := range r.userSessions[userID] {
		if conn := r.sessions[id]; conn != nil {
			conns = append(conns, conn)
		}
	}
	r.mu.RUnlock()

	ok := false
	for _, conn := range conns {
		if conn.Send(payload) == nil {
			ok = true
		}
	}
	return ok
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.userSessions = make(map[string]map[string]struct{})
	r.rooms = make(map[string]map[string]*Connection)
	r.sessionRooms = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "router shutdown")
	}
}

func (r *Router) detachLocked(sessionID string) {
	conn, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)

	if set, ok := r.userSessions[conn.UserID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.userSessions, conn.UserID)
		}
	}

	for roomID := range r.sessionRooms[sessionID] {
		r.leaveLocked(roomID, sessionID)
	}
	delete(r.sessionRooms, sessionID)
}

func (r *Router) leaveLocked(conversationID string, sessionID string) {
	if sessionID == "" {
		return
	}
	room := r.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.rooms, conversationID)
	}
	if memberships, ok := r.sessionRooms[sessionID]; ok {
		delete(memberships, conversationID)
		if len(memberships) == 0 {
			delete(r.sessionRooms, sessionID)
		}
	}
}
