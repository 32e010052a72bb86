package gateway

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type LeaveReason string

const (
	ReasonLeave      LeaveReason = "leave"
	ReasonDisconnect LeaveReason = "disconnect"
	ReasonSwitch     LeaveReason = "switch"
)

// Registry is the authoritative owner of room membership. Only Join,
// Leave and Disconnect mutate it; every other component reads it.
type Registry interface {
	// Register starts tracking an open connection before it is bound
	// to any room, so the heartbeat supervisor covers it from the
	// moment the socket opens.
	Register(conn *Connection)

	// Join binds the connection to a room, creating the room if
	// absent. A connection already bound to a different room leaves
	// that room silently first: a switch, not a disconnect.
	Join(conn *Connection, roomId string, userId string)

	// Leave removes the connection from its room and deletes the room
	// entry if it empties. Idempotent no-op when unbound. Returns what
	// was vacated so the caller can emit presence.
	Leave(conn *Connection, reason LeaveReason) (roomId string, userId string, left bool)

	// Disconnect is Leave plus removal of all bookkeeping and
	// termination of the connection's write pump.
	Disconnect(conn *Connection) (roomId string, userId string, left bool)

	Members(roomId string) []*Connection
	Connections() []*Connection
	Counts() (rooms int, connections int)
}

type InMemoryRegistry struct {
	logger *zap.Logger
	now    func() time.Time

	limiterCapacity int
	limiterRefill   time.Duration

	mu          sync.RWMutex
	connections map[string]*Connection
	rooms       map[string]map[string]*Connection
}

func NewInMemoryRegistry(logger *zap.Logger, limiterCapacity int, limiterRefill time.Duration) *InMemoryRegistry {
	return &InMemoryRegistry{
		logger:          logger,
		now:             time.Now,
		limiterCapacity: limiterCapacity,
		limiterRefill:   limiterRefill,
		connections:     make(map[string]*Connection),
		rooms:           make(map[string]map[string]*Connection),
	}
}

func (r *InMemoryRegistry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Opening the socket counts as traffic, so a connection that never
	// sends a frame still gets the full tolerance grace before eviction.
	conn.Touch(r.now())

	r.connections[conn.Id] = conn
}

func (r *InMemoryRegistry) Join(conn *Connection, roomId string, userId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current := conn.Room(); current != "" && current != roomId {
		r.removeLocked(conn, current, ReasonSwitch)
	}

	room, ok := r.rooms[roomId]
	if !ok {
		room = make(map[string]*Connection)
		r.rooms[roomId] = room
	}

	room[conn.Id] = conn
	r.connections[conn.Id] = conn
	conn.bind(roomId, userId, r.now(), r.limiterCapacity, r.limiterRefill)

	r.logger.Info("connection joined room",
		zap.String("connectionId", conn.Id),
		zap.String("roomId", roomId),
		zap.String("userId", userId),
		zap.Int("members", len(room)))
}

func (r *InMemoryRegistry) Leave(conn *Connection, reason LeaveReason) (string, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomId := conn.Room()
	if roomId == "" {
		return "", "", false
	}

	userId := conn.UserId()
	r.removeLocked(conn, roomId, reason)

	return roomId, userId, true
}

func (r *InMemoryRegistry) Disconnect(conn *Connection) (string, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[conn.Id]; !ok {
		return "", "", false
	}

	var roomId, userId string
	var left bool

	if roomId = conn.Room(); roomId != "" {
		userId = conn.UserId()
		r.removeLocked(conn, roomId, ReasonDisconnect)
		left = true
	}

	delete(r.connections, conn.Id)
	conn.shutdown()

	return roomId, userId, left
}

func (r *InMemoryRegistry) Members(roomId string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomId]
	if !ok {
		return nil
	}

	members := make([]*Connection, 0, len(room))
	for _, conn := range room {
		members = append(members, conn)
	}

	return members
}

func (r *InMemoryRegistry) Connections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connections := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		connections = append(connections, conn)
	}

	return connections
}

func (r *InMemoryRegistry) Counts() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms), len(r.connections)
}

// IMPORTANT: It must be called only when the write lock is already held.
func (r *InMemoryRegistry) removeLocked(conn *Connection, roomId string, reason LeaveReason) {
	room, ok := r.rooms[roomId]
	if !ok {
		conn.unbind()

		return
	}

	delete(room, conn.Id)
	if len(room) == 0 {
		delete(r.rooms, roomId)
	}

	conn.unbind()

	r.logger.Info("connection left room",
		zap.String("connectionId", conn.Id),
		zap.String("roomId", roomId),
		zap.String("reason", string(reason)),
		zap.Int("members", len(room)))
}
