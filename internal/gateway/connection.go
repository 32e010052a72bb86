package gateway

import (
	"sync"
	"time"
)

const sendBufferSize = 64

// Connection is the handle for one open socket. Room binding and
// liveness metadata live here, guarded by the connection's own mutex,
// keyed by connection identity rather than embedded in the socket. The
// Send channel feeds the connection's write pump with pre-serialized
// frames.
type Connection struct {
	Id      string
	Subject string
	Send    chan []byte

	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	roomId   string
	userId   string
	joinedAt time.Time
	lastSeen time.Time
	alive    bool
	limiter  *TokenBucket
}

func NewConnection(id string, subject string) *Connection {
	return &Connection{
		Id:      id,
		Subject: subject,
		Send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		alive:   true,
	}
}

// Done is closed when the connection is disconnected. The write pump
// uses it to close the underlying socket; the Send channel itself is
// never closed, so late broadcasts are dropped instead of panicking.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Connection) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.roomId
}

func (c *Connection) UserId() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.userId
}

func (c *Connection) Limiter() *TokenBucket {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.limiter
}

// Touch records inbound traffic of any kind: the connection is alive
// and was last seen now.
func (c *Connection) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSeen = now
	c.alive = true
}

// MarkProbed clears the alive flag after a liveness probe is sent. Any
// inbound frame sets it again via Touch.
func (c *Connection) MarkProbed() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alive = false
}

func (c *Connection) Liveness() (alive bool, lastSeen time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.alive, c.lastSeen
}

func (c *Connection) bind(roomId string, userId string, now time.Time, limiterCapacity int, limiterRefill time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roomId = roomId
	c.userId = userId
	c.joinedAt = now
	c.lastSeen = now
	c.alive = true

	if c.limiter == nil {
		c.limiter = NewTokenBucket(limiterCapacity, limiterRefill)
	}
}

func (c *Connection) unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roomId = ""
	c.userId = ""
}
