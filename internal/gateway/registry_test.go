package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *InMemoryRegistry {
	t.Helper()

	logger, _ := zap.NewDevelopment()

	return NewInMemoryRegistry(logger, 3, time.Second)
}

func memberIds(registry Registry, roomId string) []string {
	var ids []string
	for _, conn := range registry.Members(roomId) {
		ids = append(ids, conn.Id)
	}

	return ids
}

func TestRegistry_JoinAddsMembership(t *testing.T) {
	registry := newTestRegistry(t)
	conn := NewConnection("conn-a", "")
	registry.Register(conn)

	registry.Join(conn, "story-1", "user-a")

	assert.Equal(t, "story-1", conn.Room())
	assert.Equal(t, "user-a", conn.UserId())
	assert.Contains(t, memberIds(registry, "story-1"), "conn-a")
	assert.NotNil(t, conn.Limiter())

	rooms, connections := registry.Counts()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, connections)
}

func TestRegistry_JoinSwitchesRoomsSilently(t *testing.T) {
	registry := newTestRegistry(t)
	conn := NewConnection("conn-a", "")
	registry.Register(conn)

	registry.Join(conn, "story-1", "user-a")
	registry.Join(conn, "story-2", "user-a")

	assert.Equal(t, "story-2", conn.Room())
	assert.Empty(t, memberIds(registry, "story-1"))
	assert.Contains(t, memberIds(registry, "story-2"), "conn-a")

	rooms, _ := registry.Counts()
	assert.Equal(t, 1, rooms, "the vacated room must be deleted")
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	registry := newTestRegistry(t)
	conn := NewConnection("conn-a", "")
	registry.Register(conn)
	registry.Join(conn, "story-1", "user-a")

	roomId, userId, left := registry.Leave(conn, ReasonLeave)
	assert.True(t, left)
	assert.Equal(t, "story-1", roomId)
	assert.Equal(t, "user-a", userId)
	assert.Empty(t, conn.Room())

	_, _, left = registry.Leave(conn, ReasonLeave)
	assert.False(t, left)
}

func TestRegistry_RoomExistsOnlyWhileOccupied(t *testing.T) {
	registry := newTestRegistry(t)
	connA := NewConnection("conn-a", "")
	connB := NewConnection("conn-b", "")
	registry.Register(connA)
	registry.Register(connB)

	registry.Join(connA, "story-1", "user-a")
	registry.Join(connB, "story-1", "user-b")

	registry.Leave(connA, ReasonLeave)
	rooms, _ := registry.Counts()
	assert.Equal(t, 1, rooms)

	registry.Leave(connB, ReasonLeave)
	rooms, _ = registry.Counts()
	assert.Equal(t, 0, rooms, "room must disappear after the last leave")

	// Recreation starts from a fresh member set, no stale carry-over.
	registry.Join(connA, "story-1", "user-a")
	assert.Equal(t, []string{"conn-a"}, memberIds(registry, "story-1"))
}

func TestRegistry_DisconnectRemovesAllBookkeeping(t *testing.T) {
	registry := newTestRegistry(t)
	conn := NewConnection("conn-a", "")
	registry.Register(conn)
	registry.Join(conn, "story-1", "user-a")

	roomId, userId, left := registry.Disconnect(conn)
	assert.True(t, left)
	assert.Equal(t, "story-1", roomId)
	assert.Equal(t, "user-a", userId)

	rooms, connections := registry.Counts()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, connections)

	select {
	case <-conn.Done():
	default:
		t.Fatal("disconnect must terminate the connection")
	}

	_, _, left = registry.Disconnect(conn)
	assert.False(t, left)
}

func TestRegistry_DisconnectWhileUnbound(t *testing.T) {
	registry := newTestRegistry(t)
	conn := NewConnection("conn-a", "")
	registry.Register(conn)

	_, _, left := registry.Disconnect(conn)
	assert.False(t, left)

	_, connections := registry.Counts()
	assert.Equal(t, 0, connections)
}
