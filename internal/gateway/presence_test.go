package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPresence_NotifiesRoomExcludingActor(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	registry := newTestRegistry(t)
	dispatcher := NewDispatcher(logger, registry)
	presence := NewPresence(dispatcher)

	actor := NewConnection("conn-a", "")
	peer := NewConnection("conn-b", "")
	for _, conn := range []*Connection{actor, peer} {
		registry.Register(conn)
		registry.Join(conn, "story-1", "user-"+conn.Id)
	}

	presence.Join(actor, "story-1", "user-conn-a")

	assert.Empty(t, drainEnvelopes(t, actor))

	received := drainEnvelopes(t, peer)
	require.Len(t, received, 1)
	assert.Equal(t, TopicSystem, received[0].Topic)
	assert.Equal(t, ActionPresenceJoin, received[0].Action)
	assert.Equal(t, "story-1", received[0].RoomId)
	assert.JSONEq(t, `{"roomId":"story-1","userId":"user-conn-a"}`, string(received[0].Payload))
}

func TestPresence_ResumeAndLeaveActions(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	registry := newTestRegistry(t)
	dispatcher := NewDispatcher(logger, registry)
	presence := NewPresence(dispatcher)

	actor := NewConnection("conn-a", "")
	peer := NewConnection("conn-b", "")
	for _, conn := range []*Connection{actor, peer} {
		registry.Register(conn)
		registry.Join(conn, "story-1", "")
	}

	presence.Resume(actor, "story-1", "user-a")
	presence.Leave(actor, "story-1", "user-a")

	received := drainEnvelopes(t, peer)
	require.Len(t, received, 2)
	assert.Equal(t, ActionPresenceResume, received[0].Action)
	assert.Equal(t, ActionPresenceLeave, received[1].Action)
}
