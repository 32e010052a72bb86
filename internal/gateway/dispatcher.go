package gateway

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Broadcaster is the fan-out surface the presence broadcaster, the
// publish path and the backend event bridge all write through.
type Broadcaster interface {
	Broadcast(roomId string, envelope Envelope, exclude *Connection)
}

type Dispatcher struct {
	logger   *zap.Logger
	registry Registry
}

func NewDispatcher(logger *zap.Logger, registry Registry) *Dispatcher {
	return &Dispatcher{
		logger,
		registry,
	}
}

// Broadcast serializes the envelope once and writes it to every member
// of the room except exclude. Delivery is at-most-once, best-effort: a
// member whose send buffer is full is treated as stale and
// disconnected after the pass.
func (d *Dispatcher) Broadcast(roomId string, envelope Envelope, exclude *Connection) {
	frame, err := json.Marshal(envelope)
	if err != nil {
		d.logger.Error("failed to serialize envelope",
			zap.String("roomId", roomId),
			zap.Error(err))

		return
	}

	var stale []*Connection

	for _, conn := range d.registry.Members(roomId) {
		if exclude != nil && conn.Id == exclude.Id {
			continue
		}

		select {
		case conn.Send <- frame:
		default:
			d.logger.Warn("connection send buffer is full, disconnecting",
				zap.String("connectionId", conn.Id))

			stale = append(stale, conn)
		}
	}

	// A stale teardown is a disconnect like any other: the room must
	// still see a presence leave for the evicted member.
	for _, conn := range stale {
		staleRoomId, userId, left := d.registry.Disconnect(conn)
		if !left {
			continue
		}

		leave := NewSystemEnvelope(ActionPresenceLeave, staleRoomId, presencePayload{
			RoomId: staleRoomId,
			UserId: userId,
		}, time.Now())

		d.Broadcast(staleRoomId, leave, nil)
	}
}
