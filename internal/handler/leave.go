package handler

import (
	"time"

	"github.com/goevery/canvas-gateway/internal/gateway"
)

type LeaveHandler struct {
	registry gateway.Registry
	presence *gateway.Presence
}

func NewLeaveHandler(
	registry gateway.Registry,
	presence *gateway.Presence,
) *LeaveHandler {
	return &LeaveHandler{
		registry,
		presence,
	}
}

// Handle removes the connection from its room. A leave while unbound
// is an idempotent no-op that is still acknowledged.
func (h *LeaveHandler) Handle(conn *gateway.Connection, envelope gateway.Envelope) (*gateway.Envelope, error) {
	roomId, userId, left := h.registry.Leave(conn, gateway.ReasonLeave)
	if left {
		h.presence.Leave(conn, roomId, userId)
	}

	ack := gateway.NewSystemEnvelope(gateway.ActionAck, roomId, ackPayload{
		Action: gateway.ActionLeave,
		RoomId: roomId,
		UserId: userId,
	}, time.Now())

	return &ack, nil
}
