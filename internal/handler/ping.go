package handler

import (
	"time"

	"github.com/goevery/canvas-gateway/internal/gateway"
)

type pongPayload struct {
	RoomId string `json:"roomId,omitempty"`
}

type PingHandler struct{}

func NewPingHandler() *PingHandler {
	return &PingHandler{}
}

// Handle replies with a pong scoped to the caller's current room. Ping
// is exempt from rate limiting so liveness control is never throttled.
func (h *PingHandler) Handle(conn *gateway.Connection, envelope gateway.Envelope) (*gateway.Envelope, error) {
	pong := gateway.NewSystemEnvelope(gateway.ActionPong, conn.Room(), pongPayload{
		RoomId: conn.Room(),
	}, time.Now())

	return &pong, nil
}
