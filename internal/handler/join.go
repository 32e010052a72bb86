package handler

import (
	"encoding/json"
	"time"

	"github.com/goevery/canvas-gateway/internal/gateway"
	"github.com/goevery/canvas-gateway/internal/ierr"
)

type JoinRequest struct {
	RoomId string `json:"roomId"`
	UserId string `json:"userId"`
}

type ackPayload struct {
	Action string `json:"action"`
	RoomId string `json:"roomId"`
	UserId string `json:"userId,omitempty"`
}

// JoinHandler serves both join and resume. Resume carries reconnection
// semantics and has the same registry effect as join; only the
// presence action differs.
type JoinHandler struct {
	registry gateway.Registry
	presence *gateway.Presence
}

func NewJoinHandler(
	registry gateway.Registry,
	presence *gateway.Presence,
) *JoinHandler {
	return &JoinHandler{
		registry,
		presence,
	}
}

func (h *JoinHandler) Handle(conn *gateway.Connection, envelope gateway.Envelope, resume bool) (*gateway.Envelope, error) {
	var req JoinRequest
	if err := json.Unmarshal(envelope.Payload, &req); err != nil {
		return nil, ierr.New(ierr.ErrorCodeInvalidPayload, err)
	}

	userId := req.UserId
	if conn.Subject != "" {
		userId = conn.Subject
	}

	h.registry.Join(conn, envelope.RoomId, userId)

	if resume {
		h.presence.Resume(conn, envelope.RoomId, userId)
	} else {
		h.presence.Join(conn, envelope.RoomId, userId)
	}

	action := gateway.ActionJoin
	if resume {
		action = gateway.ActionResume
	}

	ack := gateway.NewSystemEnvelope(gateway.ActionAck, envelope.RoomId, ackPayload{
		Action: action,
		RoomId: envelope.RoomId,
		UserId: userId,
	}, time.Now())

	return &ack, nil
}
