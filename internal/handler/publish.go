package handler

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goevery/canvas-gateway/internal/gateway"
	"github.com/goevery/canvas-gateway/internal/ierr"
)

type rateLimitDetails struct {
	RetryAfterMs int64 `json:"retryAfterMs"`
}

// PublishHandler is the client-originated domain path: stroke, object
// and turn envelopes pass the sender's token bucket, must target the
// sender's bound room, and fan out to the rest of the room.
type PublishHandler struct {
	dispatcher gateway.Broadcaster
}

func NewPublishHandler(dispatcher gateway.Broadcaster) *PublishHandler {
	return &PublishHandler{
		dispatcher,
	}
}

func (h *PublishHandler) Handle(conn *gateway.Connection, envelope gateway.Envelope) (*gateway.Envelope, error) {
	room := conn.Room()
	if room == "" || room != envelope.RoomId {
		return nil, ierr.New(ierr.ErrorCodeRoomMismatch,
			fmt.Errorf("sender is not a member of room %q", envelope.RoomId))
	}

	limiter := conn.Limiter()
	if limiter == nil {
		return nil, ierr.New(ierr.ErrorCodeRoomMismatch,
			errors.New("sender has no active room binding"))
	}

	if ok, retryAfter := limiter.Allow(); !ok {
		details, _ := json.Marshal(rateLimitDetails{
			RetryAfterMs: retryAfter.Milliseconds(),
		})

		return nil, ierr.New(ierr.ErrorCodeRateLimitExceeded,
			errors.New("rate limit exceeded")).WithData(details)
	}

	h.dispatcher.Broadcast(envelope.RoomId, envelope, conn)

	return nil, nil
}
