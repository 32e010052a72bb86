package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goevery/canvas-gateway/internal/gateway"
	"github.com/goevery/canvas-gateway/internal/ierr"
)

type frame struct {
	Topic     string          `json:"topic"`
	RoomId    string          `json:"roomId"`
	Timestamp json.RawMessage `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Action    string          `json:"action"`
}

type payloadRoom struct {
	RoomId string `json:"roomId"`
}

// Normalizer validates raw inbound frames and produces canonical
// envelopes. The pipeline short-circuits on the first failure; failures
// are reported to the sender only and mutate no state.
type Normalizer struct {
	maxFrameBytes int
	now           func() time.Time
}

func NewNormalizer(maxFrameBytes int) *Normalizer {
	return &Normalizer{
		maxFrameBytes: maxFrameBytes,
		now:           time.Now,
	}
}

// Normalize runs the validation pipeline: size, parse, topic, payload,
// room resolution, timestamp. A client-supplied timestamp is accepted
// for parsing but always overwritten with server receipt time, so
// recipients observe a single server-stamped order per room.
func (n *Normalizer) Normalize(raw []byte, boundRoom string) (gateway.Envelope, error) {
	if len(raw) > n.maxFrameBytes {
		return gateway.Envelope{}, ierr.New(ierr.ErrorCodePayloadTooLarge,
			fmt.Errorf("frame of %d bytes exceeds the %d byte limit", len(raw), n.maxFrameBytes))
	}

	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return gateway.Envelope{}, ierr.New(ierr.ErrorCodeInvalidFormat, err)
	}

	topic := gateway.Topic(f.Topic)
	if !topic.Known() {
		return gateway.Envelope{}, ierr.New(ierr.ErrorCodeUnknownTopic,
			fmt.Errorf("unknown topic %q", f.Topic))
	}

	if !isObject(f.Payload) {
		return gateway.Envelope{}, ierr.New(ierr.ErrorCodeInvalidPayload,
			errors.New("payload must be a non-null object"))
	}

	roomId := f.RoomId
	if roomId == "" {
		var nested payloadRoom
		if err := json.Unmarshal(f.Payload, &nested); err == nil {
			roomId = nested.RoomId
		}
	}
	if roomId == "" {
		roomId = boundRoom
	}
	if roomId == "" {
		return gateway.Envelope{}, ierr.New(ierr.ErrorCodeMissingRoom,
			errors.New("no room id in frame, payload, or current binding"))
	}

	return gateway.Envelope{
		Topic:     topic,
		RoomId:    roomId,
		Timestamp: n.now(),
		Payload:   f.Payload,
		Action:    f.Action,
	}, nil
}

func isObject(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)

	return len(trimmed) > 0 && trimmed[0] == '{'
}
