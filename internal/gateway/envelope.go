package gateway

import (
	"encoding/json"
	"time"
)

type Topic string

const (
	TopicStroke Topic = "stroke"
	TopicObject Topic = "object"
	TopicTurn   Topic = "turn"
	TopicSystem Topic = "system"
)

func (t Topic) Known() bool {
	switch t {
	case TopicStroke, TopicObject, TopicTurn, TopicSystem:
		return true
	default:
		return false
	}
}

func (t Topic) IsSystem() bool {
	return t == TopicSystem
}

const (
	ActionJoin   = "join"
	ActionResume = "resume"
	ActionLeave  = "leave"
	ActionPing   = "ping"
	ActionPong   = "pong"
	ActionAck    = "ack"
	ActionError  = "error"

	ActionPresenceJoin   = "presence.join"
	ActionPresenceResume = "presence.resume"
	ActionPresenceLeave  = "presence.leave"
)

// Envelope is the canonical unit of wire traffic. The payload is opaque:
// domain topics are forwarded byte-for-byte and never interpreted beyond
// framing. The timestamp is always server receipt time.
type Envelope struct {
	Topic     Topic           `json:"topic"`
	RoomId    string          `json:"roomId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Action    string          `json:"action,omitempty"`
}

func NewSystemEnvelope(action string, roomId string, payload any, now time.Time) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}

	return Envelope{
		Topic:     TopicSystem,
		RoomId:    roomId,
		Timestamp: now,
		Payload:   raw,
		Action:    action,
	}
}
