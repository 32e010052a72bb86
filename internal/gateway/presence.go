package gateway

import "time"

type presencePayload struct {
	RoomId string `json:"roomId"`
	UserId string `json:"userId,omitempty"`
}

// Presence emits join/resume/leave notifications to a room, excluding
// the actor. Fire-and-forget: no acknowledgment, no retry.
type Presence struct {
	broadcaster Broadcaster
	now         func() time.Time
}

func NewPresence(broadcaster Broadcaster) *Presence {
	return &Presence{
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

func (p *Presence) Join(actor *Connection, roomId string, userId string) {
	p.emit(ActionPresenceJoin, actor, roomId, userId)
}

func (p *Presence) Resume(actor *Connection, roomId string, userId string) {
	p.emit(ActionPresenceResume, actor, roomId, userId)
}

func (p *Presence) Leave(actor *Connection, roomId string, userId string) {
	p.emit(ActionPresenceLeave, actor, roomId, userId)
}

func (p *Presence) emit(action string, actor *Connection, roomId string, userId string) {
	envelope := NewSystemEnvelope(action, roomId, presencePayload{
		RoomId: roomId,
		UserId: userId,
	}, p.now())

	p.broadcaster.Broadcast(roomId, envelope, actor)
}
