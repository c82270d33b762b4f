package event

import (
	"group-chat/domain"
	"time"
)

// DomainEvent is the closed set of outbound events a connection can
// observe. Variants are tagged Go types, not string-keyed payloads.
type DomainEvent interface {
	RoomID() domain.RoomID
}

// MessageStored is emitted once per durably recorded message and
// delivered to every connection joined to the room, sender included.
type MessageStored struct {
	ID       uint64
	Room     domain.RoomID
	SenderID string
	Content  string
	At       time.Time
}

func (m MessageStored) RoomID() domain.RoomID {
	return m.Room
}

// SendRejected is delivered only to the connection whose send failed to
// persist. It is never broadcast to the rest of the room.
type SendRejected struct {
	Room   domain.RoomID
	Reason string
}

func (m SendRejected) RoomID() domain.RoomID {
	return m.Room
}
