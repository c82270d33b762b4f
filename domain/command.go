package domain

import (
	"time"
)

type Command interface {
	RoomID() RoomID
}

// SendMessageCommand carries one inbound message submission from a live
// connection. Origin is kept so a persistence failure can be reported
// back to the sender without touching the rest of the room.
type SendMessageCommand struct {
	Room       RoomID
	Origin     ConnectionID
	SenderID   string
	Content    string
	ReceivedAt time.Time
}

func (c SendMessageCommand) RoomID() RoomID {
	return c.Room
}

// HistoryQuery asks for the persisted messages of a room, oldest first.
// Cursor resumes a previous query; nil starts from the beginning.
type HistoryQuery struct {
	Room   RoomID
	Cursor *string
}

func (q HistoryQuery) RoomID() RoomID {
	return q.Room
}
