package sink

import (
	"context"
	"log/slog"

	"group-chat/contract"
	"group-chat/domain/event"
)

var _ contract.EventSink = (*ConnSink)(nil)

// ConnSink bridges the fan-out path and one connection's write pump.
// Events land in a buffered channel owned by the transport; the pump
// drains it into the socket.
type ConnSink struct {
	log    *slog.Logger
	Events chan event.DomainEvent
}

func NewConnSink(log *slog.Logger, bufferSize int) *ConnSink {
	return &ConnSink{log: log, Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by a room worker during fan-out. A full buffer
// means the peer is not keeping up; the event is dropped for this one
// connection rather than stalling delivery to the rest of the room.
func (s *ConnSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Debug("connection buffer full, event dropped", "room_id", e.RoomID())
		return nil
	}
}
