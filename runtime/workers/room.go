package workers

import (
	"context"
	"log/slog"

	"group-chat/contract"
	"group-chat/domain"
	"group-chat/domain/event"
)

var _ contract.Worker = (*RoomWorker)(nil)

// RoomWorker serializes every send for one room: append to the store,
// snapshot the membership, fan the stored record out. Because a single
// goroutine runs this loop, the order in which members observe
// deliveries always equals the store's commit order for the room, while
// other rooms proceed in parallel on their own workers.
type RoomWorker struct {
	room     domain.RoomID
	commands chan domain.SendMessageCommand
	store    contract.IMessageStore
	rooms    contract.IRoomManager
	registry contract.IConnectionRegistry
	log      *slog.Logger
}

func NewRoomWorker(
	room domain.RoomID,
	commands chan domain.SendMessageCommand,
	store contract.IMessageStore,
	rooms contract.IRoomManager,
	registry contract.IConnectionRegistry,
	log *slog.Logger) *RoomWorker {
	return &RoomWorker{
		room:     room,
		commands: commands,
		store:    store,
		rooms:    rooms,
		registry: registry,
		log:      log,
	}
}

func (w *RoomWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker", "room_id", w.room)
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed", "room_id", w.room)
				return nil
			}
			w.handle(ctx, cmd)
		}
	}
}

// handle persists one message and fans it out. A persistence failure is
// reported to the originating connection only and nothing is broadcast,
// so the room never observes a message the store did not accept.
func (w *RoomWorker) handle(ctx context.Context, cmd domain.SendMessageCommand) {
	msg, err := w.store.Append(ctx, w.room, cmd.SenderID, cmd.Content)
	if err != nil {
		w.log.Error("message append failed",
			"room_id", w.room,
			"sender_id", cmd.SenderID,
			"error", err)
		w.registry.Send(ctx, cmd.Origin, event.SendRejected{
			Room:   w.room,
			Reason: "message could not be stored",
		})
		return
	}

	evt := event.MessageStored{
		ID:       msg.ID,
		Room:     msg.Room,
		SenderID: msg.SenderID,
		Content:  msg.Content,
		At:       msg.CreatedAt,
	}

	// Each delivery is independent: a dead or slow member never blocks
	// the others, and the sender receives its own message like everyone.
	for _, member := range w.rooms.MembersOf(w.room) {
		w.registry.Send(ctx, member, evt)
	}
}
