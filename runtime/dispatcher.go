package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"group-chat/contract"
	"group-chat/domain"
	"group-chat/errors"
	"group-chat/runtime/workers"
)

var _ contract.IDispatcher = (*Dispatcher)(nil)

// Dispatcher is the orchestrator of the realtime core. It validates
// inbound join/send requests, routes sends to the owning room worker,
// and drives disconnect cleanup. Every collaborator is injected; there
// is no process-wide handle.
type Dispatcher struct {
	mu         sync.Mutex
	log        *slog.Logger
	registry   contract.IConnectionRegistry
	rooms      contract.IRoomManager
	store      contract.IMessageStore
	supervisor contract.ISupervisor
	roomLines  map[domain.RoomID]roomLine
	bufferSize int
	ctx        context.Context
}

// roomLine is one room's command channel and the cancel releasing its
// worker when the room is retired.
type roomLine struct {
	commands chan domain.SendMessageCommand
	cancel   context.CancelFunc
}

func NewDispatcher(log *slog.Logger,
	registry contract.IConnectionRegistry,
	rooms contract.IRoomManager,
	store contract.IMessageStore,
	supervisor contract.ISupervisor,
	bufferSize int) *Dispatcher {
	return &Dispatcher{
		log:        log,
		registry:   registry,
		rooms:      rooms,
		store:      store,
		supervisor: supervisor,
		roomLines:  make(map[domain.RoomID]roomLine),
		bufferSize: bufferSize,
	}
}

// Start fixes the context under which room workers are supervised.
// Cancelling it stops every worker; no new requests are processed after
// that.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx = ctx
}

// HandleJoin adds the connection to the room's membership. No
// persistence, no broadcast, no acknowledgment beyond the nil return.
// The persisted participant table is deliberately not consulted here;
// the registry exposes the bound identity should an authorization hook
// be added in front of this call.
func (d *Dispatcher) HandleJoin(id domain.ConnectionID, room domain.RoomID) error {
	if strings.TrimSpace(string(room)) == "" {
		d.log.Warn("join dropped", "connection_id", id, "reason", "empty room")
		return errors.ValidationError{Field: "roomId"}
	}
	d.rooms.Join(room, id)
	d.log.Debug("connection joined room", "connection_id", id, "room_id", room)
	return nil
}

// HandleSend validates the command and hands it to the room's worker.
// An invalid request is dropped here: logged, never persisted, never
// broadcast, and nothing is surfaced to the sender. The returned
// ValidationError is for the caller's bookkeeping only.
func (d *Dispatcher) HandleSend(ctx context.Context, cmd domain.SendMessageCommand) error {
	if err := validateSend(cmd); err != nil {
		d.log.Warn("send dropped",
			"connection_id", cmd.Origin,
			"room_id", cmd.Room,
			"error", err)
		return err
	}

	ch, err := d.roomChannel(cmd.Room)
	if err != nil {
		return err
	}
	select {
	case ch <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleDisconnect removes the connection from every room, then from
// the registry. Deliveries already in flight to it are dropped by the
// registry's no-op send semantics. Rooms left without any member have
// their worker retired so distinct room names do not accumulate
// goroutines for the process lifetime.
func (d *Dispatcher) HandleDisconnect(id domain.ConnectionID) {
	emptied := d.rooms.LeaveAll(id)
	d.registry.Unregister(id)
	d.retire(emptied)
	d.log.Debug("connection closed", "connection_id", id)
}

// retire releases the workers of rooms that just lost their last
// member. A room joined again between cleanup and retirement is kept;
// a retired room gets a fresh worker on its next send.
func (d *Dispatcher) retire(rooms []domain.RoomID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, room := range rooms {
		line, ok := d.roomLines[room]
		if !ok {
			continue
		}
		if len(d.rooms.MembersOf(room)) > 0 {
			continue
		}
		line.cancel()
		delete(d.roomLines, room)
		d.log.Debug("room worker retired", "room_id", room)
	}
}

func validateSend(cmd domain.SendMessageCommand) error {
	switch {
	case strings.TrimSpace(string(cmd.Room)) == "":
		return errors.ValidationError{Field: "roomId"}
	case strings.TrimSpace(cmd.SenderID) == "":
		return errors.ValidationError{Field: "senderId"}
	case strings.TrimSpace(cmd.Content) == "":
		return errors.ValidationError{Field: "content"}
	}
	return nil
}

// roomChannel returns the command channel of a room, creating the room
// worker on first use. The worker keeps the channel across supervisor
// restarts, so queued commands survive a panic of the loop.
func (d *Dispatcher) roomChannel(room domain.RoomID) (chan domain.SendMessageCommand, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if line, ok := d.roomLines[room]; ok {
		return line.commands, nil
	}
	if d.ctx == nil {
		return nil, errors.ErrDispatcherStopped
	}

	ch := make(chan domain.SendMessageCommand, d.bufferSize)
	roomCtx, cancel := context.WithCancel(d.ctx)
	d.roomLines[room] = roomLine{commands: ch, cancel: cancel}
	worker := workers.NewRoomWorker(room, ch, d.store, d.rooms, d.registry, d.log)
	d.supervisor.Start(roomCtx, worker)
	d.log.Debug("room worker started", "room_id", room)
	return ch, nil
}

// activeRooms reports how many room workers are currently alive.
func (d *Dispatcher) activeRooms() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.roomLines)
}
