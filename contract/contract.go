package contract

import (
	"context"
	"reflect"

	"group-chat/domain"
	"group-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
	Wait()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives outbound events for one consumer. Implementations
// must tolerate being called after their consumer is gone.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IConnectionRegistry owns the table of live connections and their
// optional bound identity.
type IConnectionRegistry interface {
	Register(sink EventSink) domain.ConnectionID
	BindIdentity(id domain.ConnectionID, userID string) error
	Identity(id domain.ConnectionID) (string, bool)
	Send(ctx context.Context, id domain.ConnectionID, e event.DomainEvent)
	Unregister(id domain.ConnectionID)
	Count() int
}

// IRoomManager owns the ephemeral room membership sets. Membership is
// in-memory only and independent of persisted participant records.
// LeaveAll returns the rooms that lost their last member.
type IRoomManager interface {
	Join(room domain.RoomID, id domain.ConnectionID)
	Leave(room domain.RoomID, id domain.ConnectionID)
	LeaveAll(id domain.ConnectionID) []domain.RoomID
	MembersOf(room domain.RoomID) []domain.ConnectionID
	Count() int
}

// IMessageStore is the durable, ordered append/read log of messages.
// A non-error Append return means the message is durably recorded.
type IMessageStore interface {
	Append(ctx context.Context, room domain.RoomID, senderID, content string) (domain.Message, error)
	History(query domain.HistoryQuery) ([]domain.Message, *string, error)
}

// IDispatcher accepts inbound requests from a live connection.
type IDispatcher interface {
	HandleJoin(id domain.ConnectionID, room domain.RoomID) error
	HandleSend(ctx context.Context, cmd domain.SendMessageCommand) error
	HandleDisconnect(id domain.ConnectionID)
}
