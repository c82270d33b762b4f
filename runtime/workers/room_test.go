package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"group-chat/contract"
	"group-chat/domain"
	"group-chat/domain/event"
	"group-chat/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	seq  uint64
	fail bool
}

func (s *fakeStore) Append(_ context.Context, room domain.RoomID, senderID, content string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return domain.Message{}, &errors.PersistenceError{Op: "append", Err: fmt.Errorf("refused")}
	}
	s.seq++
	return domain.Message{
		ID:        s.seq,
		Room:      room,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *fakeStore) History(domain.HistoryQuery) ([]domain.Message, *string, error) {
	return nil, nil, nil
}

type fakeRooms struct {
	members []domain.ConnectionID
}

func (r *fakeRooms) Join(domain.RoomID, domain.ConnectionID)      {}
func (r *fakeRooms) Leave(domain.RoomID, domain.ConnectionID)     {}
func (r *fakeRooms) LeaveAll(domain.ConnectionID) []domain.RoomID { return nil }
func (r *fakeRooms) Count() int                                   { return 0 }
func (r *fakeRooms) MembersOf(domain.RoomID) []domain.ConnectionID {
	return append([]domain.ConnectionID(nil), r.members...)
}

type delivery struct {
	to  domain.ConnectionID
	evt event.DomainEvent
}

type fakeRegistry struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (r *fakeRegistry) Register(contract.EventSink) domain.ConnectionID { return "" }

func (r *fakeRegistry) BindIdentity(domain.ConnectionID, string) error  { return nil }
func (r *fakeRegistry) Identity(domain.ConnectionID) (string, bool)     { return "", false }
func (r *fakeRegistry) Unregister(domain.ConnectionID)                  {}
func (r *fakeRegistry) Count() int                                      { return 0 }

func (r *fakeRegistry) Send(_ context.Context, id domain.ConnectionID, e event.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{to: id, evt: e})
}

func (r *fakeRegistry) sent() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}

func TestRoomWorker_Fans_Out_Stored_Message_To_All_Members(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	rooms := &fakeRooms{members: []domain.ConnectionID{"a", "b"}}
	registry := &fakeRegistry{}
	commands := make(chan domain.SendMessageCommand, 1)
	worker := NewRoomWorker("g1", commands, store, rooms, registry, slog.Default())

	commands <- domain.SendMessageCommand{Room: "g1", Origin: "a", SenderID: "u1", Content: "hi"}
	close(commands)

	// Closed channel drains the queue then terminates the loop
	req.NoError(worker.Run(context.Background()))

	sent := registry.sent()
	req.Len(sent, 2)
	req.Equal(domain.ConnectionID("a"), sent[0].to)
	req.Equal(domain.ConnectionID("b"), sent[1].to)
	for _, d := range sent {
		msg, ok := d.evt.(event.MessageStored)
		req.True(ok)
		req.Equal("hi", msg.Content)
		req.Equal(uint64(1), msg.ID)
	}
}

func TestRoomWorker_Append_Failure_Rejects_Origin_Only(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{fail: true}
	rooms := &fakeRooms{members: []domain.ConnectionID{"a", "b"}}
	registry := &fakeRegistry{}
	commands := make(chan domain.SendMessageCommand, 1)
	worker := NewRoomWorker("g1", commands, store, rooms, registry, slog.Default())

	commands <- domain.SendMessageCommand{Room: "g1", Origin: "a", SenderID: "u1", Content: "doomed"}
	close(commands)

	req.NoError(worker.Run(context.Background()))

	// Only the origin hears about it, and not as a stored message
	sent := registry.sent()
	req.Len(sent, 1)
	req.Equal(domain.ConnectionID("a"), sent[0].to)
	_, rejected := sent[0].evt.(event.SendRejected)
	req.True(rejected)
}

func TestRoomWorker_Stops_On_Context_Cancel(t *testing.T) {
	req := require.New(t)
	commands := make(chan domain.SendMessageCommand)
	worker := NewRoomWorker("g1", commands, &fakeStore{}, &fakeRooms{}, &fakeRegistry{}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req.ErrorIs(worker.Run(ctx), context.Canceled)
}
