// Package projection builds local timelines from observed events.
// It does not emit events and has no transport of its own; the server
// tests and tooling use it to assert what a connection actually saw.
package projection

import (
	"context"
	"sync"

	"group-chat/contract"
	"group-chat/domain"
	"group-chat/domain/event"
)

var _ contract.EventSink = (*Timeline)(nil)

// Timeline records delivered messages per room, in delivery order.
type Timeline struct {
	mu       sync.RWMutex
	messages map[domain.RoomID][]domain.Message
	rejected []event.SendRejected
}

func NewTimeline() *Timeline {
	return &Timeline{messages: make(map[domain.RoomID][]domain.Message)}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch evt := e.(type) {
	case event.MessageStored:
		t.messages[evt.Room] = append(t.messages[evt.Room], fromEvent(evt))
	case event.SendRejected:
		t.rejected = append(t.rejected, evt)
	}
	return nil
}

// Messages returns the deliveries observed for a room, oldest first.
func (t *Timeline) Messages(room domain.RoomID) []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.Message(nil), t.messages[room]...)
}

// Rejected returns the send failures observed by this consumer.
func (t *Timeline) Rejected() []event.SendRejected {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]event.SendRejected(nil), t.rejected...)
}

func fromEvent(evt event.MessageStored) domain.Message {
	return domain.Message{
		ID:        evt.ID,
		Room:      evt.Room,
		SenderID:  evt.SenderID,
		Content:   evt.Content,
		CreatedAt: evt.At,
	}
}
