package sink

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"group-chat/domain/event"
)

func TestConnSink_Consume_Buffers_Events(t *testing.T) {
	req := require.New(t)
	s := NewConnSink(slog.Default(), 2)

	evt := event.MessageStored{ID: 1, Room: "g1", SenderID: "u1", Content: "hi"}
	req.NoError(s.Consume(context.Background(), evt))

	select {
	case got := <-s.Events:
		req.Equal(evt, got)
	default:
		req.Fail("expected a buffered event")
	}
}

func TestConnSink_Consume_Drops_When_Full(t *testing.T) {
	req := require.New(t)
	s := NewConnSink(slog.Default(), 1)

	req.NoError(s.Consume(context.Background(), event.MessageStored{ID: 1, Room: "g1"}))
	// The buffer is full; the slow consumer loses this event, the
	// caller is not blocked and sees no error.
	req.NoError(s.Consume(context.Background(), event.MessageStored{ID: 2, Room: "g1"}))

	got := <-s.Events
	req.Equal(uint64(1), got.(event.MessageStored).ID)
	req.Empty(s.Events)
}
