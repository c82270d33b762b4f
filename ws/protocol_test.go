package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"group-chat/domain/event"
)

func TestDecodeEnvelope(t *testing.T) {
	req := require.New(t)

	// Given a well-formed frame
	env, err := DecodeEnvelope([]byte(`{"type":"send","data":{"roomId":"g1"}}`))
	req.NoError(err)
	req.Equal(TypeSend, env.Type)

	// A frame without a type tag is rejected
	_, err = DecodeEnvelope([]byte(`{"data":{"roomId":"g1"}}`))
	req.Error(err)

	// Truncated JSON is rejected
	_, err = DecodeEnvelope([]byte(`{"type":"send"`))
	req.Error(err)
}

func TestDecodeJoin_Requires_Room(t *testing.T) {
	req := require.New(t)

	payload, err := DecodeJoin(json.RawMessage(`{"roomId":"g1"}`))
	req.NoError(err)
	req.Equal("g1", payload.RoomID)

	_, err = DecodeJoin(json.RawMessage(`{}`))
	req.Error(err)
}

func TestDecodeSend_Requires_All_Fields(t *testing.T) {
	req := require.New(t)

	payload, err := DecodeSend(json.RawMessage(`{"roomId":"g1","senderId":"u1","content":"hi"}`))
	req.NoError(err)
	req.Equal("hi", payload.Content)

	for _, raw := range []string{
		`{"senderId":"u1","content":"hi"}`,
		`{"roomId":"g1","content":"hi"}`,
		`{"roomId":"g1","senderId":"u1"}`,
		`{"roomId":"g1","senderId":"u1","content":""}`,
	} {
		_, err = DecodeSend(json.RawMessage(raw))
		req.Error(err, raw)
	}
}

func TestEncodeEvent_MessageStored(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	raw, err := EncodeEvent(event.MessageStored{
		ID:       42,
		Room:     "g1",
		SenderID: "u1",
		Content:  "hi",
		At:       at,
	})
	req.NoError(err)

	env, err := DecodeEnvelope(raw)
	req.NoError(err)
	req.Equal(TypeReceiveMessage, env.Type)

	var msg MessagePayload
	req.NoError(json.Unmarshal(env.Data, &msg))
	req.Equal(uint64(42), msg.ID)
	req.Equal("g1", msg.RoomID)
	req.Equal("u1", msg.SenderID)
	req.Equal("hi", msg.Content)
	req.True(msg.Timestamp.Equal(at))
}

func TestEncodeEvent_SendRejected(t *testing.T) {
	req := require.New(t)

	raw, err := EncodeEvent(event.SendRejected{Room: "g1", Reason: "message could not be stored"})
	req.NoError(err)

	env, err := DecodeEnvelope(raw)
	req.NoError(err)
	req.Equal(TypeSendError, env.Type)

	var payload ErrorPayload
	req.NoError(json.Unmarshal(env.Data, &payload))
	req.Equal("g1", payload.RoomID)
	req.Equal("message could not be stored", payload.Reason)
}
