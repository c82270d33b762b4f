// Package ws exposes the realtime protocol over gorilla/websocket.
// Inbound frames are a small closed set of tagged variants validated at
// this boundary before anything reaches the dispatcher.
package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"group-chat/domain"
	"group-chat/domain/event"
)

const (
	// inbound
	TypeJoin = "join"
	TypeSend = "send"
	// outbound
	TypeReceiveMessage = "receiveMessage"
	TypeSendError      = "sendError"
)

var validate = validator.New()

// Envelope is the wire frame: a type tag and a type-specific payload.
type Envelope struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data" validate:"required"`
}

type JoinPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

type SendPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	SenderID string `json:"senderId" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

// MessagePayload mirrors the persisted message shape exactly; what a
// member receives live is what a history fetch returns later.
type MessagePayload struct {
	ID        uint64    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed frame: %w", err)
	}
	if err := validate.Struct(env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func DecodeJoin(data json.RawMessage) (JoinPayload, error) {
	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return JoinPayload{}, fmt.Errorf("malformed join payload: %w", err)
	}
	return payload, validate.Struct(payload)
}

func DecodeSend(data json.RawMessage) (SendPayload, error) {
	var payload SendPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return SendPayload{}, fmt.Errorf("malformed send payload: %w", err)
	}
	return payload, validate.Struct(payload)
}

// EncodeEvent turns a domain event into its outbound frame.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.MessageStored:
		return encode(TypeReceiveMessage, MessagePayload{
			ID:        evt.ID,
			RoomID:    string(evt.Room),
			SenderID:  evt.SenderID,
			Content:   evt.Content,
			Timestamp: evt.At,
		})
	case event.SendRejected:
		return encode(TypeSendError, ErrorPayload{
			RoomID: string(evt.Room),
			Reason: evt.Reason,
		})
	default:
		return nil, fmt.Errorf("no wire representation for event of room %s", e.RoomID())
	}
}

func encode(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}

func toCommand(origin domain.ConnectionID, payload SendPayload) domain.SendMessageCommand {
	return domain.SendMessageCommand{
		Room:       domain.RoomID(payload.RoomID),
		Origin:     origin,
		SenderID:   payload.SenderID,
		Content:    payload.Content,
		ReceivedAt: time.Now().UTC(),
	}
}
