package services

import (
	"context"

	"group-chat/contract"
	"group-chat/domain"
)

// IChatService is the single surface both transports talk to: the
// websocket path for join/send/disconnect and the companion HTTP path
// for history reads.
type IChatService interface {
	Join(id domain.ConnectionID, room domain.RoomID) error
	Send(ctx context.Context, cmd domain.SendMessageCommand) error
	Disconnect(id domain.ConnectionID)
	History(query domain.HistoryQuery) ([]domain.Message, *string, error)
}

type ChatService struct {
	dispatcher contract.IDispatcher
	store      contract.IMessageStore
}

func NewChatService(dispatcher contract.IDispatcher, store contract.IMessageStore) *ChatService {
	return &ChatService{dispatcher: dispatcher, store: store}
}

func (s *ChatService) Join(id domain.ConnectionID, room domain.RoomID) error {
	return s.dispatcher.HandleJoin(id, room)
}

func (s *ChatService) Send(ctx context.Context, cmd domain.SendMessageCommand) error {
	return s.dispatcher.HandleSend(ctx, cmd)
}

func (s *ChatService) Disconnect(id domain.ConnectionID) {
	s.dispatcher.HandleDisconnect(id)
}

// History reads from the same store the broadcast path appends to, so a
// reconnecting client sees exactly the order that was delivered live.
func (s *ChatService) History(query domain.HistoryQuery) ([]domain.Message, *string, error) {
	return s.store.History(query)
}
