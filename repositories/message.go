package repositories

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"group-chat/contract"
	"group-chat/domain"
	"group-chat/errors"
)

const (
	sequenceKey       = "seq:messages"
	sequenceBandwidth = 128
)

var _ contract.IMessageStore = (*MessageRepository)(nil)

// MessageRepository persists messages in BadgerDB.
// Keys are formatted as "msg:{room_hex}:{seq_padded}" to:
//  1. Ensure per-room ordering using 19-digit zero padding (lexicographical order).
//  2. Keep sequence numbers monotonic across restarts via a badger.Sequence,
//     so the (ID, CreatedAt) order assigned here is never reordered later.
//  3. Keep room prefixes disjoint: room names are arbitrary strings, so the
//     room is hex-encoded and can never contain the ":" delimiter. A room
//     named "g1:x" must not shadow the prefix of room "g1".
type MessageRepository struct {
	db            *badger.DB
	seq           *badger.Sequence
	log           *slog.Logger
	limitMessages *int
	appendTimeout time.Duration
}

func NewMessageRepository(db *badger.DB, log *slog.Logger,
	limitMessages *int, appendTimeout time.Duration) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, &errors.PersistenceError{Op: "sequence", Err: err}
	}
	return &MessageRepository{
		db:            db,
		seq:           seq,
		log:           log,
		limitMessages: limitMessages,
		appendTimeout: appendTimeout,
	}, nil
}

// Close releases the unused part of the sequence lease. The caller owns
// the badger.DB and closes it separately.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

type diskMessage struct {
	ID      uint64    `json:"id"`
	Room    string    `json:"roomId"`
	Author  string    `json:"senderId"`
	Content string    `json:"content"`
	At      time.Time `json:"timestamp"`
}

// Append assigns the identifier and timestamp and writes the record in a
// single transaction, bounded by the configured deadline so a storage
// stall cannot hold a room worker indefinitely. A non-error return
// means the message is durably recorded; callers never supply ID or
// timestamp themselves.
func (m *MessageRepository) Append(ctx context.Context, room domain.RoomID,
	senderID, content string) (domain.Message, error) {
	id, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, &errors.PersistenceError{Op: "sequence", Err: err}
	}

	msg := domain.Message{
		ID:        id,
		Room:      room,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(fromMessage(msg))
	if err != nil {
		return domain.Message{}, &errors.PersistenceError{Op: "encode", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, m.appendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(messageKey(room, id)), payload)
		})
	}()

	select {
	case err = <-done:
		if err != nil {
			return domain.Message{}, &errors.PersistenceError{Op: "append", Err: err}
		}
		return msg, nil
	case <-ctx.Done():
		// The write may still land; the caller must treat this as a failure.
		return domain.Message{}, &errors.PersistenceError{Op: "append", Err: ctx.Err()}
	}
}

// History retrieves the messages of a room in strictly ascending
// persisted order using a prefix scan. Thanks to the padded sequence in
// the key, iteration order equals commit order. The returned cursor
// resumes the scan after the last message; it is nil when the room has
// no further messages.
func (m *MessageRepository) History(query domain.HistoryQuery) ([]domain.Message, *string, error) {
	var raw [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := string(KeyPrefix(query.Room))
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if query.Cursor != nil {
			seekKey = append([]byte(prefixStr), []byte(*query.Cursor)...)
		}

		it.Seek(seekKey)

		// The cursor points at the last message already delivered.
		if query.Cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(raw) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, &errors.PersistenceError{Op: "history", Err: err}
	}

	var messages []domain.Message
	for _, b := range raw {
		var dm diskMessage
		if err = json.Unmarshal(b, &dm); err != nil {
			return nil, nil, &errors.PersistenceError{Op: "decode", Err: err}
		}
		messages = append(messages, toMessage(dm))
	}
	if len(messages) == 0 {
		return nil, nil, nil
	}
	return messages, &lastKey, nil
}

func messageKey(room domain.RoomID, id uint64) string {
	return fmt.Sprintf("msg:%s:%019d", encodeRoom(room), id)
}

// encodeRoom makes the room portion of a key delimiter-free.
func encodeRoom(room domain.RoomID) string {
	return hex.EncodeToString([]byte(room))
}

func fromMessage(msg domain.Message) diskMessage {
	return diskMessage{
		ID:      msg.ID,
		Room:    string(msg.Room),
		Author:  msg.SenderID,
		Content: msg.Content,
		At:      msg.CreatedAt,
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:        dm.ID,
		Room:      domain.RoomID(dm.Room),
		SenderID:  dm.Author,
		Content:   dm.Content,
		CreatedAt: dm.At,
	}
}

// DecodeStored decodes one stored value into a Message. Read-only
// tooling iterates the raw keyspace without holding a sequence lease,
// so the value format is exposed here.
func DecodeStored(value []byte) (domain.Message, error) {
	var dm diskMessage
	if err := json.Unmarshal(value, &dm); err != nil {
		return domain.Message{}, &errors.PersistenceError{Op: "decode", Err: err}
	}
	return toMessage(dm), nil
}

// KeyPrefix returns the keyspace prefix of a room's messages.
func KeyPrefix(room domain.RoomID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", encodeRoom(room)))
}
