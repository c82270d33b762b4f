package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"group-chat/domain"
	"group-chat/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Append_Then_History_Ascending(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository, err := NewMessageRepository(db, slog.Default(), nil, time.Second)
	req.NoError(err)
	defer repository.Close()

	room := domain.RoomID("g1")
	contents := []string{"first", "second", "third"}

	var appended []domain.Message
	for _, content := range contents {
		msg, err := repository.Append(context.Background(), room, "u1", content)
		req.NoError(err)
		req.Equal(room, msg.Room)
		req.False(msg.CreatedAt.IsZero())
		appended = append(appended, msg)
	}

	// IDs are assigned by the store and strictly increasing
	req.Less(appended[0].ID, appended[1].ID)
	req.Less(appended[1].ID, appended[2].ID)

	fetched, cursor, err := repository.History(domain.HistoryQuery{Room: room})
	req.NoError(err)
	req.NotNil(cursor)
	req.Len(fetched, len(contents))
	for i, msg := range fetched {
		req.Equal(contents[i], msg.Content)
		req.Equal(appended[i].ID, msg.ID)
		req.Equal("u1", msg.SenderID)
		req.WithinDuration(appended[i].CreatedAt, msg.CreatedAt, time.Millisecond)
	}
}

func Test_History_Cursor_Pagination(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	limit := 2
	repository, err := NewMessageRepository(db, slog.Default(), &limit, time.Second)
	req.NoError(err)
	defer repository.Close()

	room := domain.RoomID("g1")
	contents := []string{"a", "b", "c", "d", "e"}
	for _, content := range contents {
		_, err := repository.Append(context.Background(), room, "u1", content)
		req.NoError(err)
	}

	// Walking the full history page by page yields the commit order
	var collected []string
	var cursor *string
	for {
		page, next, err := repository.History(domain.HistoryQuery{Room: room, Cursor: cursor})
		req.NoError(err)
		if len(page) == 0 {
			break
		}
		req.LessOrEqual(len(page), limit)
		for _, msg := range page {
			collected = append(collected, msg.Content)
		}
		cursor = next
	}
	req.Equal(contents, collected)
}

func Test_History_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository, err := NewMessageRepository(db, slog.Default(), nil, time.Second)
	req.NoError(err)
	defer repository.Close()

	_, err = repository.Append(context.Background(), "g1", "u1", "for g1")
	req.NoError(err)
	_, err = repository.Append(context.Background(), "g2", "u2", "for g2")
	req.NoError(err)

	fetched, _, err := repository.History(domain.HistoryQuery{Room: "g1"})
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for g1", fetched[0].Content)

	empty, cursor, err := repository.History(domain.HistoryQuery{Room: "nope"})
	req.NoError(err)
	req.Empty(empty)
	req.Nil(cursor)
}

func Test_History_Room_Names_Never_Share_A_Prefix(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository, err := NewMessageRepository(db, slog.Default(), nil, time.Second)
	req.NoError(err)
	defer repository.Close()

	// Room names are arbitrary strings; one containing the key
	// delimiter must not shadow another room's keyspace.
	_, err = repository.Append(context.Background(), "g1", "u1", "for g1")
	req.NoError(err)
	_, err = repository.Append(context.Background(), "g1:x", "u2", "for g1:x")
	req.NoError(err)

	fetched, _, err := repository.History(domain.HistoryQuery{Room: "g1"})
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal(domain.RoomID("g1"), fetched[0].Room)
	req.Equal("for g1", fetched[0].Content)

	fetched, _, err = repository.History(domain.HistoryQuery{Room: "g1:x"})
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal(domain.RoomID("g1:x"), fetched[0].Room)
	req.Equal("for g1:x", fetched[0].Content)
}

func Test_Append_Failure_Is_PersistenceError(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository, err := NewMessageRepository(db, slog.Default(), nil, time.Second)
	req.NoError(err)

	req.NoError(db.Close())

	_, err = repository.Append(context.Background(), "g1", "u1", "too late")
	req.Error(err)
	req.True(errors.IsPersistence(err))
}
