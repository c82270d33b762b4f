// Viewer prints a room's persisted history as a table, straight from
// the store and in the exact order the room observed it. Read-only: it
// can run next to a live server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"group-chat/domain"
	"group-chat/repositories"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
}

func main() {
	room := flag.String("room", "", "room identifier to inspect")
	limit := flag.Int("limit", 50, "maximum number of messages to print")
	flag.Parse()

	if *room == "" {
		log.Fatal("missing -room flag")
	}

	// 1. Load config
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening while the server holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	messages, err := readRoom(db, domain.RoomID(*room), *limit)
	if err != nil {
		log.Fatalf("Failed to read room: %v", err)
	}

	color.Bold.Printf("Room %s: %d message(s)\n", *room, len(messages))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Sender", "Content", "At"})
	table.SetBorder(false)
	for _, msg := range messages {
		table.Append([]string{
			fmt.Sprintf("%d", msg.ID),
			msg.SenderID,
			msg.Content,
			msg.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}

func readRoom(db *badger.DB, room domain.RoomID, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := db.View(func(txn *badger.Txn) error {
		prefix := repositories.KeyPrefix(room)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				msg, err := repositories.DecodeStored(value)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}
