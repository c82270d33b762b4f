// Package domain contains core concepts of the group chat system.
// This file defines Message records and the identifier types shared
// by the registry, room and storage layers.
package domain

import (
	"time"
)

// RoomID identifies the live fan-out scope of one persisted group.
type RoomID string

// ConnectionID identifies one live transport session for its lifetime.
// A reconnecting client always gets a brand-new ConnectionID.
type ConnectionID string

// Message represents an immutable chat record.
// ID and CreatedAt are assigned by the store at append time; within a
// room their order is the single source of truth for delivery order.
type Message struct {
	ID        uint64
	Room      RoomID
	SenderID  string
	Content   string
	CreatedAt time.Time
}
