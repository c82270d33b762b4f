package runtime

import (
	"sync"

	"group-chat/contract"
	"group-chat/domain"
)

type Set map[domain.ConnectionID]struct{}

var _ contract.IRoomManager = (*RoomManager)(nil)

// RoomManager tracks which live connections are joined to which room.
// A room has no state of its own: it exists while at least one
// connection is joined. Membership is kept as two index maps
// (room to connection-set and connection to room-set) updated in sync
// under one mutex, so disconnect cleanup never has to scan every room.
//
// Membership is purely in-memory: a user with a persisted participant
// row who is not currently connected is simply absent here.
type RoomManager struct {
	mu      sync.RWMutex
	members map[domain.RoomID]Set
	joined  map[domain.ConnectionID]map[domain.RoomID]struct{}
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		members: make(map[domain.RoomID]Set),
		joined:  make(map[domain.ConnectionID]map[domain.RoomID]struct{}),
	}
}

// Join adds a connection to a room. Joining twice is a no-op.
func (m *RoomManager) Join(room domain.RoomID, id domain.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.members[room]; !ok {
		m.members[room] = make(Set)
	}
	m.members[room][id] = struct{}{}

	if _, ok := m.joined[id]; !ok {
		m.joined[id] = make(map[domain.RoomID]struct{})
	}
	m.joined[id][room] = struct{}{}
}

// Leave removes a connection from one room. Empty sets are deleted so
// abandoned rooms do not accumulate over time.
func (m *RoomManager) Leave(room domain.RoomID, id domain.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(room, id)
}

// LeaveAll removes a connection from every room it had joined and
// returns the rooms left without any member. Called on disconnect,
// before the registry forgets the connection; the dispatcher uses the
// returned rooms to retire their workers.
func (m *RoomManager) LeaveAll(id domain.ConnectionID) []domain.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var emptied []domain.RoomID
	for room := range m.joined[id] {
		if m.remove(room, id) {
			emptied = append(emptied, room)
		}
	}
	return emptied
}

// remove must be called with the mutex held. It reports whether the
// room lost its last member.
func (m *RoomManager) remove(room domain.RoomID, id domain.ConnectionID) bool {
	emptied := false
	if members, ok := m.members[room]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(m.members, room)
			emptied = true
		}
	}
	if rooms, ok := m.joined[id]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(m.joined, id)
		}
	}
	return emptied
}

// MembersOf returns a snapshot of the room's membership at call time.
// The caller may iterate it freely while memberships keep changing.
func (m *RoomManager) MembersOf(room domain.RoomID) []domain.ConnectionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members, ok := m.members[room]
	if !ok {
		return nil
	}
	snapshot := make([]domain.ConnectionID, 0, len(members))
	for id := range members {
		snapshot = append(snapshot, id)
	}
	return snapshot
}

// Count returns the number of rooms with at least one member, for telemetry.
func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.members)
}
