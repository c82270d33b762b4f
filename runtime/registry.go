// Package runtime owns the live state of the realtime core: the
// connection table, room membership, and the dispatcher that ties them
// to the message store. It contains no domain rules of its own.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"group-chat/contract"
	"group-chat/domain"
	"group-chat/domain/event"
	"group-chat/errors"
)

var _ contract.IConnectionRegistry = (*Registry)(nil)

type session struct {
	sink   contract.EventSink
	userID string
}

// Registry tracks each live connection and the identity (if any) bound
// to it. It is the sole owner of connection lifetimes: transports
// register on upgrade and unregister on transport loss.
//
// Registry and RoomManager each hold their own mutex and are never
// locked together, so there is no lock ordering to maintain between them.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	sessions    map[domain.ConnectionID]*session
	sendTimeout time.Duration
}

func NewRegistry(log *slog.Logger, sendTimeout time.Duration) *Registry {
	return &Registry{
		log:         log,
		sessions:    make(map[domain.ConnectionID]*session),
		sendTimeout: sendTimeout,
	}
}

// Register adds a live connection and returns its identifier. The
// identifier is unique for the lifetime of the process; a reconnecting
// peer is always a brand-new connection.
func (r *Registry) Register(sink contract.EventSink) domain.ConnectionID {
	id := domain.ConnectionID(uuid.NewString())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &session{sink: sink}
	return id
}

// BindIdentity attaches a user identity to a connection, at most once.
// A second attempt keeps the original identity and fails with
// ErrAlreadyBound.
func (r *Registry) BindIdentity(id domain.ConnectionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errors.ErrConnectionUnknown
	}
	if s.userID != "" {
		return errors.ErrAlreadyBound
	}
	s.userID = userID
	return nil
}

// Identity returns the bound user identity of a connection, if any.
func (r *Registry) Identity(id domain.ConnectionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.userID == "" {
		return "", false
	}
	return s.userID, true
}

// Send delivers an event to the live transport if the connection is
// still registered. A peer may disconnect between membership lookup and
// delivery, so a missing connection is a no-op, not an error. A sink
// failure is confined to that one connection.
func (r *Registry) Send(ctx context.Context, id domain.ConnectionID, e event.DomainEvent) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()
	if err := s.sink.Consume(ctx, e); err != nil {
		r.log.Debug("event delivery dropped",
			"connection_id", id,
			"room_id", e.RoomID(),
			"error", err)
	}
}

// Unregister removes the connection. It is idempotent; the room cleanup
// is driven by the dispatcher, which calls RoomManager.LeaveAll first.
func (r *Registry) Unregister(id domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Count returns the number of live connections, for telemetry.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
