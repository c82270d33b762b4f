package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"group-chat/auth"
	"group-chat/contract"
	"group-chat/services"
	"group-chat/sink"
)

// Config bounds one websocket connection.
type Config struct {
	MaxMessageSize       int64
	WriteWait            time.Duration
	PongWait             time.Duration
	PingPeriod           time.Duration
	ConnectionBufferSize int
	AllowedOrigins       []string
}

func DefaultConfig() Config {
	return Config{
		MaxMessageSize:       4096,
		WriteWait:            10 * time.Second,
		PongWait:             60 * time.Second,
		PingPeriod:           54 * time.Second,
		ConnectionBufferSize: 256,
	}
}

// Handler upgrades HTTP requests into realtime connections. A valid
// identity token on the URL binds the claimed user to the connection at
// upgrade time, once and for all; an invalid token is rejected before
// the upgrade.
type Handler struct {
	log      *slog.Logger
	chat     services.IChatService
	registry contract.IConnectionRegistry
	verifier *auth.Verifier
	cfg      Config
	upgrader websocket.Upgrader
}

func NewHandler(log *slog.Logger, chat services.IChatService,
	registry contract.IConnectionRegistry, verifier *auth.Verifier, cfg Config) *Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = struct{}{}
	}
	return &Handler{
		log:      log,
		chat:     chat,
		registry: registry,
		verifier: verifier,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// No configured origins means same-host tooling only.
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var userID string
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.verifier.Verify(token)
		if err != nil {
			h.log.Warn("connection refused", "reason", "invalid token", "remote", r.RemoteAddr)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID = claims.UserID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	connSink := sink.NewConnSink(h.log, h.cfg.ConnectionBufferSize)
	id := h.registry.Register(connSink)
	if userID != "" {
		if err := h.registry.BindIdentity(id, userID); err != nil {
			h.log.Warn("identity not bound", "connection_id", id, "error", err)
		}
	}

	h.log.Info("connection established",
		"connection_id", id,
		"identified", userID != "",
		"remote", r.RemoteAddr)

	client := newClient(id, conn, connSink, h.chat, h.log, h.cfg)
	go client.writePump(r.Context())
	client.readPump(r.Context())
}
