package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"group-chat/domain"
	"group-chat/services"
	"group-chat/sink"
)

// Client drives one websocket connection: the read pump feeds inbound
// frames to the chat service in arrival order, the write pump drains
// the connection's sink into the socket. One goroutine each, so events
// from this connection are processed sequentially while other
// connections proceed in parallel.
type Client struct {
	id   domain.ConnectionID
	conn *websocket.Conn
	sink *sink.ConnSink
	chat services.IChatService
	log  *slog.Logger
	cfg  Config
}

func newClient(id domain.ConnectionID, conn *websocket.Conn, connSink *sink.ConnSink,
	chat services.IChatService, log *slog.Logger, cfg Config) *Client {
	return &Client{id: id, conn: conn, sink: connSink, chat: chat, log: log, cfg: cfg}
}

// readPump blocks until the peer disconnects or errors, then triggers
// the disconnect cleanup. It must run in the handler goroutine.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.chat.Disconnect(c.id)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "connection_id", c.id, "error", err)
			}
			return
		}
		c.handleFrame(ctx, raw)
	}
}

// handleFrame decodes and validates one inbound frame. Invalid frames
// are dropped here: logged, nothing surfaced to the peer.
func (c *Client) handleFrame(ctx context.Context, raw []byte) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		c.log.Warn("frame dropped", "connection_id", c.id, "error", err)
		return
	}

	switch env.Type {
	case TypeJoin:
		payload, err := DecodeJoin(env.Data)
		if err != nil {
			c.log.Warn("join dropped", "connection_id", c.id, "error", err)
			return
		}
		if err := c.chat.Join(c.id, domain.RoomID(payload.RoomID)); err != nil {
			c.log.Warn("join rejected", "connection_id", c.id, "error", err)
		}
	case TypeSend:
		payload, err := DecodeSend(env.Data)
		if err != nil {
			c.log.Warn("send dropped", "connection_id", c.id, "error", err)
			return
		}
		if err := c.chat.Send(ctx, toCommand(c.id, payload)); err != nil {
			c.log.Warn("send not accepted", "connection_id", c.id, "error", err)
		}
	default:
		c.log.Warn("unknown frame type", "connection_id", c.id, "type", env.Type)
	}
}

// writePump pushes fanned-out events and keepalive pings to the peer.
// It exits when the sink's owner context ends or a write fails; the
// read pump notices the broken socket and runs the cleanup.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case evt := <-c.sink.Events:
			frame, err := EncodeEvent(evt)
			if err != nil {
				c.log.Error("event not encodable", "connection_id", c.id, "error", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("websocket write failed", "connection_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
