// Package api exposes the companion request/response path: history
// reads for reconnecting clients and a liveness probe. It reads from
// the same message store the broadcast path appends to.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"group-chat/domain"
	"group-chat/services"
	"group-chat/ws"
)

type Server struct {
	log  *slog.Logger
	chat services.IChatService
}

func NewServer(log *slog.Logger, chat services.IChatService) *Server {
	return &Server{log: log, chat: chat}
}

// Routes registers the non-realtime endpoints on the given mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /messages", s.fetchMessages)
	mux.HandleFunc("GET /health", s.health)
}

type messagesResponse struct {
	Success  bool                `json:"success"`
	Messages []ws.MessagePayload `json:"messages"`
	Cursor   *string             `json:"cursor,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// fetchMessages returns a room's history oldest first, with an opaque
// cursor to resume. The order is exactly what was broadcast live.
func (s *Server) fetchMessages(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "roomId is required"})
		return
	}

	query := domain.HistoryQuery{Room: domain.RoomID(roomID)}
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		query.Cursor = &cursor
	}

	messages, next, err := s.chat.History(query)
	if err != nil {
		s.log.Error("history fetch failed", "room_id", roomID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "failed to fetch messages"})
		return
	}

	writeJSON(w, http.StatusOK, messagesResponse{
		Success:  true,
		Messages: lo.Map(messages, func(msg domain.Message, _ int) ws.MessagePayload {
			return ws.MessagePayload{
				ID:        msg.ID,
				RoomID:    string(msg.Room),
				SenderID:  msg.SenderID,
				Content:   msg.Content,
				Timestamp: msg.CreatedAt,
			}
		}),
		Cursor: next,
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   "group-chat",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
