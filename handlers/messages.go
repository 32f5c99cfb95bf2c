package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Doxria/life-invader-frontend/database"
	"github.com/Doxria/life-invader-frontend/middleware"
	"github.com/Doxria/life-invader-frontend/models"
)

type renameRequest struct {
	ChatName string `json:"chatName" validate:"required,max=100"`
}

// participantChat resolves {id} to a chat the current user belongs to. It
// writes the error response itself; non-members get the same 404 as a
// missing chat.
func (s *Server) participantChat(w http.ResponseWriter, r *http.Request) (*models.User, string, bool) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return nil, "", false
	}

	chatID := mux.Vars(r)["id"]
	ok, err := s.DB.IsParticipant(r.Context(), chatID, user.ID)
	if err != nil {
		s.Logger.Error("Could not check participant", "chat_id", chatID, "error", err.Error())
		http.Error(w, `{"error": "Failed to get chat"}`, http.StatusInternalServerError)
		return nil, "", false
	}
	if !ok {
		http.Error(w, `{"error": "Chat not found"}`, http.StatusNotFound)
		return nil, "", false
	}
	return user, chatID, true
}

// GetChat returns the metadata of one chat
func (s *Server) GetChat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	_, chatID, ok := s.participantChat(w, r)
	if !ok {
		return
	}

	chat, err := s.DB.GetChat(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, `{"error": "Chat not found"}`, http.StatusNotFound)
			return
		}
		s.Logger.Error("Could not get chat", "chat_id", chatID, "error", err.Error())
		http.Error(w, `{"error": "Failed to get chat"}`, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(models.ChatEnvelope{Chat: &chat})
}

// GetChatMessages returns the history of one chat in arrival order
func (s *Server) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	_, chatID, ok := s.participantChat(w, r)
	if !ok {
		return
	}

	messages, err := s.DB.GetChatMessages(r.Context(), chatID)
	if err != nil {
		s.Logger.Error("Could not get messages", "chat_id", chatID, "error", err.Error())
		http.Error(w, `{"error": "Failed to get messages"}`, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(messages)
}

// RenameChat sets the name of a group chat
func (s *Server) RenameChat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	_, chatID, ok := s.participantChat(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}
	req.ChatName = strings.TrimSpace(req.ChatName)
	if err := models.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.DB.RenameChat(r.Context(), chatID, req.ChatName); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, `{"error": "Only group chats can be renamed"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error": "Failed to rename chat"}`, http.StatusInternalServerError)
		return
	}

	chat, err := s.DB.GetChat(r.Context(), chatID)
	if err != nil {
		http.Error(w, `{"error": "Failed to get chat"}`, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(models.ChatEnvelope{Chat: &chat})
}

// CreateMessage stores a message and pushes it to the other members of the
// chat room
func (s *Server) CreateMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if err := models.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := s.DB.IsParticipant(r.Context(), req.ChatID, user.ID)
	if err != nil {
		http.Error(w, `{"error": "Failed to send message"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error": "Chat not found"}`, http.StatusNotFound)
		return
	}

	message, err := s.DB.CreateMessage(r.Context(), req.ChatID, *user, req.Content)
	if err != nil {
		s.Logger.Error("Could not create message", "chat_id", req.ChatID, "error", err.Error())
		http.Error(w, `{"error": "Failed to send message"}`, http.StatusInternalServerError)
		return
	}

	// Broadcast via WebSocket
	if frame, err := models.NewFrame(models.FrameMessage, message); err == nil {
		s.Hub.BroadcastToRoom(req.ChatID, user.ID, frame)
	}

	json.NewEncoder(w).Encode(message)
}
