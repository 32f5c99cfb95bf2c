// Package handlers is the HTTP and websocket surface of the development
// backend.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Doxria/life-invader-frontend/database"
	"github.com/Doxria/life-invader-frontend/middleware"
)

// Server holds the dependencies of the REST handlers.
type Server struct {
	DB     *database.Store
	Hub    *Hub
	Logger *slog.Logger
}

// NewServer wires db and hub together; only chat participants may join a
// chat room.
func NewServer(db *database.Store, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	hub.CanJoin = func(ctx context.Context, chatID, userID string) bool {
		ok, err := db.IsParticipant(ctx, chatID, userID)
		if err != nil {
			logger.Error("Could not check participant", "chat_id", chatID, "error", err.Error())
		}
		return ok
	}
	return &Server{DB: db, Hub: hub, Logger: logger}
}

// Router returns the routes of the backend.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging(s.Logger))

	r.HandleFunc("/api/signup", s.Signup).Methods("POST")
	r.HandleFunc("/api/login", s.Login).Methods("POST")
	r.HandleFunc("/api/logout", s.Logout).Methods("POST")

	auth := middleware.Auth(s.DB)
	r.Handle("/ws", auth(http.HandlerFunc(s.Hub.HandleWebSocket)))

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth)
	api.HandleFunc("/me", s.Me).Methods("GET")
	api.HandleFunc("/chats/{id}", s.GetChat).Methods("GET")
	api.HandleFunc("/chats/{id}/messages", s.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{id}/rename", s.RenameChat).Methods("PUT")
	api.HandleFunc("/messages", s.CreateMessage).Methods("POST")
	api.HandleFunc("/posts", s.CreatePost).Methods("POST")

	return r
}

// writeError writes {"error": msg} with status code.
func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
