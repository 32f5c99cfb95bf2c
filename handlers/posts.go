package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Doxria/life-invader-frontend/database"
	"github.com/Doxria/life-invader-frontend/middleware"
	"github.com/Doxria/life-invader-frontend/models"
)

// CreatePost publishes a post or a reply
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if err := models.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := s.DB.CreatePost(r.Context(), *user, req.Content, req.ReplyTo)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, `{"error": "Post to reply to not found"}`, http.StatusNotFound)
			return
		}
		s.Logger.Error("Could not create post", "error", err.Error())
		http.Error(w, `{"error": "Failed to create post"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(post)
}
