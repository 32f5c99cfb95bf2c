package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Doxria/life-invader-frontend/database"
	"github.com/Doxria/life-invader-frontend/middleware"
	"github.com/Doxria/life-invader-frontend/models"
)

type signupRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=20"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Password  string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup handles user registration
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := models.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, "Username must be 3-20 characters, first name is required and password must be at least 6 characters")
		return
	}

	if _, err := s.DB.GetCredentials(r.Context(), req.Username); err == nil {
		http.Error(w, `{"error": "Username already taken"}`, http.StatusConflict)
		return
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, `{"error": "Server error"}`, http.StatusInternalServerError)
		return
	}

	user, err := s.DB.CreateUser(r.Context(), req.Username, req.FirstName, req.LastName, string(hashedPassword))
	if err != nil {
		s.Logger.Error("Could not create user", "username", req.Username, "error", err.Error())
		http.Error(w, `{"error": "Failed to create user"}`, http.StatusInternalServerError)
		return
	}

	if !s.startSession(w, r, user.ID) {
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// Login handles user authentication
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	creds, err := s.DB.GetCredentials(r.Context(), strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.Logger.Error("Could not load credentials", "error", err.Error())
		}
		http.Error(w, `{"error": "Invalid username or password"}`, http.StatusUnauthorized)
		return
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, `{"error": "Invalid username or password"}`, http.StatusUnauthorized)
		return
	}

	if !s.startSession(w, r, creds.User.ID) {
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"user":    creds.User,
	})
}

// Logout handles user logout
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	cookie, err := r.Cookie(middleware.SessionCookie)
	if err == nil {
		if err := s.DB.DeleteSession(r.Context(), cookie.Value); err != nil {
			s.Logger.Warn("Could not delete session", "error", err.Error())
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})

	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// Me returns the current authenticated user
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, `{"error": "Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	json.NewEncoder(w).Encode(user)
}

// startSession creates a session for userID and sets its cookie. It writes
// the error response itself and reports false on failure.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID string) bool {
	sessionID := uuid.NewString()
	expiresAt := time.Now().Add(database.SessionTTL)
	if err := s.DB.CreateSession(r.Context(), sessionID, userID, expiresAt); err != nil {
		s.Logger.Error("Could not create session", "user_id", userID, "error", err.Error())
		http.Error(w, `{"error": "Failed to create session"}`, http.StatusInternalServerError)
		return false
	}

	// Set cookie
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}
