package middleware

import (
	"context"
	"net/http"

	"github.com/Doxria/life-invader-frontend/database"
	"github.com/Doxria/life-invader-frontend/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// SessionCookie is the cookie carrying the session id
const SessionCookie = "session"

// Sessions resolves session cookies to users
type Sessions interface {
	GetSession(ctx context.Context, sessionID string) (database.Session, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// Auth middleware checks for valid session and adds user to context
func Auth(sessions Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := authenticate(r, sessions)
			if !ok {
				http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth tries to authenticate but doesn't fail if not authenticated
func OptionalAuth(sessions Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := authenticate(r, sessions); ok {
				r = r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func authenticate(r *http.Request, sessions Sessions) (*models.User, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}

	session, err := sessions.GetSession(r.Context(), cookie.Value)
	if err != nil {
		return nil, false
	}

	user, err := sessions.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		return nil, false
	}
	return &user, true
}
