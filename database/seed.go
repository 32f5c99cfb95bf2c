package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Doxria/life-invader-frontend/models"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password"

// SessionTTL is how long a login session stays valid
const SessionTTL = 7 * 24 * time.Hour

// SeedAccount is a demo user with a ready-made session token.
type SeedAccount struct {
	Username string
	User     models.User
	Token    string
}

// SeedResult lists what Seed inserted.
type SeedResult struct {
	Accounts []SeedAccount
	Chats    []models.ChatSession
}

// Seed inserts three demo users, a direct chat, a group chat and a short
// history, and opens one session per user.
func (s *Store) Seed(ctx context.Context) (SeedResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: hash password: %w", err)
	}

	people := []struct{ username, first, last string }{
		{"ann", "Ann", "Lee"},
		{"ben", "Ben", "Ode"},
		{"cal", "Cal", "Ruiz"},
	}

	var res SeedResult
	for _, p := range people {
		u, err := s.CreateUser(ctx, p.username, p.first, p.last, string(hash))
		if err != nil {
			return SeedResult{}, fmt.Errorf("seed: %w", err)
		}
		token := uuid.NewString()
		if err := s.CreateSession(ctx, token, u.ID, time.Now().Add(SessionTTL)); err != nil {
			return SeedResult{}, fmt.Errorf("seed: %w", err)
		}
		res.Accounts = append(res.Accounts, SeedAccount{Username: p.username, User: u, Token: token})
	}
	ann, ben, cal := res.Accounts[0].User, res.Accounts[1].User, res.Accounts[2].User

	direct, err := s.CreateChat(ctx, "", false, ann.ID, ben.ID)
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: %w", err)
	}
	group, err := s.CreateChat(ctx, "", true, ann.ID, ben.ID, cal.ID)
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: %w", err)
	}
	res.Chats = []models.ChatSession{direct, group}

	history := []struct {
		chat    string
		sender  models.User
		content string
	}{
		{direct.ID, ann, "hey ben"},
		{direct.ID, ann, "are you around later?"},
		{direct.ID, ben, "yes, after six"},
		{group.ID, cal, "who is in for friday?"},
		{group.ID, ben, "me"},
		{group.ID, ann, "me too"},
	}
	for _, h := range history {
		if _, err := s.CreateMessage(ctx, h.chat, h.sender, h.content); err != nil {
			return SeedResult{}, fmt.Errorf("seed: %w", err)
		}
	}
	return res, nil
}
