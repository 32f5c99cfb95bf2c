// Package database is the sqlite store behind the development backend.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Doxria/life-invader-frontend/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Session is a login session keyed by the cookie value.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Credentials is a user together with the stored password hash.
type Credentials struct {
	User         models.User
	PasswordHash string
}

// Store wraps the sqlite connection pool.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and creates tables.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}

	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	tables := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		profile_pic TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		chat_name TEXT NOT NULL DEFAULT '',
		is_group_chat BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_users (
		chat_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (chat_id, user_id),
		FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		chat_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE,
		FOREIGN KEY (sender_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		posted_by TEXT NOT NULL,
		content TEXT NOT NULL,
		reply_to TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (posted_by) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (reply_to) REFERENCES posts(id) ON DELETE SET NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);
	CREATE INDEX IF NOT EXISTS idx_chat_users_user ON chat_users(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	`

	_, err := s.db.ExecContext(ctx, tables)
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// User queries

// CreateUser inserts a user with an already hashed password
func (s *Store) CreateUser(ctx context.Context, username, firstName, lastName, passwordHash string) (models.User, error) {
	u := models.User{ID: uuid.NewString(), FirstName: firstName, LastName: lastName}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, first_name, last_name, password, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, username, firstName, lastName, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		return models.User{}, fmt.Errorf("create user %s: %w", username, err)
	}
	return u, nil
}

// GetUserByID retrieves a user by their ID
func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, profile_pic FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.ProfilePic)
	if err != nil {
		return models.User{}, fmt.Errorf("get user %s: %w", id, notFound(err))
	}
	return u, nil
}

// GetCredentials retrieves a user and password hash by username
func (s *Store) GetCredentials(ctx context.Context, username string) (Credentials, error) {
	var c Credentials
	err := s.db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, profile_pic, password FROM users WHERE username = ?",
		username,
	).Scan(&c.User.ID, &c.User.FirstName, &c.User.LastName, &c.User.ProfilePic, &c.PasswordHash)
	if err != nil {
		return Credentials{}, fmt.Errorf("get credentials %s: %w", username, notFound(err))
	}
	return c, nil
}

// Session queries

// CreateSession creates a new session for a user
func (s *Store) CreateSession(ctx context.Context, sessionID, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		sessionID, userID, time.Now().UTC(), expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves an unexpired session by its ID
func (s *Store) GetSession(ctx context.Context, sessionID string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ? AND expires_at > ?",
		sessionID, time.Now().UTC(),
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", notFound(err))
	}
	return sess, nil
}

// DeleteSession removes a session
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	return err
}

// Chat queries

// CreateChat creates a chat with the given participants in order.
func (s *Store) CreateChat(ctx context.Context, chatName string, isGroupChat bool, userIDs ...string) (models.ChatSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ChatSession{}, fmt.Errorf("create chat: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO chats (id, chat_name, is_group_chat, created_at) VALUES (?, ?, ?, ?)",
		id, chatName, isGroupChat, time.Now().UTC(),
	); err != nil {
		return models.ChatSession{}, fmt.Errorf("create chat: %w", err)
	}
	for i, uid := range userIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chat_users (chat_id, user_id, position) VALUES (?, ?, ?)",
			id, uid, i,
		); err != nil {
			return models.ChatSession{}, fmt.Errorf("create chat: add user %s: %w", uid, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.ChatSession{}, fmt.Errorf("create chat: %w", err)
	}
	return s.GetChat(ctx, id)
}

// GetChat retrieves a chat with its participants
func (s *Store) GetChat(ctx context.Context, chatID string) (models.ChatSession, error) {
	var c models.ChatSession
	err := s.db.QueryRowContext(ctx,
		"SELECT id, chat_name, is_group_chat FROM chats WHERE id = ?",
		chatID,
	).Scan(&c.ID, &c.ChatName, &c.IsGroupChat)
	if err != nil {
		return models.ChatSession{}, fmt.Errorf("get chat %s: %w", chatID, notFound(err))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.first_name, u.last_name, u.profile_pic
		FROM chat_users cu
		JOIN users u ON cu.user_id = u.id
		WHERE cu.chat_id = ?
		ORDER BY cu.position`,
		chatID,
	)
	if err != nil {
		return models.ChatSession{}, fmt.Errorf("get chat %s users: %w", chatID, err)
	}
	defer rows.Close()

	c.Users = []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.ProfilePic); err != nil {
			return models.ChatSession{}, fmt.Errorf("get chat %s users: %w", chatID, err)
		}
		c.Users = append(c.Users, u)
	}
	return c, rows.Err()
}

// IsParticipant reports whether userID belongs to chatID
func (s *Store) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chat_users WHERE chat_id = ? AND user_id = ?",
		chatID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("is participant %s: %w", chatID, err)
	}
	return n > 0, nil
}

// RenameChat sets the name of a group chat
func (s *Store) RenameChat(ctx context.Context, chatID, chatName string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE chats SET chat_name = ? WHERE id = ? AND is_group_chat = 1",
		strings.TrimSpace(chatName), chatID,
	)
	if err != nil {
		return fmt.Errorf("rename chat %s: %w", chatID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rename chat %s: %w", chatID, ErrNotFound)
	}
	return nil
}

// Message queries

// CreateMessage stores a message from sender in chatID
func (s *Store) CreateMessage(ctx context.Context, chatID string, sender models.User, content string) (models.Message, error) {
	msg := models.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		ChatID:    chatID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, chat_id, sender_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, chatID, sender.ID, content, msg.CreatedAt,
	)
	if err != nil {
		return models.Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// GetChatMessages retrieves the history of a chat in insertion order
func (s *Store) GetChatMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.content, m.chat_id, m.created_at,
		        u.id, u.first_name, u.last_name, u.profile_pic
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.chat_id = ?
		ORDER BY m.rowid`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("get messages %s: %w", chatID, err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID, &m.Content, &m.ChatID, &m.CreatedAt,
			&m.Sender.ID, &m.Sender.FirstName, &m.Sender.LastName, &m.Sender.ProfilePic,
		); err != nil {
			return nil, fmt.Errorf("get messages %s: %w", chatID, err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Post queries

// CreatePost stores a post, or a reply when replyTo is set
func (s *Store) CreatePost(ctx context.Context, postedBy models.User, content, replyTo string) (models.Post, error) {
	if replyTo != "" {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE id = ?", replyTo).Scan(&n); err != nil {
			return models.Post{}, fmt.Errorf("create post: %w", err)
		}
		if n == 0 {
			return models.Post{}, fmt.Errorf("create post: reply to %s: %w", replyTo, ErrNotFound)
		}
	}

	post := models.Post{
		ID:        uuid.NewString(),
		PostedBy:  postedBy,
		Content:   content,
		ReplyTo:   replyTo,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (id, posted_by, content, reply_to, created_at) VALUES (?, ?, ?, ?, ?)",
		post.ID, postedBy.ID, content, sql.NullString{String: replyTo, Valid: replyTo != ""}, post.CreatedAt,
	)
	if err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}
