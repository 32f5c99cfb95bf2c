package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_UsersAndSessions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	u, err := s.CreateUser(ctx, "ann", "Ann", "Lee", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	creds, err := s.GetCredentials(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "hash", creds.PasswordHash)
	assert.Equal(t, u.ID, creds.User.ID)

	_, err = s.CreateUser(ctx, "ann", "Other", "Ann", "hash")
	assert.Error(t, err, "duplicate username")

	_, err = s.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.CreateSession(ctx, "live", u.ID, time.Now().Add(time.Hour)))
	require.NoError(t, s.CreateSession(ctx, "stale", u.ID, time.Now().Add(-time.Hour)))

	sess, err := s.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.UserID)

	_, err = s.GetSession(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteSession(ctx, "live"))
	_, err = s.GetSession(ctx, "live")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ChatsAndMessages(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ann, err := s.CreateUser(ctx, "ann", "Ann", "Lee", "x")
	require.NoError(t, err)
	ben, err := s.CreateUser(ctx, "ben", "Ben", "Ode", "x")
	require.NoError(t, err)
	cal, err := s.CreateUser(ctx, "cal", "Cal", "Ruiz", "x")
	require.NoError(t, err)

	chat, err := s.CreateChat(ctx, "", true, ben.ID, ann.ID)
	require.NoError(t, err)
	assert.True(t, chat.IsGroupChat)
	require.Len(t, chat.Users, 2)
	assert.Equal(t, ben.ID, chat.Users[0].ID, "participants keep insertion order")

	ok, err := s.IsParticipant(ctx, chat.ID, ann.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsParticipant(ctx, chat.ID, cal.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	empty, err := s.GetChatMessages(ctx, chat.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, c := range []string{"one", "two", "three"} {
		_, err := s.CreateMessage(ctx, chat.ID, ann, c)
		require.NoError(t, err)
	}
	msgs, err := s.GetChatMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)
	assert.Equal(t, "Ann", msgs[0].Sender.FirstName)
	assert.Equal(t, chat.ID, msgs[0].ChatID)

	require.NoError(t, s.RenameChat(ctx, chat.ID, "  Crew "))
	renamed, err := s.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crew", renamed.ChatName)

	direct, err := s.CreateChat(ctx, "", false, ann.ID, cal.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, s.RenameChat(ctx, direct.ID, "nope"), ErrNotFound)

	_, err = s.GetChat(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Posts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ann, err := s.CreateUser(ctx, "ann", "Ann", "Lee", "x")
	require.NoError(t, err)

	post, err := s.CreatePost(ctx, ann, "hello feed", "")
	require.NoError(t, err)
	assert.Empty(t, post.ReplyTo)

	reply, err := s.CreatePost(ctx, ann, "replying", post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, reply.ReplyTo)

	_, err = s.CreatePost(ctx, ann, "orphan", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Seed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	res, err := s.Seed(ctx)
	require.NoError(t, err)
	require.Len(t, res.Accounts, 3)
	require.Len(t, res.Chats, 2)

	for _, a := range res.Accounts {
		sess, err := s.GetSession(ctx, a.Token)
		require.NoError(t, err)
		assert.Equal(t, a.User.ID, sess.UserID)

		creds, err := s.GetCredentials(ctx, a.Username)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(SeedPassword)))
	}

	msgs, err := s.GetChatMessages(ctx, res.Chats[0].ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}
