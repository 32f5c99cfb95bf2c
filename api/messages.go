package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Doxria/life-invader-frontend/models"
)

// CreateMessage posts content to a chat and returns the stored message.
func (c *Client) CreateMessage(ctx context.Context, content, chatID string) (models.Message, error) {
	req := models.CreateMessageRequest{Content: content, ChatID: chatID}
	if err := models.Validate(req); err != nil {
		return models.Message{}, fmt.Errorf("create message: %w: %w", ErrInvalidContent, err)
	}

	var msg models.Message
	if _, err := c.do(ctx, "POST", "/api/messages", req, &msg); err != nil {
		return models.Message{}, fmt.Errorf("create message: %w", rejected(err))
	}
	if err := models.Validate(msg); err != nil {
		return models.Message{}, fmt.Errorf("create message: %w: %w", ErrNetwork, err)
	}
	return msg, nil
}

// CreatePost publishes a post, or a reply when replyTo is set. Content is
// trimmed; empty or over-long content is rejected without a request.
func (c *Client) CreatePost(ctx context.Context, content, replyTo string) (models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Post{}, fmt.Errorf("create post: empty content: %w", ErrInvalidContent)
	}
	if n := utf8.RuneCountInString(content); n > models.MaxPostContent {
		return models.Post{}, fmt.Errorf("create post: %d characters, max %d: %w", n, models.MaxPostContent, ErrInvalidContent)
	}

	req := models.CreatePostRequest{Content: content, ReplyTo: replyTo}
	var post models.Post
	if _, err := c.do(ctx, "POST", "/api/posts", req, &post); err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", rejected(err))
	}
	return post, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	resp, err := c.do(ctx, "POST", "/api/login", body, nil)
	if err != nil {
		return "", fmt.Errorf("login: %w", rejected(err))
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", fmt.Errorf("login: no %s cookie in response: %w", SessionCookie, ErrNetwork)
}

func rejected(err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return err
}

// Me returns the user the session token belongs to.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var u models.User
	if _, err := c.do(ctx, "GET", "/api/me", nil, &u); err != nil {
		return models.User{}, fmt.Errorf("me: %w", rejected(err))
	}
	if err := models.Validate(u); err != nil {
		return models.User{}, fmt.Errorf("me: %w: %w", ErrNetwork, err)
	}
	return u, nil
}
