package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Doxria/life-invader-frontend/models"
)

// LoadSession fetches the metadata of one chat. Any failure matches either
// ErrNotFound or ErrNetwork; callers show both as "no chat found".
func (c *Client) LoadSession(ctx context.Context, chatID string) (models.ChatSession, error) {
	var env models.ChatEnvelope
	_, err := c.do(ctx, "GET", "/api/chats/"+url.PathEscape(chatID), nil, &env)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return models.ChatSession{}, fmt.Errorf("load chat %s: %w: %w", chatID, ErrNotFound, err)
		}
		return models.ChatSession{}, fmt.Errorf("load chat %s: %w", chatID, err)
	}

	if env.Chat == nil {
		return models.ChatSession{}, fmt.Errorf("load chat %s: empty body: %w", chatID, ErrNotFound)
	}
	if err := models.Validate(env.Chat); err != nil {
		return models.ChatSession{}, fmt.Errorf("load chat %s: %w: %w", chatID, ErrNotFound, err)
	}
	return *env.Chat, nil
}

// LoadMessages fetches the message history of a chat in arrival order. On
// failure it returns an empty slice together with the error. Messages that
// fail validation are dropped; the rest keep their order.
func (c *Client) LoadMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var raw []models.Message
	_, err := c.do(ctx, "GET", "/api/chats/"+url.PathEscape(chatID)+"/messages", nil, &raw)
	if err != nil {
		return []models.Message{}, fmt.Errorf("load messages %s: %w", chatID, err)
	}

	msgs := make([]models.Message, 0, len(raw))
	for _, m := range raw {
		if err := models.Validate(m); err != nil {
			c.Logger.Warn("Dropping invalid message", "chat_id", chatID, "message_id", m.ID, "error", err.Error())
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
