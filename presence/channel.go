// Package presence is the client side of the persistent event channel: it
// joins chat rooms, emits typing signals and delivers typing and message
// events pushed by the backend.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Doxria/life-invader-frontend/models"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

var (
	// ErrClosed is returned by emits after Close.
	ErrClosed = errors.New("presence channel closed")
	// ErrBackpressure is returned when the outbound buffer is full; the frame is dropped.
	ErrBackpressure = errors.New("presence channel buffer full")
)

// Options configure Dial
type Options struct {
	SessionToken string
	Logger       *slog.Logger
	Dialer       *websocket.Dialer
}

// Channel is one websocket connection to the backend event endpoint.
type Channel struct {
	conn   *websocket.Conn
	send   chan models.Frame
	done   chan struct{}
	logger *slog.Logger

	mu        sync.Mutex
	joined    string
	nextID    int
	onTyping  map[int]func(models.TypingSignal)
	onMessage map[int]func(models.Message)

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to url and starts the read and write pumps.
func Dial(ctx context.Context, url string, opts Options) (*Channel, error) {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	header := http.Header{}
	if opts.SessionToken != "" {
		header.Set("Cookie", (&http.Cookie{Name: "session", Value: opts.SessionToken}).String())
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Channel{
		conn:      conn,
		send:      make(chan models.Frame, sendBuffer),
		done:      make(chan struct{}),
		logger:    logger,
		onTyping:  make(map[int]func(models.TypingSignal)),
		onMessage: make(map[int]func(models.Message)),
	}

	c.wg.Add(2)
	go c.writePump()
	go c.readPump()
	return c, nil
}

// Join subscribes this connection to the room of chatID. Joining the room
// already joined is a no-op; joining another one re-issues the join.
func (c *Channel) Join(chatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.joined == chatID {
		return nil
	}
	f, err := models.NewFrame(models.FrameJoinRoom, chatID)
	if err != nil {
		return fmt.Errorf("join %s: %w", chatID, err)
	}
	if err := c.emit(f); err != nil {
		return fmt.Errorf("join %s: %w", chatID, err)
	}
	c.joined = chatID
	return nil
}

// Joined returns the room this connection last joined.
func (c *Channel) Joined() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joined
}

// NotifyTyping emits one typing signal for chatID.
func (c *Channel) NotifyTyping(chatID string) error {
	f, err := models.NewFrame(models.FrameTyping, chatID)
	if err != nil {
		return fmt.Errorf("typing %s: %w", chatID, err)
	}
	if err := c.emit(f); err != nil {
		return fmt.Errorf("typing %s: %w", chatID, err)
	}
	return nil
}

// OnTyping registers handler for inbound typing signals. The returned func
// removes it and may be called any number of times.
func (c *Channel) OnTyping(handler func(models.TypingSignal)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.onTyping[id] = handler
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.onTyping, id)
		c.mu.Unlock()
	}
}

// OnMessage registers handler for messages pushed by the backend.
func (c *Channel) OnMessage(handler func(models.Message)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.onMessage[id] = handler
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.onMessage, id)
		c.mu.Unlock()
	}
}

// HandlerCount reports the registered typing and message handlers.
func (c *Channel) HandlerCount() (typing, message int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.onTyping), len(c.onMessage)
}

// Close shuts the connection down and waits for both pumps to exit.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.onTyping = map[int]func(models.TypingSignal){}
		c.onMessage = map[int]func(models.Message){}
		c.mu.Unlock()

		// Unblocks the read pump.
		err = c.conn.Close()
		c.wg.Wait()
	})
	return err
}

// emit queues f for the write pump without blocking.
func (c *Channel) emit(f models.Frame) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrBackpressure
	}
}

func (c *Channel) writePump() {
	defer c.wg.Done()

	for {
		select {
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				c.logger.Warn("Could not write frame", "type", f.Type, "error", err.Error())
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

func (c *Channel) readPump() {
	defer c.wg.Done()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.logger.Warn("Presence channel read failed", "error", err.Error())
				}
			}
			return
		}

		var f models.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debug("Dropping malformed frame", "error", err.Error())
			continue
		}
		c.dispatch(f)
	}
}

func (c *Channel) dispatch(f models.Frame) {
	switch f.Type {
	case models.FrameTyping:
		sig, err := decodeTyping(f.Payload)
		if err != nil {
			c.logger.Debug("Dropping malformed typing frame", "error", err.Error())
			return
		}
		if sig.ChatID == "" {
			sig.ChatID = c.Joined()
		}
		sig.At = time.Now()

		c.mu.Lock()
		handlers := make([]func(models.TypingSignal), 0, len(c.onTyping))
		for _, h := range c.onTyping {
			handlers = append(handlers, h)
		}
		c.mu.Unlock()
		for _, h := range handlers {
			h(sig)
		}

	case models.FrameMessage:
		var msg models.Message
		if err := json.Unmarshal(f.Payload, &msg); err != nil {
			c.logger.Debug("Dropping malformed message frame", "error", err.Error())
			return
		}
		if err := models.Validate(msg); err != nil {
			c.logger.Debug("Dropping invalid message frame", "error", err.Error())
			return
		}

		c.mu.Lock()
		handlers := make([]func(models.Message), 0, len(c.onMessage))
		for _, h := range c.onMessage {
			handlers = append(handlers, h)
		}
		c.mu.Unlock()
		for _, h := range handlers {
			h(msg)
		}

	default:
		c.logger.Debug("Ignoring frame", "type", f.Type)
	}
}

// decodeTyping accepts no payload, a bare chat id string, or {chatId, userId}.
func decodeTyping(payload json.RawMessage) (models.TypingSignal, error) {
	var sig models.TypingSignal
	if len(payload) == 0 || string(payload) == "null" {
		return sig, nil
	}
	if payload[0] == '"' {
		err := json.Unmarshal(payload, &sig.ChatID)
		return sig, err
	}
	err := json.Unmarshal(payload, &sig)
	return sig, err
}
