// Package chat is the session controller for one open conversation. It merges
// a one-shot history fetch with live channel pushes, derives per-message
// display metadata and decides how the message list scrolls.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Doxria/life-invader-frontend/models"
)

// DefaultTypingTimeout is how long the typing indicator stays up without a
// new signal.
const DefaultTypingTimeout = 4 * time.Second

// A HistoryLoader fetches chat metadata and message history.
type HistoryLoader interface {
	LoadSession(ctx context.Context, chatID string) (models.ChatSession, error)
	LoadMessages(ctx context.Context, chatID string) ([]models.Message, error)
}

// A MessageSender creates messages on the backend.
type MessageSender interface {
	CreateMessage(ctx context.Context, content, chatID string) (models.Message, error)
}

// A Presence is the live event channel.
type Presence interface {
	Join(chatID string) error
	NotifyTyping(chatID string) error
	OnTyping(handler func(models.TypingSignal)) (unsubscribe func())
	OnMessage(handler func(models.Message)) (unsubscribe func())
}

// State is the session lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	NotFound
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case NotFound:
		return "not_found"
	case Ready:
		return "ready"
	default:
		return "idle"
	}
}

// Key is one keystroke in the compose box.
type Key struct {
	Enter bool
	Shift bool
}

// View is the read model handed to the rendering layer.
type View struct {
	State           State
	ChatID          string
	Session         models.ChatSession
	DisplayName     string
	CanRename       bool
	Messages        []models.Message
	Groups          []DisplayGroup
	MessagesLoading bool
	Compose         string
	CanSend         bool
	Typing          bool
	Alert           string
	Scroll          ScrollPhase
}

// Store owns the state of the open chat session. The message sequence and
// the compose buffer are only ever mutated under mu, so sends and live pushes
// append through the same path in arrival order.
type Store struct {
	Loader        HistoryLoader
	Sender        MessageSender
	Presence      Presence
	Surface       Surface
	Logger        *slog.Logger
	ViewerID      string
	TypingTimeout time.Duration
	// OnChange is called after every state change, outside the lock.
	OnChange func()

	mu              sync.Mutex
	gen             uint64
	state           State
	chatID          string
	session         models.ChatSession
	messages        []models.Message
	messagesLoading bool
	compose         string
	alert           string
	scroll          ScrollState
	typing          bool
	typingSeq       uint64
	typingTimer     *time.Timer
	release         []func()
}

// effect is a surface call deferred until the lock is released.
type effect func(Surface)

// Open loads chatID and subscribes to its live events. Any previously open
// session is closed first. A metadata failure leaves the store in NotFound
// without fetching history or joining the channel. A history failure leaves
// the list empty and is returned wrapped in ErrMessageFetch; the session is
// still Ready. Sends and appends are refused with ErrNotReady until the
// history fetch has finished.
func (s *Store) Open(ctx context.Context, chatID string) error {
	s.mu.Lock()
	s.resetLocked()
	s.gen++
	gen := s.gen
	s.state = Loading
	s.chatID = chatID
	s.mu.Unlock()
	s.changed()

	session, err := s.Loader.LoadSession(ctx, chatID)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		s.state = NotFound
		s.mu.Unlock()
		s.logger().Error("Could not load chat", "chat_id", chatID, "error", err.Error())
		s.changed()
		return fmt.Errorf("open %s: %w: %w", chatID, ErrSessionNotFound, err)
	}
	s.session = session
	s.state = Ready
	s.messagesLoading = true
	s.mu.Unlock()
	s.changed()

	msgs, err := s.Loader.LoadMessages(ctx, chatID)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrStale
	}
	s.messagesLoading = false
	var fetchErr error
	if err != nil {
		s.logger().Warn("Could not load messages", "chat_id", chatID, "error", err.Error())
		fetchErr = fmt.Errorf("open %s: %w: %w", chatID, ErrMessageFetch, err)
	}
	effects := s.appendLocked(msgs...)
	s.mu.Unlock()
	s.apply(effects)
	s.changed()

	if s.Presence == nil {
		return fetchErr
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrStale
	}
	s.release = append(s.release,
		s.Presence.OnTyping(func(sig models.TypingSignal) { s.receiveTyping(gen, sig) }),
		s.Presence.OnMessage(func(m models.Message) { s.receiveMessage(gen, m) }),
	)
	s.mu.Unlock()

	if err := s.Presence.Join(chatID); err != nil {
		s.logger().Warn("Could not join chat room", "chat_id", chatID, "error", fmt.Errorf("%w: %w", ErrChannel, err).Error())
	}
	s.logger().Info("Chat opened", "chat_id", chatID, "messages", len(msgs))
	return fetchErr
}

// Reload refetches the metadata of the open chat, for instance after it was
// renamed elsewhere. History and channel subscriptions are left alone. On
// failure the previous metadata is kept.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return ErrNotReady
	}
	gen, chatID := s.gen, s.chatID
	s.mu.Unlock()

	session, err := s.Loader.LoadSession(ctx, chatID)
	if err != nil {
		s.logger().Warn("Could not reload chat", "chat_id", chatID, "error", err.Error())
		return fmt.Errorf("reload %s: %w: %w", chatID, ErrSessionNotFound, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrStale
	}
	s.session = session
	s.mu.Unlock()
	s.changed()
	return nil
}

// AppendIncoming adds msg at the tail of the sequence. It never reorders or
// deduplicates. Messages for another chat are ignored.
func (s *Store) AppendIncoming(msg models.Message) error {
	return s.appendIncoming(msg, nil)
}

// appendIncoming appends msg; when gen is set the append only happens if the
// session it was received for is still the open one.
func (s *Store) appendIncoming(msg models.Message, gen *uint64) error {
	s.mu.Lock()
	if gen != nil && *gen != s.gen {
		s.mu.Unlock()
		return ErrStale
	}
	if !s.acceptingLocked() {
		s.mu.Unlock()
		return ErrNotReady
	}
	if msg.ChatID != "" && msg.ChatID != s.chatID {
		s.mu.Unlock()
		return nil
	}
	effects := s.appendLocked(msg)
	if msg.Sender.ID != s.ViewerID {
		s.clearTypingLocked()
	}
	s.mu.Unlock()
	s.apply(effects)
	s.changed()
	return nil
}

// SetCompose replaces the compose buffer, cut to the message length limit.
func (s *Store) SetCompose(text string) {
	if utf8.RuneCountInString(text) > models.MaxMessageContent {
		text = string([]rune(text)[:models.MaxMessageContent])
	}
	s.mu.Lock()
	s.compose = text
	s.mu.Unlock()
	s.apply([]effect{resize(Compose)})
	s.changed()
}

// KeyPressed reports whether key is the send trigger (plain Enter). The
// caller then calls Send and drops the newline. Every other key, Shift+Enter
// included, emits a typing signal.
func (s *Store) KeyPressed(key Key) (send bool) {
	if key.Enter && !key.Shift {
		return true
	}

	s.mu.Lock()
	ready, chatID := s.state == Ready, s.chatID
	s.mu.Unlock()

	if ready && s.Presence != nil {
		if err := s.Presence.NotifyTyping(chatID); err != nil {
			s.logger().Debug("Could not emit typing", "chat_id", chatID, "error", err.Error())
		}
	}
	return false
}

// Send sends the compose buffer.
func (s *Store) Send(ctx context.Context) error {
	s.mu.Lock()
	content := s.compose
	s.mu.Unlock()
	return s.SendContent(ctx, content)
}

// SendContent creates a message from content. Blank content is a no-op. On
// success the created message is appended and the compose buffer cleared; on
// failure the buffer is kept, an alert is raised and the error wraps
// ErrSendFailure.
func (s *Store) SendContent(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	s.mu.Lock()
	if !s.acceptingLocked() {
		s.mu.Unlock()
		return ErrNotReady
	}
	gen, chatID := s.gen, s.chatID
	s.mu.Unlock()

	msg, err := s.Sender.CreateMessage(ctx, content, chatID)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		s.alert = SendFailureAlert
		s.mu.Unlock()
		s.logger().Error("Could not send message", "chat_id", chatID, "error", err.Error())
		s.changed()
		return fmt.Errorf("send: %w: %w", ErrSendFailure, err)
	}
	effects := s.appendLocked(msg)
	s.compose = ""
	s.alert = ""
	s.mu.Unlock()

	s.apply(append(effects, resize(Compose)))
	s.changed()
	return nil
}

// DismissAlert clears the user-visible alert.
func (s *Store) DismissAlert() {
	s.mu.Lock()
	s.alert = ""
	s.mu.Unlock()
	s.changed()
}

// Close releases the channel subscriptions and discards the session. It is
// safe to call from any state, any number of times. Responses still in
// flight are discarded when they arrive.
func (s *Store) Close() {
	s.mu.Lock()
	wasIdle := s.state == Idle && s.release == nil
	s.resetLocked()
	s.gen++
	s.mu.Unlock()
	if !wasIdle {
		s.changed()
	}
}

// Snapshot returns a copy of the current read model.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:           s.state,
		ChatID:          s.chatID,
		MessagesLoading: s.messagesLoading,
		Compose:         s.compose,
		CanSend:         strings.TrimSpace(s.compose) != "",
		Typing:          s.typing,
		Alert:           s.alert,
		Scroll:          s.scroll.Phase,
	}
	if s.state == Ready {
		v.Session = s.session
		v.DisplayName = s.session.DisplayName(s.ViewerID)
		v.CanRename = s.session.CanRename()
		v.Messages = append([]models.Message(nil), s.messages...)
		v.Groups = Group(v.Messages, s.ViewerID, s.session.IsGroupChat)
	}
	return v
}

func (s *Store) receiveMessage(gen uint64, msg models.Message) {
	err := s.appendIncoming(msg, &gen)
	if err != nil && !errors.Is(err, ErrStale) && !errors.Is(err, ErrNotReady) {
		s.logger().Warn("Could not append message", "message_id", msg.ID, "error", err.Error())
	}
}

func (s *Store) receiveTyping(gen uint64, sig models.TypingSignal) {
	s.mu.Lock()
	if s.gen != gen || s.state != Ready {
		s.mu.Unlock()
		return
	}
	if (sig.ChatID != "" && sig.ChatID != s.chatID) || (sig.SenderID != "" && sig.SenderID == s.ViewerID) {
		s.mu.Unlock()
		return
	}

	s.typing = true
	s.typingSeq++
	seq := s.typingSeq
	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.typingTimeout(), func() {
		s.mu.Lock()
		if s.typingSeq != seq || !s.typing {
			s.mu.Unlock()
			return
		}
		s.typing = false
		s.mu.Unlock()
		s.changed()
	})
	s.mu.Unlock()
	s.changed()
}

// appendLocked adds msgs to the tail as one render and returns the scroll it
// causes.
func (s *Store) appendLocked(msgs ...models.Message) []effect {
	oldLen := len(s.messages)
	s.messages = append(s.messages, msgs...)

	next, req := s.scroll.OnMessagesChanged(oldLen, len(s.messages))
	s.scroll = next
	switch req {
	case JumpToBottom:
		return []effect{scrollBottom(false)}
	case AnimateToBottom:
		return []effect{scrollBottom(true)}
	default:
		return nil
	}
}

// acceptingLocked reports whether new messages may join the sequence. The
// history always heads it.
func (s *Store) acceptingLocked() bool {
	return s.state == Ready && !s.messagesLoading
}

func (s *Store) clearTypingLocked() {
	s.typing = false
	s.typingSeq++
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
}

// resetLocked releases subscriptions and discards all session state.
func (s *Store) resetLocked() {
	for _, release := range s.release {
		release()
	}
	s.release = nil
	s.clearTypingLocked()

	s.state = Idle
	s.chatID = ""
	s.session = models.ChatSession{}
	s.messages = nil
	s.messagesLoading = false
	s.compose = ""
	s.alert = ""
	s.scroll = ScrollState{}
}

func (s *Store) apply(effects []effect) {
	surface := s.Surface
	if surface == nil {
		surface = nopSurface{}
	}
	for _, e := range effects {
		e(surface)
	}
}

func (s *Store) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}

func (s *Store) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Store) typingTimeout() time.Duration {
	if s.TypingTimeout <= 0 {
		return DefaultTypingTimeout
	}
	return s.TypingTimeout
}

func scrollBottom(animated bool) effect {
	return func(sf Surface) { sf.ScrollTo(MessageList, Bottom, animated) }
}

func resize(el ElementHandle) effect {
	return func(sf Surface) { sf.MeasureAndResize(el) }
}
