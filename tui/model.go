// Package tui renders an open chat session in the terminal.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Doxria/life-invader-frontend/chat"
	"github.com/Doxria/life-invader-frontend/models"
)

const (
	minInputLines = 1
	maxInputLines = 6
	// header, typing line and alert line
	chromeLines = 3
)

type (
	openedMsg   struct{ err error }
	sentMsg     struct{ err error }
	reloadedMsg struct{ err error }
)

// Model is the bubbletea model for one chat.
type Model struct {
	ctx     context.Context
	store   *chat.Store
	surface *Surface
	chatID  string
	styles  styles

	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	err      error
	// set by an animated scroll to the bottom, cleared by the next key
	unseen bool
}

// New builds the model. The store must report changes to surface.Changed and
// lay out through surface.
func New(ctx context.Context, store *chat.Store, surface *Surface, chatID string) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message... (Enter to send, Alt+Enter for newline)"
	ta.CharLimit = models.MaxMessageContent
	ta.ShowLineNumbers = false
	ta.Prompt = "| "
	ta.SetHeight(minInputLines)
	// Enter is the send trigger; newlines are inserted by hand on Alt+Enter.
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	return Model{
		ctx:      ctx,
		store:    store,
		surface:  surface,
		chatID:   chatID,
		styles:   defaultStyles(),
		viewport: viewport.New(80, 20),
		input:    ta,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.open(), m.surface.wait())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(msg.Width)
		m.layout()
		m.refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case changedMsg:
		m.refresh()
		cmds = append(cmds, m.surface.wait())

	case scrollMsg:
		m.refresh()
		if msg.el == chat.MessageList {
			if msg.pos == chat.Bottom {
				m.viewport.GotoBottom()
			} else {
				m.viewport.GotoTop()
			}
			m.unseen = msg.animated && msg.pos == chat.Bottom
		}
		cmds = append(cmds, m.surface.wait())

	case resizeMsg:
		if msg.el == chat.Compose {
			m.fitInput()
		}
		cmds = append(cmds, m.surface.wait())

	case openedMsg:
		if msg.err != nil && !errors.Is(msg.err, chat.ErrStale) {
			m.err = msg.err
		}
		m.refresh()

	case sentMsg, reloadedMsg:
		m.refresh()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.unseen = false
	switch msg.String() {
	case "ctrl+c", "esc":
		m.store.Close()
		return m, tea.Quit
	case "ctrl+r":
		return m, m.reload()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if msg.Type == tea.KeyEnter {
		if m.store.KeyPressed(chat.Key{Enter: true, Shift: msg.Alt}) {
			m.store.SetCompose(m.input.Value())
			return m, m.send()
		}
		m.input.InsertString("\n")
		m.store.SetCompose(m.input.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.store.KeyPressed(chat.Key{})
	m.store.SetCompose(m.input.Value())
	return m, cmd
}

func (m Model) View() string {
	v := m.store.Snapshot()

	switch v.State {
	case chat.Idle, chat.Loading:
		return m.styles.Status.Render("Loading chat...")
	case chat.NotFound:
		return m.styles.Status.Render("No chat found. It may not exist or you may not have access.\n\nPress esc to quit.")
	}

	typing := ""
	if v.Typing {
		typing = m.styles.Typing.Render("typing...")
	}
	if m.unseen {
		typing = lipgloss.JoinHorizontal(lipgloss.Top, m.styles.Hint.Render("new message "), typing)
	}
	alert := ""
	if v.Alert != "" {
		alert = m.styles.Alert.Render(v.Alert)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(v, m.store.ViewerID, m.width, m.styles),
		m.viewport.View(),
		typing,
		alert,
		m.input.View(),
	)
}

// refresh re-renders the list from a fresh snapshot and mirrors the compose
// buffer when the store changed it, for instance after a send.
func (m *Model) refresh() {
	v := m.store.Snapshot()
	m.viewport.SetContent(renderMessages(v, m.viewport.Width, m.styles))
	if v.State == chat.Ready && v.Compose != m.input.Value() {
		m.input.SetValue(v.Compose)
		m.fitInput()
	}
}

// fitInput grows the compose box with its content, within bounds.
func (m *Model) fitInput() {
	lines := m.input.LineCount()
	if lines < minInputLines {
		lines = minInputLines
	}
	if lines > maxInputLines {
		lines = maxInputLines
	}
	if lines != m.input.Height() {
		m.input.SetHeight(lines)
		m.layout()
	}
}

func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	h := m.height - chromeLines - m.input.Height()
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
}

func (m Model) open() tea.Cmd {
	store, ctx, chatID := m.store, m.ctx, m.chatID
	return func() tea.Msg {
		return openedMsg{err: store.Open(ctx, chatID)}
	}
}

func (m Model) send() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		return sentMsg{err: store.Send(ctx)}
	}
}

func (m Model) reload() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		return reloadedMsg{err: store.Reload(ctx)}
	}
}
