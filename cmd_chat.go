package main

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Doxria/life-invader-frontend/api"
	"github.com/Doxria/life-invader-frontend/chat"
	"github.com/Doxria/life-invader-frontend/presence"
	"github.com/Doxria/life-invader-frontend/tui"
)

// chatCmd opens one chat in the terminal
var chatCmd = &cobra.Command{
	Use:   "chat <chatId>",
	Short: "Open a chat",
	Long: `Open a chat: load its history, follow live messages and typing, and send
messages. Enter sends, Alt+Enter inserts a newline, Ctrl+R reloads the chat name
and Esc quits.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stderr belongs to the terminal UI
	logger, closeLog, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	client := api.New(cfg.BaseURL, cfg.SessionToken, cfg.RequestTimeout, logger)

	me, err := client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrRejected) {
			return fmt.Errorf("not logged in, run 'lifeinvader login' first: %w", err)
		}
		return err
	}

	surface := tui.NewSurface()
	store := &chat.Store{
		Loader:        client,
		Sender:        client,
		Surface:       surface,
		Logger:        logger,
		ViewerID:      me.ID,
		TypingTimeout: cfg.TypingTimeout,
		OnChange:      surface.Changed,
	}

	ch, err := presence.Dial(ctx, cfg.WSURL, presence.Options{SessionToken: cfg.SessionToken, Logger: logger})
	if err != nil {
		logger.Warn("Live updates unavailable", "url", cfg.WSURL, "error", fmt.Errorf("%w: %w", chat.ErrChannel, err).Error())
	} else {
		defer ch.Close()
		store.Presence = ch
	}

	program := tea.NewProgram(tui.New(ctx, store, surface, args[0]), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	store.Close()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
