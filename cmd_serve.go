package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Doxria/life-invader-frontend/database"
	"github.com/Doxria/life-invader-frontend/handlers"
)

var seed bool

// serveCmd runs the development backend
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development backend",
	Long: `Run a local chat backend on sqlite: REST endpoints under /api and the
websocket event channel on /ws. With --seed, demo users and chats are created
and their session tokens printed.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&seed, "seed", false, "Insert demo users and chats and print their session tokens")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if seed {
		res, err := db.Seed(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, a := range res.Accounts {
			fmt.Fprintf(out, "user %-4s id %s token %s\n", a.Username, a.User.ID, a.Token)
		}
		for _, c := range res.Chats {
			fmt.Fprintf(out, "chat %s group=%v\n", c.ID, c.IsGroupChat)
		}
	}

	hub := handlers.NewHub(logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewServer(db, hub, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Backend listening", "addr", srv.Addr, "database", cfg.DatabasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
