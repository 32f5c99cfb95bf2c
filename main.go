package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Doxria/life-invader-frontend/config"
)

var (
	baseURL string
	wsURL   string
	token   string
	logFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lifeinvader",
	Short: "Terminal client for the LifeInvader chat",
	Long: `LifeInvader chat from the terminal.

Settings come from the environment (or a .env file) and can be overridden
with flags:
  BASE_URL, WS_URL, SESSION_TOKEN, REQUEST_TIMEOUT, TYPING_TIMEOUT, LOG_FILE,
  PORT, DATABASE_PATH`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend base URL (or set BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&wsURL, "ws-url", "", "Websocket URL (or set WS_URL, default derived from the base URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Session token (or set SESSION_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file (or set LOG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(slog.Default())
	if err != nil {
		return config.Config{}, err
	}
	return applyFlags(cmd, cfg), nil
}

func applyFlags(cmd *cobra.Command, cfg config.Config) config.Config {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
		if !flags.Changed("ws-url") {
			cfg.WSURL = config.DeriveWSURL(baseURL)
		}
	}
	if flags.Changed("ws-url") {
		cfg.WSURL = wsURL
	}
	if flags.Changed("token") {
		cfg.SessionToken = token
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	return cfg
}

// newLogger logs to cfg.LogFile when set and to fallback otherwise. The
// returned func closes the file.
func newLogger(cfg config.Config, fallback io.Writer) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	out, closeFn := fallback, func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closeFn = f, func() { f.Close() }
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeFn, nil
}
