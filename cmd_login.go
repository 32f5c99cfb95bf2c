package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Doxria/life-invader-frontend/api"
)

var (
	loginUser     string
	loginPassword string
)

// loginCmd exchanges credentials for a session token
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print a session token",
	Long: `Log in with a username and password and print the session token.
The password is read from stdin when --password is not given.

  export SESSION_TOKEN=$(lifeinvader login -u ann)`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (default: read from stdin)")
	_ = loginCmd.MarkFlagRequired("username")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	password := loginPassword
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	// Login must not send a stale token along
	client := api.New(cfg.BaseURL, "", cfg.RequestTimeout, logger)
	token, err := client.Login(cmd.Context(), loginUser, password)
	if err != nil {
		if errors.Is(err, api.ErrRejected) {
			return errors.New("invalid username or password")
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
