package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Doxria/life-invader-frontend/api"
)

var replyTo string

// postCmd publishes a feed post
var postCmd = &cobra.Command{
	Use:   "post <content>",
	Short: "Publish a post or reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPost,
}

func init() {
	postCmd.Flags().StringVar(&replyTo, "reply-to", "", "ID of the post to reply to")
}

func runPost(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	client := api.New(cfg.BaseURL, cfg.SessionToken, cfg.RequestTimeout, logger)
	post, err := client.CreatePost(cmd.Context(), strings.Join(args, " "), replyTo)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), post.ID)
	return nil
}
