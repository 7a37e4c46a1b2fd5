package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fitnest/client/internal/conversations"

	"github.com/spf13/cobra"
)

var (
	convWatch  bool
	convSearch string
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"convs"},
	Short:   "List chats, optionally refreshing every poll interval",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := current.requireSession(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if !convWatch {
			list, err := current.api.Conversations(cmd.Context())
			if err != nil {
				return err
			}
			printConversations(out, conversations.Snapshot{Conversations: list})
			return nil
		}

		poller := conversations.NewPoller(current.api, current.cfg.ConversationPoll, current.logger.Named("conversations"))
		err := poller.Run(cmd.Context(), func(s conversations.Snapshot) {
			fmt.Fprintf(out, "-- %s --\n", s.FetchedAt.Format("15:04:05"))
			printConversations(out, s)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	conversationsCmd.Flags().BoolVarP(&convWatch, "watch", "w", false, "keep polling")
	conversationsCmd.Flags().StringVarP(&convSearch, "search", "s", "", "filter by partner name")
}

func printConversations(out io.Writer, s conversations.Snapshot) {
	if s.Err != nil {
		fmt.Fprintln(out, "!", s.Err)
	}
	list := conversations.Filter(s.Conversations, convSearch)
	if len(list) == 0 {
		fmt.Fprintln(out, current.t("conversations.empty"))
		return
	}
	for _, c := range list {
		marker := " "
		if c.IsOnline {
			marker = "*"
		}
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d)", c.UnreadCount)
		}
		fmt.Fprintf(out, "%s %-6d %-20s%s  %s\n", marker, c.PartnerID, c.PartnerName, unread, c.LastMessage)
	}
}
