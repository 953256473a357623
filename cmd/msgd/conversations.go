package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/nakliyo/messenger/internal/messaging"
	"github.com/spf13/cobra"
)

func newConversationsCmd() *cobra.Command {
	var (
		configPath string
		user       string
	)

	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List a user's conversations",
		Long:  "Lists the conversations a user actively participates in, most recently active first, with unread counts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			m, err := messaging.NewMessenger(messaging.MessengerOpts{DB: gormDB})
			if err != nil {
				return err
			}

			ctx := context.Background()
			convs, err := m.ListConversations(ctx, user)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(convs) == 0 {
				fmt.Fprintf(out, "No conversations for %s\n", user)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tWITH\tUNREAD\tLAST ACTIVITY")
			for _, conv := range convs {
				other := ""
				for _, p := range conv.Participants {
					if p.UserID != user {
						other = p.UserID
					}
				}
				unread, err := m.UnreadCount(ctx, conv.ID, user)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					conv.ID, conv.Title, other, unread,
					conv.LastMessageAt.Format("2006-01-02 15:04"))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "msgd.yaml", "path to msgd config file")
	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	cmd.MarkFlagRequired("user")
	return cmd
}
