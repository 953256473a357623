package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/nakliyo/messenger/internal/messaging"
	"github.com/spf13/cobra"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Messaging commands",
	}

	cmd.AddCommand(newMessageSendCmd())
	cmd.AddCommand(newMessageListCmd())
	cmd.AddCommand(newMessageReadCmd())
	return cmd
}

func newMessageSendCmd() *cobra.Command {
	var (
		configPath string
		from       string
		to         string
		content    string
		listing    string
		images     []string
		documents  []string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to a user",
		Long:  "Sends a message, finding or starting the single conversation between the two users.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			m, err := messaging.NewMessenger(messaging.MessengerOpts{DB: gormDB})
			if err != nil {
				return err
			}

			res, err := m.SendOrStart(context.Background(), messaging.SendOpts{
				SenderID:     from,
				RecipientID:  to,
				Content:      content,
				ListingRef:   listing,
				ImageURLs:    images,
				DocumentURLs: documents,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent message %d in conversation %s\n",
				res.Message.ID, res.Conversation.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "msgd.yaml", "path to msgd config file")
	cmd.Flags().StringVar(&from, "from", "", "sender user ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "recipient user ID (required)")
	cmd.Flags().StringVar(&content, "content", "", "message body")
	cmd.Flags().StringVar(&listing, "listing", "", "listing reference to attach")
	cmd.Flags().StringSliceVar(&images, "image", nil, "image attachment URL (repeatable)")
	cmd.Flags().StringSliceVar(&documents, "document", nil, "document attachment URL (repeatable)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func newMessageListCmd() *cobra.Command {
	var (
		configPath     string
		conversationID string
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages in a conversation",
		Long:  "Lists messages of a conversation in creation order, oldest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			m, err := messaging.NewMessenger(messaging.MessengerOpts{DB: gormDB})
			if err != nil {
				return err
			}

			msgs, err := m.ListMessages(context.Background(), conversationID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No messages")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSENDER\tREAD\tCREATED\tCONTENT")
			for _, msg := range msgs {
				fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\n",
					msg.ID, msg.SenderID, msg.IsRead,
					msg.CreatedAt.Format("2006-01-02 15:04"), msg.Content)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "msgd.yaml", "path to msgd config file")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum messages to list (default 50)")
	cmd.MarkFlagRequired("conversation")
	return cmd
}

func newMessageReadCmd() *cobra.Command {
	var (
		configPath string
		reader     string
	)

	cmd := &cobra.Command{
		Use:   "read <message-id>",
		Short: "Mark a message as read",
		Long:  "Marks a message read on behalf of a participant. A sender reading their own message is a no-op.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid message ID: %w", err)
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			m, err := messaging.NewMessenger(messaging.MessengerOpts{DB: gormDB})
			if err != nil {
				return err
			}

			msg, err := m.MarkRead(context.Background(), uint(id), reader)
			if err != nil {
				return err
			}
			if msg == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No change (own message)")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked message %d as read\n", msg.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "msgd.yaml", "path to msgd config file")
	cmd.Flags().StringVar(&reader, "reader", "", "reading user ID (required)")
	cmd.MarkFlagRequired("reader")
	return cmd
}
