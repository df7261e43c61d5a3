package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <chat-id> <text>...",
		Short: "Send one message",
		Long: `Send one message to a chat ID using the saved bot token. The chat does not
have to be a saved contact; when it is, its last-message preview is updated.
A dry run leaves the preview unchanged.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID := args[0]
			text := strings.Join(args[1:], " ")
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("message text is required")
			}

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.ctrl.SelectChat(chatID)
			pending, err := a.ctrl.Dispatch(text)
			if err != nil {
				return err
			}
			receipt, err := pending.Await(cmd.Context())
			if err != nil {
				return err
			}

			msg := pending.Message()
			result := &SendResult{
				SentAt:    time.Now().UTC(),
				ChatID:    chatID,
				MessageID: msg.ID,
				Text:      msg.Text,
				DryRun:    a.dryRun,
			}
			if receipt != nil {
				result.TelegramMessageID = receipt.MessageID
			}
			return WriteOutput(cmd.OutOrStdout(), result, a.format, a.verbose)
		},
	}
}
