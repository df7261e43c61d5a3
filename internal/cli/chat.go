package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/tg-messenger/internal/logger"
	"github.com/pfrederiksen/tg-messenger/internal/messenger"
	"github.com/pfrederiksen/tg-messenger/internal/notifier"
	"github.com/pfrederiksen/tg-messenger/internal/tui"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dryRun {
				return fmt.Errorf("--dry-run is not supported by chat")
			}

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			// the alternate screen owns the terminal; only errors are logged
			logger.SetDefault(logger.New(logger.LevelError, cmd.ErrOrStderr()))

			notices := notifier.NewRecorder()
			ctrl := messenger.New(a.store, a.sender,
				messenger.WithNotifier(notices),
				messenger.WithParseMode(a.settings.Telegram.ParseMode),
			)
			return tui.Run(cmd.Context(), ctrl, notices)
		},
	}
}
