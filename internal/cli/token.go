package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the bot token",
	}
	cmd.AddCommand(newTokenSetCmd(opts), newTokenShowCmd(opts), newTokenClearCmd(opts))
	return cmd
}

func newTokenSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set [token]",
		Short: "Save the bot token (read from stdin when omitted)",
		Long: `Save the bot token issued by @BotFather. The token is stored as given and
is not checked against Telegram. Set encryption_key (or TGM_ENCRYPTION_KEY)
to encrypt it at rest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token from stdin: %w", err)
				}
				token = strings.TrimRight(line, "\r\n")
			}
			if token == "" {
				return fmt.Errorf("token is empty (use 'token clear' to remove it)")
			}

			a.ctrl.SaveToken(token)
			return WriteOutput(cmd.OutOrStdout(), a.tokenResult(), a.format, a.verbose)
		},
	}
}

func newTokenShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show whether a bot token is saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return WriteOutput(cmd.OutOrStdout(), a.tokenResult(), a.format, a.verbose)
		},
	}
}

func newTokenClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the saved bot token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.ctrl.SaveToken("")
			return WriteOutput(cmd.OutOrStdout(), a.tokenResult(), a.format, a.verbose)
		},
	}
}

func (a *app) tokenResult() *TokenResult {
	token := a.ctrl.Config().BotToken
	return &TokenResult{
		Configured: token != "",
		Masked:     maskToken(token),
		Encrypted:  a.settings.EncryptionKey != "",
	}
}

// maskToken hides all but the bot ID and the last four characters of the secret
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	botID, secret, found := strings.Cut(token, ":")
	if !found || len(secret) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return botID + ":" + strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
