package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/tg-messenger/internal/crypto"
	"github.com/pfrederiksen/tg-messenger/internal/preferences"
)

func newGistCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gist",
		Short: "Keep the contacts record in a private GitHub Gist",
	}
	cmd.AddCommand(newGistCreateCmd(opts))
	return cmd
}

func newGistCreateCmd(opts *rootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a private Gist seeded with the current record",
		Long: `Create a private Gist holding a copy of the current record (from the
selected backend) and print its ID. Needs gist.github_token or TGM_GITHUB_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			token := a.settings.Gist.GitHubToken
			if token == "" {
				return fmt.Errorf("a GitHub token is required (gist.github_token or TGM_GITHUB_TOKEN)")
			}

			sealed, err := a.sealedCopy()
			if err != nil {
				return err
			}

			id, err := preferences.CreateGist(token, description, sealed, gistOptions(a.settings)...)
			if err != nil {
				return fmt.Errorf("creating gist: %w", err)
			}
			return WriteOutput(cmd.OutOrStdout(), &GistResult{GistID: id}, a.format, a.verbose)
		},
	}
	cmd.Flags().StringVar(&description, "description", "tg-messenger contacts", "Gist description")
	return cmd
}

// sealedCopy returns the current config with the token sealed as the store
// would write it
func (a *app) sealedCopy() (preferences.AppConfig, error) {
	cfg := a.store.Current()
	token, err := crypto.NewEncryptor(a.settings.EncryptionKey).Seal(cfg.BotToken)
	if err != nil {
		return preferences.AppConfig{}, fmt.Errorf("sealing bot token: %w", err)
	}
	cfg.BotToken = token
	return cfg, nil
}
