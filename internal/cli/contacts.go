package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newContactsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact"},
		Short:   "Manage saved recipients",
	}
	cmd.AddCommand(newContactsListCmd(opts), newContactsAddCmd(opts), newContactsRemoveCmd(opts))
	return cmd
}

func newContactsListCmd(opts *rootOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts, most recently added first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return WriteOutput(cmd.OutOrStdout(), a.contactsResult(search), a.format, a.verbose)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show contacts whose name or chat ID contains this text")
	return cmd
}

func newContactsAddCmd(opts *rootOptions) *cobra.Command {
	var name, chatID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact by chat ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.ctrl.AddContact(name, chatID); err != nil {
				return fmt.Errorf("adding contact: %w", err)
			}
			return WriteOutput(cmd.OutOrStdout(), a.contactsResult(""), a.format, a.verbose)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&chatID, "id", "", "Telegram chat ID, digits and '-' only (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newContactsRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <chat-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a contact",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.ctrl.Config().HasRecipient(args[0]) {
				fmt.Fprintf(cmd.ErrOrStderr(), "No contact with chat ID %s\n", args[0])
			}
			a.ctrl.RemoveContact(args[0])
			return WriteOutput(cmd.OutOrStdout(), a.contactsResult(""), a.format, a.verbose)
		},
	}
}

func (a *app) contactsResult(search string) *ContactsResult {
	contacts := a.ctrl.FilterContacts(search)
	return &ContactsResult{
		ActiveChatID:  a.ctrl.ActiveChatID(),
		BotConfigured: a.ctrl.BotConfigured(),
		Search:        search,
		Contacts:      contacts,
		Count:         len(contacts),
	}
}
