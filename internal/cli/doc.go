// Package cli implements the command-line interface for tg-messenger.
//
// The cli package provides the Cobra-based commands for managing contacts and
// the bot token, sending one-off messages, creating a Gist-backed record, and
// starting the interactive chat surface. Output is text or JSON. It wires the
// settings, storage, preferences, telegram and messenger packages together.
package cli
