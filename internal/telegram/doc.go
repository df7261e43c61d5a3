// Package telegram sends text messages through the Telegram Bot API.
//
// Client.Send makes exactly one POST to bot<token>/sendMessage per call. The
// outcome is classified as ErrMissingCredentials (checked before any network
// activity), ErrTransport, or ErrProviderRejected carrying Telegram's
// description. On success a Receipt wraps the raw response.
//
// The package also formats message previews and time labels for contacts.
package telegram
