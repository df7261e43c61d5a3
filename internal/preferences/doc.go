// Package preferences owns the durable messenger configuration: the bot token
// and the saved recipients.
//
// AppConfig values are immutable from the caller's point of view. Every
// mutator returns a new AppConfig and leaves its receiver untouched, so each
// transition can be tested as a pure function.
//
// The configuration is persisted as one JSON record through a Storage backend.
// Store wraps a backend, falls back to the default configuration when the
// record is missing or unreadable, and optionally seals the bot token at rest.
// GistStorage is a backend that keeps the record in a private GitHub Gist.
package preferences
