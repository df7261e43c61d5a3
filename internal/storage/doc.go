// Package storage provides local backends for the persisted messenger config.
//
// FileStorage keeps the record as a JSON file (tg_messenger_v2.json) in the
// data directory. SQLiteStorage keeps it as a single row of a key-value table
// in an embedded SQLite database (tg-messenger.db). The default data directory
// is ~/.local/share/tg-messenger/.
//
// Both implement preferences.Storage and report a missing record as
// preferences.ErrNotFound.
package storage
