// Package notifier delivers blocking user-facing notices such as a rejected
// send or a duplicate contact.
//
// The controller reports through the Notifier interface; the CLI prints
// notices to stderr and the interactive UI shows the most recent one.
package notifier
