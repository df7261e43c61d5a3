// Package messenger is the application controller. It turns user intents
// (select chat, filter contacts, send text, add or remove a contact, save the
// bot token) into changes to the preferences store and the session message
// log, and derives the projections a surface renders.
//
// A send is split into two steps. Dispatch validates the request and appends
// the outgoing message to the log at once (the optimistic echo). Await then
// makes the single provider call and, on success, updates the recipient's
// preview. A failed send is reported but the echoed message stays in the log.
//
// Overlapping sends are allowed and are not ordered; whichever completes last
// sets the recipient's preview.
package messenger
