// Package relay decides whether a new comment is a reply to a monitored bot
// account and, if so, who should hear about it.
//
// The package is pure policy: posts, comments, moderators and users are
// reached through narrow capability interfaces, and messages leave through
// a Dispatcher. Settings are read once per event into an immutable
// Settings value.
package relay
