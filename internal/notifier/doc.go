// Package notifier formats and sends the relay's private messages.
//
// There are two message variants: a fixed-format notice for moderators and a
// templated notice for the replying user. Every recipient is validated
// first; the relay never messages itself, AutoModerator or the subreddit's
// ModTeam account.
//
// # Delivery
//
// Each message is attempted exactly once, synchronously, through a
// Messenger. Failures are logged and reported as an Outcome; they are never
// returned as errors, so one bad recipient cannot stop the others.
//
// # History
//
// For operator visibility the notifier keeps a small in-memory list of
// recent outcomes and publishes each one on the event bus. Neither is
// consulted when deciding whether to send.
package notifier
