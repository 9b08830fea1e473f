package notifier

import (
	"context"
	"time"

	"botreplymsg/internal/transport"
)

// Messenger delivers one private message.
type Messenger interface {
	SendPrivateMessage(ctx context.Context, msg transport.PrivateMessage) error
}

// Config is hot reloadable through Notifier.Apply.
type Config struct {
	// AppAccount is the account the relay sends as.
	AppAccount string
	// AppSlug is the app's path segment in the settings URL.
	AppSlug     string
	HistorySize int
}

const (
	DefaultAppSlug     = "bot-reply-msg"
	DefaultHistorySize = 200
)

type Outcome string

const (
	OutcomeSent     Outcome = "sent"
	OutcomeRejected Outcome = "rejected" // failed recipient validation
	OutcomeRefused  Outcome = "refused"  // recipient does not accept messages
	OutcomeFailed   Outcome = "failed"
)

type Kind string

const (
	KindMod  Kind = "mod"
	KindUser Kind = "user"
)

// ModNotice tells a moderator that someone replied to a bot.
type ModNotice struct {
	Recipient   string
	ReplyAuthor string
	BotAuthor   string
	Subreddit   string
	CommentLink string
}

// Vars are the values substituted into user templates.
type Vars struct {
	Bot         string // {bot}
	User        string // {user}
	Subreddit   string // {subreddit}
	CommentLink string // {comment_link}
}

// UserNotice is a templated message to the replying user.
type UserNotice struct {
	Recipient       string
	SubjectTemplate string
	BodyTemplate    string
	Vars            Vars
}

// Record is one dispatch outcome. It is kept in the history and published
// on the event bus.
type Record struct {
	At        time.Time `json:"at"`
	Kind      Kind      `json:"kind"`
	To        string    `json:"to"`
	Subreddit string    `json:"subreddit"`
	Outcome   Outcome   `json:"outcome"`
	Error     string    `json:"error,omitempty"`
}

// Event types published on the bus.
const (
	EventSent     = "notifier.sent"
	EventRejected = "notifier.rejected"
	EventRefused  = "notifier.refused"
	EventFailed   = "notifier.failed"
)

func eventType(o Outcome) string {
	switch o {
	case OutcomeSent:
		return EventSent
	case OutcomeRejected:
		return EventRejected
	case OutcomeRefused:
		return EventRefused
	default:
		return EventFailed
	}
}
