// Package transport holds the platform-neutral types shared by the relay
// core and the Reddit adapter.
package transport

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Reddit fullname prefixes.
const (
	KindComment = "t1_"
	KindPost    = "t3_"
)

// Well-known account names.
const (
	AutoModerator = "AutoModerator"
	modTeamSuffix = "-ModTeam"
)

// ModTeamAccount returns the "<subreddit>-ModTeam" account name.
func ModTeamAccount(subreddit string) string { return subreddit + modTeamSuffix }

// ErrNotWhitelisted reports that the recipient does not accept private
// messages from this account (Reddit NOT_WHITELISTED_BY_USER_MESSAGE).
var ErrNotWhitelisted = errors.New("NOT_WHITELISTED_BY_USER_MESSAGE")

type UpdateKind string

const UpdateComment UpdateKind = "comment"

type Update struct {
	Kind    UpdateKind
	Comment *CommentEvent
}

// CommentEvent is a newly created comment.
type CommentEvent struct {
	ID        string    `json:"id"`     // fullname, t1_...
	Author    string    `json:"author"` // replying user
	ParentID  string    `json:"parent_id"`
	LinkID    string    `json:"link_id,omitempty"`
	Permalink string    `json:"permalink"` // absolute URL
	Subreddit string    `json:"subreddit"`
	CreatedAt time.Time `json:"created_at"`
}

// IsPostReply reports whether the comment is a top-level reply to a post.
func (e CommentEvent) IsPostReply() bool { return strings.HasPrefix(e.ParentID, KindPost) }

// Thing is the subset of a post or comment the relay reads.
type Thing struct {
	ID         string
	AuthorName string
}

type Moderator struct {
	Username    string
	Permissions []string
}

type User struct {
	Name string
	ID   string
}

type PrivateMessage struct {
	To      string
	Subject string
	Text    string
}

// Adapter is an event source. Start returns once the source is running;
// updates are delivered on out until Stop or ctx cancellation.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error
}
