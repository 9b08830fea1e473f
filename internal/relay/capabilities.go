package relay

import (
	"context"

	"botreplymsg/internal/notifier"
	"botreplymsg/internal/transport"
)

// ContentLookup resolves posts and comments by fullname.
type ContentLookup interface {
	PostByID(ctx context.Context, id string) (transport.Thing, error)
	CommentByID(ctx context.Context, id string) (transport.Thing, error)
}

// ModeratorLister returns the full moderator list of a subreddit.
type ModeratorLister interface {
	Moderators(ctx context.Context, subreddit string) ([]transport.Moderator, error)
}

// UserLookup finds accounts and their moderator permissions. UserByUsername
// returns nil without error for unknown accounts; ModPermissions returns nil
// for non-moderators.
type UserLookup interface {
	UserByUsername(ctx context.Context, name string) (*transport.User, error)
	ModPermissions(ctx context.Context, user transport.User, subreddit string) ([]string, error)
}

// Directory is everything the handler looks up.
type Directory interface {
	ContentLookup
	ModeratorLister
	UserLookup
}

// Dispatcher sends the two message variants. Delivery failures are reported
// as outcomes, never as errors.
type Dispatcher interface {
	NotifyMod(ctx context.Context, n notifier.ModNotice) notifier.Outcome
	NotifyUser(ctx context.Context, n notifier.UserNotice) notifier.Outcome
}
