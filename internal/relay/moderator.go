package relay

import (
	"context"
	"fmt"

	"botreplymsg/internal/transport"
)

// IsModerator reports whether username moderates the subreddit. The ModTeam
// account and AutoModerator always count; otherwise the account must exist
// and hold at least one moderator permission. Empty names are not
// moderators.
func IsModerator(ctx context.Context, users UserLookup, username, subreddit string) (bool, error) {
	if username == "" {
		return false, nil
	}
	if username == transport.AutoModerator || username == transport.ModTeamAccount(subreddit) {
		return true, nil
	}
	u, err := users.UserByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("lookup user %s: %w", username, err)
	}
	if u == nil {
		return false, nil
	}
	perms, err := users.ModPermissions(ctx, *u, subreddit)
	if err != nil {
		return false, fmt.Errorf("mod permissions for %s: %w", username, err)
	}
	return len(perms) > 0, nil
}
