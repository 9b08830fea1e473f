package relay

import (
	"context"
	"fmt"
	"strings"
)

// ResolveRecipients returns who gets the moderator notice, in order:
//
//  1. a non-blank recipient-whitelist, split and trimmed, verbatim
//     (non-moderators allowed, blacklist ignored, no lookup);
//  2. otherwise every moderator not named in a non-blank mod-blacklist;
//  3. otherwise every moderator.
//
// Moderators keep the lister's order and appear at most once.
func ResolveRecipients(ctx context.Context, s Settings, mods ModeratorLister) ([]string, error) {
	if strings.TrimSpace(s.RecipientWhitelist) != "" {
		return splitList(s.RecipientWhitelist), nil
	}

	list, err := mods.Moderators(ctx, s.Subreddit)
	if err != nil {
		return nil, fmt.Errorf("list moderators: %w", err)
	}

	blocked := map[string]struct{}{}
	if strings.TrimSpace(s.ModBlacklist) != "" {
		for _, name := range splitList(s.ModBlacklist) {
			blocked[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, m := range list {
		if _, skip := blocked[m.Username]; skip {
			continue
		}
		if _, dup := seen[m.Username]; dup {
			continue
		}
		seen[m.Username] = struct{}{}
		out = append(out, m.Username)
	}
	return out, nil
}
