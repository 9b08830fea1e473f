package relay

import (
	"strings"

	"botreplymsg/internal/transport"
)

// IsApplicable reports whether a reply to parentUsername should be relayed.
// It is true when the parent is the subreddit's ModTeam account and
// send-for-modteam is set, is AutoModerator and send-for-automod is set, or
// appears in bot-usernames. Names compare exactly.
func IsApplicable(parentUsername string, s Settings) bool {
	if parentUsername == "" {
		return false
	}
	if s.SendForModTeam && parentUsername == transport.ModTeamAccount(s.Subreddit) {
		return true
	}
	if s.SendForAutoMod && parentUsername == transport.AutoModerator {
		return true
	}
	return inBotList(parentUsername, s.BotUsernames)
}

func inBotList(username, raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	for _, bot := range splitList(raw) {
		if bot == username {
			return true
		}
	}
	return false
}
