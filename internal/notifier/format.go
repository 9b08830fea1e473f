package notifier

import (
	"fmt"
	"strings"
)

const userFooter = "\n\n---\n\n*Do not reply; this inbox is not monitored.*"

// SettingsURL is the app settings page for the subreddit.
func SettingsURL(subreddit, appSlug string) string {
	return fmt.Sprintf("https://developers.reddit.com/r/%s/apps/%s", subreddit, appSlug)
}

func modSubject(subreddit string) string {
	return fmt.Sprintf("Someone replied to a bot in r/%s.", subreddit)
}

func modBody(n ModNotice, appSlug string) string {
	return fmt.Sprintf("u/%s replied to u/%s.\n\n- [**Comment Link**](%s)\n\n---\n\n[App Settings](%s)",
		n.ReplyAuthor, n.BotAuthor, n.CommentLink, SettingsURL(n.Subreddit, appSlug))
}

// RenderTemplate replaces every {bot}, {user}, {subreddit} and
// {comment_link} in tmpl. Substituted values are not rescanned.
func RenderTemplate(tmpl string, v Vars) string {
	return strings.NewReplacer(
		"{bot}", v.Bot,
		"{user}", v.User,
		"{subreddit}", v.Subreddit,
		"{comment_link}", v.CommentLink,
	).Replace(tmpl)
}

func userBody(n UserNotice) string {
	return RenderTemplate(n.BodyTemplate, n.Vars) + userFooter
}
