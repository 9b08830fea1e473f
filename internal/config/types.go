package config

type Config struct {
	Reddit  RedditConfig  `json:"reddit"`
	Relay   RelayConfig   `json:"relay"`
	Logging LoggingConfig `json:"logging"`
	Ops     *OpsConfig    `json:"ops,omitempty"`

	// HistorySize bounds the in-memory list of recent dispatch outcomes shown
	// on the ops status page. Default: 200.
	HistorySize int `json:"history_size,omitempty"`
}

// RedditConfig describes the script app the relay runs as.
//
// Changing this section requires a restart; hot reload only logs a warning.
//
// Defaults (when fields are omitted/zero):
//   - api_base: "https://oauth.reddit.com"
//   - token_url: "https://www.reddit.com/api/v1/access_token"
//   - request_timeout: "15s"
//   - requests_per_minute: 60
//   - poll_schedule: "interval:30s"
//   - poll_limit: 100 (Reddit's listing maximum)
//   - seen_cache_size: 2048
//   - skip_backlog: true
type RedditConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"` // do not log
	Username     string `json:"username"`
	Password     string `json:"password"` // do not log
	UserAgent    string `json:"user_agent,omitempty"`
	Subreddit    string `json:"subreddit"`

	APIBase  string `json:"api_base,omitempty"`
	TokenURL string `json:"token_url,omitempty"`

	// RequestTimeout is a Go duration string (e.g. "10s").
	RequestTimeout    string `json:"request_timeout,omitempty"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty"`

	// PollSchedule accepts "interval:30s", "cron:*/2 * * * *" or a bare
	// duration like "45s".
	PollSchedule  string `json:"poll_schedule,omitempty"`
	PollLimit     int    `json:"poll_limit,omitempty"`
	SeenCacheSize int    `json:"seen_cache_size,omitempty"`

	// SkipBacklog makes the first poll only record the comments already
	// present instead of relaying them.
	SkipBacklog *bool `json:"skip_backlog,omitempty"`
}

// RelayConfig holds the per-installation notification policy. Keys keep the
// kebab-case names moderators already know from the app settings page.
//
// Unset booleans are false and unset strings are empty, except app-enable
// which defaults to true. The section is hot reloaded and read once per
// comment event.
type RelayConfig struct {
	AppEnable *bool `json:"app-enable,omitempty"`
	// AppSlug is the app's path segment in the settings URL.
	AppSlug string `json:"app-slug,omitempty"`

	MessageMods    bool `json:"message-mods,omitempty"`
	MessageUsers   bool `json:"message-users,omitempty"`
	SendForModTeam bool `json:"send-for-modteam,omitempty"`
	SendForAutoMod bool `json:"send-for-automod,omitempty"`
	SendForPosts   bool `json:"send-for-posts,omitempty"`
	IgnoreMods     bool `json:"ignore-mods,omitempty"`

	// Comma separated username lists.
	BotUsernames       string `json:"bot-usernames,omitempty"`
	ModBlacklist       string `json:"mod-blacklist,omitempty"`
	RecipientWhitelist string `json:"recipient-whitelist,omitempty"`

	// Templates support {bot}, {user}, {subreddit} and {comment_link}.
	SubjectToUser string `json:"subject-to-user,omitempty"`
	MessageToUser string `json:"message-to-user,omitempty"`
}

// Get exposes the section as a key/value settings store. Unknown keys and an
// unset app-enable return nil.
func (r RelayConfig) Get(key string) any {
	switch key {
	case "app-enable":
		if r.AppEnable == nil {
			return nil
		}
		return *r.AppEnable
	case "message-mods":
		return r.MessageMods
	case "message-users":
		return r.MessageUsers
	case "send-for-modteam":
		return r.SendForModTeam
	case "send-for-automod":
		return r.SendForAutoMod
	case "send-for-posts":
		return r.SendForPosts
	case "ignore-mods":
		return r.IgnoreMods
	case "bot-usernames":
		return r.BotUsernames
	case "mod-blacklist":
		return r.ModBlacklist
	case "recipient-whitelist":
		return r.RecipientWhitelist
	case "subject-to-user":
		return r.SubjectToUser
	case "message-to-user":
		return r.MessageToUser
	default:
		return nil
	}
}

// OpsConfig controls the optional operations HTTP server (/healthz,
// /metrics, /status, pprof).
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:9090").
//   - If you bind to a non-loopback address, set a token or explicitly allow_insecure.
type OpsConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`  // default: "127.0.0.1:9090"
	Token         string `json:"token,omitempty"` // optional bearer token (do not log)
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
	Pprof         bool   `json:"pprof,omitempty"`

	// Server timeouts (Go duration strings). WriteTimeout defaults to 0
	// (disabled) so /debug/pprof/profile works.
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram forwards warn+ records to an ops chat.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token,omitempty"` // do not log
	ChatID     int64  `json:"chat_id,omitempty"`
	ThreadID   int    `json:"thread_id,omitempty"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}
