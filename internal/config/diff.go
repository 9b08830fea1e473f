package config

import (
	"strings"

	"botreplymsg/pkg/logx"
)

// relayKeys lists the settings keys in the order they are reported.
var relayKeys = []string{
	"app-enable", "message-mods", "message-users", "send-for-modteam",
	"send-for-automod", "send-for-posts", "ignore-mods", "bot-usernames",
	"mod-blacklist", "recipient-whitelist", "subject-to-user", "message-to-user",
}

// ConfigChange summarizes a reload for logging. Attrs never include secrets
// (passwords, client secrets, tokens); only whether they are set.
type ConfigChange struct {
	Sections        []string
	Attrs           []logx.Field
	RelayKeys       []string
	RestartRequired bool
}

// SummarizeConfigChange compares two configs section by section.
func SummarizeConfigChange(oldCfg, newCfg *Config) ConfigChange {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var ch ConfigChange

	if redditChanged(oldCfg.Reddit, newCfg.Reddit) {
		ch.Sections = append(ch.Sections, "reddit")
		ch.RestartRequired = true
		ch.Attrs = append(ch.Attrs,
			logx.String("reddit.subreddit", strings.TrimSpace(newCfg.Reddit.Subreddit)),
			logx.String("reddit.username", strings.TrimSpace(newCfg.Reddit.Username)),
			logx.String("reddit.poll_schedule", strings.TrimSpace(newCfg.Reddit.PollSchedule)),
			logx.Bool("reddit.password_set", newCfg.Reddit.Password != ""),
		)
	}

	for _, k := range relayKeys {
		if oldCfg.Relay.Get(k) != newCfg.Relay.Get(k) {
			ch.RelayKeys = append(ch.RelayKeys, k)
		}
	}
	if strings.TrimSpace(oldCfg.Relay.AppSlug) != strings.TrimSpace(newCfg.Relay.AppSlug) {
		ch.RelayKeys = append(ch.RelayKeys, "app-slug")
	}
	if len(ch.RelayKeys) > 0 {
		ch.Sections = append(ch.Sections, "relay")
		ch.Attrs = append(ch.Attrs, logx.Strings("relay.keys", ch.RelayKeys))
	}

	ol, nl := oldCfg.Logging, newCfg.Logging
	if ol.Level != nl.Level ||
		ol.Console != nl.Console ||
		ol.File != nl.File ||
		ol.Telegram != nl.Telegram {
		ch.Sections = append(ch.Sections, "logging")
		ch.Attrs = append(ch.Attrs,
			logx.String("logging.level", nl.Level),
			logx.Bool("logging.console", nl.Console),
			logx.Bool("logging.file_enabled", nl.File.Enabled),
			logx.Bool("logging.telegram_enabled", nl.Telegram.Enabled),
			logx.Bool("logging.telegram_token_set", strings.TrimSpace(nl.Telegram.Token) != ""),
		)
	}

	oo, no := opsOrZero(oldCfg.Ops), opsOrZero(newCfg.Ops)
	if oo != no {
		ch.Sections = append(ch.Sections, "ops")
		ch.Attrs = append(ch.Attrs,
			logx.Bool("ops.enabled", no.Enabled),
			logx.String("ops.addr", strings.TrimSpace(no.Addr)),
			logx.Bool("ops.token_set", strings.TrimSpace(no.Token) != ""),
			logx.Bool("ops.pprof", no.Pprof),
		)
	}

	if oldCfg.HistorySize != newCfg.HistorySize {
		ch.Sections = append(ch.Sections, "history_size")
		ch.Attrs = append(ch.Attrs, logx.Int("history_size", newCfg.HistorySize))
	}
	return ch
}

func redditChanged(a, b RedditConfig) bool {
	if a.SkipBacklog == nil || b.SkipBacklog == nil {
		if (a.SkipBacklog == nil) != (b.SkipBacklog == nil) {
			return true
		}
	} else if *a.SkipBacklog != *b.SkipBacklog {
		return true
	}
	a.SkipBacklog, b.SkipBacklog = nil, nil
	return a != b
}

func opsOrZero(o *OpsConfig) OpsConfig {
	if o == nil {
		return OpsConfig{}
	}
	return *o
}
