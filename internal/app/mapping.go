package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"botreplymsg/internal/config"
	"botreplymsg/internal/notifier"
	"botreplymsg/internal/observability/ops"
	"botreplymsg/internal/transport/reddit"
	"botreplymsg/internal/transport/telegram"
	"botreplymsg/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging
	return logx.Config{
		Level:   lc.Level,
		Console: lc.Console,
		File: logx.FileConfig{
			Enabled: lc.File.Enabled,
			Path:    lc.File.Path,
		},
		Alerts: logx.AlertConfig{
			Enabled:    lc.Telegram.Enabled,
			MinLevel:   lc.Telegram.MinLevel,
			RatePerSec: lc.Telegram.RatePerSec,
		},
	}
}

// mapAlertSender returns nil when Telegram alerts are disabled.
func mapAlertSender(cfg *config.Config) (logx.AlertSender, error) {
	tc := cfg.Logging.Telegram
	if !tc.Enabled {
		return nil, nil
	}
	s, err := telegram.NewAlertSender(telegram.Config{
		Token:    tc.Token,
		ChatID:   tc.ChatID,
		ThreadID: tc.ThreadID,
	})
	if err != nil {
		return nil, fmt.Errorf("logging.telegram: %w", err)
	}
	return s, nil
}

func mapRedditConfig(cfg *config.Config) (reddit.Config, error) {
	rc := cfg.Reddit
	if strings.TrimSpace(rc.ClientID) == "" {
		return reddit.Config{}, errors.New("reddit.client_id is required")
	}
	if strings.TrimSpace(rc.Username) == "" {
		return reddit.Config{}, errors.New("reddit.username is required")
	}
	if rc.RequestsPerMinute < 0 {
		return reddit.Config{}, errors.New("reddit.requests_per_minute must be >= 0")
	}
	timeout, err := config.ParseDurationOrDefault("reddit.request_timeout", rc.RequestTimeout, reddit.DefaultRequestTimeout)
	if err != nil {
		return reddit.Config{}, err
	}
	return reddit.Config{
		ClientID:          strings.TrimSpace(rc.ClientID),
		ClientSecret:      rc.ClientSecret,
		Username:          strings.TrimSpace(rc.Username),
		Password:          rc.Password,
		UserAgent:         rc.UserAgent,
		APIBase:           strings.TrimSpace(rc.APIBase),
		TokenURL:          strings.TrimSpace(rc.TokenURL),
		RequestTimeout:    timeout,
		RequestsPerMinute: rc.RequestsPerMinute,
	}, nil
}

func mapPollerConfig(cfg *config.Config) (reddit.PollerConfig, error) {
	rc := cfg.Reddit
	sub := strings.TrimPrefix(strings.TrimSpace(rc.Subreddit), "r/")
	if sub == "" {
		return reddit.PollerConfig{}, errors.New("reddit.subreddit is required")
	}
	if rc.PollLimit < 0 || rc.PollLimit > reddit.DefaultPollLimit {
		return reddit.PollerConfig{}, fmt.Errorf("reddit.poll_limit must be between 0 and %d", reddit.DefaultPollLimit)
	}
	if rc.SeenCacheSize < 0 {
		return reddit.PollerConfig{}, errors.New("reddit.seen_cache_size must be >= 0")
	}
	sched, err := reddit.ParseSchedule(rc.PollSchedule)
	if err != nil {
		return reddit.PollerConfig{}, fmt.Errorf("reddit.poll_schedule: %w", err)
	}
	skip := true
	if rc.SkipBacklog != nil {
		skip = *rc.SkipBacklog
	}
	return reddit.PollerConfig{
		Subreddit:     sub,
		Schedule:      sched,
		Limit:         rc.PollLimit,
		SeenCacheSize: rc.SeenCacheSize,
		SkipBacklog:   skip,
		IgnoreAuthor:  strings.TrimSpace(rc.Username),
	}, nil
}

func mapNotifierConfig(cfg *config.Config) notifier.Config {
	return notifier.Config{
		AppAccount:  strings.TrimSpace(cfg.Reddit.Username),
		AppSlug:     cfg.Relay.AppSlug,
		HistorySize: cfg.HistorySize,
	}
}

func mapOpsConfig(cfg *config.Config) (ops.Config, error) {
	if cfg.Ops == nil {
		return ops.Config{}, nil
	}
	oc := cfg.Ops
	read, err := config.ParseDurationOrDefault("ops.read_timeout", oc.ReadTimeout, 5*time.Second)
	if err != nil {
		return ops.Config{}, err
	}
	write, err := config.ParseDurationField("ops.write_timeout", oc.WriteTimeout)
	if err != nil {
		return ops.Config{}, err
	}
	idle, err := config.ParseDurationOrDefault("ops.idle_timeout", oc.IdleTimeout, 60*time.Second)
	if err != nil {
		return ops.Config{}, err
	}
	addr := strings.TrimSpace(oc.Addr)
	if addr == "" {
		addr = ops.DefaultAddr
	}
	return ops.Config{
		Enabled:       oc.Enabled,
		Addr:          addr,
		Token:         strings.TrimSpace(oc.Token),
		AllowInsecure: oc.AllowInsecure,
		Pprof:         oc.Pprof,
		ReadTimeout:   read,
		WriteTimeout:  write,
		IdleTimeout:   idle,
	}, nil
}

// validateConfig rejects a config before it is committed, at startup and on
// hot reload.
func validateConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if _, err := mapRedditConfig(cfg); err != nil {
		return err
	}
	if _, err := mapPollerConfig(cfg); err != nil {
		return err
	}
	if _, err := mapOpsConfig(cfg); err != nil {
		return err
	}
	if _, err := mapAlertSender(cfg); err != nil {
		return err
	}
	if cfg.HistorySize < 0 {
		return errors.New("history_size must be >= 0")
	}
	if cfg.Logging.Telegram.RatePerSec < 0 {
		return errors.New("logging.telegram.rate_per_sec must be >= 0")
	}
	return nil
}
