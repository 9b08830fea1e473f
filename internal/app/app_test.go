package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"botreplymsg/internal/config"
	"botreplymsg/internal/notifier"
	"botreplymsg/internal/relay"
	"botreplymsg/internal/transport"
	"botreplymsg/pkg/logx"
)

func validConfig() *config.Config {
	return &config.Config{
		Reddit: config.RedditConfig{
			ClientID:  "id",
			Username:  "bot-reply-msg",
			Subreddit: "r/test",
		},
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"missing client id", func(c *config.Config) { c.Reddit.ClientID = " " }, "reddit.client_id"},
		{"missing username", func(c *config.Config) { c.Reddit.Username = "" }, "reddit.username"},
		{"missing subreddit", func(c *config.Config) { c.Reddit.Subreddit = "r/" }, "reddit.subreddit"},
		{"bad schedule", func(c *config.Config) { c.Reddit.PollSchedule = "cron:nope" }, "reddit.poll_schedule"},
		{"poll limit too high", func(c *config.Config) { c.Reddit.PollLimit = 500 }, "reddit.poll_limit"},
		{"bad timeout", func(c *config.Config) { c.Reddit.RequestTimeout = "soon" }, "reddit.request_timeout"},
		{"bad ops timeout", func(c *config.Config) { c.Ops = &config.OpsConfig{ReadTimeout: "-1"} }, "ops.read_timeout"},
		{"telegram without token", func(c *config.Config) {
			c.Logging.Telegram = config.LoggingTelegram{Enabled: true, ChatID: 1}
		}, "logging.telegram"},
		{"negative history", func(c *config.Config) { c.HistorySize = -1 }, "history_size"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(cfg)
			err := validateConfig(cfg)
			switch {
			case tc.wantErr == "" && err != nil:
				t.Fatalf("validateConfig() error = %v, want nil", err)
			case tc.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tc.wantErr)):
				t.Fatalf("validateConfig() error = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestMapPollerConfigDefaults(t *testing.T) {
	t.Parallel()

	pc, err := mapPollerConfig(validConfig())
	if err != nil {
		t.Fatalf("mapPollerConfig() error = %v", err)
	}
	if pc.Subreddit != "test" {
		t.Fatalf("Subreddit = %q, want test", pc.Subreddit)
	}
	if !pc.SkipBacklog {
		t.Fatal("SkipBacklog = false, want true by default")
	}
	if pc.IgnoreAuthor != "bot-reply-msg" {
		t.Fatalf("IgnoreAuthor = %q, want bot-reply-msg", pc.IgnoreAuthor)
	}
	if pc.Schedule.Spec != "interval:30s" {
		t.Fatalf("Schedule = %q, want interval:30s", pc.Schedule.Spec)
	}

	off := false
	cfg := validConfig()
	cfg.Reddit.SkipBacklog = &off
	if pc, _ := mapPollerConfig(cfg); pc.SkipBacklog {
		t.Fatal("SkipBacklog = true, want false when disabled")
	}
}

func TestMapOpsConfig(t *testing.T) {
	t.Parallel()

	oc, err := mapOpsConfig(validConfig())
	if err != nil || oc.Enabled {
		t.Fatalf("mapOpsConfig(nil ops) = %+v, %v; want disabled", oc, err)
	}

	cfg := validConfig()
	cfg.Ops = &config.OpsConfig{Enabled: true, Token: " t ", WriteTimeout: "30"}
	oc, err = mapOpsConfig(cfg)
	if err != nil {
		t.Fatalf("mapOpsConfig() error = %v", err)
	}
	if oc.Addr != "127.0.0.1:9090" || oc.Token != "t" || oc.WriteTimeout != 30*time.Second || oc.ReadTimeout != 5*time.Second {
		t.Fatalf("mapOpsConfig() = %+v", oc)
	}
}

func TestMapAlertSenderDisabled(t *testing.T) {
	t.Parallel()

	s, err := mapAlertSender(validConfig())
	if err != nil || s != nil {
		t.Fatalf("mapAlertSender() = %v, %v; want nil, nil", s, err)
	}
}

type stubDirectory struct{}

func (stubDirectory) PostByID(_ context.Context, id string) (transport.Thing, error) {
	return transport.Thing{ID: id, AuthorName: "someone"}, nil
}
func (stubDirectory) CommentByID(_ context.Context, id string) (transport.Thing, error) {
	return transport.Thing{ID: id, AuthorName: transport.AutoModerator}, nil
}
func (stubDirectory) Moderators(context.Context, string) ([]transport.Moderator, error) {
	return []transport.Moderator{{Username: "alice"}}, nil
}
func (stubDirectory) UserByUsername(context.Context, string) (*transport.User, error) {
	return nil, nil
}
func (stubDirectory) ModPermissions(context.Context, transport.User, string) ([]string, error) {
	return nil, nil
}

// brokenDirectory fails every parent comment lookup.
type brokenDirectory struct{ stubDirectory }

func (brokenDirectory) CommentByID(context.Context, string) (transport.Thing, error) {
	return transport.Thing{}, errors.New("reddit unavailable")
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recordingDispatcher struct {
	mu   sync.Mutex
	mods []notifier.ModNotice
}

func (d *recordingDispatcher) NotifyMod(_ context.Context, n notifier.ModNotice) notifier.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mods = append(d.mods, n)
	return notifier.OutcomeSent
}

func (d *recordingDispatcher) NotifyUser(context.Context, notifier.UserNotice) notifier.Outcome {
	return notifier.OutcomeSent
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.mods)
}

func TestDispatchLoopHandlesCommentsInOrder(t *testing.T) {
	t.Parallel()

	out := &recordingDispatcher{}
	store := relay.MapStore{relay.KeySendForAutoMod: true, relay.KeyMessageMods: true}
	a := &App{
		log:     logx.Nop(),
		handler: relay.NewHandler("test", func() relay.SettingsStore { return store }, stubDirectory{}, out, logx.Nop()),
	}

	in := make(chan transport.Update, 3)
	in <- transport.Update{Kind: transport.UpdateComment, Comment: &transport.CommentEvent{ID: "t1_a", Author: "dave", ParentID: "t1_x", Permalink: "link-a"}}
	in <- transport.Update{Kind: transport.UpdateComment, Comment: &transport.CommentEvent{ID: "t1_b", Author: "erin", ParentID: "t3_p", Permalink: "link-b"}}
	in <- transport.Update{Kind: transport.UpdateComment, Comment: &transport.CommentEvent{ID: "t1_c", Author: "frank", ParentID: "t1_y", Permalink: "link-c"}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.dispatchLoop(ctx, in) }()

	deadline := time.Now().Add(5 * time.Second)
	for out.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("dispatchLoop() error = %v", err)
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	if len(out.mods) != 2 {
		t.Fatalf("mod notices = %d, want 2 (post reply skipped)", len(out.mods))
	}
	if out.mods[0].CommentLink != "link-a" || out.mods[1].CommentLink != "link-c" {
		t.Fatalf("order = %q, %q; want link-a, link-c", out.mods[0].CommentLink, out.mods[1].CommentLink)
	}
}

func TestDispatchLoopLogsAbandonedEventAtErrorLevel(t *testing.T) {
	t.Parallel()

	buf := &lockedBuffer{}
	out := &recordingDispatcher{}
	store := relay.MapStore{relay.KeySendForAutoMod: true, relay.KeyMessageMods: true}
	a := &App{
		// Records below error level are dropped.
		log:     logx.NewWriter(buf, "error"),
		handler: relay.NewHandler("test", func() relay.SettingsStore { return store }, brokenDirectory{}, out, logx.Nop()),
	}

	in := make(chan transport.Update, 1)
	in <- transport.Update{Kind: transport.UpdateComment, Comment: &transport.CommentEvent{ID: "t1_a", Author: "dave", ParentID: "t1_x"}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.dispatchLoop(ctx, in) }()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(buf.String(), "comment event abandoned") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("dispatchLoop() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"comment event abandoned", "t1_a", "reddit unavailable"} {
		if !strings.Contains(got, want) {
			t.Fatalf("log = %q, want it to contain %q", got, want)
		}
	}
	if out.count() != 0 {
		t.Fatalf("mod notices = %d, want 0", out.count())
	}
}
