package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"botreplymsg/internal/eventbus"
	"botreplymsg/internal/transport"
	"botreplymsg/pkg/logx"
)

type fakeMessenger struct {
	sent []transport.PrivateMessage
	errs map[string]error
}

func (f *fakeMessenger) SendPrivateMessage(_ context.Context, msg transport.PrivateMessage) error {
	f.sent = append(f.sent, msg)
	return f.errs[msg.To]
}

func newTestNotifier(m *fakeMessenger, bus eventbus.Bus) *Notifier {
	return New(Config{AppAccount: "bot-reply-msg"}, m, logx.Nop(), bus)
}

func TestIsValidRecipient(t *testing.T) {
	t.Parallel()

	n := newTestNotifier(&fakeMessenger{}, nil)
	cases := []struct {
		name string
		want bool
	}{
		{"dave", true},
		{"", false},
		{"   ", false},
		{"AutoModerator", false},
		{"automoderator", false},
		{"test-ModTeam", false},
		{"other-ModTeam", true},
		{"bot-reply-msg", false},
	}
	for _, tc := range cases {
		if got := n.IsValidRecipient(tc.name, "test"); got != tc.want {
			t.Fatalf("IsValidRecipient(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	got := RenderTemplate("u/{user} replied to u/{bot} in {subreddit}", Vars{
		User: "dave", Bot: "AutoModerator", Subreddit: "test",
	})
	if want := "u/dave replied to u/AutoModerator in test"; got != want {
		t.Fatalf("RenderTemplate() = %q, want %q", got, want)
	}

	got = RenderTemplate("{bot} {bot} {comment_link} {unknown}", Vars{Bot: "{user}", CommentLink: "L"})
	if want := "{user} {user} L {unknown}"; got != want {
		t.Fatalf("RenderTemplate() = %q, want %q", got, want)
	}
}

func TestNotifyModFormat(t *testing.T) {
	t.Parallel()

	m := &fakeMessenger{}
	n := newTestNotifier(m, nil)
	o := n.NotifyMod(context.Background(), ModNotice{
		Recipient:   "alice",
		ReplyAuthor: "dave",
		BotAuthor:   "AutoModerator",
		Subreddit:   "test",
		CommentLink: "https://www.reddit.com/r/test/comments/p/x/c/",
	})
	if o != OutcomeSent {
		t.Fatalf("NotifyMod() = %v, want %v", o, OutcomeSent)
	}
	if len(m.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(m.sent))
	}
	msg := m.sent[0]
	if msg.To != "alice" || msg.Subject != "Someone replied to a bot in r/test." {
		t.Fatalf("message = %+v", msg)
	}
	want := "u/dave replied to u/AutoModerator.\n\n" +
		"- [**Comment Link**](https://www.reddit.com/r/test/comments/p/x/c/)\n\n---\n\n" +
		"[App Settings](https://developers.reddit.com/r/test/apps/bot-reply-msg)"
	if msg.Text != want {
		t.Fatalf("body = %q, want %q", msg.Text, want)
	}
}

func TestNotifyUserTemplatesAndFooter(t *testing.T) {
	t.Parallel()

	m := &fakeMessenger{}
	n := newTestNotifier(m, nil)
	o := n.NotifyUser(context.Background(), UserNotice{
		Recipient:       "dave",
		SubjectTemplate: "About your reply to u/{bot} in r/{subreddit}",
		BodyTemplate:    "Hi u/{user}, see {comment_link}",
		Vars:            Vars{Bot: "Foo", User: "dave", Subreddit: "test", CommentLink: "L"},
	})
	if o != OutcomeSent || len(m.sent) != 1 {
		t.Fatalf("NotifyUser() = %v, sent %d", o, len(m.sent))
	}
	msg := m.sent[0]
	if msg.Subject != "About your reply to u/Foo in r/test" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if msg.Text != "Hi u/dave, see L\n\n---\n\n*Do not reply; this inbox is not monitored.*" {
		t.Fatalf("body = %q", msg.Text)
	}
}

func TestDispatchOutcomes(t *testing.T) {
	t.Parallel()

	m := &fakeMessenger{errs: map[string]error{
		"private": fmt.Errorf("compose: %w", transport.ErrNotWhitelisted),
		"broken":  errors.New("503"),
	}}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(8)
	defer unsub()
	n := newTestNotifier(m, bus)
	ctx := context.Background()

	before := testutil.ToFloat64(dispatchTotal.WithLabelValues("mod", "refused"))

	cases := []struct {
		to   string
		want Outcome
	}{
		{"private", OutcomeRefused},
		{"broken", OutcomeFailed},
		{"AutoModerator", OutcomeRejected},
		{"", OutcomeRejected},
		{"alice", OutcomeSent},
	}
	for _, tc := range cases {
		if got := n.NotifyMod(ctx, ModNotice{Recipient: tc.to, Subreddit: "test"}); got != tc.want {
			t.Fatalf("NotifyMod(%q) = %v, want %v", tc.to, got, tc.want)
		}
	}
	if len(m.sent) != 3 {
		t.Fatalf("messenger calls = %d, want 3 (rejected recipients are not sent)", len(m.sent))
	}
	if got := testutil.ToFloat64(dispatchTotal.WithLabelValues("mod", "refused")) - before; got != 1 {
		t.Fatalf("refused counter delta = %v, want 1", got)
	}

	hist := n.History()
	if len(hist) != len(cases) || hist[0].Outcome != OutcomeRefused || hist[0].Error == "" {
		t.Fatalf("History() = %+v", hist)
	}

	select {
	case e := <-events:
		if e.Type != EventRefused {
			t.Fatalf("first event = %q, want %q", e.Type, EventRefused)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()

	n := New(Config{HistorySize: 2}, &fakeMessenger{}, logx.Nop(), nil)
	for _, to := range []string{"a", "b", "c"} {
		n.NotifyMod(context.Background(), ModNotice{Recipient: to, Subreddit: "test"})
	}
	hist := n.History()
	if len(hist) != 2 || hist[0].To != "b" || hist[1].To != "c" {
		t.Fatalf("History() = %+v, want [b c]", hist)
	}

	n.Apply(Config{HistorySize: 1})
	if got := n.History(); len(got) != 1 || got[0].To != "c" {
		t.Fatalf("History() after shrink = %+v, want [c]", got)
	}
}

func TestSettingsURL(t *testing.T) {
	t.Parallel()

	if got := SettingsURL("test", "bot-reply-msg"); !strings.HasSuffix(got, "/r/test/apps/bot-reply-msg") {
		t.Fatalf("SettingsURL() = %q", got)
	}
}
