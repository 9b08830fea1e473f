package logx

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []string
	got  chan struct{}
}

func (r *recordingSender) SendAlert(_ context.Context, text string) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, text)
	r.mu.Unlock()
	select {
	case r.got <- struct{}{}:
	default:
	}
	return nil
}

func TestFormatAlert(t *testing.T) {
	t.Parallel()

	line := []byte(`{"level":"warn","time":"x","message":"dispatch failed","comp":"notifier","to":"alice"}` + "\n")
	got := formatAlert(line)
	want := "[WARN] dispatch failed\n- comp=notifier\n- to=alice"
	if got != want {
		t.Fatalf("formatAlert() = %q, want %q", got, want)
	}

	if got := formatAlert([]byte("  plain text \n")); got != "plain text" {
		t.Fatalf("formatAlert(non-json) = %q, want %q", got, "plain text")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate() = %q", got)
	}
	got := truncate(strings.Repeat("a", 50), 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncate() = %q, want 20 chars ending in ...", got)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in, LevelInfo); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestServiceForwardsWarnAlerts(t *testing.T) {
	sender := &recordingSender{got: make(chan struct{}, 4)}
	svc, log := New(Config{
		Level:  "debug",
		Alerts: AlertConfig{Enabled: true, MinLevel: "warn", RatePerSec: 10},
	}, sender)
	t.Cleanup(func() { _ = svc.Close() })

	log.Info("not forwarded")
	log.Warn("forwarded", String("comp", "test"))

	select {
	case <-sender.got:
	case <-time.After(2 * time.Second):
		t.Fatal("alert was not delivered")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.msgs) != 1 {
		t.Fatalf("alerts = %d, want 1", len(sender.msgs))
	}
	if !strings.HasPrefix(sender.msgs[0], "[WARN] forwarded") {
		t.Fatalf("alert = %q", sender.msgs[0])
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	t.Parallel()

	var l Logger
	if !l.IsZero() {
		t.Fatal("zero Logger should report IsZero")
	}
	l.Info("dropped")
	if Nop().IsZero() {
		t.Fatal("Nop() should not be zero")
	}
}
