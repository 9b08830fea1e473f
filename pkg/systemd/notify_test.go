package systemd

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"botreplymsg/pkg/logx"
)

type recorder struct {
	mu     sync.Mutex
	states []string
}

func (r *recorder) notify(state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return true, nil
}

func (r *recorder) count(state string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s == state {
			n++
		}
	}
	return n
}

func newTestNotifier(r *recorder, interval time.Duration) *Notifier {
	n := NewNotifier(logx.Nop())
	n.notify = r.notify
	n.watchdog = func() (time.Duration, error) { return interval, nil }
	return n
}

func TestLifecycleStates(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	n := newTestNotifier(r, 0)
	n.Ready()
	n.Status("polling r/test")
	n.Stopping()

	want := []string{"READY=1", "STATUS=polling r/test", "STOPPING=1"}
	if len(r.states) != len(want) {
		t.Fatalf("states = %q, want %q", r.states, want)
	}
	for i := range want {
		if r.states[i] != want[i] {
			t.Fatalf("states[%d] = %q, want %q", i, r.states[i], want[i])
		}
	}
}

func TestRunWatchdogDisabled(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	if err := newTestNotifier(r, 0).RunWatchdog(context.Background(), nil); err != nil {
		t.Fatalf("RunWatchdog() error = %v", err)
	}
	if len(r.states) != 0 {
		t.Fatalf("states = %q, want none", r.states)
	}
}

func TestRunWatchdogPings(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	n := newTestNotifier(r, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = n.RunWatchdog(ctx, nil)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for r.count("WATCHDOG=1") < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	if got := r.count("WATCHDOG=1"); got < 2 {
		t.Fatalf("watchdog pings = %d, want >= 2", got)
	}
}

func TestRunWatchdogWithholdsWhenUnhealthy(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	n := newTestNotifier(r, 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_ = n.RunWatchdog(ctx, func() error { return errors.New("stuck") })
	if got := r.count("WATCHDOG=1"); got != 0 {
		t.Fatalf("watchdog pings = %d, want 0", got)
	}
}
