// Package systemd reports service state to systemd through sd_notify. All
// calls are no-ops when NOTIFY_SOCKET is unset.
package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"botreplymsg/pkg/logx"
)

// Notifier sends sd_notify messages.
type Notifier struct {
	log    logx.Logger
	notify func(state string) (bool, error)
	// watchdog returns the configured WatchdogSec, or 0 when disabled.
	watchdog func() (time.Duration, error)
}

func NewNotifier(log logx.Logger) *Notifier {
	return &Notifier{
		log:      log.With(logx.String("comp", "systemd")),
		notify:   func(state string) (bool, error) { return daemon.SdNotify(false, state) },
		watchdog: func() (time.Duration, error) { return daemon.SdWatchdogEnabled(false) },
	}
}

func (n *Notifier) Ready()     { n.send(daemon.SdNotifyReady) }
func (n *Notifier) Reloading() { n.send(daemon.SdNotifyReloading) }
func (n *Notifier) Stopping()  { n.send(daemon.SdNotifyStopping) }

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(text string) { n.send("STATUS=" + text) }

// RunWatchdog pings the watchdog at half the configured interval while
// healthy reports nil. It returns immediately when the watchdog is off.
func (n *Notifier) RunWatchdog(ctx context.Context, healthy func() error) error {
	interval, err := n.watchdog()
	if err != nil {
		n.log.Warn("watchdog check failed", logx.Err(err))
		return nil
	}
	if interval <= 0 {
		return nil
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if healthy != nil {
				if err := healthy(); err != nil {
					n.log.Warn("watchdog ping withheld", logx.Err(err))
					continue
				}
			}
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}

func (n *Notifier) send(state string) {
	if _, err := n.notify(state); err != nil {
		n.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
	}
}
