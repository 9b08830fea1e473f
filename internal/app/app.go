// Package app wires the relay: config, logging, the Reddit poller, the relay
// handler, the notifier and the ops server.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"botreplymsg/internal/config"
	"botreplymsg/internal/eventbus"
	"botreplymsg/internal/notifier"
	"botreplymsg/internal/observability/ops"
	"botreplymsg/internal/relay"
	rtsup "botreplymsg/internal/runtime/supervisor"
	"botreplymsg/internal/transport"
	"botreplymsg/internal/transport/reddit"
	"botreplymsg/pkg/logx"
	"botreplymsg/pkg/systemd"
)

// EventConfigReloaded is published on the bus after a reload is applied.
const EventConfigReloaded = "config.reloaded"

type App struct {
	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  *eventbus.MemBus
	sd   *systemd.Notifier

	subreddit string
	startedAt time.Time

	client  *reddit.Client
	poller  *reddit.Poller
	notif   *notifier.Notifier
	handler *relay.Handler
	ops     *ops.Service

	updates chan transport.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Parse()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfgm.Commit(cfg)

	sender, err := mapAlertSender(cfg)
	if err != nil {
		return nil, err
	}
	logSvc, root := logx.New(mapLoggingConfig(cfg), sender)
	log := root.With(logx.String("comp", "app"))

	rc, err := mapRedditConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := reddit.NewClient(rc, root)
	if err != nil {
		return nil, err
	}
	pc, err := mapPollerConfig(cfg)
	if err != nil {
		return nil, err
	}
	poller, err := reddit.NewPoller(pc, client, root)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	notif := notifier.New(mapNotifierConfig(cfg), client, root, bus)
	handler := relay.NewHandler(pc.Subreddit, func() relay.SettingsStore {
		return cfgm.Get().Relay
	}, client, notif, root)

	oc, err := mapOpsConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfgm:      cfgm,
		log:       log,
		logs:      logSvc,
		bus:       bus,
		sd:        systemd.NewNotifier(root),
		subreddit: pc.Subreddit,
		client:    client,
		poller:    poller,
		notif:     notif,
		handler:   handler,
		updates:   make(chan transport.Update, 64),
	}
	a.ops = ops.New(oc, a.status, a.healthy, root)
	return a, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.startedAt = time.Now()
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	a.ops.Start(a.sup.Context())

	if err := a.poller.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}

	a.sup.Go("relay.dispatch", func(c context.Context) error {
		return a.dispatchLoop(c, a.updates)
	})

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go("eventbus.log", func(c context.Context) error {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return nil
			case next, ok := <-sub:
				if !ok {
					return nil
				}
				// Coalesce bursts: keep only the latest config.
			drain:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							next = newer
						}
					default:
						break drain
					}
				}
				a.applyConfig(c, last, next)
				last = next
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.sup.Go("systemd.watchdog", func(c context.Context) error {
		return a.sd.RunWatchdog(c, a.healthy)
	})

	a.sd.Ready()
	a.sd.Status("relaying replies in r/" + a.subreddit)
	a.log.Info("app started",
		logx.String("subreddit", a.subreddit),
		logx.String("account", a.client.Username()),
		logx.String("settings_url", a.notif.SettingsURL(a.subreddit)),
	)
	return nil
}

// dispatchLoop handles comment events one at a time, in arrival order.
func (a *App) dispatchLoop(ctx context.Context, in <-chan transport.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case up := <-in:
			if up.Kind != transport.UpdateComment || up.Comment == nil {
				continue
			}
			ev := *up.Comment
			res, err := a.handler.HandleComment(ctx, ev)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.log.Error("comment event abandoned",
					logx.String("comment", ev.ID),
					logx.String("parent", ev.ParentID),
					logx.Err(err),
				)
				continue
			}
			if res.Applicable {
				a.log.Debug("comment event handled",
					logx.String("comment", ev.ID),
					logx.String("bot", res.ParentAuthor),
					logx.Int("mod_messages", len(res.ModOutcomes)),
					logx.String("user_outcome", string(res.UserOutcome)),
				)
			}
		}
	}
}

func (a *App) applyConfig(ctx context.Context, prev, next *config.Config) {
	a.sd.Reloading()
	defer a.sd.Ready()

	ch := config.SummarizeConfigChange(prev, next)
	if len(ch.Sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(ch.Sections, ","))}, ch.Attrs...)
	a.log.Debug("config change summary", fields...)
	if ch.RestartRequired {
		a.log.Warn("reddit config changed; restart required for changes to take effect")
	}
	if len(ch.RelayKeys) > 0 {
		a.log.Info("relay settings changed", logx.Strings("keys", ch.RelayKeys))
	}

	// Swap the alert sender before Apply so enabling alerts never sees a
	// missing destination.
	if sender, err := mapAlertSender(next); err != nil {
		a.log.Warn("invalid telegram alert config; keeping previous", logx.Err(err))
	} else {
		a.logs.SetAlertSender(sender)
	}
	a.logs.Apply(mapLoggingConfig(next))

	a.notif.Apply(mapNotifierConfig(next))

	if oc, err := mapOpsConfig(next); err != nil {
		a.log.Warn("invalid ops config; keeping previous", logx.Err(err))
	} else {
		a.ops.Reconfigure(ctx, oc)
	}

	a.bus.Publish(eventbus.Event{Type: EventConfigReloaded, Time: time.Now(), Data: ch.Sections})
	a.log.Info("config reloaded", fields...)
}

// healthy reports an error once the app or the poller has stopped.
func (a *App) healthy() error {
	if a.sup == nil {
		return errors.New("not started")
	}
	if err := a.sup.Context().Err(); err != nil {
		return err
	}
	if a.poller.Supervisor() == nil {
		return errors.New("poller stopped")
	}
	return nil
}

// Status is the /status payload.
type Status struct {
	Subreddit   string                    `json:"subreddit"`
	Account     string                    `json:"account"`
	SettingsURL string                    `json:"settings_url"`
	StartedAt   time.Time                 `json:"started_at"`
	Uptime      string                    `json:"uptime"`
	Settings    relay.Settings            `json:"settings"`
	Recent      []notifier.Record         `json:"recent"`
	BusDropped  uint64                    `json:"bus_dropped"`
	Supervisors map[string]rtsup.Snapshot `json:"supervisors"`
}

func (a *App) status() any {
	cfg := a.cfgm.Get()
	st := Status{
		Subreddit:   a.subreddit,
		Account:     a.client.Username(),
		SettingsURL: a.notif.SettingsURL(a.subreddit),
		StartedAt:   a.startedAt,
		Uptime:      time.Since(a.startedAt).Round(time.Second).String(),
		Settings:    relay.LoadSettings(a.subreddit, cfg.Relay),
		Recent:      a.notif.History(),
		BusDropped:  a.bus.Dropped(),
		Supervisors: map[string]rtsup.Snapshot{},
	}
	if a.sup != nil {
		st.Supervisors["app"] = a.sup.Snapshot()
	}
	if sup := a.poller.Supervisor(); sup != nil {
		st.Supervisors["reddit.poller"] = sup.Snapshot()
	}
	if sup := a.ops.Supervisor(); sup != nil {
		st.Supervisors["ops"] = sup.Snapshot()
	}
	return st
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sd.Stopping()

	// Cancel first so background loops start unwinding immediately.
	a.sup.Cancel()

	a.step(ctx, "poller", 3*time.Second, a.poller.Stop)
	a.step(ctx, "ops", time.Second, func(c context.Context) error { a.ops.Stop(c); return nil })
	a.step(ctx, "supervisor", 2*time.Second, a.sup.Wait)

	a.log.Info("stopped")
	return a.logs.Close()
}

// step runs one shutdown step bounded by max so a stuck component cannot
// stall the whole stop. The caller's deadline is never extended.
func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	if dl, ok := ctx.Deadline(); ok {
		max = min(max, time.Until(dl))
	}
	if max <= 0 {
		a.log.Warn("stop step skipped; deadline reached", logx.String("name", name))
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)),
		)
	}
}
