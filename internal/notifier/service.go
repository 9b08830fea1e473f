package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"botreplymsg/internal/eventbus"
	"botreplymsg/internal/transport"
	"botreplymsg/pkg/logx"
)

// Notifier validates recipients and sends relay messages, one attempt each.
type Notifier struct {
	msg Messenger
	log logx.Logger
	bus eventbus.Bus

	mu      sync.Mutex
	cfg     Config
	history []Record
}

// New returns a Notifier. bus may be nil.
func New(cfg Config, msg Messenger, log logx.Logger, bus eventbus.Bus) *Notifier {
	n := &Notifier{
		msg: msg,
		log: log.With(logx.String("comp", "notifier")),
		bus: bus,
	}
	n.Apply(cfg)
	return n
}

// Apply swaps the config. Safe for concurrent use.
func (n *Notifier) Apply(cfg Config) {
	cfg.AppSlug = strings.TrimSpace(cfg.AppSlug)
	if cfg.AppSlug == "" {
		cfg.AppSlug = DefaultAppSlug
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	n.mu.Lock()
	n.cfg = cfg
	if over := len(n.history) - cfg.HistorySize; over > 0 {
		n.history = append([]Record(nil), n.history[over:]...)
	}
	n.mu.Unlock()
}

func (n *Notifier) config() Config {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cfg
}

// SettingsURL is the settings page linked from moderator notices.
func (n *Notifier) SettingsURL(subreddit string) string {
	return SettingsURL(subreddit, n.config().AppSlug)
}

// IsValidRecipient reports whether username may receive a relay message:
// it must be non-empty and not the relay's own account, AutoModerator or the
// subreddit's ModTeam account. Names compare case-insensitively, as Reddit
// usernames do.
func (n *Notifier) IsValidRecipient(username, subreddit string) bool {
	name := strings.TrimSpace(username)
	if name == "" {
		return false
	}
	for _, blocked := range []string{n.config().AppAccount, transport.AutoModerator, transport.ModTeamAccount(subreddit)} {
		if blocked != "" && strings.EqualFold(name, blocked) {
			return false
		}
	}
	return true
}

// NotifyMod sends the fixed-format moderator notice.
func (n *Notifier) NotifyMod(ctx context.Context, notice ModNotice) Outcome {
	cfg := n.config()
	return n.dispatch(ctx, KindMod, notice.Subreddit, transport.PrivateMessage{
		To:      notice.Recipient,
		Subject: modSubject(notice.Subreddit),
		Text:    modBody(notice, cfg.AppSlug),
	})
}

// NotifyUser renders both templates, appends the do-not-reply footer and
// sends the result. Callers skip it when either template is blank.
func (n *Notifier) NotifyUser(ctx context.Context, notice UserNotice) Outcome {
	return n.dispatch(ctx, KindUser, notice.Vars.Subreddit, transport.PrivateMessage{
		To:      notice.Recipient,
		Subject: RenderTemplate(notice.SubjectTemplate, notice.Vars),
		Text:    userBody(notice),
	})
}

func (n *Notifier) dispatch(ctx context.Context, kind Kind, subreddit string, msg transport.PrivateMessage) Outcome {
	log := n.log.With(logx.String("kind", string(kind)), logx.String("to", msg.To))

	if !n.IsValidRecipient(msg.To, subreddit) {
		if strings.TrimSpace(msg.To) == "" {
			log.Warn("missing recipient; message not sent")
		} else {
			log.Debug("recipient skipped")
		}
		return n.record(kind, msg.To, subreddit, OutcomeRejected, nil)
	}

	start := time.Now()
	err := n.msg.SendPrivateMessage(ctx, msg)
	dispatchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		log.Info("private message sent")
		return n.record(kind, msg.To, subreddit, OutcomeSent, nil)
	case errors.Is(err, transport.ErrNotWhitelisted):
		log.Info("u/" + msg.To + " likely has messaging disabled")
		return n.record(kind, msg.To, subreddit, OutcomeRefused, err)
	default:
		log.Warn("private message failed", logx.Err(err))
		return n.record(kind, msg.To, subreddit, OutcomeFailed, err)
	}
}

func (n *Notifier) record(kind Kind, to, subreddit string, o Outcome, err error) Outcome {
	dispatchTotal.WithLabelValues(string(kind), string(o)).Inc()

	rec := Record{At: time.Now(), Kind: kind, To: to, Subreddit: subreddit, Outcome: o}
	if err != nil {
		rec.Error = err.Error()
	}
	n.mu.Lock()
	n.history = append(n.history, rec)
	if over := len(n.history) - n.cfg.HistorySize; over > 0 {
		n.history = n.history[over:]
	}
	n.mu.Unlock()

	if n.bus != nil {
		n.bus.Publish(eventbus.Event{Type: eventType(o), Time: rec.At, Data: rec})
	}
	return o
}

// History returns recent outcomes, oldest first.
func (n *Notifier) History() []Record {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Record(nil), n.history...)
}
