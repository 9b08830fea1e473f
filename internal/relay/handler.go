package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"botreplymsg/internal/notifier"
	"botreplymsg/internal/transport"
	"botreplymsg/pkg/logx"
)

// SkipReason says why an event was abandoned before any branch ran.
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipDisabled   SkipReason = "disabled"
	SkipPostReply  SkipReason = "post_reply"
	SkipAuthorMod  SkipReason = "author_is_mod"
	SkipNoBranches SkipReason = "no_branches"
)

// Result summarizes one HandleComment call.
type Result struct {
	Skip         SkipReason
	ParentAuthor string
	Applicable   bool
	Recipients   []string
	ModOutcomes  []notifier.Outcome
	UserOutcome  notifier.Outcome // empty when no user message was attempted
}

// Handler runs the per-comment relay policy.
type Handler struct {
	subreddit string
	settings  func() SettingsStore
	dir       Directory
	out       Dispatcher
	log       logx.Logger
}

// NewHandler returns a Handler for one subreddit. settings is called once
// per event.
func NewHandler(subreddit string, settings func() SettingsStore, dir Directory, out Dispatcher, log logx.Logger) *Handler {
	return &Handler{
		subreddit: subreddit,
		settings:  settings,
		dir:       dir,
		out:       out,
		log:       log.With(logx.String("comp", "relay"), logx.String("subreddit", subreddit)),
	}
}

// HandleComment processes one new comment to completion. Delivery failures
// never surface here; lookup failures abandon the affected branch and are
// returned (joined when both branches fail).
func (h *Handler) HandleComment(ctx context.Context, ev transport.CommentEvent) (Result, error) {
	start := time.Now()
	res, err := h.handle(ctx, ev)
	eventDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		eventsTotal.WithLabelValues("error").Inc()
	case res.Skip != SkipNone:
		eventsTotal.WithLabelValues(string(res.Skip)).Inc()
	case res.Applicable:
		eventsTotal.WithLabelValues("relayed").Inc()
	default:
		eventsTotal.WithLabelValues("not_applicable").Inc()
	}
	return res, err
}

func (h *Handler) handle(ctx context.Context, ev transport.CommentEvent) (Result, error) {
	var res Result
	s := LoadSettings(h.subreddit, h.settings())
	log := h.log.With(logx.String("comment", ev.ID), logx.String("author", ev.Author))

	if !s.AppEnabled {
		res.Skip = SkipDisabled
		return res, nil
	}
	if ev.IsPostReply() && !s.SendForPosts {
		res.Skip = SkipPostReply
		return res, nil
	}
	if s.IgnoreMods {
		isMod, err := IsModerator(ctx, h.dir, ev.Author, s.Subreddit)
		if err != nil {
			return res, fmt.Errorf("moderator check: %w", err)
		}
		if isMod {
			log.Debug("reply by moderator ignored")
			res.Skip = SkipAuthorMod
			return res, nil
		}
	}
	if !s.MessageMods && !s.MessageUsers {
		res.Skip = SkipNoBranches
		return res, nil
	}

	parent, err := h.parentAuthor(ctx, ev.ParentID)
	if err != nil {
		return res, fmt.Errorf("resolve parent %s: %w", ev.ParentID, err)
	}
	res.ParentAuthor = parent
	if !IsApplicable(parent, s) {
		log.Trace("parent is not a monitored bot", logx.String("parent_author", parent))
		return res, nil
	}
	res.Applicable = true
	log.Debug("reply to monitored bot", logx.String("bot", parent))

	var errs []error
	if s.MessageMods {
		if err := h.notifyMods(ctx, s, ev, parent, &res); err != nil {
			errs = append(errs, fmt.Errorf("mods: %w", err))
		}
	}
	if s.MessageUsers && s.UserTemplatesSet() {
		res.UserOutcome = h.out.NotifyUser(ctx, notifier.UserNotice{
			Recipient:       ev.Author,
			SubjectTemplate: s.SubjectToUser,
			BodyTemplate:    s.MessageToUser,
			Vars: notifier.Vars{
				Bot:         parent,
				User:        ev.Author,
				Subreddit:   s.Subreddit,
				CommentLink: ev.Permalink,
			},
		})
	}
	return res, errors.Join(errs...)
}

func (h *Handler) notifyMods(ctx context.Context, s Settings, ev transport.CommentEvent, parent string, res *Result) error {
	recipients, err := ResolveRecipients(ctx, s, h.dir)
	if err != nil {
		return err
	}
	res.Recipients = recipients
	for _, to := range recipients {
		res.ModOutcomes = append(res.ModOutcomes, h.out.NotifyMod(ctx, notifier.ModNotice{
			Recipient:   to,
			ReplyAuthor: ev.Author,
			BotAuthor:   parent,
			Subreddit:   s.Subreddit,
			CommentLink: ev.Permalink,
		}))
	}
	return nil
}

func (h *Handler) parentAuthor(ctx context.Context, parentID string) (string, error) {
	var (
		t   transport.Thing
		err error
	)
	if strings.HasPrefix(parentID, transport.KindPost) {
		t, err = h.dir.PostByID(ctx, parentID)
	} else {
		t, err = h.dir.CommentByID(ctx, parentID)
	}
	if err != nil {
		return "", err
	}
	return t.AuthorName, nil
}
