package reddit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"botreplymsg/internal/runtime/supervisor"
	"botreplymsg/internal/transport"
	"botreplymsg/pkg/logx"
)

const (
	DefaultPollLimit     = 100
	DefaultSeenCacheSize = 2048
	deletedAuthor        = "[deleted]"
)

// CommentSource lists recent comments, newest first.
type CommentSource interface {
	NewComments(ctx context.Context, subreddit string, limit int) ([]transport.CommentEvent, error)
}

type PollerConfig struct {
	Subreddit     string
	Schedule      Schedule
	Limit         int
	SeenCacheSize int
	SkipBacklog   bool
	// IgnoreAuthor drops comments written by this account (the relay itself).
	IgnoreAuthor string
}

// Poller turns the subreddit comment listing into a stream of CommentEvents.
// It implements transport.Adapter.
type Poller struct {
	cfg PollerConfig
	src CommentSource
	log logx.Logger

	// seen dedups comments that show up in consecutive listing pages.
	seen *lru.Cache[string, struct{}]

	pollMu sync.Mutex // serializes PollOnce
	primed bool

	runMu sync.Mutex
	sup   *supervisor.Supervisor
}

func NewPoller(cfg PollerConfig, src CommentSource, log logx.Logger) (*Poller, error) {
	if strings.TrimSpace(cfg.Subreddit) == "" {
		return nil, errors.New("reddit: poller requires a subreddit")
	}
	if src == nil {
		return nil, errors.New("reddit: poller requires a comment source")
	}
	if cfg.Schedule.Schedule == nil {
		s, err := ParseSchedule("")
		if err != nil {
			return nil, err
		}
		cfg.Schedule = s
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultPollLimit
	}
	if cfg.SeenCacheSize < cfg.Limit {
		cfg.SeenCacheSize = max(DefaultSeenCacheSize, cfg.Limit*2)
	}
	seen, err := lru.New[string, struct{}](cfg.SeenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("reddit: seen cache: %w", err)
	}
	return &Poller{
		cfg:  cfg,
		src:  src,
		log:  log.With(logx.String("comp", "reddit.poller"), logx.String("subreddit", cfg.Subreddit)),
		seen: seen,
	}, nil
}

// Supervisor returns the poller's supervisor, nil before Start.
func (p *Poller) Supervisor() *supervisor.Supervisor {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.sup
}

// Start launches the poll loop and returns immediately.
func (p *Poller) Start(ctx context.Context, out chan<- transport.Update) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.sup != nil {
		return errors.New("reddit: poller already started")
	}
	p.sup = supervisor.New(ctx, supervisor.WithLogger(p.log))
	p.sup.GoRestart("reddit.poll", func(ctx context.Context) error {
		return p.run(ctx, out)
	}, supervisor.WithRestartBackoff(time.Second, time.Minute), supervisor.WithPublishFirstError(true))
	p.log.Info("comment poller started",
		logx.String("schedule", p.cfg.Schedule.Spec),
		logx.Int("limit", p.cfg.Limit),
		logx.Bool("skip_backlog", p.cfg.SkipBacklog),
	)
	return nil
}

func (p *Poller) Stop(ctx context.Context) error {
	p.runMu.Lock()
	sup := p.sup
	p.sup = nil
	p.runMu.Unlock()
	if sup == nil {
		return nil
	}
	return sup.Stop(ctx)
}

// run polls now and then on every schedule tick until ctx is done. Listing
// failures are logged and retried on the next tick.
func (p *Poller) run(ctx context.Context, out chan<- transport.Update) error {
	for {
		n, err := p.PollOnce(ctx, out)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			pollsTotal.WithLabelValues("error").Inc()
			p.log.Warn("comment poll failed", logx.Err(err))
		default:
			pollsTotal.WithLabelValues("ok").Inc()
			if n > 0 {
				p.log.Debug("comment poll", logx.Int("new", n))
			}
		}

		now := time.Now()
		t := time.NewTimer(p.cfg.Schedule.Next(now).Sub(now))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// PollOnce lists recent comments and emits the unseen ones oldest first.
// Sends block until the consumer accepts them or ctx is done. It returns the
// number of comments emitted.
func (p *Poller) PollOnce(ctx context.Context, out chan<- transport.Update) (int, error) {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	comments, err := p.src.NewComments(ctx, p.cfg.Subreddit, p.cfg.Limit)
	if err != nil {
		return 0, err
	}

	backlog := !p.primed && p.cfg.SkipBacklog
	emitted, fresh := 0, 0
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		if p.seen.Contains(c.ID) {
			continue
		}
		p.seen.Add(c.ID, struct{}{})
		fresh++
		if backlog || c.Author == "" || c.Author == deletedAuthor ||
			(p.cfg.IgnoreAuthor != "" && strings.EqualFold(c.Author, p.cfg.IgnoreAuthor)) {
			continue
		}

		ev := c
		select {
		case out <- transport.Update{Kind: transport.UpdateComment, Comment: &ev}:
			emitted++
			commentsEmitted.Inc()
		case <-ctx.Done():
			return emitted, ctx.Err()
		}
	}

	if backlog {
		p.log.Info("comment backlog skipped", logx.Int("count", fresh))
	} else if p.primed && len(comments) >= p.cfg.Limit && fresh == len(comments) {
		// Every listed comment was new, so older ones may have been missed.
		p.log.Warn("comment poll may have missed comments; poll more often",
			logx.Int("listed", len(comments)))
	}
	p.primed = true
	return emitted, nil
}
