package reddit

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultPollSchedule = "interval:30s"

// Schedule decides when the poller lists new comments.
//
// Supported forms:
//   - "interval:30s" or "every:30s": fixed delay between polls
//   - "cron:*/1 * * * *": standard 5-field cron (descriptors like "@every 1m" work too)
//   - a bare Go duration ("45s") or a bare cron expression (anything with spaces or a leading '@')
type Schedule struct {
	cron.Schedule
	Spec string
}

func ParseSchedule(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		s = DefaultPollSchedule
	}
	low := strings.ToLower(s)

	switch {
	case strings.HasPrefix(low, "cron:"):
		return parseCron(s, strings.TrimSpace(s[len("cron:"):]))
	case strings.HasPrefix(low, "interval:"):
		return parseEvery(s, strings.TrimSpace(s[len("interval:"):]))
	case strings.HasPrefix(low, "every:"):
		return parseEvery(s, strings.TrimSpace(s[len("every:"):]))
	case strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@"):
		return parseCron(s, s)
	default:
		return parseEvery(s, s)
	}
}

func parseCron(spec, expr string) (Schedule, error) {
	if expr == "" {
		return Schedule{}, fmt.Errorf("cron expression required in %q", spec)
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	return Schedule{Schedule: sched, Spec: spec}, nil
}

func parseEvery(spec, v string) (Schedule, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid poll interval %q (use a Go duration like '30s')", v)
	}
	// cron.Every rounds to whole seconds.
	if d < time.Second {
		return Schedule{}, fmt.Errorf("poll interval must be >= 1s, got %s", d)
	}
	return Schedule{Schedule: cron.Every(d), Spec: spec}, nil
}
