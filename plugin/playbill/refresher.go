package playbill

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// RefreshFunc reloads a cached resource.
type RefreshFunc func(ctx context.Context) error

// Refresher runs a RefreshFunc on a cron schedule.
type Refresher struct {
	cron    *cron.Cron
	refresh RefreshFunc
	timeout time.Duration
}

// NewRefresher schedules fn on spec, a five-field cron expression or a
// descriptor such as "@every 30m", evaluated in loc.
func NewRefresher(spec string, loc *time.Location, timeout time.Duration, fn RefreshFunc) (*Refresher, error) {
	if loc == nil {
		loc = time.Local
	}
	r := &Refresher{
		cron:    cron.New(cron.WithLocation(loc)),
		refresh: fn,
		timeout: timeout,
	}
	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, errors.Wrapf(err, "invalid refresh schedule %q", spec)
	}
	return r, nil
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.RunNow(ctx); err != nil {
		slog.Warn("scheduled refresh failed", slog.String("error", err.Error()))
	}
}

// RunNow refreshes immediately.
func (r *Refresher) RunNow(ctx context.Context) error {
	return r.refresh(ctx)
}

func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh, or until ctx is done.
func (r *Refresher) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Next returns when the refresh runs next. Zero before Start.
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
