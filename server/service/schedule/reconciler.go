package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/plugin/assistant/session"
	"github.com/hrygo/backstage/plugin/assistant/timeout"
	"github.com/hrygo/backstage/plugin/playbill"
	"github.com/hrygo/backstage/store"
)

// Reconciler answers week queries from the local store, falling back to the
// venue playbill and offering its listings as a pending suggestion.
type Reconciler struct {
	store       EventStore
	feed        Feed
	pending     session.PendingStore
	feedTimeout time.Duration
	now         func() time.Time
}

func NewReconciler(store EventStore, feed Feed, pending session.PendingStore, feedTimeout time.Duration) *Reconciler {
	if feedTimeout <= 0 {
		feedTimeout = timeout.FeedTimeout
	}
	return &Reconciler{
		store:       store,
		feed:        feed,
		pending:     pending,
		feedTimeout: feedTimeout,
		now:         time.Now,
	}
}

// QueryWeek returns the owner's events for week. When there are none and the
// playbill lists something, the listings replace the owner's pending suggestion.
func (r *Reconciler) QueryWeek(ctx context.Context, ownerID int64, week chrono.Week) (*WeekResult, error) {
	from, to := week.Start.String(), week.End.String()
	events, err := r.store.ListEvents(ctx, &store.FindEvent{
		OwnerID:  &ownerID,
		DateFrom: &from,
		DateTo:   &to,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list week events")
	}
	if len(events) > 0 {
		return &WeekResult{Week: week, Source: SourceLocal, Events: events}, nil
	}

	result := r.venueWeek(ctx, ownerID, week)
	if len(result.Events) == 0 {
		return result, nil
	}

	err = r.pending.Save(ctx, &session.PendingSuggestion{
		OwnerID:    ownerID,
		Candidates: result.Events,
		CreatedAt:  r.now().Unix(),
	})
	if err != nil {
		slog.Warn("failed to save pending suggestion",
			slog.Int64("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	result.Suggested = true
	return result, nil
}

// QueryVenueWeek returns the playbill for week. It never touches pending state.
func (r *Reconciler) QueryVenueWeek(ctx context.Context, week chrono.Week) (*WeekResult, error) {
	return r.venueWeek(ctx, 0, week), nil
}

func (r *Reconciler) venueWeek(ctx context.Context, ownerID int64, week chrono.Week) *WeekResult {
	result := &WeekResult{Week: week, Source: SourceNone}

	ctx, cancel := context.WithTimeout(ctx, r.feedTimeout)
	defer cancel()
	listings, err := r.feed.ListEvents(ctx, week.Start, week.End)
	if err != nil {
		slog.Warn("playbill unavailable, treating as empty",
			slog.String("week", week.Start.String()),
			slog.String("error", err.Error()),
		)
		result.FeedFailed = true
		return result
	}

	for _, l := range listings {
		if l.Kind == playbill.KindExcursion {
			continue
		}
		result.Events = append(result.Events, Descriptor(ownerID, l))
	}
	if len(result.Events) > 0 {
		result.Source = SourceFeed
	}
	return result
}

// Descriptor converts a listing into an unsaved event whose end time is the
// start plus the kind's default duration.
func Descriptor(ownerID int64, l playbill.Listing) *store.Event {
	kind := l.EventKind()
	hall := store.Hall(l.Hall)
	if hall == "" {
		hall = store.DefaultHall
	}
	return &store.Event{
		OwnerID:   ownerID,
		Title:     l.Title,
		Date:      l.Date,
		StartTime: l.Time,
		EndTime:   chrono.DefaultEnd(l.Time, kind),
		Hall:      hall,
		Kind:      kind,
	}
}
