// Package schedule reconciles a performer's personal schedule with the venue
// playbill and mirrors changes into the external calendar.
package schedule

import (
	"context"

	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/plugin/gcal"
	"github.com/hrygo/backstage/plugin/playbill"
	"github.com/hrygo/backstage/store"
)

// EventStore is the subset of the local store the services need.
type EventStore interface {
	UpsertEvent(ctx context.Context, upsert *store.Event) (*store.Event, error)
	// FindEvent returns the row with the natural key, or nil.
	FindEvent(ctx context.Context, ownerID int64, title, date string) (*store.Event, error)
	ListEvents(ctx context.Context, find *store.FindEvent) ([]*store.Event, error)
	// DeleteEvent returns the removed row, or nil when nothing matched.
	DeleteEvent(ctx context.Context, delete *store.DeleteEvent) (*store.Event, error)
}

// Feed lists the venue playbill for a date window.
type Feed interface {
	ListEvents(ctx context.Context, start, end chrono.Date) ([]playbill.Listing, error)
}

// Calendar is the external calendar. See gcal.Calendar.
type Calendar interface {
	Ping(ctx context.Context) error
	CreateEvent(ctx context.Context, req gcal.EventRequest) (string, error)
	DeleteEvent(ctx context.Context, ref string) error
}

// Source says where a week listing came from.
type Source string

const (
	SourceLocal Source = "local"
	SourceFeed  Source = "feed"
	SourceNone  Source = "none"
)

// WeekResult is the answer to a week query. Events are stored rows for
// SourceLocal and listing-derived descriptors (no ID) for SourceFeed.
type WeekResult struct {
	Week      chrono.Week
	Source    Source
	Events    []*store.Event
	Suggested bool
	// FeedFailed is set when the playbill could not be read and was treated as empty.
	FeedFailed bool
}

// Outcome is the result of one add or delete spanning both backends.
type Outcome string

const (
	// OutcomeSynced means both the local store and the calendar hold the change.
	OutcomeSynced Outcome = "synced"
	// OutcomeLocalOnly means the local change stands but the calendar call failed.
	OutcomeLocalOnly Outcome = "local_only"
	// OutcomeUnavailable means the calendar was unreachable and nothing was written.
	OutcomeUnavailable Outcome = "unavailable"
	// OutcomeNotFound means a delete matched no local event.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeFailed means the local store rejected one item of a batch.
	OutcomeFailed Outcome = "failed"
)

// Result reports one add or delete. Err carries the adapter or store error
// behind a non-synced outcome.
type Result struct {
	Outcome Outcome
	Event   *store.Event
	Err     error
}

// BatchResult reports a confirmation, one Result per candidate in order.
type BatchResult struct {
	Results []*Result
}

// Count returns how many results have the outcome.
func (b *BatchResult) Count(outcome Outcome) int {
	n := 0
	for _, r := range b.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// Written returns the events that reached the local store.
func (b *BatchResult) Written() []*store.Event {
	var events []*store.Event
	for _, r := range b.Results {
		if r.Outcome == OutcomeSynced || r.Outcome == OutcomeLocalOnly {
			events = append(events, r.Event)
		}
	}
	return events
}
