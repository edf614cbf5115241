package store

import (
	"context"
)

// EventKind is the kind of a scheduled engagement.
type EventKind string

const (
	EventKindRehearsal   EventKind = "rehearsal"
	EventKindPerformance EventKind = "performance"
	EventKindConcert     EventKind = "concert"
)

// Label returns the Russian noun used in replies and calendar summaries.
func (k EventKind) Label() string {
	switch k {
	case EventKindRehearsal:
		return "репетиция"
	case EventKindConcert:
		return "концерт"
	default:
		return "спектакль"
	}
}

// Hall is a room of the venue.
type Hall string

const (
	HallStravinsky  Hall = "Стравинский"
	HallShakhovskoy Hall = "Шаховской"
	HallPokrovsky   Hall = "Покровский"
)

// DefaultHall is used whenever no room is named.
const DefaultHall = HallStravinsky

// Event is one engagement in a performer's personal schedule.
// Date is "2006-01-02"; StartTime and EndTime are "15:04".
type Event struct {
	ID          int32
	UID         string
	OwnerID     int64
	Title       string
	Date        string
	StartTime   string
	EndTime     string
	Hall        Hall
	Kind        EventKind
	Role        string
	ExternalRef string
	CreatedTs   int64
	UpdatedTs   int64
}

// FindEvent is the find condition for events. DateFrom and DateTo are inclusive.
type FindEvent struct {
	ID       *int32
	UID      *string
	OwnerID  *int64
	Title    *string
	Date     *string
	DateFrom *string
	DateTo   *string

	Limit *int
}

// DeleteEvent addresses an event by its natural key.
type DeleteEvent struct {
	OwnerID int64
	Title   string
	Date    string
}

func (s *Store) UpsertEvent(ctx context.Context, upsert *Event) (*Event, error) {
	return s.driver.UpsertEvent(ctx, upsert)
}

// ListEvents lists events ordered by date and start time.
func (s *Store) ListEvents(ctx context.Context, find *FindEvent) ([]*Event, error) {
	return s.driver.ListEvents(ctx, find)
}

// GetEvent returns the first matching event, or nil.
func (s *Store) GetEvent(ctx context.Context, find *FindEvent) (*Event, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.ListEvents(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// FindEvent looks an event up by its natural key.
func (s *Store) FindEvent(ctx context.Context, ownerID int64, title, date string) (*Event, error) {
	return s.GetEvent(ctx, &FindEvent{OwnerID: &ownerID, Title: &title, Date: &date})
}

// DeleteEvent removes an event and returns the removed row, or nil if none matched.
func (s *Store) DeleteEvent(ctx context.Context, delete *DeleteEvent) (*Event, error) {
	return s.driver.DeleteEvent(ctx, delete)
}
