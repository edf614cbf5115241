// Package gcal mirrors performer events into an external calendar.
package gcal

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the calendar cannot be reached or is not configured.
var ErrUnavailable = errors.New("calendar unavailable")

// EventRequest describes one event to create.
type EventRequest struct {
	Summary     string
	Start       time.Time
	End         time.Time
	Location    string
	Description string
}

// Calendar is the external calendar surface used by the synchronizer.
type Calendar interface {
	// Ping verifies credentials and reachability.
	Ping(ctx context.Context) error
	// CreateEvent returns the remote event id.
	CreateEvent(ctx context.Context, req EventRequest) (string, error)
	// DeleteEvent removes ref. Deleting an event that no longer exists succeeds.
	DeleteEvent(ctx context.Context, ref string) error
}

// Disabled is used when no calendar is configured: every call is unavailable.
type Disabled struct{}

func (Disabled) Ping(context.Context) error { return ErrUnavailable }

func (Disabled) CreateEvent(context.Context, EventRequest) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) DeleteEvent(context.Context, string) error { return ErrUnavailable }
