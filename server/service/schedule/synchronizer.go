package schedule

import (
	"context"
	"log/slog"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/hrygo/backstage/plugin/assistant/session"
	"github.com/hrygo/backstage/plugin/assistant/timeout"
	"github.com/hrygo/backstage/plugin/gcal"
	apperrors "github.com/hrygo/backstage/server/internal/errors"
	"github.com/hrygo/backstage/store"
)

// ErrNothingPending is returned by ConfirmPending when the owner has no suggestion.
var ErrNothingPending = apperrors.StateMiss("nothing pending")

// SynchronizerConfig configures a Synchronizer.
type SynchronizerConfig struct {
	// Location interprets event dates and clock times.
	Location *time.Location
	// Instrument fills the role of events that carry none.
	Instrument      string
	CalendarTimeout time.Duration
}

// Synchronizer applies adds and deletes to the local store and the external
// calendar as a two-step protocol. The local store is authoritative; the
// calendar is best effort and never rolled back.
type Synchronizer struct {
	store    EventStore
	calendar Calendar
	pending  session.PendingStore
	cfg      SynchronizerConfig
}

func NewSynchronizer(store EventStore, calendar Calendar, pending session.PendingStore, cfg SynchronizerConfig) *Synchronizer {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.CalendarTimeout <= 0 {
		cfg.CalendarTimeout = timeout.CalendarTimeout
	}
	return &Synchronizer{store: store, calendar: calendar, pending: pending, cfg: cfg}
}

// Role is the event description for a performer playing instrument.
func Role(instrument string) string {
	return "участие в оркестре — " + instrument
}

// Add pings the calendar, creates the remote event, then upserts the local
// row with whatever ref the calendar returned. When the row replaces an
// existing one, the remote event of the replaced row is deleted afterwards;
// if that fails the outcome is LocalOnly.
func (s *Synchronizer) Add(ctx context.Context, ownerID int64, descriptor *store.Event) (*Result, error) {
	event := s.normalize(ownerID, descriptor)

	previous, err := s.store.FindEvent(ctx, ownerID, event.Title, event.Date)
	if err != nil {
		return nil, apperrors.Internal("failed to look up event", err)
	}

	if err := s.withCalendar(ctx, s.calendar.Ping); err != nil {
		slog.Warn("calendar unreachable, nothing written",
			slog.Int64("owner_id", ownerID),
			slog.String("title", event.Title),
			slog.String("error", err.Error()),
		)
		return &Result{Outcome: OutcomeUnavailable, Event: event, Err: apperrors.AdapterFailure("calendar", err)}, nil
	}

	var createErr error
	req, err := s.eventRequest(event)
	if err != nil {
		createErr = err
	} else {
		createErr = s.withCalendar(ctx, func(ctx context.Context) error {
			ref, err := s.calendar.CreateEvent(ctx, req)
			event.ExternalRef = ref
			return err
		})
	}
	if createErr != nil {
		event.ExternalRef = ""
		slog.Error("calendar create failed, keeping local event",
			slog.Int64("owner_id", ownerID),
			slog.String("title", event.Title),
			slog.String("date", event.Date),
			slog.String("error", createErr.Error()),
		)
	}

	saved, err := s.store.UpsertEvent(ctx, event)
	if err != nil {
		if event.ExternalRef != "" {
			s.discardRemote(ctx, event.ExternalRef)
		}
		return nil, apperrors.Internal("failed to save event", err)
	}

	if previous != nil && previous.ExternalRef != "" && previous.ExternalRef != saved.ExternalRef {
		err := s.withCalendar(ctx, func(ctx context.Context) error {
			return s.calendar.DeleteEvent(ctx, previous.ExternalRef)
		})
		if err != nil {
			slog.Error("calendar delete of replaced event failed",
				slog.Int64("owner_id", ownerID),
				slog.String("ref", previous.ExternalRef),
				slog.String("error", err.Error()),
			)
			if createErr == nil {
				createErr = errors.Wrapf(err, "replaced calendar event %s was not removed", previous.ExternalRef)
			}
		}
	}

	if createErr != nil {
		return &Result{Outcome: OutcomeLocalOnly, Event: saved, Err: apperrors.AdapterFailure("calendar", createErr)}, nil
	}
	return &Result{Outcome: OutcomeSynced, Event: saved}, nil
}

// Delete removes the local event first. The calendar is only called when a
// row was removed and it carries a ref.
func (s *Synchronizer) Delete(ctx context.Context, ownerID int64, title, date string) (*Result, error) {
	removed, err := s.store.DeleteEvent(ctx, &store.DeleteEvent{OwnerID: ownerID, Title: title, Date: date})
	if err != nil {
		return nil, apperrors.Internal("failed to delete event", err)
	}
	if removed == nil {
		return &Result{
			Outcome: OutcomeNotFound,
			Event:   &store.Event{OwnerID: ownerID, Title: title, Date: date},
			Err:     apperrors.NotFound("event not found"),
		}, nil
	}
	if removed.ExternalRef == "" {
		return &Result{Outcome: OutcomeSynced, Event: removed}, nil
	}

	err = s.withCalendar(ctx, func(ctx context.Context) error {
		return s.calendar.DeleteEvent(ctx, removed.ExternalRef)
	})
	if err != nil {
		slog.Error("calendar delete failed, local event already removed",
			slog.Int64("owner_id", ownerID),
			slog.String("ref", removed.ExternalRef),
			slog.String("error", err.Error()),
		)
		return &Result{Outcome: OutcomeLocalOnly, Event: removed, Err: apperrors.AdapterFailure("calendar", err)}, nil
	}
	return &Result{Outcome: OutcomeSynced, Event: removed}, nil
}

// ConfirmPending adds every candidate of the owner's suggestion independently
// and clears the suggestion whatever the per-item outcomes were.
func (s *Synchronizer) ConfirmPending(ctx context.Context, ownerID int64, role string) (*BatchResult, error) {
	suggestion, err := s.pending.Load(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal("failed to load pending suggestion", err)
	}
	if suggestion == nil || len(suggestion.Candidates) == 0 {
		return nil, ErrNothingPending
	}
	defer func() {
		if err := s.pending.Clear(ctx, ownerID); err != nil {
			slog.Warn("failed to clear pending suggestion", slog.Int64("owner_id", ownerID), slog.String("error", err.Error()))
		}
	}()

	batch := &BatchResult{Results: make([]*Result, 0, len(suggestion.Candidates))}
	for _, candidate := range suggestion.Candidates {
		if candidate.Role == "" {
			candidate.Role = role
		}
		result, err := s.Add(ctx, ownerID, candidate)
		if err != nil {
			slog.Error("failed to add pending candidate",
				slog.Int64("owner_id", ownerID),
				slog.String("title", candidate.Title),
				slog.String("error", err.Error()),
			)
			result = &Result{Outcome: OutcomeFailed, Event: candidate, Err: err}
		}
		batch.Results = append(batch.Results, result)
	}
	return batch, nil
}

func (s *Synchronizer) normalize(ownerID int64, descriptor *store.Event) *store.Event {
	event := *descriptor
	event.ID = 0
	event.UID = ""
	event.OwnerID = ownerID
	event.ExternalRef = ""
	if event.Hall == "" {
		event.Hall = store.DefaultHall
	}
	if event.Kind == "" {
		event.Kind = store.EventKindPerformance
	}
	if event.Role == "" {
		event.Role = Role(s.cfg.Instrument)
	}
	return &event
}

// eventRequest builds the calendar payload.
func (s *Synchronizer) eventRequest(event *store.Event) (gcal.EventRequest, error) {
	start, end, err := EventTimes(event, s.cfg.Location)
	if err != nil {
		return gcal.EventRequest{}, err
	}
	return gcal.EventRequest{
		Summary:     Summary(event),
		Start:       start,
		End:         end,
		Location:    "Зал " + string(event.Hall),
		Description: event.Role,
	}, nil
}

// EventTimes resolves an event's clock times in loc. An end not after the
// start is taken to be on the following day.
func EventTimes(event *store.Event, loc *time.Location) (start, end time.Time, err error) {
	const layout = "2006-01-02 15:04"
	start, err = time.ParseInLocation(layout, event.Date+" "+event.StartTime, loc)
	if err != nil {
		return start, end, errors.Wrapf(err, "invalid start %s %s", event.Date, event.StartTime)
	}
	end, err = time.ParseInLocation(layout, event.Date+" "+event.EndTime, loc)
	if err != nil {
		return start, end, errors.Wrapf(err, "invalid end %s %s", event.Date, event.EndTime)
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// Summary is the calendar title, e.g. "Репетиция «Тест»".
func Summary(event *store.Event) string {
	return capitalize(event.Kind.Label()) + " «" + event.Title + "»"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func (s *Synchronizer) withCalendar(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CalendarTimeout)
	defer cancel()
	return fn(ctx)
}

// discardRemote removes a remote event whose local row could not be written.
func (s *Synchronizer) discardRemote(ctx context.Context, ref string) {
	err := s.withCalendar(ctx, func(ctx context.Context) error {
		return s.calendar.DeleteEvent(ctx, ref)
	})
	if err != nil {
		slog.Warn("failed to discard orphaned calendar event", slog.String("ref", ref), slog.String("error", err.Error()))
	}
}
