package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/plugin/assistant/session"
	"github.com/hrygo/backstage/plugin/gcal"
	"github.com/hrygo/backstage/plugin/playbill"
	apperrors "github.com/hrygo/backstage/server/internal/errors"
	"github.com/hrygo/backstage/store"
	teststore "github.com/hrygo/backstage/store/test"
)

const owner int64 = 1001

type fakeFeed struct {
	listings []playbill.Listing
	err      error
	calls    atomic.Int32
}

func (f *fakeFeed) ListEvents(_ context.Context, start, end chrono.Date) ([]playbill.Listing, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	week := chrono.Week{Start: start, End: end}
	var out []playbill.Listing
	for _, l := range f.listings {
		if d, err := chrono.ParseDate(l.Date); err == nil && week.Contains(d) {
			out = append(out, l)
		}
	}
	return out, nil
}

// flakyCalendar fails CreateEvent for one title.
type flakyCalendar struct {
	*gcal.Memory
	failSummary string
}

func (c *flakyCalendar) CreateEvent(ctx context.Context, req gcal.EventRequest) (string, error) {
	if req.Summary == c.failSummary {
		return "", errors.New("quota exceeded")
	}
	return c.Memory.CreateEvent(ctx, req)
}

type fixture struct {
	store    *store.Store
	calendar *gcal.Memory
	feed     *fakeFeed
	pending  *session.MockPendingStore
	rec      *Reconciler
	sync     *Synchronizer
	loc      *time.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	f := &fixture{
		store:    teststore.NewTestingStore(context.Background(), t),
		calendar: gcal.NewMemory(),
		feed:     &fakeFeed{},
		pending:  session.NewMockPendingStore(),
		loc:      loc,
	}
	f.rec = NewReconciler(f.store, f.feed, f.pending, time.Second)
	f.sync = f.synchronizer(f.calendar)
	return f
}

func (f *fixture) synchronizer(calendar Calendar) *Synchronizer {
	return NewSynchronizer(f.store, calendar, f.pending, SynchronizerConfig{
		Location:        f.loc,
		Instrument:      "фагот",
		CalendarTimeout: time.Second,
	})
}

func (f *fixture) events(t *testing.T) []*store.Event {
	t.Helper()
	id := owner
	events, err := f.store.ListEvents(context.Background(), &store.FindEvent{OwnerID: &id})
	require.NoError(t, err)
	return events
}

func testWeek(t *testing.T) chrono.Week {
	d, err := chrono.ParseDate("2025-10-13")
	require.NoError(t, err)
	return chrono.WeekOf(d)
}

func rehearsal() *store.Event {
	return &store.Event{
		Title:     "Тест",
		Date:      "2025-10-15",
		StartTime: "12:00",
		EndTime:   "13:00",
		Hall:      store.HallShakhovskoy,
		Kind:      store.EventKindRehearsal,
	}
}

func TestAddThenDeleteRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.sync.Add(ctx, owner, rehearsal())
	require.NoError(t, err)
	require.Equal(t, OutcomeSynced, added.Outcome)
	ref := added.Event.ExternalRef
	require.NotEmpty(t, ref)
	assert.NotZero(t, added.Event.ID)
	assert.NotEmpty(t, added.Event.UID)
	assert.Equal(t, "участие в оркестре — фагот", added.Event.Role)

	req, ok := f.calendar.Event(ref)
	require.True(t, ok)
	assert.Equal(t, "Репетиция «Тест»", req.Summary)
	assert.Equal(t, "Зал Шаховской", req.Location)
	assert.Equal(t, "участие в оркестре — фагот", req.Description)
	assert.Equal(t, time.Date(2025, 10, 15, 12, 0, 0, 0, f.loc), req.Start)
	assert.Equal(t, time.Hour, req.End.Sub(req.Start))

	removed, err := f.sync.Delete(ctx, owner, "Тест", "2025-10-15")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, removed.Outcome)
	assert.Equal(t, ref, removed.Event.ExternalRef)
	assert.Empty(t, f.events(t))
	assert.Empty(t, f.calendar.Refs())
}

func TestDeleteNotFoundLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sync.Add(ctx, owner, rehearsal())
	require.NoError(t, err)

	result, err := f.sync.Delete(ctx, owner, "Кармен", "2025-10-15")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, result.Outcome)
	assert.True(t, apperrors.IsCode(result.Err, apperrors.ErrCodeNotFound))

	assert.Len(t, f.events(t), 1)
	_, deletes := f.calendar.Calls()
	assert.Zero(t, deletes)
}

func TestAddCalendarUnavailableWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.calendar.PingErr = errors.New("connection refused")

	result, err := f.sync.Add(context.Background(), owner, rehearsal())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnavailable, result.Outcome)
	assert.True(t, apperrors.IsCode(result.Err, apperrors.ErrCodeAdapterFailure))
	assert.Empty(t, f.events(t))
	creates, _ := f.calendar.Calls()
	assert.Zero(t, creates)
}

func TestAddCalendarCreateFailsKeepsLocal(t *testing.T) {
	f := newFixture(t)
	f.calendar.CreateErr = errors.New("quota exceeded")

	result, err := f.sync.Add(context.Background(), owner, rehearsal())
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocalOnly, result.Outcome)

	events := f.events(t)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].ExternalRef)
}

func TestDeleteOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("calendar failure is local only", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.sync.Add(ctx, owner, rehearsal())
		require.NoError(t, err)
		f.calendar.DeleteErr = errors.New("timeout")

		result, err := f.sync.Delete(ctx, owner, "Тест", "2025-10-15")
		require.NoError(t, err)
		assert.Equal(t, OutcomeLocalOnly, result.Outcome)
		assert.Empty(t, f.events(t))
	})

	t.Run("event without ref skips calendar", func(t *testing.T) {
		f := newFixture(t)
		f.calendar.CreateErr = errors.New("quota exceeded")
		_, err := f.sync.Add(ctx, owner, rehearsal())
		require.NoError(t, err)

		result, err := f.sync.Delete(ctx, owner, "Тест", "2025-10-15")
		require.NoError(t, err)
		assert.Equal(t, OutcomeSynced, result.Outcome)
		_, deletes := f.calendar.Calls()
		assert.Zero(t, deletes)
	})
}

func TestAddReplacesOnNaturalKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.sync.Add(ctx, owner, rehearsal())
	require.NoError(t, err)

	later := rehearsal()
	later.StartTime, later.EndTime = "15:00", "16:30"
	second, err := f.sync.Add(ctx, owner, later)
	require.NoError(t, err)

	events := f.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, first.Event.ID, second.Event.ID)
	assert.Equal(t, "15:00", events[0].StartTime)
	assert.Equal(t, second.Event.ExternalRef, events[0].ExternalRef)
	assert.Equal(t, OutcomeSynced, second.Outcome)
	assert.Equal(t, []string{second.Event.ExternalRef}, f.calendar.Refs())

	removed, err := f.sync.Delete(ctx, owner, "Тест", "2025-10-15")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, removed.Outcome)
	assert.Empty(t, f.calendar.Refs())
	assert.Empty(t, f.events(t))
}

func TestAddReplaceReportsStaleRemote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.sync.Add(ctx, owner, rehearsal())
	require.NoError(t, err)
	f.calendar.DeleteErr = errors.New("backend error")

	second, err := f.sync.Add(ctx, owner, rehearsal())
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocalOnly, second.Outcome)
	assert.True(t, apperrors.IsCode(second.Err, apperrors.ErrCodeAdapterFailure))
	assert.ElementsMatch(t, []string{first.Event.ExternalRef, second.Event.ExternalRef}, f.calendar.Refs())
	require.Len(t, f.events(t), 1)
}

func TestAddPastMidnight(t *testing.T) {
	f := newFixture(t)
	late := rehearsal()
	late.StartTime, late.EndTime = "23:00", "00:30"

	result, err := f.sync.Add(context.Background(), owner, late)
	require.NoError(t, err)
	req, ok := f.calendar.Event(result.Event.ExternalRef)
	require.True(t, ok)
	assert.Equal(t, 90*time.Minute, req.End.Sub(req.Start))
}

func TestQueryWeekLocal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, e := range []*store.Event{
		{Title: "Аида", Date: "2025-10-17", StartTime: "19:00", EndTime: "21:30"},
		{Title: "Тест", Date: "2025-10-15", StartTime: "12:00", EndTime: "13:00"},
		{Title: "Вне недели", Date: "2025-10-20", StartTime: "12:00", EndTime: "13:00"},
	} {
		e.OwnerID = owner
		e.Hall, e.Kind = store.DefaultHall, store.EventKindPerformance
		_, err := f.store.UpsertEvent(ctx, e)
		require.NoError(t, err)
	}

	result, err := f.rec.QueryWeek(ctx, owner, testWeek(t))
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, result.Source)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "Тест", result.Events[0].Title)
	assert.Equal(t, "Аида", result.Events[1].Title)
	assert.False(t, result.Suggested)
	assert.Zero(t, f.feed.calls.Load())
}

func TestQueryWeekSuggestionThenConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.feed.listings = []playbill.Listing{
		{Title: "Кармен", Date: "2025-10-14", Time: "19:00", Hall: "Стравинский", Kind: playbill.KindPerformance},
		{Title: "Экскурсия по театру", Date: "2025-10-15", Time: "12:00", Hall: "Фойе", Kind: playbill.KindExcursion},
	}

	result, err := f.rec.QueryWeek(ctx, owner, testWeek(t))
	require.NoError(t, err)
	assert.Equal(t, SourceFeed, result.Source)
	assert.True(t, result.Suggested)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "21:30", result.Events[0].EndTime)
	assert.Equal(t, "Jazzкафе", result.Events[0].Title)

	pending, err := f.pending.Load(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, pending)
	require.Len(t, pending.Candidates, 1)

	batch, err := f.sync.ConfirmPending(ctx, owner, Role("фагот"))
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Count(OutcomeSynced))

	events := f.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, "Кармен", events[0].Title)
	assert.Equal(t, "19:00", events[0].StartTime)
	assert.Equal(t, "21:30", events[0].EndTime)
	assert.Equal(t, store.EventKindPerformance, events[0].Kind)

	pending, err = f.pending.Load(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, pending)

	_, err = f.sync.ConfirmPending(ctx, owner, Role("фагот"))
	assert.ErrorIs(t, err, ErrNothingPending)
}

func TestDescriptorDurationsByKind(t *testing.T) {
	tests := []struct {
		kind playbill.Kind
		time string
		end  string
	}{
		{playbill.KindPerformance, "19:00", "21:30"},
		{playbill.KindConcert, "19:00", "20:30"},
		{playbill.KindPerformance, "22:30", "01:00"},
		{playbill.KindPerformance, "по запросу", "21:30"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+" "+tt.time, func(t *testing.T) {
			d := Descriptor(owner, playbill.Listing{Title: "X", Date: "2025-10-14", Time: tt.time, Kind: tt.kind})
			assert.Equal(t, tt.end, d.EndTime)
			assert.Equal(t, store.DefaultHall, d.Hall)
		})
	}
}

func TestQueryWeekFeedFailure(t *testing.T) {
	f := newFixture(t)
	f.feed.err = errors.New("502 bad gateway")

	result, err := f.rec.QueryWeek(context.Background(), owner, testWeek(t))
	require.NoError(t, err)
	assert.Equal(t, SourceNone, result.Source)
	assert.True(t, result.FeedFailed)
	assert.False(t, result.Suggested)

	pending, err := f.pending.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestQueryVenueWeekLeavesPendingAlone(t *testing.T) {
	f := newFixture(t)
	f.feed.listings = []playbill.Listing{
		{Title: "Jazzкафе", Date: "2025-10-16", Time: "20:00", Hall: "Шаховской", Kind: playbill.KindConcert},
		{Title: "Исторический экскурс", Date: "2025-10-17", Time: "12:00", Hall: "Стравинский", Kind: playbill.KindExcursion},
	}

	result, err := f.rec.QueryVenueWeek(context.Background(), testWeek(t))
	require.NoError(t, err)
	assert.Equal(t, SourceFeed, result.Source)
	require.Len(t, result.Events, 1)
	assert.Equal(t, store.EventKindConcert, result.Events[0].Kind)
	assert.Equal(t, "21:30", result.Events[0].EndTime)
	assert.Equal(t, "Jazzкафе", result.Events[0].Title)

	pending, err := f.pending.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestConfirmPendingPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calendar := &flakyCalendar{Memory: f.calendar, failSummary: "Спектакль «Тоска»"}
	sync := f.synchronizer(calendar)

	require.NoError(t, f.pending.Save(ctx, &session.PendingSuggestion{
		OwnerID: owner,
		Candidates: []*store.Event{
			Descriptor(owner, playbill.Listing{Title: "Тоска", Date: "2025-10-14", Time: "19:00", Kind: playbill.KindPerformance}),
			Descriptor(owner, playbill.Listing{Title: "Аида", Date: "2025-10-16", Time: "19:00", Kind: playbill.KindPerformance}),
		},
	}))

	batch, err := sync.ConfirmPending(ctx, owner, Role("фагот"))
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, OutcomeLocalOnly, batch.Results[0].Outcome)
	assert.Equal(t, OutcomeSynced, batch.Results[1].Outcome)
	assert.Len(t, batch.Written(), 2)
	assert.Len(t, f.events(t), 2)

	pending, err := f.pending.Load(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestConfirmPendingCalendarUnreachable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.calendar.PingErr = errors.New("no route to host")

	require.NoError(t, f.pending.Save(ctx, &session.PendingSuggestion{
		OwnerID: owner,
		Candidates: []*store.Event{
			Descriptor(owner, playbill.Listing{Title: "Тоска", Date: "2025-10-14", Time: "19:00"}),
			Descriptor(owner, playbill.Listing{Title: "Аида", Date: "2025-10-16", Time: "19:00"}),
		},
	}))

	batch, err := f.sync.ConfirmPending(ctx, owner, Role("фагот"))
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Count(OutcomeUnavailable))
	assert.Empty(t, batch.Written())
	assert.Empty(t, f.events(t))

	pending, err := f.pending.Load(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, pending)
}
