package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/backstage/store"
)

func newTestResolver(t *testing.T) *Resolver {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	// Wednesday
	return NewResolverAt(loc, time.Date(2025, 10, 8, 10, 0, 0, 0, loc))
}

func TestResolveDate_Numeric(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dot", "15.10", "2025-10-15"},
		{"dash", "15-10", "2025-10-15"},
		{"slash", "15/10", "2025-10-15"},
		{"space", "репетиция 15 10", "2025-10-15"},
		{"single digits", "1.2", "2025-02-01"},
		{"explicit year", "15.10.2026", "2026-10-15"},
		{"explicit year dash", "3-11-2027", "2027-11-03"},
		{"before time", "Добавь репетицию 11.10 с 12:00 до 13:00", "2025-10-11"},
		{"numeric wins over month name", "15 октября 16.10", "2025-10-16"},
		{"clock after day is skipped", "15 12:00 20.10", "2025-10-20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveDate_MonthNames(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		input string
		want  string
	}{
		{"15 января", "2025-01-15"},
		{"1 февраля", "2025-02-01"},
		{"8 марта", "2025-03-08"},
		{"12 апреля", "2025-04-12"},
		{"9 мая", "2025-05-09"},
		{"9 май", "2025-05-09"},
		{"12 июня", "2025-06-12"},
		{"4 июля", "2025-07-04"},
		{"31 августа", "2025-08-31"},
		{"1 сентября", "2025-09-01"},
		{"15 Октября 19:00", "2025-10-15"},
		{"7 ноября", "2025-11-07"},
		{"31 декабря", "2025-12-31"},
		{"в 2 часа 15 октября", "2025-10-15"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := r.ResolveDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveDate_Errors(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.ResolveDate("когда-нибудь потом")
	assert.ErrorIs(t, err, ErrDateNotFound)

	_, err = r.ResolveDate("15 брюмера")
	assert.ErrorIs(t, err, ErrUnknownMonth)
	assert.ErrorIs(t, err, ErrDateNotFound)

	for _, input := range []string{"31.02", "10.13", "0.10", "32 октября", "29.02.2025"} {
		_, err := r.ResolveDate(input)
		assert.ErrorIs(t, err, ErrInvalidDate, input)
	}

	got, err := r.ResolveDate("29.02.2028")
	require.NoError(t, err)
	assert.Equal(t, "2028-02-29", got.String())
}

func TestResolveTimeSpan(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name  string
		input string
		kind  store.EventKind
		want  TimeSpan
	}{
		{"en dash range", "19:00–21:30", store.EventKindPerformance, TimeSpan{"19:00", "21:30"}},
		{"hyphen range", "14:00 - 15:30", store.EventKindRehearsal, TimeSpan{"14:00", "15:30"}},
		{"до range", "с 12:00 до 13:00", store.EventKindRehearsal, TimeSpan{"12:00", "13:00"}},
		{"padded", "с 9:30 до 11:00", store.EventKindRehearsal, TimeSpan{"09:30", "11:00"}},
		{"rehearsal default", "в 12:00", store.EventKindRehearsal, TimeSpan{"12:00", "13:30"}},
		{"performance default", "в 19:00", store.EventKindPerformance, TimeSpan{"19:00", "21:30"}},
		{"concert default", "в 19:00", store.EventKindConcert, TimeSpan{"19:00", "20:30"}},
		{"wraps midnight", "в 23:00", store.EventKindPerformance, TimeSpan{"23:00", "01:30"}},
		{"unparseable rehearsal", "в 25:00", store.EventKindRehearsal, TimeSpan{"25:00", "13:30"}},
		{"unparseable performance", "в 19:75", store.EventKindPerformance, TimeSpan{"19:75", "21:30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveTimeSpan(tt.input, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := r.ResolveTimeSpan("вечером", store.EventKindPerformance)
	assert.ErrorIs(t, err, ErrTimeNotFound)
}

func TestResolveHall(t *testing.T) {
	tests := []struct {
		input string
		want  store.Hall
	}{
		{"в Шаховском", store.HallShakhovskoy},
		{"Белоколонный зал княгини Шаховской", store.HallShakhovskoy},
		{"в покровском зале", store.HallPokrovsky},
		{"Зал «Стравинский»", store.HallStravinsky},
		{"где-то", store.HallStravinsky},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveHall(tt.input))
		})
	}

	_, ok := MatchHall("Фойе")
	assert.False(t, ok)
}

func TestWeeks(t *testing.T) {
	r := newTestResolver(t)

	current := r.CurrentWeek()
	assert.Equal(t, "2025-10-06", current.Start.String())
	assert.Equal(t, "2025-10-12", current.End.String())

	next := r.NextWeek()
	assert.Equal(t, "2025-10-13", next.Start.String())
	assert.Equal(t, "2025-10-19", next.End.String())

	assert.True(t, current.Contains(r.Today()))
	assert.False(t, next.Contains(r.Today()))

	loc := r.Location()
	sunday := NewResolverAt(loc, time.Date(2025, 10, 12, 23, 30, 0, 0, loc))
	assert.Equal(t, "2025-10-06", sunday.CurrentWeek().Start.String())
	assert.Equal(t, "2025-10-13", sunday.NextWeek().Start.String())
}
