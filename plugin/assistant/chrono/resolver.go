// Package chrono turns the date, time and hall fragments of a Russian chat
// message into normalized values.
package chrono

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/backstage/store"
)

var (
	ErrDateNotFound = errors.New("date not found")
	// ErrUnknownMonth is a day followed by a word that names no month. It is an ErrDateNotFound.
	ErrUnknownMonth = fmt.Errorf("%w: unknown month", ErrDateNotFound)
	ErrInvalidDate  = errors.New("invalid date")
	ErrTimeNotFound = errors.New("time not found")
)

var (
	numericDatePattern = regexp.MustCompile(`(\d{1,2})[./\- ](\d{1,2})(?:[./\- ](\d{4}))?`)
	wordDatePattern    = regexp.MustCompile(`(\d{1,2})\s+([а-яё]+)`)
	timeRangePattern   = regexp.MustCompile(`(\d{1,2}:\d{2})\s*(?:-|–|—|до)\s*(\d{1,2}:\d{2})`)
	clockPattern       = regexp.MustCompile(`\d{1,2}:\d{2}`)
)

// monthStems is matched by prefix in order; the first hit wins.
var monthStems = []struct {
	stem  string
	month time.Month
}{
	{"январ", time.January},
	{"феврал", time.February},
	{"март", time.March},
	{"апрел", time.April},
	{"май", time.May},
	{"мая", time.May},
	{"июн", time.June},
	{"июл", time.July},
	{"август", time.August},
	{"сентябр", time.September},
	{"октябр", time.October},
	{"ноябр", time.November},
	{"декабр", time.December},
}

var hallStems = []struct {
	stem string
	hall store.Hall
}{
	{"шаховск", store.HallShakhovskoy},
	{"покровск", store.HallPokrovsky},
	{"стравинск", store.HallStravinsky},
}

// TimeSpan is a pair of "15:04" clock strings.
type TimeSpan struct {
	Start string
	End   string
}

// Resolver resolves dates relative to a clock in a fixed location.
type Resolver struct {
	location *time.Location
	now      func() time.Time
}

func NewResolver(location *time.Location) *Resolver {
	if location == nil {
		location = time.Local
	}
	return &Resolver{location: location, now: time.Now}
}

// NewResolverAt returns a resolver whose clock is fixed at now.
func NewResolverAt(location *time.Location, now time.Time) *Resolver {
	r := NewResolver(location)
	r.now = func() time.Time { return now }
	return r
}

func (r *Resolver) Location() *time.Location {
	return r.location
}

// Today returns the current date in the resolver's location.
func (r *Resolver) Today() Date {
	return DateOf(r.now().In(r.location))
}

func (r *Resolver) CurrentWeek() Week {
	return WeekOf(r.Today())
}

func (r *Resolver) NextWeek() Week {
	current := r.CurrentWeek()
	return Week{Start: current.Start.AddDays(7), End: current.End.AddDays(7)}
}

// ResolveDate finds the first date in text. Numeric forms (15.10, 15-10-2025,
// 15/10) win over "15 октября". An omitted year means the current year.
func (r *Resolver) ResolveDate(text string) (Date, error) {
	text = strings.ToLower(text)
	year := r.Today().Year

	for offset := 0; offset < len(text); {
		m := numericDatePattern.FindStringSubmatchIndex(text[offset:])
		if m == nil {
			break
		}
		for i := range m {
			if m[i] >= 0 {
				m[i] += offset
			}
		}
		// Digits glued to a longer number or a clock ("12:00 15", "15 12:00") are not a date.
		if (m[0] > 0 && isClockByte(text[m[0]-1])) || (m[6] < 0 && m[5] < len(text) && isClockByte(text[m[5]])) {
			offset = m[3]
			continue
		}
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		y := year
		if m[6] >= 0 {
			y, _ = strconv.Atoi(text[m[6]:m[7]])
		}
		return NewDate(y, time.Month(month), day)
	}

	matches := wordDatePattern.FindAllStringSubmatch(text, -1)
	for _, m := range matches {
		if month, ok := lookupMonth(m[2]); ok {
			day, _ := strconv.Atoi(m[1])
			return NewDate(year, month, day)
		}
	}
	if len(matches) > 0 {
		return Date{}, ErrUnknownMonth
	}
	return Date{}, ErrDateNotFound
}

func lookupMonth(word string) (time.Month, bool) {
	for _, s := range monthStems {
		if strings.HasPrefix(word, s.stem) {
			return s.month, true
		}
	}
	return 0, false
}

func isClockByte(b byte) bool {
	return b == ':' || (b >= '0' && b <= '9')
}

// ResolveTimeSpan finds an explicit "HH:MM–HH:MM" / "HH:MM до HH:MM" range, or
// a single start time whose end is derived from the kind's default duration.
func (r *Resolver) ResolveTimeSpan(text string, kind store.EventKind) (TimeSpan, error) {
	text = strings.ToLower(text)
	if m := timeRangePattern.FindStringSubmatch(text); m != nil {
		return TimeSpan{Start: normalizeClock(m[1]), End: normalizeClock(m[2])}, nil
	}
	if start := clockPattern.FindString(text); start != "" {
		return TimeSpan{Start: normalizeClock(start), End: DefaultEnd(start, kind)}, nil
	}
	return TimeSpan{}, ErrTimeNotFound
}

// DefaultDuration is how long an engagement of the kind runs when no end is given.
func DefaultDuration(kind store.EventKind) time.Duration {
	switch kind {
	case store.EventKindRehearsal, store.EventKindConcert:
		return 90 * time.Minute
	default:
		return 150 * time.Minute
	}
}

// fallbackEnd is used when the start cannot be parsed arithmetically.
func fallbackEnd(kind store.EventKind) string {
	if kind == store.EventKindRehearsal {
		return "13:30"
	}
	return "21:30"
}

// DefaultEnd adds the kind's default duration to start, wrapping past midnight.
func DefaultEnd(start string, kind store.EventKind) string {
	minutes, ok := parseClock(start)
	if !ok {
		return fallbackEnd(kind)
	}
	minutes = (minutes + int(DefaultDuration(kind)/time.Minute)) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// parseClock returns minutes since midnight for a valid "H:MM" or "HH:MM".
func parseClock(s string) (int, bool) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// normalizeClock zero-pads valid clock strings and leaves the rest untouched.
func normalizeClock(s string) string {
	minutes, ok := parseClock(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MatchHall reports the room named in text, if any.
func MatchHall(text string) (store.Hall, bool) {
	text = strings.ToLower(text)
	for _, h := range hallStems {
		if strings.Contains(text, h.stem) {
			return h.hall, true
		}
	}
	return "", false
}

// ResolveHall returns the room named in text or the default room.
func ResolveHall(text string) store.Hall {
	if hall, ok := MatchHall(text); ok {
		return hall
	}
	return store.DefaultHall
}
