// Package playbill reads the venue's public playbill and news pages.
package playbill

import (
	"regexp"
	"strings"

	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/store"
)

// Kind is how the venue listing is categorised.
type Kind string

const (
	KindPerformance Kind = "performance"
	KindConcert     Kind = "concert"
	KindExcursion   Kind = "excursion"
)

// Listing is one row of the venue playbill.
type Listing struct {
	Title string `json:"title"`
	Date  string `json:"date"` // 2006-01-02
	Time  string `json:"time"` // 15:04 when parseable, raw cell text otherwise
	Hall  string `json:"hall"`
	Kind  Kind   `json:"kind"`
}

// EventKind maps the listing kind onto a stored event kind.
func (l Listing) EventKind() store.EventKind {
	if l.Kind == KindConcert {
		return store.EventKindConcert
	}
	return store.EventKindPerformance
}

var (
	excursionStems = []string{"экскурс", "историческ", "техническ"}
	concertStems   = []string{"концерт", "jazzкафе", "гостиная", "каф"}

	titleSuffixPattern = regexp.MustCompile(`\s+(Премьера|В рамках|Хореографический спектакль)`)
)

// classify derives the listing kind from its title.
func classify(title string) Kind {
	lower := strings.ToLower(title)
	for _, s := range excursionStems {
		if strings.Contains(lower, s) {
			return KindExcursion
		}
	}
	for _, s := range concertStems {
		if strings.Contains(lower, s) {
			return KindConcert
		}
	}
	return KindPerformance
}

// cleanTitle cuts the premiere and festival annotations the playbill appends.
func cleanTitle(title string) string {
	if loc := titleSuffixPattern.FindStringIndex(title); loc != nil {
		title = title[:loc[0]]
	}
	return strings.TrimSpace(title)
}

// normalizeHall maps the playbill's long room names onto the short hall names.
// Unknown rooms keep the trimmed cell text.
func normalizeHall(text string) string {
	if hall, ok := chrono.MatchHall(text); ok {
		return string(hall)
	}
	return strings.TrimSpace(text)
}
