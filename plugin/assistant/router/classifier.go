package router

import (
	"errors"
	"regexp"
	"strings"

	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/store"
)

var titlePattern = regexp.MustCompile(`[«"“‘](.+?)[»"”’]`)

var (
	eventNouns     = []string{"репетиц", "спектакл"}
	venueNouns     = []string{"спектакл", "мероприят", "афиш"}
	personalVerbs  = []string{"работаю", "расписан", "запланирован", "что у меня"}
	newsStems      = []string{"новост", "ново", "актуальн", "свеж"}
	venueNames     = []string{"театр", "геликон"}
	questionStems  = []string{"когда", "во сколько", "какой зал", "что сегодня", "репетиц", "спектакл"}
	confirmations  = []string{"да", "добавь"}
	thisWeek       = []string{"этой неделе"}
	nextWeek       = []string{"следующей неделе", "следующую неделю"}
	nextWeekStrict = []string{"следующей неделе"}
)

// rule is one step of the cascade. match sees the lower-cased message.
type rule struct {
	name  string
	match func(in *input) bool
	build func(in *input) Command
}

type input struct {
	raw        string
	lower      string
	hasPending bool
}

// Classifier maps free text to a Command with an ordered rule cascade; the
// first matching rule wins.
type Classifier struct {
	resolver   *chrono.Resolver
	conductors ConductorTable
	rules      []rule
}

func NewClassifier(resolver *chrono.Resolver, conductors ConductorTable) *Classifier {
	if conductors == nil {
		conductors = DefaultConductors()
	}
	c := &Classifier{resolver: resolver, conductors: conductors}
	c.rules = []rule{
		{
			name:  "delete",
			match: func(in *input) bool { return strings.Contains(in.lower, "удал") && containsAny(in.lower, eventNouns) },
			build: c.buildDelete,
		},
		{
			name:  "add",
			match: func(in *input) bool { return strings.Contains(in.lower, "добав") && containsAny(in.lower, eventNouns) },
			build: c.buildAdd,
		},
		{
			name:  "personal_this_week",
			match: func(in *input) bool { return containsAny(in.lower, thisWeek) && containsAny(in.lower, personalVerbs) },
			build: constant(KindQueryCurrentWeek),
		},
		{
			name:  "venue_this_week",
			match: func(in *input) bool { return containsAny(in.lower, venueNouns) && containsAny(in.lower, thisWeek) },
			build: constant(KindQueryVenueCurrentWeek),
		},
		{
			name:  "venue_next_week",
			match: func(in *input) bool { return containsAny(in.lower, venueNouns) && containsAny(in.lower, nextWeek) },
			build: constant(KindQueryVenueNextWeek),
		},
		{
			name: "personal_next_week",
			match: func(in *input) bool {
				return containsAny(in.lower, nextWeekStrict) ||
					(strings.Contains(in.lower, "расписание") && strings.Contains(in.lower, "недел"))
			},
			build: constant(KindQueryNextWeek),
		},
		{
			name:  "confirm",
			match: func(in *input) bool { return isConfirmation(in.lower) },
			build: func(in *input) Command {
				if !in.hasPending {
					return Command{Kind: KindClarify, Reason: ReasonNothingPending}
				}
				return Command{Kind: KindConfirmPending}
			},
		},
		{
			name:  "news",
			match: func(in *input) bool { return containsAny(in.lower, newsStems) || containsAny(in.lower, venueNames) },
			build: constant(KindNewsRequest),
		},
		{
			name:  "conductor",
			match: func(in *input) bool { return strings.Contains(in.lower, "дириж") },
			build: c.buildConductor,
		},
		{
			name:  "question",
			match: func(in *input) bool { return containsAny(in.lower, questionStems) },
			build: func(*input) Command { return Command{Kind: KindClarify, Reason: ReasonGeneral} },
		},
	}
	return c
}

// Classify is pure: the same text and pending flag always give the same Command.
func (c *Classifier) Classify(text string, hasPending bool) Command {
	cmd, _ := c.Explain(text, hasPending)
	return cmd
}

// Explain classifies text and also names the cascade step that fired.
func (c *Classifier) Explain(text string, hasPending bool) (Command, string) {
	in := &input{raw: text, lower: strings.ToLower(strings.TrimSpace(text)), hasPending: hasPending}
	for _, r := range c.rules {
		if r.match(in) {
			return r.build(in), r.name
		}
	}
	return Command{Kind: KindUnknown}, "default"
}

func (c *Classifier) buildDelete(in *input) Command {
	title, rest, ok := extractTitle(in.raw)
	if !ok {
		return Command{Kind: KindClarify, Reason: ReasonMissingTitleDelete}
	}
	date, err := c.resolver.ResolveDate(rest)
	if err != nil {
		return Command{Kind: KindClarify, Reason: dateReason(err, nil)}
	}
	return Command{Kind: KindDeleteEvent, Title: title, Date: date}
}

func (c *Classifier) buildAdd(in *input) Command {
	title, rest, ok := extractTitle(in.raw)
	if !ok {
		return Command{Kind: KindClarify, Reason: ReasonMissingTitleAdd}
	}

	kind := store.EventKindPerformance
	if strings.Contains(in.lower, "репетиц") {
		kind = store.EventKindRehearsal
	}

	date, dateErr := c.resolver.ResolveDate(rest)
	span, timeErr := c.resolver.ResolveTimeSpan(rest, kind)
	if dateErr != nil || timeErr != nil {
		return Command{Kind: KindClarify, Reason: dateReason(dateErr, timeErr)}
	}

	return Command{
		Kind:      KindAddEvent,
		Title:     title,
		Date:      date,
		StartTime: span.Start,
		EndTime:   span.End,
		Hall:      chrono.ResolveHall(rest),
		EventKind: kind,
	}
}

func (c *Classifier) buildConductor(in *input) Command {
	entry, ok := c.conductors.Lookup(in.lower)
	if !ok {
		return Command{Kind: KindConductorRequest}
	}
	return Command{Kind: KindConductorRequest, Title: entry.Title, Conductor: entry.Conductor}
}

func dateReason(dateErr, timeErr error) ClarifyReason {
	switch {
	case errors.Is(dateErr, chrono.ErrInvalidDate):
		return ReasonInvalidDate
	case errors.Is(dateErr, chrono.ErrUnknownMonth):
		return ReasonUnknownMonth
	case dateErr != nil && timeErr != nil:
		return ReasonMissingDateAndTime
	case dateErr != nil:
		return ReasonMissingDate
	default:
		return ReasonMissingTime
	}
}

// extractTitle returns the first quoted fragment and the text with it cut out,
// so digits inside a title never read as a date.
func extractTitle(text string) (title, rest string, ok bool) {
	loc := titlePattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", text, false
	}
	title = strings.TrimSpace(text[loc[2]:loc[3]])
	if title == "" {
		return "", text, false
	}
	return title, text[:loc[0]] + " " + text[loc[1]:], true
}

func isConfirmation(lower string) bool {
	trimmed := strings.TrimRight(lower, " .!")
	for _, c := range confirmations {
		if trimmed == c {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func constant(kind Kind) func(*input) Command {
	return func(*input) Command { return Command{Kind: kind} }
}
