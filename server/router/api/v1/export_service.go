package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	ical "github.com/arran4/golang-ical"
	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/server/service/schedule"
	"github.com/hrygo/backstage/store"
)

// GetScheduleICS exports the performer's upcoming events as iCalendar.
// GET /api/v1/users/:id/schedule.ics?token=
func (s *APIV1Service) GetScheduleICS(c echo.Context) error {
	userID, events, err := s.upcomingEvents(c)
	if err != nil {
		return err
	}

	cal := ical.NewCalendarFor("backstage")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(s.Profile.VenueName)
	cal.SetXWRTimezone(s.Location.String())
	for _, event := range events {
		start, end, err := schedule.EventTimes(event, s.Location)
		if err != nil {
			slog.Warn("skipping event with unreadable times", "uid", event.UID, "error", err)
			continue
		}
		ve := cal.AddEvent(fmt.Sprintf("%s@%d.backstage", event.UID, userID))
		ve.SetDtStampTime(s.now())
		ve.SetStartAt(start)
		ve.SetEndAt(end)
		ve.SetSummary(schedule.Summary(event))
		ve.SetLocation("Зал " + string(event.Hall))
		ve.SetDescription(event.Role)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/calendar; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return cal.SerializeTo(c.Response())
}

// GetScheduleRSS exports the performer's upcoming events as an RSS feed.
// GET /api/v1/users/:id/schedule.rss?token=
func (s *APIV1Service) GetScheduleRSS(c echo.Context) error {
	userID, events, err := s.upcomingEvents(c)
	if err != nil {
		return err
	}

	feed := &feeds.Feed{
		Title:       "Расписание — " + s.Profile.VenueName,
		Link:        &feeds.Link{Href: c.Scheme() + "://" + c.Request().Host + c.Request().URL.Path},
		Description: "Ближайшие репетиции и спектакли",
		Created:     s.now(),
	}
	for _, event := range events {
		start, _, err := schedule.EventTimes(event, s.Location)
		if err != nil {
			continue
		}
		feed.Add(&feeds.Item{
			Id:          fmt.Sprintf("%s@%d.backstage", event.UID, userID),
			Title:       schedule.Summary(event),
			Description: fmt.Sprintf("%s, %s–%s, зал %s. %s", event.Date, event.StartTime, event.EndTime, event.Hall, event.Role),
			Link:        &feeds.Link{Href: feed.Link.Href},
			Created:     start,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render feed")
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

// upcomingEvents authenticates the feed token against the path id and lists
// the performer's events from today for ExportDays.
func (s *APIV1Service) upcomingEvents(c echo.Context) (int64, []*store.Event, error) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	subject, err := ParseFeedToken(s.Profile.AuthSecret, c.QueryParam("token"))
	if err != nil || subject != userID {
		return 0, nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	today := chrono.DateOf(s.now().In(s.Location))
	from, to := today.String(), today.AddDays(s.ExportDays).String()
	events, err := s.Store.ListEvents(c.Request().Context(), &store.FindEvent{
		OwnerID:  &userID,
		DateFrom: &from,
		DateTo:   &to,
	})
	if err != nil {
		slog.Error("failed to list events for export", "user_id", userID, "error", err)
		return 0, nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to list events")
	}
	return userID, events, nil
}
