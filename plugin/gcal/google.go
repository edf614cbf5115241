package gcal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hrygo/backstage/plugin/assistant/timeout"
)

// Config configures the Google Calendar client.
type Config struct {
	CredentialsFile string
	TokenFile       string
	CalendarID      string
	// Timezone is attached to every created event.
	Timezone        string
	ReminderMinutes int
	Timeout         time.Duration
}

func (c *Config) normalize() {
	if c.CalendarID == "" {
		c.CalendarID = "primary"
	}
	if c.ReminderMinutes <= 0 {
		c.ReminderMinutes = 180
	}
	if c.Timeout <= 0 {
		c.Timeout = timeout.CalendarTimeout
	}
}

// Google talks to the Google Calendar v3 API.
type Google struct {
	cfg    Config
	svc    *calendar.Service
	tokens oauth2.TokenSource
}

// NewGoogle builds a client from the OAuth client credentials and a token
// previously written by `calendar login`. Refreshed tokens are written back.
func NewGoogle(ctx context.Context, cfg Config) (*Google, error) {
	cfg.normalize()
	oauthCfg, err := LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	tokens := &persistingTokenSource{
		base: oauthCfg.TokenSource(context.Background(), tok),
		path: cfg.TokenFile,
		last: tok.AccessToken,
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(tokens))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create calendar service")
	}
	return newGoogle(cfg, svc, tokens), nil
}

// NewGoogleWithClient uses an already authorised HTTP client and API endpoint.
func NewGoogleWithClient(ctx context.Context, cfg Config, client *http.Client, endpoint string, tokens oauth2.TokenSource) (*Google, error) {
	cfg.normalize()
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create calendar service")
	}
	return newGoogle(cfg, svc, tokens), nil
}

func newGoogle(cfg Config, svc *calendar.Service, tokens oauth2.TokenSource) *Google {
	return &Google{cfg: cfg, svc: svc, tokens: tokens}
}

// Ping obtains a valid token and reads the target calendar's metadata.
func (g *Google) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if g.tokens != nil {
		if _, err := g.tokens.Token(); err != nil {
			return errors.Wrap(err, "calendar token")
		}
	}
	if _, err := g.svc.Calendars.Get(g.cfg.CalendarID).Context(ctx).Do(); err != nil {
		return errors.Wrap(err, "calendar ping")
	}
	return nil
}

// CreateEvent inserts an event with a single popup reminder.
func (g *Google) CreateEvent(ctx context.Context, req EventRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	event := &calendar.Event{
		Summary:     req.Summary,
		Location:    req.Location,
		Description: req.Description,
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: g.cfg.Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: g.cfg.Timezone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: int64(g.cfg.ReminderMinutes)},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := g.svc.Events.Insert(g.cfg.CalendarID, event).Context(ctx).Do()
	if err != nil {
		return "", errors.Wrap(err, "failed to insert calendar event")
	}
	slog.Debug("calendar event created", slog.String("ref", created.Id), slog.String("summary", req.Summary))
	return created.Id, nil
}

// DeleteEvent removes ref. 404 and 410 mean the event is already gone.
func (g *Google) DeleteEvent(ctx context.Context, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	err := g.svc.Events.Delete(g.cfg.CalendarID, ref).Context(ctx).Do()
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		slog.Debug("calendar event already removed", slog.String("ref", ref))
		return nil
	}
	return errors.Wrap(err, "failed to delete calendar event")
}
