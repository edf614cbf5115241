package gcal

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// LoadOAuthConfig reads an OAuth client secret file downloaded from the
// Google Cloud console, scoped to calendar events.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read calendar credentials %s", path)
	}
	cfg, err := google.ConfigFromJSON(raw, calendar.CalendarEventsScope, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse calendar credentials")
	}
	return cfg, nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open calendar token %s, run `backstage calendar login`", path)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, errors.Wrap(err, "failed to decode calendar token")
	}
	return tok, nil
}

// SaveToken writes tok readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	raw, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode calendar token")
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write calendar token %s", path)
	}
	return nil
}

// persistingTokenSource saves the token whenever the access token changes.
type persistingTokenSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	path string
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			slog.Warn("failed to persist refreshed calendar token", slog.String("error", err.Error()))
		}
	}
	return tok, nil
}

// Login drives the installed-app consent flow from the command line.
type Login struct {
	config *oauth2.Config
}

func NewLogin(credentialsFile string) (*Login, error) {
	cfg, err := LoadOAuthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	return &Login{config: cfg}, nil
}

// URL is the consent page the operator opens in a browser.
func (l *Login) URL(state string) string {
	return l.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the pasted authorisation code for a token and saves it.
func (l *Login) Exchange(ctx context.Context, code, tokenFile string) error {
	tok, err := l.config.Exchange(ctx, code)
	if err != nil {
		return errors.Wrap(err, "failed to exchange authorisation code")
	}
	return SaveToken(tokenFile, tok)
}
