package gcal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecret = `{"installed":{"client_id":"backstage-client","client_secret":"s3cret","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorContains(t, err, "calendar login")
}

type sequenceTokens struct {
	tokens []string
	i      int
}

func (s *sequenceTokens) Token() (*oauth2.Token, error) {
	tok := &oauth2.Token{AccessToken: s.tokens[s.i]}
	if s.i < len(s.tokens)-1 {
		s.i++
	}
	return tok, nil
}

func TestPersistingTokenSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	src := &persistingTokenSource{base: &sequenceTokens{tokens: []string{"a", "b"}}, path: path, last: "a"}

	_, err := src.Token()
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = src.Token()
	require.NoError(t, err)
	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "b", tok.AccessToken)
}

func TestLoginURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(clientSecret), 0o600))

	login, err := NewLogin(path)
	require.NoError(t, err)
	url := login.URL("state-1")
	assert.True(t, strings.HasPrefix(url, "https://accounts.google.com/o/oauth2/auth?"))
	assert.Contains(t, url, "client_id=backstage-client")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "state=state-1")

	_, err = NewLogin(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestMemoryCalendar(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ref, err := m.CreateEvent(ctx, EventRequest{Summary: "Спектакль «Аида»"})
	require.NoError(t, err)
	req, ok := m.Event(ref)
	require.True(t, ok)
	assert.Equal(t, "Спектакль «Аида»", req.Summary)

	require.NoError(t, m.DeleteEvent(ctx, ref))
	assert.Empty(t, m.Refs())

	m.CreateErr = assert.AnError
	_, err = m.CreateEvent(ctx, EventRequest{})
	assert.ErrorIs(t, err, assert.AnError)

	creates, deletes := m.Calls()
	assert.Equal(t, 2, creates)
	assert.Equal(t, 1, deletes)

	assert.ErrorIs(t, Disabled{}.Ping(ctx), ErrUnavailable)
}
