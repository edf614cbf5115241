package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiterBurstPerKey(t *testing.T) {
	rl := NewRateLimiterWith(rate.Every(time.Hour), 2)

	assert.True(t, rl.Allow("1"))
	assert.True(t, rl.Allow("1"))
	assert.False(t, rl.Allow("1"))
	assert.True(t, rl.Allow("2"))
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Date(2025, 10, 8, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(11 * time.Minute)
	rl.Allow("fresh")

	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiterWith(rate.Every(time.Hour), 1)
	e := echo.New()
	handler := rl.Middleware(func(c echo.Context) string {
		return c.Request().Header.Get("X-User")
	})(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	call := func(user string) error {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-User", user)
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	require.NoError(t, call("9"))
	err := call("9")
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusTooManyRequests, he.Code)

	require.NoError(t, call(""))
	require.NoError(t, call(""))
}
