package v1

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const tokenIssuer = "backstage"

const (
	// FeedTokenAudience scopes tokens to the read-only calendar feeds.
	FeedTokenAudience = "schedule-feed"
	// MessageTokenAudience scopes tokens to posting chat messages.
	MessageTokenAudience = "assistant-api"
)

// SignFeedToken issues an HS256 feed token whose subject is the performer id.
func SignFeedToken(secret string, userID int64, ttl time.Duration, now time.Time) (string, error) {
	return SignToken(secret, FeedTokenAudience, userID, ttl, now)
}

// ParseFeedToken validates a feed token and returns the performer id it was issued for.
func ParseFeedToken(secret, raw string) (int64, error) {
	return ParseToken(secret, FeedTokenAudience, raw)
}

// SignToken issues an HS256 token for audience whose subject is the performer id.
func SignToken(secret, audience string, userID int64, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("auth secret is not configured")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   strconv.FormatInt(userID, 10),
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// ParseToken validates raw for audience and returns its performer id.
func ParseToken(secret, audience, raw string) (int64, error) {
	if secret == "" {
		return 0, errors.New("auth secret is not configured")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s token", audience)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid token subject")
	}
	return userID, nil
}

// bearerToken returns the token of an "Authorization: Bearer" header, or "".
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
