package v1

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/backstage/server/service/assistant"
)

type PostMessageRequest struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
}

const maxMessageLength = 4096

// PostMessage answers one chat message. Outside dev mode the request carries a
// bearer token issued for user_id.
// POST /api/v1/messages
func (s *APIV1Service) PostMessage(c echo.Context) error {
	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text is required"})
	}
	if len(req.Text) > maxMessageLength {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "text is too long"})
	}
	if s.requiresMessageAuth() {
		subject, err := ParseToken(s.Profile.AuthSecret, MessageTokenAudience, bearerToken(c))
		if err != nil || subject != req.UserID {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
	}
	if !s.limiter.Allow(strconv.FormatInt(req.UserID, 10)) {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many messages, slow down"})
	}

	reply, err := s.Assistant.Handle(c.Request().Context(), assistant.Message{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Text:        req.Text,
		RequestID:   c.Request().Header.Get(echo.HeaderXRequestID),
	})
	if err != nil {
		// The reply already carries an apology; the failure is logged by the dispatcher.
		slog.Debug("message answered with apology", "user_id", req.UserID)
	}
	return c.JSON(http.StatusOK, reply)
}

func (s *APIV1Service) requiresMessageAuth() bool {
	return s.Profile.Mode != "dev"
}
