package v1

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/backstage/plugin/telegram"
	"github.com/hrygo/backstage/server/service/assistant"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// PostTelegramWebhook answers a Telegram update with a sendMessage call in the
// response body. Telegram retries on any non-2xx, so every accepted update
// gets a 200.
// POST /telegram/webhook
func (s *APIV1Service) PostTelegramWebhook(c echo.Context) error {
	secret := s.Profile.TelegramWebhookSecret
	if secret == "" {
		return c.NoContent(http.StatusNotFound)
	}
	got := c.Request().Header.Get(telegramSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
		return c.NoContent(http.StatusUnauthorized)
	}

	var update telegram.Update
	if err := c.Bind(&update); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	msg := update.Message
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return c.NoContent(http.StatusOK)
	}

	userID := msg.SenderID()
	if !s.limiter.Allow(strconv.FormatInt(userID, 10)) {
		return c.NoContent(http.StatusOK)
	}

	ctx := c.Request().Context()
	in := assistant.Message{
		UserID:      userID,
		DisplayName: msg.DisplayName(),
		Text:        msg.Text,
		RequestID:   "tg-" + strconv.FormatInt(update.UpdateID, 10),
	}

	var reply *assistant.Reply
	var err error
	switch msg.Command() {
	case "start":
		reply, err = s.Assistant.Greet(ctx, in)
		s.sendSticker(msg.Chat.ID)
	case "":
		reply, err = s.Assistant.Handle(ctx, in)
	default:
		reply, err = s.Assistant.Handle(ctx, assistant.Message{UserID: userID, DisplayName: in.DisplayName, RequestID: in.RequestID})
	}
	if err != nil {
		slog.Debug("telegram update answered with apology", "update_id", update.UpdateID)
	}
	return c.JSON(http.StatusOK, telegram.NewReply(msg.Chat.ID, reply.Text))
}

// sendSticker uploads the greeting sticker in the background so the webhook
// response is not held up by the upload.
func (s *APIV1Service) sendSticker(chatID int64) {
	if s.Stickers == nil || len(s.Sticker) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Stickers.SendSticker(ctx, chatID, s.Sticker); err != nil {
			slog.Warn("failed to send greeting sticker", "chat_id", chatID, "error", err)
		}
	}()
}
