package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const DefaultAPIURL = "https://api.telegram.org"

// Config holds the bot credentials.
type Config struct {
	Token   string
	APIURL  string
	Timeout time.Duration
}

// Client calls the Bot API.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config) *Client {
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     slog.Default(),
	}
}

// SendMessage posts text into chatID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(map[string]any{"chat_id": chatID, "text": text})
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}
	return c.call(ctx, "sendMessage", "application/json", bytes.NewReader(body))
}

// SendSticker uploads a PNG or WEBP image as a sticker into chatID.
func (c *Client) SendSticker(ctx context.Context, chatID int64, sticker []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return errors.Wrap(err, "failed to write chat_id")
	}
	part, err := w.CreateFormFile("sticker", "sticker.png")
	if err != nil {
		return errors.Wrap(err, "failed to create sticker part")
	}
	if _, err := part.Write(sticker); err != nil {
		return errors.Wrap(err, "failed to write sticker")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "failed to close multipart body")
	}
	return c.call(ctx, "sendSticker", w.FormDataContentType(), &buf)
}

// SetWebhook registers url with the Bot API. Telegram echoes secret back in
// the X-Telegram-Bot-Api-Secret-Token header of every update.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	body, err := json.Marshal(map[string]any{
		"url":             url,
		"secret_token":    secret,
		"allowed_updates": []string{"message"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook")
	}
	return c.call(ctx, "setWebhook", "application/json", bytes.NewReader(body))
}

func (c *Client) call(ctx context.Context, method, contentType string, body io.Reader) error {
	url := c.config.APIURL + "/bot" + c.config.Token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s request", method)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; never log it.
		return errors.Errorf("%s request failed", method)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return errors.Wrapf(err, "%s returned status %d with unreadable body", method, resp.StatusCode)
	}
	if !result.OK {
		c.logger.Error("telegram call rejected",
			"method", method,
			"status", resp.StatusCode,
			"description", result.Description,
		)
		return errors.Errorf("%s failed: %d %s", method, result.ErrorCode, result.Description)
	}

	c.logger.Debug("telegram call sent", "method", method, "status", resp.StatusCode)
	return nil
}
