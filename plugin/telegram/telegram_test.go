package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	path        string
	contentType string
	body        []byte
	chatID      string
	sticker     []byte
}

func newBotAPI(t *testing.T, status int, response string) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{path: r.URL.Path, contentType: r.Header.Get("Content-Type")}
		if r.Header.Get("Content-Type") == "application/json" {
			call.body, _ = io.ReadAll(r.Body)
		} else if err := r.ParseMultipartForm(1 << 20); err == nil {
			call.chatID = r.FormValue("chat_id")
			if file, _, err := r.FormFile("sticker"); err == nil {
				call.sticker, _ = io.ReadAll(file)
				file.Close()
			}
		}
		calls = append(calls, call)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestSendMessage(t *testing.T) {
	server, calls := newBotAPI(t, http.StatusOK, `{"ok":true,"result":{}}`)
	client := NewClient(Config{Token: "123:abc", APIURL: server.URL})

	require.NoError(t, client.SendMessage(context.Background(), 77, "Здравствуйте!"))
	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/bot123:abc/sendMessage", call.path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(call.body, &body))
	assert.Equal(t, float64(77), body["chat_id"])
	assert.Equal(t, "Здравствуйте!", body["text"])
}

func TestSendMessageRejected(t *testing.T) {
	server, _ := newBotAPI(t, http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	client := NewClient(Config{Token: "t", APIURL: server.URL})

	err := client.SendMessage(context.Background(), 1, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendMessageUnreachableHidesToken(t *testing.T) {
	client := NewClient(Config{Token: "secret-token", APIURL: "http://127.0.0.1:1"})
	err := client.SendMessage(context.Background(), 1, "x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestSendSticker(t *testing.T) {
	server, calls := newBotAPI(t, http.StatusOK, `{"ok":true}`)
	client := NewClient(Config{Token: "t", APIURL: server.URL})

	require.NoError(t, client.SendSticker(context.Background(), 42, []byte("png-bytes")))
	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/bott/sendSticker", call.path)
	assert.Equal(t, "42", call.chatID)
	assert.Equal(t, []byte("png-bytes"), call.sticker)
}

func TestSetWebhook(t *testing.T) {
	server, calls := newBotAPI(t, http.StatusOK, `{"ok":true}`)
	client := NewClient(Config{Token: "t", APIURL: server.URL})

	require.NoError(t, client.SetWebhook(context.Background(), "https://bot.example.org/telegram/webhook", "s3cret"))
	var body map[string]any
	require.NoError(t, json.Unmarshal((*calls)[0].body, &body))
	assert.Equal(t, "s3cret", body["secret_token"])
	assert.Equal(t, "https://bot.example.org/telegram/webhook", body["url"])
}

func TestLoadSticker(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"wide", 1024, 256, 512, 128},
		{"tall", 100, 200, 256, 512},
		{"square", 64, 64, 512, 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sticker.png")
			src := imaging.New(tt.width, tt.height, color.NRGBA{R: 200, A: 255})
			require.NoError(t, imaging.Save(src, path))

			data, err := LoadSticker(path)
			require.NoError(t, err)
			img, err := imaging.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}

	_, err := LoadSticker(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestMessageHelpers(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		command string
		sender  int64
		display string
	}{
		{
			name:    "start with bot suffix",
			msg:     Message{Text: "/start@backstage_bot", From: &User{ID: 5, FirstName: "Анна", LastName: "Петрова"}, Chat: Chat{ID: 9}},
			command: "start", sender: 5, display: "Анна Петрова",
		},
		{
			name:    "plain text",
			msg:     Message{Text: "да", From: &User{ID: 6, Username: "fagot"}, Chat: Chat{ID: 9}},
			command: "", sender: 6, display: "fagot",
		},
		{
			name:    "channel post without sender",
			msg:     Message{Text: "/help me", Chat: Chat{ID: 9, FirstName: "Оркестр"}},
			command: "help", sender: 9, display: "Оркестр",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.command, tt.msg.Command())
			assert.Equal(t, tt.sender, tt.msg.SenderID())
			assert.Equal(t, tt.display, tt.msg.DisplayName())
		})
	}
}
