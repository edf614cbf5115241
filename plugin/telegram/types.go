// Package telegram is a minimal Bot API client: webhook updates in, text and
// stickers out.
package telegram

import (
	"strings"
)

// Update is an incoming webhook payload. Only message updates are used.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	FirstName string `json:"first_name,omitempty"`
}

// Command returns the bot command the message starts with, without the slash
// and any "@botname" suffix, or "" for plain text.
func (m *Message) Command() string {
	if !strings.HasPrefix(m.Text, "/") {
		return ""
	}
	cmd := strings.Fields(m.Text)[0][1:]
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd
}

// SenderID identifies the performer: the sender when known, the chat otherwise.
func (m *Message) SenderID() int64 {
	if m.From != nil {
		return m.From.ID
	}
	return m.Chat.ID
}

// DisplayName is "First Last" of the sender, falling back to the username.
func (m *Message) DisplayName() string {
	if m.From == nil {
		return m.Chat.FirstName
	}
	name := strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
	if name == "" {
		return m.From.Username
	}
	return name
}

// WebhookReply is a Bot API method call returned in the webhook response body.
type WebhookReply struct {
	Method string `json:"method"`
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// NewReply answers into chatID with sendMessage.
func NewReply(chatID int64, text string) *WebhookReply {
	return &WebhookReply{Method: "sendMessage", ChatID: chatID, Text: text}
}

// apiResponse is the envelope of every Bot API response.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}
