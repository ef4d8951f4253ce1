package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/notify"
)

// API is the part of *tgbotapi.BotAPI the transport uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Sink delivers messages through the Bot API. In private chats the chat
// id equals the user id.
type Sink struct {
	api API
}

var _ notify.Sink = (*Sink)(nil)

func NewSink(api API) *Sink {
	return &Sink{api: api}
}

// SendText returns when the message is sent or ctx is done, whichever
// comes first. The Bot API call itself is bounded by the client timeout
// and may still complete after ctx expires.
func (s *Sink) SendText(ctx context.Context, userID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := s.api.Send(tgbotapi.NewMessage(userID, text))
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DisplayName returns "First Last", falling back to @username.
func (s *Sink) DisplayName(ctx context.Context, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chat, err := s.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: userID}})
	if err != nil {
		return "", err
	}
	return displayName(chat), nil
}

func displayName(c tgbotapi.Chat) string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	switch {
	case name != "":
		return name
	case c.UserName != "":
		return "@" + c.UserName
	default:
		return c.Title
	}
}
