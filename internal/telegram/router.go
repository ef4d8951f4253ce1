package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/command"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/logger"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/notify"
)

// Responder receives the target's reply. session.Manager implements it.
type Responder interface {
	MarkResponded(ctx context.Context) bool
}

// Commands interprets admin text. command.Interpreter implements it.
type Commands interface {
	IsAdmin(userID int64) bool
	Handle(ctx context.Context, senderID int64, text string) command.Result
}

// Router turns inbound updates into session replies and admin commands.
type Router struct {
	sink     notify.Sink
	sessions Responder
	commands Commands
	targetID int64
	log      *zap.Logger
}

// NewRouter creates a new Telegram router.
func NewRouter(sink notify.Sink, sessions Responder, commands Commands, targetID int64, log *zap.Logger) *Router {
	return &Router{
		sink:     sink,
		sessions: sessions,
		commands: commands,
		targetID: targetID,
		log:      log.With(zap.String("component", "router")),
	}
}

// HandleUpdate routes a single update. Only text messages with a sender
// are considered.
//
// Any message from the target resolves a live session. If the target is
// not an admin, a message consumed that way gets no refusal.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return
	}
	sender := msg.From.ID
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	if sender == r.targetID && r.sessions.MarkResponded(ctx) {
		r.log.Info("target replied", logger.UserID("target", sender))
		r.reply(ctx, chatID, ackText)
		if !r.commands.IsAdmin(sender) {
			return
		}
	}
	if text == "" {
		return
	}

	if text == "/start" {
		text = "help"
	}
	res := r.commands.Handle(ctx, sender, text)
	if res.Reply != "" {
		r.reply(ctx, chatID, res.Reply)
	}
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.sink.SendText(ctx, chatID, text); err != nil {
		r.log.Warn("reply failed", logger.UserID("chat", chatID), zap.Error(err))
	}
}
