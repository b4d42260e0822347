// Package telegram connects a chat.Handler to the Telegram Bot API using long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sundayezeilo/engagebot/internal/chat"
	"github.com/sundayezeilo/engagebot/internal/errx"
)

// botAPI is the part of *tgbotapi.BotAPI the client uses.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Config holds configuration for the client.
type Config struct {
	Token       string
	PollTimeout time.Duration // default: 30s
	Debug       bool
	Logger      *slog.Logger
}

// Client polls for updates and hands each one to a chat.Handler.
type Client struct {
	api         botAPI
	username    string
	pollTimeout time.Duration
	logger      *slog.Logger
}

// New authenticates against the Bot API with cfg.Token.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errx.E("telegram.New", errx.Invalid, errors.New("bot token is required"))
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, errx.E("telegram.New", errx.Unavailable, fmt.Errorf("connect to bot api: %w", err))
	}
	bot.Debug = cfg.Debug

	c := newClient(bot, cfg)
	c.username = bot.Self.UserName
	return c, nil
}

func newClient(api botAPI, cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api:         api,
		pollTimeout: timeout,
		logger:      logger,
	}
}

// Username is the bot's account name, empty until New has authenticated.
func (c *Client) Username() string {
	return c.username
}

// Run receives updates until ctx is cancelled or the update channel closes.
// Updates are served one at a time, in arrival order. A handler error is
// not fatal; the chat middleware is expected to log it.
func (c *Client) Run(ctx context.Context, h chat.Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(c.pollTimeout / time.Second)

	updates := c.api.GetUpdatesChan(cfg)
	defer c.api.StopReceivingUpdates()

	c.logger.Info("polling for updates",
		"bot", c.username,
		"poll_timeout", c.pollTimeout.String(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			c.dispatch(ctx, h, upd)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, h chat.Handler, upd tgbotapi.Update) {
	u, ok := toUpdate(upd, c.username)
	if !ok {
		c.logger.Debug("update ignored", "update_id", upd.UpdateID)
		return
	}

	w := &responder{
		api:        c.api,
		chatID:     u.ChatID,
		messageID:  u.MessageID,
		callbackID: u.CallbackID,
	}

	if err := h.ServeUpdate(ctx, w, u); err != nil && u.Kind == chat.KindCallback && !w.answered {
		// Stop the client's loading indicator even though nothing was recorded.
		if aerr := w.Answer(ctx, ""); aerr != nil {
			c.logger.Warn("failed to answer callback", "update_id", u.ID, "error", aerr.Error())
		}
	}
}

// toUpdate converts commands and callback queries. Anything else, anything
// without a sender and commands addressed to another bot are reported as not ok.
func toUpdate(upd tgbotapi.Update, botUsername string) (*chat.Update, bool) {
	switch {
	case upd.Message != nil:
		m := upd.Message
		if m.From == nil || !m.IsCommand() {
			return nil, false
		}
		if !addressedTo(m.CommandWithAt(), botUsername) {
			return nil, false
		}
		u := &chat.Update{
			ID:        upd.UpdateID,
			Kind:      chat.KindCommand,
			From:      chat.User{ID: m.From.ID, Username: m.From.UserName},
			MessageID: m.MessageID,
			Command:   m.Command(),
			Args:      strings.Fields(m.CommandArguments()),
		}
		if m.Chat != nil {
			u.ChatID = m.Chat.ID
		}
		return u, true

	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		if q.From == nil {
			return nil, false
		}
		u := &chat.Update{
			ID:         upd.UpdateID,
			Kind:       chat.KindCallback,
			From:       chat.User{ID: q.From.ID, Username: q.From.UserName},
			CallbackID: q.ID,
			Data:       q.Data,
		}
		if q.Message != nil && q.Message.Chat != nil {
			u.ChatID = q.Message.Chat.ID
		}
		return u, true

	default:
		return nil, false
	}
}

// addressedTo reports whether a command such as "tweet@somebot" is meant for
// the bot. Commands without a suffix are meant for every bot in the chat.
func addressedTo(command, botUsername string) bool {
	_, target, found := strings.Cut(command, "@")
	if !found || target == "" {
		return true
	}
	return strings.EqualFold(target, botUsername)
}

// responder implements chat.Responder for one update.
type responder struct {
	api        botAPI
	chatID     int64
	messageID  int
	callbackID string
	answered   bool
}

// Reply sends text to the update's chat, quoting the command message when
// there is one. Each button gets its own row.
func (r *responder) Reply(ctx context.Context, text string, buttons ...chat.Button) error {
	const op = "telegram.Reply"

	if r.chatID == 0 {
		return errx.E(op, errx.Invalid, errors.New("update has no chat to reply to"))
	}
	if err := ctx.Err(); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}

	msg := tgbotapi.NewMessage(r.chatID, text)
	if r.callbackID == "" {
		msg.ReplyToMessageID = r.messageID
	}
	if len(buttons) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
		for _, b := range buttons {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data)))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	if _, err := r.api.Send(msg); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

// Answer acknowledges the callback query. An empty notice shows nothing.
func (r *responder) Answer(ctx context.Context, notice string) error {
	const op = "telegram.Answer"

	if r.callbackID == "" {
		return errx.E(op, errx.Invalid, errors.New("update is not a callback"))
	}
	if err := ctx.Err(); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}

	if _, err := r.api.Request(tgbotapi.NewCallback(r.callbackID, notice)); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	r.answered = true
	return nil
}
