// Package telegram connects the bot to the Telegram Bot API via long polling.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/i474232898/weather-bot/internal/bot"
	"github.com/i474232898/weather-bot/internal/weather"
)

const pollTimeoutSeconds = 60

// Sender is the part of *tgbotapi.BotAPI used to deliver replies.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Responder sends router replies to Telegram chats.
type Responder struct {
	api Sender
}

var _ bot.Responder = (*Responder)(nil)

func NewResponder(api Sender) *Responder {
	return &Responder{api: api}
}

func (r *Responder) SendText(_ context.Context, sessionID, text string, kb bot.Keyboard) error {
	chatID, err := chatIDOf(sessionID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = replyKeyboard(kb)
	}
	if _, err := r.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	return nil
}

func (r *Responder) SendImage(_ context.Context, sessionID, path string) error {
	chatID, err := chatIDOf(sessionID)
	if err != nil {
		return err
	}
	if _, err := r.api.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))); err != nil {
		return fmt.Errorf("telegram send photo: %w", err)
	}
	return nil
}

// Poller feeds Telegram updates into a dispatcher.
type Poller struct {
	api        *tgbotapi.BotAPI
	dispatcher *bot.Dispatcher
}

// NewPoller authorizes the token against the Bot API.
func NewPoller(token string, dispatcher *bot.Dispatcher) (*Poller, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authorization failed: %w", err)
	}
	log.Printf("INFO: authorized on telegram account %s", api.Self.UserName)
	return &Poller{api: api, dispatcher: dispatcher}, nil
}

// API exposes the Bot API client for building a Responder.
func (p *Poller) API() *tgbotapi.BotAPI {
	return p.api
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := p.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg, ok := FromUpdate(update)
			if !ok {
				continue
			}
			if err := p.dispatcher.Submit(msg); err != nil {
				log.Printf("telegram: dropping update %d: %v", update.UpdateID, err)
			}
		}
	}
}

// FromUpdate converts an update into a bot.Message. Updates without a
// message (edits, callbacks, channel posts) are skipped.
func FromUpdate(update tgbotapi.Update) (bot.Message, bool) {
	m := update.Message
	if m == nil || m.Chat == nil {
		return bot.Message{}, false
	}

	msg := bot.Message{
		SessionID: strconv.FormatInt(m.Chat.ID, 10),
		Text:      m.Text,
	}
	if m.IsCommand() {
		msg.Command = m.Command()
	}
	if m.Location != nil {
		msg.Location = &weather.Location{
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
		}
	}
	return msg, true
}

func replyKeyboard(kb bot.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, b := range row {
			if b.RequestLocation {
				buttons = append(buttons, tgbotapi.NewKeyboardButtonLocation(b.Text))
			} else {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Text))
			}
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

func chatIDOf(sessionID string) (int64, error) {
	id, err := strconv.ParseInt(sessionID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("session %q is not a telegram chat id: %w", sessionID, err)
	}
	return id, nil
}
