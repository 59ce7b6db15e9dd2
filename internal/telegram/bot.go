// Package telegram hosts the wizard over the Telegram Bot API: it
// long-polls updates, converts them into wizard events and renders
// the wizard's responses back into sends, edits and deletes.
package telegram

import (
	"context"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/utkabotron/vibe/internal/session"
	"github.com/utkabotron/vibe/internal/wizard"
)

const idleNoticeText = "Сессия завершена из-за неактивности. Используйте /start для создания нового отчёта."

// Bot is the long-polling Telegram front end of the wizard.
type Bot struct {
	api         *tgbotapi.BotAPI
	engine      *wizard.Engine
	sessions    *session.Store
	idleTimeout time.Duration
}

// NewBot authenticates against the Bot API.
func NewBot(token string, engine *wizard.Engine, sessions *session.Store, idleTimeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Printf("telegram: authorized as @%s", api.Self.UserName)
	return &Bot{
		api:         api,
		engine:      engine,
		sessions:    sessions,
		idleTimeout: idleTimeout,
	}, nil
}

// Run polls updates until the context is cancelled. The idle sweep
// runs on the same loop, so session access never races with update
// handling here.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case <-sweep.C:
			b.sweepIdle()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	ev, ok := b.toEvent(upd)
	if !ok {
		return
	}
	resp := b.engine.HandleEvent(ctx, ev)
	b.render(ev, resp)
}

// toEvent converts a raw update into a wizard event. Updates that are
// neither private messages nor callback presses are dropped.
func (b *Bot) toEvent(upd tgbotapi.Update) (wizard.Event, bool) {
	if cb := upd.CallbackQuery; cb != nil && cb.Message != nil {
		// Stop the client's spinner regardless of what the press does.
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Printf("telegram: answer callback: %v", err)
		}
		return wizard.Event{
			ChatID:     cb.Message.Chat.ID,
			UserID:     cb.From.ID,
			FullName:   strings.TrimSpace(cb.From.FirstName + " " + cb.From.LastName),
			MessageID:  cb.Message.MessageID,
			Callback:   cb.Data,
			IsCallback: true,
		}, true
	}

	msg := upd.Message
	if msg == nil || msg.From == nil {
		return wizard.Event{}, false
	}
	ev := wizard.Event{
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		FullName:  strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName),
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	if msg.IsCommand() {
		ev.Command = msg.Command()
	}
	return ev, true
}

// render applies one wizard response: deletes first, then each message
// either edits the pressed message or goes out fresh.
func (b *Bot) render(ev wizard.Event, resp wizard.Response) {
	for _, id := range resp.Delete {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(ev.ChatID, id)); err != nil {
			log.Printf("telegram: delete message %d: %v", id, err)
		}
	}

	for _, m := range resp.Messages {
		if m.Edit {
			b.editMessage(ev.ChatID, ev.MessageID, m)
			continue
		}
		b.sendMessage(ev.ChatID, m, resp.Ended)
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, m wizard.Message) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, m.Text)
	if m.HTML {
		edit.ParseMode = tgbotapi.ModeHTML
	}
	if kb, ok := toInlineKeyboard(m.Keyboard); ok {
		edit.ReplyMarkup = &kb
	}
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("telegram: edit message %d: %v", messageID, err)
	}
}

func (b *Bot) sendMessage(chatID int64, m wizard.Message, ended bool) {
	msg := tgbotapi.NewMessage(chatID, m.Text)
	if m.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if kb, ok := toInlineKeyboard(m.Keyboard); ok {
		msg.ReplyMarkup = kb
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("telegram: send message: %v", err)
		return
	}
	// A finished dialog has no session left to bookkeep message ids in.
	if ended {
		return
	}
	if m.Track {
		b.sessions.Get(chatID).Track(sent.MessageID)
	}
	if m.Exempt {
		b.sessions.Get(chatID).Exempt(sent.MessageID)
	}
}

func toInlineKeyboard(rows [][]wizard.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var kb [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var btns []tgbotapi.InlineKeyboardButton
		for _, btn := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		kb = append(kb, btns)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...), true
}

// Notify sends a standalone plain-text message to a chat, outside any
// dialog. The mini-app server uses it for submission confirmations.
func (b *Bot) Notify(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// sweepIdle drops sessions idle past the timeout, cleans their prompts
// up and tells the user why the dialog disappeared.
func (b *Bot) sweepIdle() {
	for _, ex := range b.sessions.ExpireIdle(b.idleTimeout) {
		for _, id := range ex.Tracked {
			if _, err := b.api.Request(tgbotapi.NewDeleteMessage(ex.ChatID, id)); err != nil {
				log.Printf("telegram: delete message %d: %v", id, err)
			}
		}
		msg := tgbotapi.NewMessage(ex.ChatID, idleNoticeText)
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("telegram: idle notice: %v", err)
		}
	}
}
