package bot

import (
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Yulia51188/fish-house/internal/conversation"
)

// ErrUnsupportedUpdate marks updates that carry no storefront event.
var ErrUnsupportedUpdate = errors.New("unsupported update")

// EventFromUpdate converts a Telegram update into a conversation event.
// callbackID is set for button presses and must be acknowledged.
func EventFromUpdate(u tgbotapi.Update) (ev conversation.Event, callbackID string, err error) {
	switch {
	case u.Message != nil:
		msg := u.Message
		if msg.Chat == nil || msg.Text == "" {
			return ev, "", ErrUnsupportedUpdate
		}
		ev = conversation.Event{
			ChatID:    msg.Chat.ID,
			Kind:      conversation.EventText,
			Text:      msg.Text,
			MessageID: msg.MessageID,
		}
		if msg.IsCommand() {
			ev.Kind = conversation.EventCommand
			ev.Text = msg.Command()
		}
		if msg.From != nil {
			ev.Username = msg.From.UserName
		}
		return ev, "", nil

	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		// Inline-mode callbacks carry no message and therefore no chat.
		if cb.Message == nil || cb.Message.Chat == nil {
			return ev, cb.ID, ErrUnsupportedUpdate
		}
		ev = conversation.Event{
			ChatID:    cb.Message.Chat.ID,
			Kind:      conversation.EventCallback,
			Data:      cb.Data,
			MessageID: cb.Message.MessageID,
		}
		if cb.From != nil {
			ev.Username = cb.From.UserName
		}
		return ev, cb.ID, nil
	}
	return ev, "", ErrUnsupportedUpdate
}

// updateFrom returns the user behind an update, or nil.
func updateFrom(u tgbotapi.Update) *tgbotapi.User {
	switch {
	case u.Message != nil:
		return u.Message.From
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From
	}
	return nil
}
