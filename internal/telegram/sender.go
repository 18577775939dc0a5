package telegram

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the interface for Telegram bot API operations
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MessageSender defines the outbound operations of the storefront.
// Text and captions are MarkdownV2; callers escape dynamic content.
type MessageSender interface {
	Send(chatID int64, text string) error
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
	SendPhoto(chatID int64, photoURL, caption string, keyboard tgbotapi.InlineKeyboardMarkup) error
	EditMessage(chatID int64, msgID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
	DeleteMessage(chatID int64, msgID int) error
	AckCallback(callbackID, text string) error
}

// Sender implements MessageSender using Telegram Bot API
type Sender struct {
	api BotAPI
}

// NewSender creates a new Sender
func NewSender(api BotAPI) *Sender {
	return &Sender{api: api}
}

// Send sends a MarkdownV2 formatted message
func (s *Sender) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := s.api.Send(msg)
	if err != nil {
		slog.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
	return err
}

// SendWithKeyboard sends a message with inline keyboard
func (s *Sender) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyMarkup = keyboard
	_, err := s.api.Send(msg)
	if err != nil {
		slog.Error("Failed to send message with keyboard", "chat_id", chatID, "error", err)
	}
	return err
}

// SendPhoto sends a photo by URL with a caption and inline keyboard
func (s *Sender) SendPhoto(chatID int64, photoURL, caption string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdownV2
	if len(keyboard.InlineKeyboard) > 0 {
		photo.ReplyMarkup = keyboard
	}
	_, err := s.api.Send(photo)
	if err != nil {
		slog.Error("Failed to send photo", "chat_id", chatID, "error", err)
	}
	return err
}

// EditMessage replaces the text of an existing message.
// An empty keyboard removes the inline keyboard.
func (s *Sender) EditMessage(chatID int64, msgID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	var edit tgbotapi.EditMessageTextConfig
	if len(keyboard.InlineKeyboard) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, keyboard)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, msgID, text)
	}
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := s.api.Send(edit)
	if err != nil {
		slog.Error("Failed to edit message", "msg_id", msgID, "error", err)
	}
	return err
}

// DeleteMessage removes a message from the chat
func (s *Sender) DeleteMessage(chatID int64, msgID int) error {
	_, err := s.api.Request(tgbotapi.NewDeleteMessage(chatID, msgID))
	if err != nil {
		slog.Error("Failed to delete message", "chat_id", chatID, "msg_id", msgID, "error", err)
	}
	return err
}

// AckCallback acknowledges a callback query, showing text as a toast when set
func (s *Sender) AckCallback(callbackID, text string) error {
	_, err := s.api.Request(tgbotapi.NewCallback(callbackID, text))
	if err != nil {
		slog.Error("Failed to acknowledge callback", "error", err)
	}
	return err
}
