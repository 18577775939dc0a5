package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// KeyboardBuilder provides a fluent interface for building inline keyboards
type KeyboardBuilder struct {
	rows       [][]tgbotapi.InlineKeyboardButton
	currentRow []tgbotapi.InlineKeyboardButton
}

// NewKeyboard creates a new keyboard builder
func NewKeyboard() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// Button adds a button to the current row
func (kb *KeyboardBuilder) Button(text, callbackData string) *KeyboardBuilder {
	kb.currentRow = append(kb.currentRow, tgbotapi.NewInlineKeyboardButtonData(text, callbackData))
	return kb
}

// Line adds a row holding a single button
func (kb *KeyboardBuilder) Line(text, callbackData string) *KeyboardBuilder {
	return kb.Row().Button(text, callbackData).Row()
}

// Row finishes the current row and starts a new one
func (kb *KeyboardBuilder) Row() *KeyboardBuilder {
	if len(kb.currentRow) > 0 {
		kb.rows = append(kb.rows, kb.currentRow)
		kb.currentRow = nil
	}
	return kb
}

// Build returns the final InlineKeyboardMarkup
func (kb *KeyboardBuilder) Build() tgbotapi.InlineKeyboardMarkup {
	kb.Row()
	if len(kb.rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb.rows...)
}
