// Package telegram provides Telegram-specific utilities
package telegram

import (
	"strings"
)

// Telegram length limits
const (
	MaxMessageLength = 4000
	MaxCaptionLength = 1000
)

var markdownV2Replacer = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func EscapeMarkdownV2(text string) string {
	return markdownV2Replacer.Replace(text)
}

// Bold escapes text and wraps it in MarkdownV2 bold markers
func Bold(text string) string {
	return "*" + EscapeMarkdownV2(text) + "*"
}

// Truncate shortens plain text to at most maxRunes runes, ending with "..."
// when cut. Uses rune-safe slicing to avoid breaking UTF-8 characters.
func Truncate(text string, maxRunes int) string {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
