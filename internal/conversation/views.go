package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Yulia51188/fish-house/internal/catalog"
	"github.com/Yulia51188/fish-house/internal/commerce"
	"github.com/Yulia51188/fish-house/internal/telegram"
)

// Reply texts.
const (
	menuPrompt    = "Please choose:"
	emptyCartText = "Your cart is empty"
	emailPrompt   = "Please input your email"
	invalidEmail  = "This does not look like an email address. Please try again."
	orderingHint  = "Your order is being processed. Send /start to return to the menu."

	maxDescription     = 300
	minCartDescription = 20
	maxCartName        = 64
)

func esc(s string) string {
	return telegram.EscapeMarkdownV2(s)
}

func formatKg(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64)
}

func menuView(page catalog.Page[commerce.Product]) (string, tgbotapi.InlineKeyboardMarkup) {
	kb := telegram.NewKeyboard()
	for _, p := range page.Items {
		kb.Line(p.Name, p.ID)
	}
	if page.HasPrevious {
		kb.Line("Previous", TokenPrevPage)
	}
	if page.HasNext {
		kb.Line("Next", TokenNextPage)
	}
	kb.Line("Go to cart", TokenCart)
	return esc(menuPrompt), kb.Build()
}

func productCaption(p *commerce.Product, maxLen int) string {
	price := p.Meta.DisplayPrice.WithTax.Formatted
	var b strings.Builder
	b.WriteString(telegram.Bold(p.Name))
	b.WriteString("\n\n")
	b.WriteString(esc(fmt.Sprintf("%s per %s kg", price, formatKg(p.Weight.Kg))))
	b.WriteString("\n")
	b.WriteString(esc(fmt.Sprintf("%d items on stock", p.Meta.Stock.Level)))
	// Escaping at most doubles the length.
	budget := min((maxLen-b.Len()-2)/2, maxDescription)
	if p.Description != "" && budget > 0 {
		b.WriteString("\n\n")
		b.WriteString(esc(telegram.Truncate(p.Description, budget)))
	}
	return b.String()
}

func productKeyboard(p *commerce.Product) tgbotapi.InlineKeyboardMarkup {
	kb := telegram.NewKeyboard()
	for _, factor := range QuantityFactors {
		text := fmt.Sprintf("x%d (%s kg)", factor, formatKg(p.Weight.Kg*float64(factor)))
		kb.Button(text, QuantityToken(p.ID, factor))
	}
	kb.Line("Return to menu", TokenBack)
	return kb.Build()
}

// cartEntry is one cart line as plain text.
type cartEntry struct {
	name        string
	description string
	price       string
	amount      string
}

// cartView renders the cart. weights maps product ids to unit weight in kg.
// The text stays within telegram.MaxMessageLength: descriptions are shortened
// or dropped first, then lines are collapsed. Every item keeps its Remove button.
func cartView(cart *commerce.Cart, items []commerce.CartItem, weights map[string]float64) (string, tgbotapi.InlineKeyboardMarkup) {
	if len(items) == 0 {
		return esc(emptyCartText), telegram.NewKeyboard().Line("Return to menu", TokenBack).Build()
	}

	entries := make([]cartEntry, 0, len(items))
	kb := telegram.NewKeyboard()
	for _, item := range items {
		unitWeight := weights[item.ProductID]
		prices := item.Meta.DisplayPrice.WithTax
		amount := fmt.Sprintf("%s kg (%d units) in cart for %s",
			formatKg(unitWeight*float64(item.Quantity)), item.Quantity, prices.Value.Formatted)
		entries = append(entries, cartEntry{
			name:        telegram.Truncate(item.Name, maxCartName),
			description: item.Description,
			price:       fmt.Sprintf("%s per unit (%s kg)", prices.Unit.Formatted, formatKg(unitWeight)),
			amount:      amount,
		})
		kb.Line("Remove "+item.Name, item.ID)
	}
	kb.Line("Delete all items", TokenDeleteAll)
	kb.Line("Buy", TokenBuy)
	kb.Line("Return to menu", TokenBack)

	total := "Total: " + cart.Meta.DisplayPrice.WithTax.Formatted
	limit := telegram.MaxMessageLength

	if text, n := renderCart(entries, total, maxDescription); n <= limit {
		return text, kb.Build()
	}
	if text, fixed := renderCart(entries, total, 0); fixed <= limit {
		// Each kept description costs its runes plus a line break.
		per := min((limit-fixed)/len(entries)-1, maxDescription)
		if per >= minCartDescription {
			text, _ = renderCart(entries, total, per)
		}
		return text, kb.Build()
	}
	return renderCompactCart(entries, total, limit), kb.Build()
}

// renderCart returns the MarkdownV2 text and its visible length in runes.
func renderCart(entries []cartEntry, total string, descLimit int) (string, int) {
	var b strings.Builder
	n := 0
	write := func(plain string, bold bool) {
		n += utf8.RuneCountInString(plain)
		if bold {
			b.WriteString(telegram.Bold(plain))
		} else {
			b.WriteString(esc(plain))
		}
	}

	for _, e := range entries {
		write(e.name, true)
		write("\n", false)
		if descLimit > 0 && e.description != "" {
			write(telegram.Truncate(e.description, descLimit), false)
			write("\n", false)
		}
		write(e.price, false)
		write("\n", false)
		write(e.amount, false)
		write("\n\n", false)
	}
	write(total, false)
	return b.String(), n
}

// renderCompactCart lists one line per item and elides the tail that does
// not fit.
func renderCompactCart(entries []cartEntry, total string, limit int) string {
	var b strings.Builder
	reserve := utf8.RuneCountInString(total) + utf8.RuneCountInString(moreItems(len(entries))) + 1
	n := 0
	for i, e := range entries {
		line := e.name + ": " + e.amount
		cost := utf8.RuneCountInString(line) + 1
		if n+cost+reserve > limit {
			b.WriteString(esc(moreItems(len(entries) - i)))
			break
		}
		b.WriteString(telegram.Bold(e.name))
		b.WriteString(esc(": " + e.amount + "\n"))
		n += cost
	}
	b.WriteString("\n")
	b.WriteString(esc(total))
	return b.String()
}

func moreItems(n int) string {
	return fmt.Sprintf("...and %d more items\n", n)
}

func orderConfirmation(email string) string {
	return esc(fmt.Sprintf("Thank you! We will contact you at %s", email))
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// noKeyboard removes the inline keyboard of an edited message.
var noKeyboard tgbotapi.InlineKeyboardMarkup
