package conversation

import (
	"fmt"
	"strconv"
	"strings"
)

// ResetCommand restarts a conversation from the menu.
const ResetCommand = "start"

// EventKind classifies inbound events.
type EventKind int

// Inbound event kinds.
const (
	EventCommand EventKind = iota + 1
	EventText
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Event is one inbound update of a conversation.
type Event struct {
	ChatID int64
	Kind   EventKind
	// Command name without the slash, or the message text.
	Text string
	// Callback token of a pressed button.
	Data string
	// Message carrying the pressed button.
	MessageID int
	Username  string
}

// IsReset reports whether the event restarts the conversation.
func (e Event) IsReset() bool {
	return e.Kind == EventCommand && e.Text == ResetCommand
}

// Reserved callback tokens. Product and cart item ids never collide with
// them, and quantity choices carry the "qty:" prefix.
const (
	TokenCart      = "cart"
	TokenBack      = "back"
	TokenNextPage  = "next_page"
	TokenPrevPage  = "prev_page"
	TokenDeleteAll = "delete_all"
	TokenBuy       = "buy"

	quantityPrefix = "qty:"
)

// QuantityFactors are the quantities offered on a product card.
var QuantityFactors = []int{1, 5, 10}

// QuantityToken encodes a quantity choice for productID.
func QuantityToken(productID string, quantity int) string {
	return quantityPrefix + productID + ":" + strconv.Itoa(quantity)
}

// ParseQuantityToken decodes a token built by QuantityToken.
func ParseQuantityToken(token string) (productID string, quantity int, err error) {
	rest, ok := strings.CutPrefix(token, quantityPrefix)
	if !ok {
		return "", 0, fmt.Errorf("not a quantity token: %q", token)
	}
	idx := strings.LastIndexByte(rest, ':')
	if idx <= 0 {
		return "", 0, fmt.Errorf("malformed quantity token: %q", token)
	}
	quantity, err = strconv.Atoi(rest[idx+1:])
	if err != nil || quantity <= 0 {
		return "", 0, fmt.Errorf("invalid quantity in token: %q", token)
	}
	return rest[:idx], quantity, nil
}
