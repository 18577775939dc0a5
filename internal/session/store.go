// Package session defines the per-conversation state store.
//
// Each conversation owns two entries: its FSM state tag, keyed by the
// conversation id, and its catalog page index, keyed by "<id>_page". The
// store is a last-write-wins map and does not validate state tags.
package session

import (
	"context"
	"errors"
	"strconv"
)

// ErrNotFound is returned when a conversation has no stored entry.
var ErrNotFound = errors.New("session: not found")

// Store persists conversation state and catalog page.
type Store interface {
	// State returns the stored state tag or ErrNotFound.
	State(ctx context.Context, conversationID int64) (string, error)

	// SetState overwrites the state tag.
	SetState(ctx context.Context, conversationID int64, state string) error

	// Page returns the stored page index or ErrNotFound.
	Page(ctx context.Context, conversationID int64) (int, error)

	// SetPage overwrites the page index.
	SetPage(ctx context.Context, conversationID int64, page int) error

	// Init creates (or recreates) a conversation: it writes state and resets
	// the page index to 0 in one step.
	Init(ctx context.Context, conversationID int64, state string) error
}

// Keys builds the storage keys for a conversation.
type Keys struct {
	Prefix string
}

// State returns the key holding the state tag.
func (k Keys) State(conversationID int64) string {
	return k.Prefix + strconv.FormatInt(conversationID, 10)
}

// Page returns the key holding the page index.
func (k Keys) Page(conversationID int64) string {
	return k.State(conversationID) + "_page"
}

// ParsePage decodes a stored page index.
func ParsePage(raw string) (int, error) {
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if page < 0 {
		return 0, errors.New("session: negative page index")
	}
	return page, nil
}

// FormatPage encodes a page index as decimal text.
func FormatPage(page int) string {
	return strconv.Itoa(page)
}
