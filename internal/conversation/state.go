// Package conversation implements the storefront dialogue: it loads a
// conversation's state, lets the handler for that state act on the event and
// persists the resulting state.
package conversation

import "fmt"

// State is a position in the storefront flow.
type State int

// Storefront states. Start is the virtual entry point and is never stored.
const (
	Start State = iota
	Menu
	Description
	Cart
	AwaitingEmail
	Ordering
)

var stateTags = map[State]string{
	Start:         "START",
	Menu:          "MENU",
	Description:   "DESCRIPTION",
	Cart:          "CART",
	AwaitingEmail: "AWAITING_EMAIL",
	Ordering:      "ORDERING",
}

// String returns the persisted tag of the state.
func (s State) String() string {
	if tag, ok := stateTags[s]; ok {
		return tag
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState decodes a stored tag. Start is rejected: it is never persisted.
func ParseState(tag string) (State, error) {
	for s, t := range stateTags {
		if t == tag && s != Start {
			return s, nil
		}
	}
	return Start, fmt.Errorf("unknown state tag %q", tag)
}
