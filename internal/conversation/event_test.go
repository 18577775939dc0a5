package conversation

import (
	"errors"
	"testing"
)

func TestParseState(t *testing.T) {
	for _, s := range []State{Menu, Description, Cart, AwaitingEmail, Ordering} {
		got, err := ParseState(s.String())
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = %v, %v", s.String(), got, err)
		}
	}

	for _, tag := range []string{"START", "HANDLE_MENU", "", "menu"} {
		if _, err := ParseState(tag); err == nil {
			t.Errorf("ParseState(%q) expected error", tag)
		}
	}
}

func TestState_StringUnknown(t *testing.T) {
	if got := State(99).String(); got != "State(99)" {
		t.Errorf("String() = %q", got)
	}
}

func TestEvent_IsReset(t *testing.T) {
	tests := []struct {
		ev   Event
		want bool
	}{
		{Event{Kind: EventCommand, Text: "start"}, true},
		{Event{Kind: EventCommand, Text: "help"}, false},
		{Event{Kind: EventText, Text: "start"}, false},
		{Event{Kind: EventCallback, Data: "start"}, false},
	}
	for _, tt := range tests {
		if got := tt.ev.IsReset(); got != tt.want {
			t.Errorf("%+v.IsReset() = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestQuantityToken(t *testing.T) {
	token := QuantityToken("a1b2-c3", 10)
	if token != "qty:a1b2-c3:10" {
		t.Errorf("QuantityToken() = %q", token)
	}

	id, qty, err := ParseQuantityToken(token)
	if err != nil || id != "a1b2-c3" || qty != 10 {
		t.Errorf("ParseQuantityToken(%q) = %q, %d, %v", token, id, qty, err)
	}
}

func TestParseQuantityToken_Invalid(t *testing.T) {
	for _, token := range []string{"", "p1", "qty:", "qty:p1", "qty::5", "qty:p1:0", "qty:p1:-5", "qty:p1:many", "cart"} {
		if _, _, err := ParseQuantityToken(token); err == nil {
			t.Errorf("ParseQuantityToken(%q) expected error", token)
		}
	}
}

func TestReservedTokensAreNotQuantities(t *testing.T) {
	for _, token := range []string{TokenCart, TokenBack, TokenNextPage, TokenPrevPage, TokenDeleteAll, TokenBuy} {
		if !isReserved(token) {
			t.Errorf("%q should be reserved", token)
		}
		if _, _, err := ParseQuantityToken(token); err == nil {
			t.Errorf("%q parsed as quantity", token)
		}
	}
	if isReserved("5f2c-product-id") {
		t.Error("product ids must not be reserved")
	}
}

func TestFault(t *testing.T) {
	cause := errors.New("boom")
	err := error(newFault(FaultBackend, "get_cart", cause))

	if !errors.Is(err, cause) {
		t.Error("fault should unwrap to its cause")
	}
	if FaultKindOf(err) != FaultBackend {
		t.Errorf("FaultKindOf() = %q", FaultKindOf(err))
	}
	if FaultKindOf(cause) != "" {
		t.Error("plain errors have no fault kind")
	}
	if err.Error() != "conversation: backend (get_cart): boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
