package conversation

import (
	"errors"
	"fmt"
)

// FaultKind categorizes a failed dispatch. The kind decides what is persisted.
type FaultKind string

// Fault kinds.
const (
	FaultTransport       FaultKind = "transport"
	FaultUnknownState    FaultKind = "unknown_state"
	FaultUnexpectedEvent FaultKind = "unexpected_event"
	FaultBackend         FaultKind = "backend"
	FaultStore           FaultKind = "store"
)

// ErrCartMismatch is returned when the cart did not grow by the requested quantity.
var ErrCartMismatch = errors.New("cart quantity mismatch")

// Fault is a dispatch failure.
type Fault struct {
	Kind FaultKind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	if f == nil {
		return ""
	}
	if f.Err == nil {
		return fmt.Sprintf("conversation: %s (%s)", f.Kind, f.Op)
	}
	return fmt.Sprintf("conversation: %s (%s): %v", f.Kind, f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

func newFault(kind FaultKind, op string, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Err: err}
}

// FaultKindOf returns the kind of the fault in err's chain, or "" if none.
func FaultKindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
