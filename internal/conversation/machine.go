package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Yulia51188/fish-house/internal/commerce"
	"github.com/Yulia51188/fish-house/internal/session"
	"github.com/Yulia51188/fish-house/internal/telegram"
)

// DefaultPageLimit is the number of products shown per menu page.
const DefaultPageLimit = 8

// Shop is the part of the commerce backend the storefront uses.
type Shop interface {
	Products(ctx context.Context) ([]commerce.Product, error)
	Product(ctx context.Context, productID string) (*commerce.Product, error)
	MainImageURL(ctx context.Context, product *commerce.Product) (string, error)
	AddToCart(ctx context.Context, cartID, productID string, quantity int) error
	Cart(ctx context.Context, cartID string) (*commerce.Cart, error)
	CartItems(ctx context.Context, cartID string) ([]commerce.CartItem, error)
	DeleteCartItem(ctx context.Context, cartID, itemID string) error
	DeleteCartItems(ctx context.Context, cartID string) error
	QuantityInCart(ctx context.Context, cartID, productID string) (int, error)
	CreateCustomer(ctx context.Context, name, email string) (*commerce.Customer, error)
}

// Observer receives dispatch outcomes.
type Observer interface {
	EventReceived(kind string)
	Transitioned(from, to string)
	Faulted(kind string)
}

// Outcome describes a dispatched event.
type Outcome struct {
	From State
	To   State
	// Notice is shown when acknowledging a button press.
	Notice string
}

// result is what a state handler decided.
type result struct {
	next   State
	notice string
}

// Machine dispatches inbound events to the handler of the conversation's state.
type Machine struct {
	store         session.Store
	shop          Shop
	sender        telegram.MessageSender
	pageLimit     int
	verifyCartAdd bool
	observer      Observer
	logger        *slog.Logger
}

// Option configures the Machine.
type Option func(*Machine)

// WithPageLimit sets the menu page size. Zero or less shows the whole catalog.
func WithPageLimit(n int) Option {
	return func(m *Machine) {
		m.pageLimit = n
	}
}

// WithCartVerification compares the cart before and after every add and
// reports a mismatch as a backend fault.
func WithCartVerification(enabled bool) Option {
	return func(m *Machine) {
		m.verifyCartAdd = enabled
	}
}

// WithObserver reports dispatch outcomes to o.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		m.observer = o
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Machine.
func New(store session.Store, shop Shop, sender telegram.MessageSender, opts ...Option) *Machine {
	m := &Machine{
		store:     store,
		shop:      shop,
		sender:    sender,
		pageLimit: DefaultPageLimit,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch processes one event.
//
// The reset command always stores Menu with page 0, even when rendering the
// menu fails afterwards. For any other event the stored state is loaded and
// only a successful handler's next state is stored; on a fault the
// conversation keeps its previous state so the user can retry.
func (m *Machine) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	log := m.logger.With("chat_id", ev.ChatID, "kind", ev.Kind.String())
	log.Debug("Event received", eventAttrs(ev)...)
	if m.observer != nil {
		m.observer.EventReceived(ev.Kind.String())
	}

	out, err := m.dispatch(ctx, ev)
	if err != nil {
		var f *Fault
		if !errors.As(err, &f) {
			f = newFault(FaultBackend, "dispatch", err)
			err = f
		}
		log.Warn("Dispatch failed", "state", out.From.String(), "fault", string(f.Kind), "op", f.Op, "error", f.Err)
		if m.observer != nil {
			m.observer.Faulted(string(f.Kind))
		}
		return out, err
	}

	log.Info("State changed", "from", out.From.String(), "to", out.To.String())
	if m.observer != nil {
		m.observer.Transitioned(out.From.String(), out.To.String())
	}
	return out, nil
}

func (m *Machine) dispatch(ctx context.Context, ev Event) (Outcome, error) {
	if ev.ChatID == 0 || ev.Kind < EventCommand || ev.Kind > EventCallback {
		return Outcome{}, newFault(FaultTransport, "decode_event", fmt.Errorf("malformed event %+v", ev))
	}

	if ev.IsReset() {
		return m.reset(ctx, ev)
	}

	tag, err := m.store.State(ctx, ev.ChatID)
	if errors.Is(err, session.ErrNotFound) {
		return Outcome{}, newFault(FaultUnknownState, "load_state", err)
	}
	if err != nil {
		return Outcome{}, newFault(FaultStore, "load_state", err)
	}
	current, err := ParseState(tag)
	if err != nil {
		return Outcome{}, newFault(FaultUnknownState, "load_state", err)
	}

	out := Outcome{From: current, To: current}
	res, err := m.handle(ctx, current, ev)
	if err != nil {
		return out, err
	}

	if err := m.store.SetState(ctx, ev.ChatID, res.next.String()); err != nil {
		return out, newFault(FaultStore, "save_state", err)
	}
	out.To = res.next
	out.Notice = res.notice
	return out, nil
}

// reset restarts the conversation without looking up its stored state.
func (m *Machine) reset(ctx context.Context, ev Event) (Outcome, error) {
	if err := m.store.Init(ctx, ev.ChatID, Menu.String()); err != nil {
		return Outcome{From: Start, To: Start}, newFault(FaultStore, "init_session", err)
	}
	out := Outcome{From: Start, To: Menu}

	products, err := m.products(ctx)
	if err != nil {
		return out, err
	}
	return out, m.renderMenu(ev, products, 0, renderSend)
}

func (m *Machine) handle(ctx context.Context, s State, ev Event) (result, error) {
	switch s {
	case Menu:
		return m.handleMenu(ctx, ev)
	case Description:
		return m.handleDescription(ctx, ev)
	case Cart:
		return m.handleCart(ctx, ev)
	case AwaitingEmail:
		return m.handleAwaitingEmail(ctx, ev)
	case Ordering:
		return m.handleOrdering(ctx, ev)
	default:
		return result{}, newFault(FaultUnknownState, "dispatch", fmt.Errorf("no handler for state %s", s))
	}
}

// eventAttrs describes ev for logs. Free text may hold an email address, so
// only its length is logged.
func eventAttrs(ev Event) []any {
	switch ev.Kind {
	case EventText:
		return []any{"text_len", utf8.RuneCountInString(ev.Text)}
	case EventCommand:
		return []any{"command", ev.Text}
	default:
		return []any{"data", ev.Data}
	}
}

func unexpected(s State, ev Event) *Fault {
	what := ev.Data
	if ev.Kind == EventText {
		what = fmt.Sprintf("<%d chars>", utf8.RuneCountInString(ev.Text))
	} else if ev.Kind == EventCommand {
		what = ev.Text
	}
	return newFault(FaultUnexpectedEvent, "handle_"+strings.ToLower(s.String()),
		fmt.Errorf("%s event %q not accepted", ev.Kind, what))
}
