package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Yulia51188/fish-house/internal/commerce"
	"github.com/Yulia51188/fish-house/internal/session"
)

// memStore is an in-memory session.Store.
type memStore struct {
	mu     sync.Mutex
	states map[int64]string
	pages  map[int64]int
	writes int
	err    error
}

func newMemStore() *memStore {
	return &memStore{states: map[int64]string{}, pages: map[int64]int{}}
}

func (s *memStore) State(ctx context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.states[id]
	if !ok {
		return "", session.ErrNotFound
	}
	return v, nil
}

func (s *memStore) SetState(ctx context.Context, id int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes++
	s.states[id] = state
	return nil
}

func (s *memStore) Page(ctx context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	v, ok := s.pages[id]
	if !ok {
		return 0, session.ErrNotFound
	}
	return v, nil
}

func (s *memStore) SetPage(ctx context.Context, id int64, page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes++
	s.pages[id] = page
	return nil
}

func (s *memStore) Init(ctx context.Context, id int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes++
	s.states[id] = state
	s.pages[id] = 0
	return nil
}

type addCall struct {
	cartID    string
	productID string
	quantity  int
}

// fakeShop is an in-memory commerce backend.
type fakeShop struct {
	products    []commerce.Product
	productsErr error
	productErr  error
	images      map[string]string
	imageErr    error

	adds   []addCall
	addErr error

	cart       commerce.Cart
	items      []commerce.CartItem
	cartErr    error
	deleted    []string
	deletedAll int
	quantities []int

	customers   []string
	customerErr error
}

func (f *fakeShop) Products(ctx context.Context) ([]commerce.Product, error) {
	return f.products, f.productsErr
}

func (f *fakeShop) Product(ctx context.Context, id string) (*commerce.Product, error) {
	if f.productErr != nil {
		return nil, f.productErr
	}
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, &commerce.APIError{Op: "get_product", StatusCode: 404}
}

func (f *fakeShop) MainImageURL(ctx context.Context, p *commerce.Product) (string, error) {
	if f.imageErr != nil {
		return "", f.imageErr
	}
	url, ok := f.images[p.ID]
	if !ok {
		return "", commerce.ErrNoImage
	}
	return url, nil
}

func (f *fakeShop) AddToCart(ctx context.Context, cartID, productID string, quantity int) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.adds = append(f.adds, addCall{cartID: cartID, productID: productID, quantity: quantity})
	return nil
}

func (f *fakeShop) Cart(ctx context.Context, cartID string) (*commerce.Cart, error) {
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	c := f.cart
	c.ID = cartID
	return &c, nil
}

func (f *fakeShop) CartItems(ctx context.Context, cartID string) ([]commerce.CartItem, error) {
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	return f.items, nil
}

func (f *fakeShop) DeleteCartItem(ctx context.Context, cartID, itemID string) error {
	f.deleted = append(f.deleted, itemID)
	kept := f.items[:0]
	for _, item := range f.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeShop) DeleteCartItems(ctx context.Context, cartID string) error {
	f.deletedAll++
	f.items = nil
	return nil
}

func (f *fakeShop) QuantityInCart(ctx context.Context, cartID, productID string) (int, error) {
	if len(f.quantities) == 0 {
		return 0, errors.New("no quantity scripted")
	}
	q := f.quantities[0]
	f.quantities = f.quantities[1:]
	return q, nil
}

func (f *fakeShop) CreateCustomer(ctx context.Context, name, email string) (*commerce.Customer, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	f.customers = append(f.customers, email)
	return &commerce.Customer{ID: "cust-1", Name: name, Email: email}, nil
}

type sentMessage struct {
	op       string
	chatID   int64
	msgID    int
	text     string
	photo    string
	keyboard tgbotapi.InlineKeyboardMarkup
}

// fakeSender records outbound operations.
type fakeSender struct {
	sent []sentMessage
	err  error
}

func (s *fakeSender) record(m sentMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m)
	return nil
}

func (s *fakeSender) Send(chatID int64, text string) error {
	return s.record(sentMessage{op: "send", chatID: chatID, text: text})
}

func (s *fakeSender) SendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) error {
	return s.record(sentMessage{op: "send", chatID: chatID, text: text, keyboard: kb})
}

func (s *fakeSender) SendPhoto(chatID int64, photoURL, caption string, kb tgbotapi.InlineKeyboardMarkup) error {
	return s.record(sentMessage{op: "photo", chatID: chatID, photo: photoURL, text: caption, keyboard: kb})
}

func (s *fakeSender) EditMessage(chatID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) error {
	return s.record(sentMessage{op: "edit", chatID: chatID, msgID: msgID, text: text, keyboard: kb})
}

func (s *fakeSender) DeleteMessage(chatID int64, msgID int) error {
	return s.record(sentMessage{op: "delete", chatID: chatID, msgID: msgID})
}

func (s *fakeSender) AckCallback(callbackID, text string) error {
	return s.record(sentMessage{op: "ack", text: text})
}

func (s *fakeSender) ops() []string {
	ops := make([]string, len(s.sent))
	for i, m := range s.sent {
		ops[i] = m.op
	}
	return ops
}

type recordingObserver struct {
	events      []string
	transitions []string
	faults      []string
}

func (o *recordingObserver) EventReceived(kind string) { o.events = append(o.events, kind) }
func (o *recordingObserver) Transitioned(from, to string) {
	o.transitions = append(o.transitions, from+"->"+to)
}
func (o *recordingObserver) Faulted(kind string) { o.faults = append(o.faults, kind) }

func makeProduct(id, name string, kg float64) commerce.Product {
	var p commerce.Product
	p.ID = id
	p.Name = name
	p.Description = name + " from the North Sea"
	p.Weight.Kg = kg
	p.Meta.DisplayPrice.WithTax.Formatted = "$10.00"
	p.Meta.Stock.Level = 7
	return p
}

func makeCatalog(n int) []commerce.Product {
	products := make([]commerce.Product, n)
	for i := range products {
		products[i] = makeProduct(fmt.Sprintf("p%d", i+1), fmt.Sprintf("Fish %d", i+1), 1)
	}
	return products
}

func makeCartItem(id, productID, name string, qty int) commerce.CartItem {
	var item commerce.CartItem
	item.ID = id
	item.ProductID = productID
	item.Name = name
	item.Quantity = qty
	item.Meta.DisplayPrice.WithTax.Unit.Formatted = "$5.00"
	item.Meta.DisplayPrice.WithTax.Value.Formatted = fmt.Sprintf("$%d.00", 5*qty)
	return item
}

// buttons flattens a keyboard into "text=data" pairs.
func buttons(kb tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			data := ""
			if b.CallbackData != nil {
				data = *b.CallbackData
			}
			out = append(out, b.Text+"="+data)
		}
	}
	return out
}
