package conversation

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/Yulia51188/fish-house/internal/catalog"
	"github.com/Yulia51188/fish-house/internal/commerce"
	"github.com/Yulia51188/fish-house/internal/session"
	"github.com/Yulia51188/fish-house/internal/telegram"
)

type renderMode int

const (
	// renderSend posts a new message.
	renderSend renderMode = iota
	// renderEdit rewrites the message that carried the pressed button.
	renderEdit
	// renderReplace posts a new message and deletes the one with the button.
	renderReplace
)

// cartID derives the backend cart of a conversation.
func cartID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func isReserved(token string) bool {
	switch token {
	case TokenCart, TokenBack, TokenNextPage, TokenPrevPage, TokenDeleteAll, TokenBuy:
		return true
	}
	return strings.HasPrefix(token, quantityPrefix)
}

func (m *Machine) handleMenu(ctx context.Context, ev Event) (result, error) {
	if ev.Kind != EventCallback || ev.Data == "" {
		return result{}, unexpected(Menu, ev)
	}
	switch ev.Data {
	case TokenCart:
		if err := m.showCart(ctx, ev); err != nil {
			return result{}, err
		}
		return result{next: Cart}, nil
	case TokenNextPage:
		return m.turnPage(ctx, ev, 1)
	case TokenPrevPage:
		return m.turnPage(ctx, ev, -1)
	}
	if isReserved(ev.Data) {
		return result{}, unexpected(Menu, ev)
	}
	if err := m.showProduct(ctx, ev, ev.Data); err != nil {
		return result{}, err
	}
	return result{next: Description}, nil
}

// turnPage moves the menu one page forward or back. The move is refused when
// the current page offers no such control.
func (m *Machine) turnPage(ctx context.Context, ev Event, delta int) (result, error) {
	page, err := m.page(ctx, ev.ChatID)
	if err != nil {
		return result{}, err
	}
	products, err := m.products(ctx)
	if err != nil {
		return result{}, err
	}

	current := catalog.Paginate(products, m.pageLimit, page)
	if (delta > 0 && !current.HasNext) || (delta < 0 && !current.HasPrevious) {
		return result{}, unexpected(Menu, ev)
	}

	next := page + delta
	if err := m.renderMenu(ev, products, next, renderEdit); err != nil {
		return result{}, err
	}
	if err := m.store.SetPage(ctx, ev.ChatID, next); err != nil {
		return result{}, newFault(FaultStore, "save_page", err)
	}
	return result{next: Menu}, nil
}

func (m *Machine) handleDescription(ctx context.Context, ev Event) (result, error) {
	if ev.Kind != EventCallback {
		return result{}, unexpected(Description, ev)
	}
	if ev.Data == TokenBack {
		if err := m.backToMenu(ctx, ev, renderReplace); err != nil {
			return result{}, err
		}
		return result{next: Menu}, nil
	}

	productID, quantity, err := ParseQuantityToken(ev.Data)
	if err != nil {
		return result{}, unexpected(Description, ev)
	}
	if err := m.addToCart(ctx, ev.ChatID, productID, quantity); err != nil {
		return result{}, err
	}
	return result{next: Description, notice: fmt.Sprintf("Added x%d to cart", quantity)}, nil
}

func (m *Machine) addToCart(ctx context.Context, chatID int64, productID string, quantity int) error {
	cart := cartID(chatID)

	before := 0
	if m.verifyCartAdd {
		var err error
		if before, err = m.shop.QuantityInCart(ctx, cart, productID); err != nil {
			return newFault(FaultBackend, "quantity_in_cart", err)
		}
	}

	if err := m.shop.AddToCart(ctx, cart, productID, quantity); err != nil {
		return newFault(FaultBackend, "add_to_cart", err)
	}

	if m.verifyCartAdd {
		after, err := m.shop.QuantityInCart(ctx, cart, productID)
		if err != nil {
			return newFault(FaultBackend, "quantity_in_cart", err)
		}
		if after-before != quantity {
			return newFault(FaultBackend, "add_to_cart",
				fmt.Errorf("%w: product %s: had %d, added %d, now %d", ErrCartMismatch, productID, before, quantity, after))
		}
	}

	m.logger.Info("Added to cart", "chat_id", chatID, "product_id", productID, "quantity", quantity)
	return nil
}

func (m *Machine) handleCart(ctx context.Context, ev Event) (result, error) {
	if ev.Kind != EventCallback || ev.Data == "" {
		return result{}, unexpected(Cart, ev)
	}

	switch ev.Data {
	case TokenBack:
		if err := m.backToMenu(ctx, ev, renderEdit); err != nil {
			return result{}, err
		}
		return result{next: Menu}, nil
	case TokenBuy:
		if err := m.sender.EditMessage(ev.ChatID, ev.MessageID, esc(emailPrompt), noKeyboard); err != nil {
			return result{}, newFault(FaultTransport, "send_email_prompt", err)
		}
		return result{next: AwaitingEmail}, nil
	case TokenDeleteAll:
		if err := m.shop.DeleteCartItems(ctx, cartID(ev.ChatID)); err != nil {
			return result{}, newFault(FaultBackend, "delete_cart_items", err)
		}
		m.logger.Info("Cart cleared", "chat_id", ev.ChatID)
		return m.cartChanged(ctx, ev, "Cart cleared")
	}

	if isReserved(ev.Data) {
		return result{}, unexpected(Cart, ev)
	}
	if err := m.shop.DeleteCartItem(ctx, cartID(ev.ChatID), ev.Data); err != nil {
		return result{}, newFault(FaultBackend, "delete_cart_item", err)
	}
	m.logger.Info("Cart item removed", "chat_id", ev.ChatID, "item_id", ev.Data)
	return m.cartChanged(ctx, ev, "Item removed")
}

func (m *Machine) cartChanged(ctx context.Context, ev Event, notice string) (result, error) {
	if err := m.showCart(ctx, ev); err != nil {
		return result{}, err
	}
	return result{next: Cart, notice: notice}, nil
}

func (m *Machine) handleAwaitingEmail(ctx context.Context, ev Event) (result, error) {
	if ev.Kind != EventText {
		return result{}, unexpected(AwaitingEmail, ev)
	}

	email, ok := parseEmail(ev.Text)
	if !ok {
		if err := m.sender.Send(ev.ChatID, esc(invalidEmail)); err != nil {
			return result{}, newFault(FaultTransport, "send_invalid_email", err)
		}
		return result{next: AwaitingEmail}, nil
	}

	name := ev.Username
	if name == "" {
		name = "Telegram " + cartID(ev.ChatID)
	}
	customer, err := m.shop.CreateCustomer(ctx, name, email)
	if err != nil {
		return result{}, newFault(FaultBackend, "create_customer", err)
	}
	m.logger.Info("Customer registered", "chat_id", ev.ChatID, "customer_id", customer.ID, "email", maskEmail(email))

	if err := m.sender.Send(ev.ChatID, orderConfirmation(email)); err != nil {
		return result{}, newFault(FaultTransport, "send_confirmation", err)
	}
	return result{next: Ordering}, nil
}

// parseEmail accepts a bare address only, not "Name <addr>" forms.
func parseEmail(text string) (string, bool) {
	text = strings.TrimSpace(text)
	addr, err := mail.ParseAddress(text)
	if err != nil || addr.Address != text {
		return "", false
	}
	return addr.Address, true
}

func (m *Machine) handleOrdering(ctx context.Context, ev Event) (result, error) {
	if ev.Kind != EventText {
		return result{}, unexpected(Ordering, ev)
	}
	if err := m.sender.Send(ev.ChatID, esc(orderingHint)); err != nil {
		return result{}, newFault(FaultTransport, "send_ordering_hint", err)
	}
	return result{next: Ordering}, nil
}

// page returns the stored menu page; a missing entry means the first page.
func (m *Machine) page(ctx context.Context, chatID int64) (int, error) {
	page, err := m.store.Page(ctx, chatID)
	if errors.Is(err, session.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, newFault(FaultStore, "load_page", err)
	}
	return page, nil
}

func (m *Machine) products(ctx context.Context) ([]commerce.Product, error) {
	products, err := m.shop.Products(ctx)
	if err != nil {
		return nil, newFault(FaultBackend, "list_products", err)
	}
	return products, nil
}

func (m *Machine) backToMenu(ctx context.Context, ev Event, mode renderMode) error {
	page, err := m.page(ctx, ev.ChatID)
	if err != nil {
		return err
	}
	products, err := m.products(ctx)
	if err != nil {
		return err
	}
	return m.renderMenu(ev, products, page, mode)
}

func (m *Machine) renderMenu(ev Event, products []commerce.Product, page int, mode renderMode) error {
	text, kb := menuView(catalog.Paginate(products, m.pageLimit, page))

	var err error
	switch mode {
	case renderEdit:
		err = m.sender.EditMessage(ev.ChatID, ev.MessageID, text, kb)
	default:
		err = m.sender.SendWithKeyboard(ev.ChatID, text, kb)
	}
	if err != nil {
		return newFault(FaultTransport, "send_menu", err)
	}
	if mode == renderReplace {
		m.deleteMessage(ev)
	}
	return nil
}

func (m *Machine) showProduct(ctx context.Context, ev Event, productID string) error {
	product, err := m.shop.Product(ctx, productID)
	if err != nil {
		return newFault(FaultBackend, "get_product", err)
	}

	kb := productKeyboard(product)
	imageURL, err := m.shop.MainImageURL(ctx, product)
	switch {
	case errors.Is(err, commerce.ErrNoImage):
		err = m.sender.SendWithKeyboard(ev.ChatID, productCaption(product, telegram.MaxMessageLength), kb)
	case err != nil:
		return newFault(FaultBackend, "get_file", err)
	default:
		err = m.sender.SendPhoto(ev.ChatID, imageURL, productCaption(product, telegram.MaxCaptionLength), kb)
	}
	if err != nil {
		return newFault(FaultTransport, "send_product", err)
	}

	m.deleteMessage(ev)
	return nil
}

// showCart renders the cart into the message that carried the pressed button.
func (m *Machine) showCart(ctx context.Context, ev Event) error {
	id := cartID(ev.ChatID)
	cart, err := m.shop.Cart(ctx, id)
	if err != nil {
		return newFault(FaultBackend, "get_cart", err)
	}
	items, err := m.shop.CartItems(ctx, id)
	if err != nil {
		return newFault(FaultBackend, "get_cart_items", err)
	}

	weights := make(map[string]float64, len(items))
	for _, item := range items {
		if _, ok := weights[item.ProductID]; ok {
			continue
		}
		product, err := m.shop.Product(ctx, item.ProductID)
		if err != nil {
			return newFault(FaultBackend, "get_product", err)
		}
		weights[item.ProductID] = product.Weight.Kg
	}

	text, kb := cartView(cart, items, weights)
	if err := m.sender.EditMessage(ev.ChatID, ev.MessageID, text, kb); err != nil {
		return newFault(FaultTransport, "send_cart", err)
	}
	return nil
}

// deleteMessage removes the message that carried the pressed button.
// Failures are logged only: the reply has already been delivered.
func (m *Machine) deleteMessage(ev Event) {
	if ev.MessageID == 0 {
		return
	}
	if err := m.sender.DeleteMessage(ev.ChatID, ev.MessageID); err != nil {
		m.logger.Warn("Failed to delete message", "chat_id", ev.ChatID, "msg_id", ev.MessageID, "error", err)
	}
}
