// Package commerce is a client for the Moltin-style commerce backend:
// catalog, carts, customers and client-credentials authentication.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend constants.
const (
	DefaultBaseURL = "https://api.moltin.com"
	DefaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// ErrUnexpectedPayload is returned when a reply decodes but lacks the expected data.
var ErrUnexpectedPayload = errors.New("commerce: unexpected payload")

// ErrNoImage is returned for products without a main image.
var ErrNoImage = errors.New("commerce: product has no main image")

// APIError is a non-2xx reply from the backend.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("commerce: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// TokenSource supplies bearer tokens for authorized calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// invalidator is implemented by token sources that can drop a rejected token.
type invalidator interface {
	Invalidate()
}

// Observer receives the outcome of every backend call.
type Observer interface {
	ObserveRequest(op string, d time.Duration, err error)
}

// Client talks to the commerce backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	tokens     TokenSource
	observer   Observer
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver reports call outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a Client. An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authorized returns a copy of c that signs requests with tokens from ts.
func (c *Client) Authorized(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// request describes one backend call.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	form   url.Values
	body   any
	out    any
	auth   bool
}

func (c *Client) do(ctx context.Context, r request) (err error) {
	start := time.Now()
	if c.observer != nil {
		defer func() { c.observer.ObserveRequest(r.op, time.Since(start), err) }()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	contentType := ""
	switch {
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.body != nil:
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("commerce: %s: encode request: %w", r.op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("commerce: %s: create request: %w", r.op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if r.auth {
		if c.tokens == nil {
			return fmt.Errorf("commerce: %s: client has no token source", r.op)
		}
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("commerce: %s: %w", r.op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("commerce: %s: %w", r.op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusUnauthorized {
			if inv, ok := c.tokens.(invalidator); ok {
				inv.Invalidate()
			}
		}
		return &APIError{Op: r.op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if r.out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return fmt.Errorf("commerce: %s: decode response: %w", r.op, err)
	}
	return nil
}

// doData performs r and unmarshals the "data" member of the reply into out.
func (c *Client) doData(ctx context.Context, r request, out any) error {
	var env envelope
	r.out = &env
	if err := c.do(ctx, r); err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: %s: missing data", ErrUnexpectedPayload, r.op)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnexpectedPayload, r.op, err)
	}
	return nil
}

// AccessToken exchanges client credentials for an access token.
func (c *Client) AccessToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	err := c.do(ctx, request{
		op:     "access_token",
		method: http.MethodPost,
		path:   "/oauth/access_token",
		form: url.Values{
			"client_id":     {clientID},
			"client_secret": {clientSecret},
			"grant_type":    {"client_credentials"},
		},
		out: &out,
	})
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: access_token: empty token", ErrUnexpectedPayload)
	}
	return out.AccessToken, nil
}

// Products lists the catalog.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	err := c.doData(ctx, request{op: "list_products", method: http.MethodGet, path: "/v2/products", auth: true}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches one product.
func (c *Client) Product(ctx context.Context, productID string) (*Product, error) {
	var product Product
	err := c.doData(ctx, request{
		op:     "get_product",
		method: http.MethodGet,
		path:   "/v2/products/" + url.PathEscape(productID),
		auth:   true,
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// MainImageURL resolves the public link of the product's main image.
func (c *Client) MainImageURL(ctx context.Context, product *Product) (string, error) {
	imageID := product.MainImageID()
	if imageID == "" {
		return "", ErrNoImage
	}
	var f file
	err := c.doData(ctx, request{
		op:     "get_file",
		method: http.MethodGet,
		path:   "/v2/files/" + url.PathEscape(imageID),
		auth:   true,
	}, &f)
	if err != nil {
		return "", err
	}
	if f.Link.Href == "" {
		return "", fmt.Errorf("%w: get_file: empty link", ErrUnexpectedPayload)
	}
	return f.Link.Href, nil
}

func cartPath(cartID string) string {
	return "/v2/carts/" + url.PathEscape(cartID)
}

// AddToCart adds quantity units of productID to the cart.
func (c *Client) AddToCart(ctx context.Context, cartID, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("commerce: add_to_cart: invalid quantity %d", quantity)
	}
	payload := map[string]any{
		"data": map[string]any{
			"id":       productID,
			"type":     "cart_item",
			"quantity": quantity,
		},
	}
	return c.do(ctx, request{
		op:     "add_to_cart",
		method: http.MethodPost,
		path:   cartPath(cartID) + "/items",
		body:   payload,
		auth:   true,
	})
}

// Cart fetches cart totals.
func (c *Client) Cart(ctx context.Context, cartID string) (*Cart, error) {
	var cart Cart
	err := c.doData(ctx, request{op: "get_cart", method: http.MethodGet, path: cartPath(cartID), auth: true}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// CartItems lists the lines of the cart.
func (c *Client) CartItems(ctx context.Context, cartID string) ([]CartItem, error) {
	var items []CartItem
	err := c.doData(ctx, request{op: "get_cart_items", method: http.MethodGet, path: cartPath(cartID) + "/items", auth: true}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteCartItem removes one line from the cart.
func (c *Client) DeleteCartItem(ctx context.Context, cartID, itemID string) error {
	return c.do(ctx, request{
		op:     "delete_cart_item",
		method: http.MethodDelete,
		path:   cartPath(cartID) + "/items/" + url.PathEscape(itemID),
		auth:   true,
	})
}

// DeleteCartItems empties the cart.
func (c *Client) DeleteCartItems(ctx context.Context, cartID string) error {
	return c.do(ctx, request{
		op:     "delete_cart_items",
		method: http.MethodDelete,
		path:   cartPath(cartID) + "/items",
		auth:   true,
	})
}

// QuantityInCart returns how many units of productID the cart holds.
func (c *Client) QuantityInCart(ctx context.Context, cartID, productID string) (int, error) {
	items, err := c.CartItems(ctx, cartID)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if item.ProductID == productID {
			return item.Quantity, nil
		}
	}
	return 0, nil
}

// FindCustomerByEmail returns the customer with email, or nil if none exists.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	var customers []Customer
	err := c.doData(ctx, request{
		op:     "find_customer",
		method: http.MethodGet,
		path:   "/v2/customers",
		query:  url.Values{"filter": {fmt.Sprintf("eq(email,%s)", email)}},
		auth:   true,
	}, &customers)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, nil
	}
	return &customers[0], nil
}

// CreateCustomer creates a customer record, or returns the existing one when
// the email is already registered.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (*Customer, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type":  "customer",
			"name":  name,
			"email": email,
		},
	}
	var customer Customer
	err := c.doData(ctx, request{
		op:     "create_customer",
		method: http.MethodPost,
		path:   "/v2/customers",
		body:   payload,
		auth:   true,
	}, &customer)
	if err == nil {
		return &customer, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || (apiErr.StatusCode != http.StatusConflict && apiErr.StatusCode != http.StatusUnprocessableEntity) {
		return nil, err
	}
	existing, findErr := c.FindCustomerByEmail(ctx, email)
	if findErr != nil {
		return nil, findErr
	}
	if existing == nil {
		return nil, err
	}
	return existing, nil
}
