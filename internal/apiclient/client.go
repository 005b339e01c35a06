// Package apiclient はcakedelight APIのHTTPクライアント。
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cakedelight/internal/checkout"
	"cakedelight/internal/domain/model"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTimeout = 10 * time.Second

// Error は2xx以外のレスポンス
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		if json.Unmarshal(data, &eb) != nil || eb.Error == "" {
			eb.Error = strings.TrimSpace(string(data))
			if eb.Error == "" {
				eb.Error = http.StatusText(resp.StatusCode)
			}
		}
		return &Error{Status: resp.StatusCode, Message: eb.Error}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// =====================
// auth
// =====================

type LoginResult struct {
	User  model.User `json:"user"`
	Token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	} `json:"token"`
}

// Login は成功するとクライアントのトークンも差し替える
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return LoginResult{}, err
	}
	c.token = out.Token.AccessToken
	return out, nil
}

// =====================
// products
// =====================

type ProductQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

type ProductPage struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (ProductPage, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	path := "/products"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var out ProductPage
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return ProductPage{}, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var out model.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return model.Product{}, err
	}
	return out, nil
}

// =====================
// orders
// =====================

type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

type Order struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Shipping      decimal.Decimal `json:"shipping"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []OrderItem     `json:"items"`
}

func (c *Client) PlaceOrder(ctx context.Context, req checkout.OrderRequest) (Order, error) {
	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}

	var out Order
	if err := c.do(ctx, http.MethodPost, "/orders", headers, req, &out); err != nil {
		return Order{}, err
	}
	return out, nil
}

// SubmitOrder は checkout.OrderSubmitter の実装
func (c *Client) SubmitOrder(ctx context.Context, req checkout.OrderRequest) (checkout.Confirmation, error) {
	o, err := c.PlaceOrder(ctx, req)
	if err != nil {
		return checkout.Confirmation{}, err
	}
	return checkout.Confirmation{OrderID: o.ID, Status: o.Status, Total: o.TotalPrice}, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var out struct {
		Items []Order `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

var _ checkout.OrderSubmitter = (*Client)(nil)
