package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// APIError is a non-success response from the storefront API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storefront: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("storefront: request failed with status %d", e.Status)
}

// Client talks to the storefront REST API. The bearer token is read from the
// token store on every request, so login state is shared with the rest of
// the SDK through storage rather than through client fields.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  KVStore
	logger  *zap.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) { c.httpc = httpc }
}

// WithClientLogger sets the client's logger.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates an API client for the given base URL. The token store
// holds the bearer token under TokenStorageKey.
func NewClient(baseURL string, tokens KVStore, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the stored bearer token, or "" for anonymous sessions.
func (c *Client) Token() string {
	token, _, err := c.tokens.Get(TokenStorageKey)
	if err != nil {
		c.logger.Warn("Failed to read auth token", zap.Error(err))
		return ""
	}
	return token
}

// Authenticated reports whether a bearer token is present.
func (c *Client) Authenticated() bool {
	return c.Token() != ""
}

// Login authenticates against the API and stores the access token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &result); err != nil {
		return err
	}
	return c.tokens.Set(TokenStorageKey, result.AccessToken)
}

// Logout discards the stored token. The server-side session, if any, is
// left to expire.
func (c *Client) Logout() error {
	return c.tokens.Delete(TokenStorageKey)
}

// wireCartItem is one cart line as the API returns it. The image field is
// kept raw because deployments encode it inconsistently.
type wireCartItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Images      json.RawMessage `json:"images"`
	InStock     *bool           `json:"in_stock"`
	StockCount  int             `json:"stock_count"`
}

func (w wireCartItem) toItem() Item {
	snapshot := &ProductSnapshot{
		Name:       w.ProductName,
		Price:      w.UnitPrice,
		Images:     normalizeImageField(w.Images),
		InStock:    true,
		StockCount: w.StockCount,
	}
	if w.InStock != nil {
		snapshot.InStock = *w.InStock
	}
	return Item{ProductID: w.ProductID, Quantity: w.Quantity, Product: snapshot}
}

// FetchCart returns the remote cart lines for the authenticated user.
func (c *Client) FetchCart(ctx context.Context) ([]Item, error) {
	var result struct {
		Items []wireCartItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &result); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(result.Items))
	for _, w := range result.Items {
		items = append(items, w.toItem())
	}
	return items, nil
}

// AddCartItem adds quantity of a product to the remote cart.
func (c *Client) AddCartItem(ctx context.Context, productID string, quantity int) error {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return c.do(ctx, http.MethodPost, "/cart/items", body, nil)
}

// UpdateCartItem sets the remote quantity of a cart line. Zero removes it.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	body := map[string]any{"quantity": quantity}
	return c.do(ctx, http.MethodPut, "/cart/items/"+productID, body, nil)
}

// RemoveCartItem removes one line from the remote cart.
func (c *Client) RemoveCartItem(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/items/"+productID, nil, nil)
}

// ClearCart empties the remote cart in a single call.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil)
}

// ValidateCart asks the server whether the cart can be checked out and
// returns any reported problems.
func (c *Client) ValidateCart(ctx context.Context) ([]string, error) {
	var result struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	if err := c.do(ctx, http.MethodPost, "/cart/validate", nil, &result); err != nil {
		return nil, err
	}
	return result.Errors, nil
}

// apiEnvelope mirrors the API's uniform response wrapper
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode}
		}
		return err
	}
	if resp.StatusCode >= 400 || !envelope.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out != nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}
