package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "token-abc"

type fakeProduct struct {
	name   string
	price  string
	images string
	stock  int
}

type fakeLine struct {
	productID string
	quantity  int
}

// fakeAPI is a stateful in-memory stand-in for the storefront cart API.
type fakeAPI struct {
	mu             sync.Mutex
	catalog        map[string]fakeProduct
	lines          []fakeLine
	requests       []string
	failAdds       bool
	validateErrors []string
	batchClears    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{catalog: map[string]fakeProduct{}}
}

func (f *fakeAPI) record(r *http.Request) {
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
}

func (f *fakeAPI) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAPI) requestsMatching(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) setLines(lines ...fakeLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = lines
}

func (f *fakeAPI) lineQuantity(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lines {
		if l.productID == productID {
			return l.quantity
		}
	}
	return 0
}

func writeSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

func (f *fakeAPI) cartPayload() map[string]any {
	items := make([]map[string]any, 0, len(f.lines))
	for _, l := range f.lines {
		p := f.catalog[l.productID]
		items = append(items, map[string]any{
			"product_id":   l.productID,
			"product_name": p.name,
			"unit_price":   p.price,
			"quantity":     l.quantity,
			"images":       p.images,
			"in_stock":     p.stock > 0,
			"stock_count":  p.stock,
		})
	}
	return map[string]any{"items": items}
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	requireAuth := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeFailure(w, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "authentication required")
			return false
		}
		return true
	}

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.record(r)
		f.mu.Unlock()
		writeSuccess(w, map[string]string{"access_token": testToken})
	})

	mux.HandleFunc("GET /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.record(r)
		if !requireAuth(w, r) {
			return
		}
		writeSuccess(w, f.cartPayload())
	})

	mux.HandleFunc("POST /api/v1/cart/items", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.record(r)
		if !requireAuth(w, r) {
			return
		}
		if f.failAdds {
			writeFailure(w, http.StatusUnprocessableEntity, "ERR_OUT_OF_STOCK", "product is out of stock")
			return
		}
		var req struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "ERR_INVALID_JSON", err.Error())
			return
		}
		for i := range f.lines {
			if f.lines[i].productID == req.ProductID {
				f.lines[i].quantity += req.Quantity
				writeSuccess(w, f.cartPayload())
				return
			}
		}
		f.lines = append(f.lines, fakeLine{productID: req.ProductID, quantity: req.Quantity})
		writeSuccess(w, f.cartPayload())
	})

	mux.HandleFunc("PUT /api/v1/cart/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.record(r)
		if !requireAuth(w, r) {
			return
		}
		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "ERR_INVALID_JSON", err.Error())
			return
		}
		id := r.PathValue("id")
		for i := range f.lines {
			if f.lines[i].productID == id {
				if req.Quantity <= 0 {
					f.lines = append(f.lines[:i], f.lines[i+1:]...)
				} else {
					f.lines[i].quantity = req.Quantity
				}
				break
			}
		}
		writeSuccess(w, f.cartPayload())
	})

	mux.HandleFunc("DELETE /api/v1/cart/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.record(r)
		if !requireAuth(w, r) {
			return
		}
		id := r.PathValue("id")
		for i := range f.lines {
			if f.lines[i].productID == id {
				f.lines = append(f.lines[:i], f.lines[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("DELETE /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.record(r)
		if !requireAuth(w, r) {
			return
		}
		f.batchClears++
		f.lines = nil
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/v1/cart/validate", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.record(r)
		if !requireAuth(w, r) {
			return
		}
		writeSuccess(w, map[string]any{
			"valid":  len(f.validateErrors) == 0,
			"errors": f.validateErrors,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	api     *fakeAPI
	cart    *Cart
	client  *Client
	storage *MemoryStore
	session *MemoryStore
	tokens  *MemoryStore
}

func newTestEnv(t *testing.T, api *fakeAPI, authenticated bool) *testEnv {
	t.Helper()
	srv := api.server(t)

	tokens := NewMemoryStore()
	if authenticated {
		require.NoError(t, tokens.Set(TokenStorageKey, testToken))
	}
	storage := NewMemoryStore()
	session := NewMemoryStore()
	client := NewClient(srv.URL, tokens)

	cart, err := New(Config{
		Client:  client,
		Storage: storage,
		Session: session,
	})
	require.NoError(t, err)

	return &testEnv{api: api, cart: cart, client: client, storage: storage, session: session, tokens: tokens}
}

func persistBlob(t *testing.T, storage KVStore, blob cartBlob) {
	t.Helper()
	encoded, err := json.Marshal(blob)
	require.NoError(t, err)
	require.NoError(t, storage.Set(CartStorageKey, string(encoded)))
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddItemAccumulatesQuantities(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "Widget", price: "10.00", stock: 50}
	api.catalog["prod-b"] = fakeProduct{name: "Gadget", price: "5.00", stock: 50}
	env := newTestEnv(t, api, true)

	ctx := context.Background()
	widget := &ProductSnapshot{Name: "Widget", Price: price("10.00"), InStock: true, StockCount: 50}
	gadget := &ProductSnapshot{Name: "Gadget", Price: price("5.00"), InStock: true, StockCount: 50}

	ok, err := env.cart.AddItem(ctx, "prod-a", widget)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.cart.AddItem(ctx, "prod-b", gadget)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.cart.AddItem(ctx, "prod-a", widget)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 3, env.cart.Count())
	assert.Equal(t, 2, env.cart.ItemQuantity("prod-a"))
	assert.Equal(t, 1, env.cart.ItemQuantity("prod-b"))
	// Repeated adds increment the line, never duplicate it
	assert.Len(t, env.cart.Items(), 2)
	assert.Equal(t, 2, api.lineQuantity("prod-a"))
}

func TestUpdateQuantityZeroRemovesItem(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "Widget", price: "10.00", stock: 50}
	env := newTestEnv(t, api, true)

	ctx := context.Background()
	_, err := env.cart.AddItem(ctx, "prod-a", &ProductSnapshot{Name: "Widget", Price: price("10.00"), InStock: true, StockCount: 50})
	require.NoError(t, err)
	require.True(t, env.cart.IsInCart("prod-a"))

	require.NoError(t, env.cart.UpdateQuantity(ctx, "prod-a", 0))
	assert.Equal(t, 0, env.cart.ItemQuantity("prod-a"))
	assert.False(t, env.cart.IsInCart("prod-a"))
	assert.Equal(t, 0, api.lineQuantity("prod-a"))
}

func TestRemoveItem(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "Widget", price: "10.00", stock: 50}
	env := newTestEnv(t, api, true)

	ctx := context.Background()
	_, err := env.cart.AddItem(ctx, "prod-a", &ProductSnapshot{Name: "Widget", Price: price("10.00"), InStock: true, StockCount: 50})
	require.NoError(t, err)

	require.NoError(t, env.cart.RemoveItem(ctx, "prod-a"))
	assert.False(t, env.cart.IsInCart("prod-a"))
	assert.Equal(t, 0, api.lineQuantity("prod-a"))
}

func TestTotalsScenario(t *testing.T) {
	storage := NewMemoryStore()
	persistBlob(t, storage, cartBlob{
		Items: []Item{
			{ProductID: "prod-a", Quantity: 2, Product: &ProductSnapshot{Name: "A", Price: price("10.00"), InStock: true, StockCount: 9}},
			{ProductID: "prod-b", Quantity: 1, Product: &ProductSnapshot{Name: "B", Price: price("5.00"), InStock: true, StockCount: 9}},
		},
		Timestamp: time.Now().UnixMilli(),
		Version:   cartBlobVersion,
	})

	cart, err := New(Config{
		Client:  NewClient("http://localhost:0", NewMemoryStore()),
		Storage: storage,
	})
	require.NoError(t, err)

	assert.True(t, cart.Total().Equal(price("25.00")), "total = %s", cart.Total())
	assert.Equal(t, 3, cart.Count())
}

func TestTotalIgnoresUnpricedLines(t *testing.T) {
	storage := NewMemoryStore()
	persistBlob(t, storage, cartBlob{
		Items: []Item{
			{ProductID: "prod-a", Quantity: 2, Product: &ProductSnapshot{Name: "A", Price: price("10.00"), InStock: true, StockCount: 9}},
			{ProductID: "prod-x", Quantity: 4},
		},
		Timestamp: time.Now().UnixMilli(),
		Version:   cartBlobVersion,
	})

	cart, err := New(Config{
		Client:  NewClient("http://localhost:0", NewMemoryStore()),
		Storage: storage,
	})
	require.NoError(t, err)

	// Lines without a snapshot still count but contribute nothing priced
	assert.True(t, cart.Total().Equal(price("20.00")), "total = %s", cart.Total())
	assert.Equal(t, 6, cart.Count())
}

func TestLoadDiscardsExpiredCart(t *testing.T) {
	item := Item{ProductID: "prod-a", Quantity: 1}

	tests := []struct {
		name    string
		age     time.Duration
		adopted bool
	}{
		{name: "eight days old", age: 8 * 24 * time.Hour, adopted: false},
		{name: "exactly seven days old", age: 7 * 24 * time.Hour, adopted: false},
		{name: "just under seven days", age: 7*24*time.Hour - time.Minute, adopted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStore()
			persistBlob(t, storage, cartBlob{
				Items:     []Item{item},
				Timestamp: time.Now().Add(-tt.age).UnixMilli(),
				Version:   cartBlobVersion,
			})

			cart, err := New(Config{
				Client:  NewClient("http://localhost:0", NewMemoryStore()),
				Storage: storage,
			})
			require.NoError(t, err)

			if tt.adopted {
				assert.Equal(t, 1, cart.Count())
			} else {
				assert.Empty(t, cart.Items())
				_, ok, err := storage.Get(CartStorageKey)
				require.NoError(t, err)
				assert.False(t, ok, "expired blob should be cleared")
			}
		})
	}
}

func TestLoadDiscardsCorruptCart(t *testing.T) {
	storage := NewMemoryStore()
	require.NoError(t, storage.Set(CartStorageKey, "not json at all"))

	cart, err := New(Config{
		Client:  NewClient("http://localhost:0", NewMemoryStore()),
		Storage: storage,
	})
	require.NoError(t, err)

	assert.Empty(t, cart.Items())
	_, ok, err := storage.Get(CartStorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadDiscardsInvalidLines(t *testing.T) {
	storage := NewMemoryStore()
	persistBlob(t, storage, cartBlob{
		Items:     []Item{{ProductID: "prod-a", Quantity: 0}},
		Timestamp: time.Now().UnixMilli(),
		Version:   cartBlobVersion,
	})

	cart, err := New(Config{
		Client:  NewClient("http://localhost:0", NewMemoryStore()),
		Storage: storage,
	})
	require.NoError(t, err)
	assert.Empty(t, cart.Items())
}

func TestMutationsPersistWriteThrough(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "Widget", price: "10.00", stock: 50}
	env := newTestEnv(t, api, true)

	_, err := env.cart.AddItem(context.Background(), "prod-a", &ProductSnapshot{Name: "Widget", Price: price("10.00"), InStock: true, StockCount: 50})
	require.NoError(t, err)

	raw, ok, err := env.storage.Get(CartStorageKey)
	require.NoError(t, err)
	require.True(t, ok)

	var blob cartBlob
	require.NoError(t, json.Unmarshal([]byte(raw), &blob))
	assert.Equal(t, cartBlobVersion, blob.Version)
	require.Len(t, blob.Items, 1)
	assert.Equal(t, "prod-a", blob.Items[0].ProductID)
}

func TestAnonymousAddParksPendingItem(t *testing.T) {
	api := newFakeAPI()
	env := newTestEnv(t, api, false)
	env.cart.SetLocation("/products/widget")

	ok, err := env.cart.AddItem(context.Background(), "prod-a", &ProductSnapshot{Name: "Widget", Price: price("10.00"), InStock: true, StockCount: 50})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrLoginRequired)

	// The remote cart is never touched and nothing lands in the local cart
	assert.Equal(t, 0, api.requestCount())
	assert.Empty(t, env.cart.Items())
	assert.True(t, env.cart.HasPending())

	raw, found, err := env.session.Get(PendingStorageKey)
	require.NoError(t, err)
	require.True(t, found)
	var pending pendingItem
	require.NoError(t, json.Unmarshal([]byte(raw), &pending))
	assert.Equal(t, "prod-a", pending.ProductID)
	assert.Equal(t, "/products/widget", pending.RedirectURL)
}

func TestReplayPendingAfterLogin(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "Widget", price: "10.00", stock: 50}
	env := newTestEnv(t, api, false)
	env.cart.SetLocation("/products/widget")

	ctx := context.Background()
	_, err := env.cart.AddItem(ctx, "prod-a", &ProductSnapshot{Name: "Widget", Price: price("10.00"), InStock: true, StockCount: 50})
	assert.ErrorIs(t, err, ErrLoginRequired)

	require.NoError(t, env.client.Login(ctx, "user@example.com", "password123"))
	require.True(t, env.client.Authenticated())

	redirect, err := env.cart.ReplayPending(ctx, "/login")
	require.NoError(t, err)
	assert.Equal(t, "/products/widget", redirect)
	assert.Equal(t, 1, env.cart.ItemQuantity("prod-a"))
	assert.Equal(t, 1, api.lineQuantity("prod-a"))
	assert.False(t, env.cart.HasPending())
}

func TestReplayPendingDiscardsOnFailure(t *testing.T) {
	api := newFakeAPI()
	api.failAdds = true
	env := newTestEnv(t, api, false)

	ctx := context.Background()
	_, err := env.cart.AddItem(ctx, "prod-a", nil)
	assert.ErrorIs(t, err, ErrLoginRequired)

	require.NoError(t, env.tokens.Set(TokenStorageKey, testToken))

	redirect, err := env.cart.ReplayPending(ctx, "/login")
	assert.Error(t, err)
	assert.Empty(t, redirect)
	// No retry: the parked record is gone even though the replay failed
	assert.False(t, env.cart.HasPending())
}

func TestReplayPendingNoRedirectWhenAlreadyThere(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "Widget", price: "10.00", stock: 50}
	env := newTestEnv(t, api, false)
	env.cart.SetLocation("/products/widget")

	ctx := context.Background()
	_, err := env.cart.AddItem(ctx, "prod-a", nil)
	assert.ErrorIs(t, err, ErrLoginRequired)

	require.NoError(t, env.tokens.Set(TokenStorageKey, testToken))

	redirect, err := env.cart.ReplayPending(ctx, "/products/widget")
	require.NoError(t, err)
	assert.Empty(t, redirect)
}

func TestSyncMergeRemoteWins(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "A", price: "10.00", stock: 9}
	api.catalog["prod-b"] = fakeProduct{name: "B", price: "5.00", stock: 9}
	api.setLines(fakeLine{productID: "prod-a", quantity: 1}, fakeLine{productID: "prod-b", quantity: 2})

	srv := api.server(t)
	tokens := NewMemoryStore()
	require.NoError(t, tokens.Set(TokenStorageKey, testToken))

	storage := NewMemoryStore()
	persistBlob(t, storage, cartBlob{
		Items: []Item{
			{ProductID: "prod-a", Quantity: 3, Product: &ProductSnapshot{Name: "A", Price: price("10.00"), InStock: true, StockCount: 9}},
			{ProductID: "prod-c", Quantity: 1, Product: &ProductSnapshot{Name: "C", Price: price("1.00"), InStock: true, StockCount: 9}},
		},
		Timestamp: time.Now().UnixMilli(),
		Version:   cartBlobVersion,
	})

	cart, err := New(Config{
		Client:  NewClient(srv.URL, tokens),
		Storage: storage,
	})
	require.NoError(t, err)

	require.NoError(t, cart.Sync(context.Background()))

	items := cart.Items()
	require.Len(t, items, 3)
	// Remote set first, in remote order; the quantity conflict on prod-a
	// resolves in the server's favor
	assert.Equal(t, "prod-a", items[0].ProductID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "prod-b", items[1].ProductID)
	assert.Equal(t, 2, items[1].Quantity)
	// The local-only line survives, appended after the remote set
	assert.Equal(t, "prod-c", items[2].ProductID)
	assert.Equal(t, 1, items[2].Quantity)
}

func TestSyncAnonymousIsNoOp(t *testing.T) {
	api := newFakeAPI()
	env := newTestEnv(t, api, false)

	require.NoError(t, env.cart.Sync(context.Background()))
	assert.Equal(t, 0, api.requestCount())
}

func TestSyncNormalizesImages(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "A", price: "10.00", stock: 9, images: `["https://cdn.example.com/a.jpg"]`}
	api.catalog["prod-b"] = fakeProduct{name: "B", price: "5.00", stock: 9, images: "https://cdn.example.com/b.jpg"}
	api.catalog["prod-c"] = fakeProduct{name: "C", price: "1.00", stock: 9}
	api.setLines(
		fakeLine{productID: "prod-a", quantity: 1},
		fakeLine{productID: "prod-b", quantity: 1},
		fakeLine{productID: "prod-c", quantity: 1},
	)
	env := newTestEnv(t, api, true)

	require.NoError(t, env.cart.Sync(context.Background()))

	items := env.cart.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, items[0].Product.Images)
	assert.Equal(t, []string{"https://cdn.example.com/b.jpg"}, items[1].Product.Images)
	assert.Equal(t, []string{PlaceholderImage}, items[2].Product.Images)
}

func TestAddItemRemoteFailureReconciles(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "A", price: "10.00", stock: 9}
	api.setLines(fakeLine{productID: "prod-a", quantity: 1})
	api.failAdds = true
	env := newTestEnv(t, api, true)

	ok, err := env.cart.AddItem(context.Background(), "prod-b", &ProductSnapshot{Name: "B", Price: price("5.00"), InStock: true, StockCount: 9})
	assert.False(t, ok)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ERR_OUT_OF_STOCK", apiErr.Code)

	// The optimistic insert is gone; local state matches the server again
	assert.False(t, env.cart.IsInCart("prod-b"))
	assert.Equal(t, 1, env.cart.ItemQuantity("prod-a"))
}

func TestClearCartUsesBatchEndpoint(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "A", price: "10.00", stock: 9}
	api.catalog["prod-b"] = fakeProduct{name: "B", price: "5.00", stock: 9}
	api.setLines(fakeLine{productID: "prod-a", quantity: 2}, fakeLine{productID: "prod-b", quantity: 1})
	env := newTestEnv(t, api, true)
	require.NoError(t, env.cart.Sync(context.Background()))

	require.NoError(t, env.cart.ClearCart(context.Background()))

	assert.Empty(t, env.cart.Items())
	assert.Equal(t, 1, api.batchClears)
	assert.Equal(t, 0, api.requestsMatching("DELETE /api/v1/cart/items/"))
}

func TestValidateLocalChecks(t *testing.T) {
	storage := NewMemoryStore()
	persistBlob(t, storage, cartBlob{
		Items: []Item{
			{ProductID: "prod-a", Quantity: 5, Product: &ProductSnapshot{Name: "Widget", Price: price("10.00"), InStock: true, StockCount: 2}},
			{ProductID: "prod-b", Quantity: 1, Product: &ProductSnapshot{Name: "Gadget", Price: price("5.00"), InStock: false}},
			{ProductID: "prod-c", Quantity: 1},
		},
		Timestamp: time.Now().UnixMilli(),
		Version:   cartBlobVersion,
	})

	cart, err := New(Config{
		Client:  NewClient("http://localhost:0", NewMemoryStore()),
		Storage: storage,
	})
	require.NoError(t, err)

	result := cart.Validate(context.Background())
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Widget")
	assert.Contains(t, result.Errors[0], fmt.Sprintf("%d", 2))
	assert.Contains(t, result.Errors[1], "out of stock")
	assert.Contains(t, result.Errors[2], "no longer available")
}

func TestValidateAppendsRemoteErrors(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "A", price: "10.00", stock: 9}
	api.setLines(fakeLine{productID: "prod-a", quantity: 1})
	api.validateErrors = []string{"A changed price since it was added"}
	env := newTestEnv(t, api, true)
	require.NoError(t, env.cart.Sync(context.Background()))

	result := env.cart.Validate(context.Background())
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "changed price")
}

func TestValidateEmptyCartIsValid(t *testing.T) {
	cart, err := New(Config{
		Client:  NewClient("http://localhost:0", NewMemoryStore()),
		Storage: NewMemoryStore(),
	})
	require.NoError(t, err)

	result := cart.Validate(context.Background())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestSubscribe(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "A", price: "10.00", stock: 9}
	env := newTestEnv(t, api, true)

	var mu sync.Mutex
	calls := 0
	var lastCount int
	unsubscribe := env.cart.Subscribe(func(items []Item) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		lastCount = len(items)
	})

	ctx := context.Background()
	_, err := env.cart.AddItem(ctx, "prod-a", &ProductSnapshot{Name: "A", Price: price("10.00"), InStock: true, StockCount: 9})
	require.NoError(t, err)

	mu.Lock()
	assert.Greater(t, calls, 0)
	assert.Equal(t, 1, lastCount)
	callsBefore := calls
	mu.Unlock()

	unsubscribe()
	require.NoError(t, env.cart.RemoveItem(ctx, "prod-a"))

	mu.Lock()
	assert.Equal(t, callsBefore, calls, "unsubscribed listener must not fire")
	mu.Unlock()
}

func TestNotifierSignalsAddedItem(t *testing.T) {
	api := newFakeAPI()
	api.catalog["prod-a"] = fakeProduct{name: "Widget", price: "10.00", stock: 9}

	srv := api.server(t)
	tokens := NewMemoryStore()
	require.NoError(t, tokens.Set(TokenStorageKey, testToken))

	notifier := NewNotifier(time.Minute)
	var mu sync.Mutex
	var seen []string
	notifier.Listen(func(n Notification) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n.ItemName)
	})

	cart, err := New(Config{
		Client:   NewClient(srv.URL, tokens),
		Storage:  NewMemoryStore(),
		Notifier: notifier,
	})
	require.NoError(t, err)

	_, err = cart.AddItem(context.Background(), "prod-a", &ProductSnapshot{Name: "Widget", Price: price("10.00"), InStock: true, StockCount: 9})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, "Widget", seen[0])

	current, ok := notifier.Current()
	assert.True(t, ok)
	assert.Equal(t, "Widget", current.ItemName)
}
