package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/storefront/backend/internal/application/cart"
	httpdto "github.com/storefront/backend/internal/interfaces/http/dto"
)

// These tests drive the SDK with responses marshalled from the server's
// own DTO types, so a drift between the two wire formats fails here.

func contractServer(t *testing.T, cart cartapp.CartResponse, validation cartapp.ValidationResponse) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(httpdto.NewSuccessResponse(cart)))
	})
	mux.HandleFunc("POST /api/v1/cart/validate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(httpdto.NewSuccessResponse(validation)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newContractCart(t *testing.T, srv *httptest.Server) *Cart {
	t.Helper()
	tokens := NewMemoryStore()
	require.NoError(t, tokens.Set(TokenStorageKey, testToken))

	cart, err := New(Config{
		Client:  NewClient(srv.URL, tokens),
		Storage: NewMemoryStore(),
		Session: NewMemoryStore(),
	})
	require.NoError(t, err)
	return cart
}

func TestSyncAdoptsServerCartResponse(t *testing.T) {
	widgetID := uuid.New()
	line := cartapp.ItemResponse{
		ProductID:    widgetID,
		ProductName:  "Widget",
		ProductSlug:  "widget",
		ProductImage: "/img/widget.jpg",
		Images:       []string{"/img/widget.jpg", "/img/widget-alt.jpg"},
		InStock:      true,
		StockCount:   5,
		UnitPrice:    decimal.RequireFromString("10.00"),
		Quantity:     2,
		LineTotal:    decimal.RequireFromString("20.00"),
	}
	srv := contractServer(t,
		cartapp.CartResponse{
			Items: []cartapp.ItemResponse{line},
			Count: 2,
			Total: decimal.RequireFromString("20.00"),
		},
		cartapp.ValidationResponse{Valid: true, Errors: []string{}},
	)
	cart := newContractCart(t, srv)
	ctx := context.Background()

	require.NoError(t, cart.Sync(ctx))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, widgetID.String(), items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)

	snapshot := items[0].Product
	require.NotNil(t, snapshot)
	assert.Equal(t, "Widget", snapshot.Name)
	assert.True(t, decimal.RequireFromString("10.00").Equal(snapshot.Price))
	assert.Equal(t, []string{"/img/widget.jpg", "/img/widget-alt.jpg"}, snapshot.Images)
	assert.True(t, snapshot.InStock)
	assert.Equal(t, 5, snapshot.StockCount)

	result := cart.Validate(ctx)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestSyncFlagsServerReportedStockState(t *testing.T) {
	line := cartapp.ItemResponse{
		ProductID:   uuid.New(),
		ProductName: "Gadget",
		ProductSlug: "gadget",
		Images:      []string{},
		InStock:     false,
		StockCount:  0,
		UnitPrice:   decimal.RequireFromString("4.00"),
		Quantity:    1,
		LineTotal:   decimal.RequireFromString("4.00"),
	}
	srv := contractServer(t,
		cartapp.CartResponse{
			Items: []cartapp.ItemResponse{line},
			Count: 1,
			Total: decimal.RequireFromString("4.00"),
		},
		cartapp.ValidationResponse{Valid: false, Errors: []string{"Gadget is out of stock"}},
	)
	cart := newContractCart(t, srv)
	ctx := context.Background()

	require.NoError(t, cart.Sync(ctx))

	items := cart.Items()
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Product)
	assert.False(t, items[0].Product.InStock)
	assert.Equal(t, []string{PlaceholderImage}, items[0].Product.Images)

	result := cart.Validate(ctx)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "Gadget is out of stock")
}
