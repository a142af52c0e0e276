package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrLoginRequired is returned by AddItem for anonymous sessions. The
// attempted add is parked in session storage and can be replayed with
// ReplayPending after login.
var ErrLoginRequired = errors.New("storefront: login required")

// cartTTL is how long a persisted cart stays adoptable. A blob whose age
// reaches exactly this cutoff is discarded.
const cartTTL = 7 * 24 * time.Hour

// cartBlobVersion tags the persisted cart format.
const cartBlobVersion = "1"

// ProductSnapshot is a denormalized, possibly stale copy of catalog data
// captured at add or sync time. It is not authoritative.
type ProductSnapshot struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Images     []string        `json:"images"`
	InStock    bool            `json:"in_stock"`
	StockCount int             `json:"stock_count"`
}

// Item is one cart line. Product may be nil when the snapshot was never
// fetched; such lines contribute nothing to the total.
type Item struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

// cartBlob is the persisted cart format. Timestamp is unix milliseconds.
type cartBlob struct {
	Items     []Item `json:"items"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}

// ValidationResult is the outcome of a pre-checkout cart check.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Config configures a Cart.
type Config struct {
	// Client talks to the storefront API. Required.
	Client *Client
	// Storage is the durable store for the persisted cart. Required.
	Storage KVStore
	// Session holds session-scoped state such as the pending add. Defaults
	// to an in-memory store.
	Session KVStore
	// Notifier receives "item added" signals. Defaults to a 3s notifier.
	Notifier *Notifier
	// LoginURL is where anonymous users should be sent to authenticate.
	// Defaults to "/login".
	LoginURL string
	Logger   *zap.Logger
}

// Cart is the local cart store and synchronizer. Mutations are applied
// locally first and mirrored to the remote cart for authenticated sessions;
// a remote failure triggers an immediate reconciling Sync so local state
// never silently diverges from the server.
type Cart struct {
	mu       sync.Mutex
	items    []Item
	location string

	client   *Client
	storage  KVStore
	session  KVStore
	notifier *Notifier
	logger   *zap.Logger
	loginURL string

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func([]Item)
}

// New creates a Cart and hydrates it from the persisted blob when one is
// present, parseable, and younger than seven days. Anything else starts the
// cart empty.
func New(cfg Config) (*Cart, error) {
	if cfg.Client == nil {
		return nil, errors.New("storefront: Config.Client is required")
	}
	if cfg.Storage == nil {
		return nil, errors.New("storefront: Config.Storage is required")
	}
	c := &Cart{
		client:   cfg.Client,
		storage:  cfg.Storage,
		session:  cfg.Session,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		loginURL: cfg.LoginURL,
		subs:     make(map[int]func([]Item)),
	}
	if c.session == nil {
		c.session = NewMemoryStore()
	}
	if c.notifier == nil {
		c.notifier = NewNotifier(3 * time.Second)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.loginURL == "" {
		c.loginURL = "/login"
	}
	c.load()
	return c, nil
}

// load hydrates the cart from storage. Any parse or validation failure
// clears the persisted blob and leaves the cart empty.
func (c *Cart) load() {
	raw, ok, err := c.storage.Get(CartStorageKey)
	if err != nil {
		c.logger.Warn("Failed to read persisted cart", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	var blob cartBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		c.logger.Warn("Discarding corrupt persisted cart", zap.Error(err))
		c.discardPersisted()
		return
	}
	age := time.Since(time.UnixMilli(blob.Timestamp))
	if age >= cartTTL {
		c.logger.Info("Discarding expired persisted cart", zap.Duration("age", age))
		c.discardPersisted()
		return
	}
	for _, item := range blob.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			c.logger.Warn("Discarding invalid persisted cart",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
			)
			c.discardPersisted()
			return
		}
	}
	c.items = blob.Items
}

func (c *Cart) discardPersisted() {
	if err := c.storage.Delete(CartStorageKey); err != nil {
		c.logger.Warn("Failed to clear persisted cart", zap.Error(err))
	}
}

// save writes the cart blob through to storage. Called after every
// mutation while holding the cart mutex.
func (c *Cart) save() {
	blob := cartBlob{
		Items:     c.items,
		Timestamp: time.Now().UnixMilli(),
		Version:   cartBlobVersion,
	}
	encoded, err := json.Marshal(blob)
	if err != nil {
		c.logger.Error("Failed to encode cart", zap.Error(err))
		return
	}
	if err := c.storage.Set(CartStorageKey, string(encoded)); err != nil {
		c.logger.Warn("Failed to persist cart", zap.Error(err))
	}
}

// Subscribe registers fn to run after every cart state change with a copy
// of the current items. The returned function removes the subscription.
func (c *Cart) Subscribe(fn func([]Item)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Cart) notifySubscribers(snapshot []Item) {
	c.subMu.Lock()
	subs := make([]func([]Item), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(snapshot)
	}
}

func (c *Cart) snapshotLocked() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// SetLocation records the caller's current URL, used as the post-login
// redirect target when an anonymous add is parked.
func (c *Cart) SetLocation(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.location = url
}

// LoginURL is where anonymous users should be redirected to authenticate.
func (c *Cart) LoginURL() string {
	return c.loginURL
}

// Items returns a copy of the current cart lines.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Count returns the total quantity across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Total sums price times quantity over lines with a product snapshot.
// Unpriced lines contribute zero.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, item := range c.items {
		if item.Product == nil {
			continue
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ItemQuantity returns the quantity of a line, or 0 when absent.
func (c *Cart) ItemQuantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// IsInCart reports whether the product has a line in the cart.
func (c *Cart) IsInCart(productID string) bool {
	return c.ItemQuantity(productID) > 0
}

// AddItem adds one unit of a product to the cart.
//
// Anonymous sessions never touch the remote cart: the attempt is parked in
// session storage together with the current location and (false,
// ErrLoginRequired) is returned so the caller can redirect to LoginURL.
//
// Authenticated sessions apply the add optimistically, emit a notification,
// then mirror it to the server. A remote failure reconciles local state
// via Sync and returns false.
func (c *Cart) AddItem(ctx context.Context, productID string, product *ProductSnapshot) (bool, error) {
	if !c.client.Authenticated() {
		if err := c.parkPending(productID, product); err != nil {
			c.logger.Warn("Failed to park pending cart item", zap.Error(err))
		}
		return false, ErrLoginRequired
	}

	c.mu.Lock()
	applied := false
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity++
			applied = true
			break
		}
	}
	if !applied {
		c.items = append(c.items, Item{ProductID: productID, Quantity: 1, Product: product})
	}
	c.save()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notifySubscribers(snapshot)

	name := productID
	if product != nil && product.Name != "" {
		name = product.Name
	}
	c.notifier.Notify(name)

	if err := c.client.AddCartItem(ctx, productID, 1); err != nil {
		c.logger.Warn("Remote add failed, rolling back",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		// Undo the optimistic change first: Sync keeps local-only lines,
		// so it alone cannot take back a failed insert.
		c.rollbackAdd(productID)
		if syncErr := c.Sync(ctx); syncErr != nil {
			c.logger.Warn("Reconcile sync failed", zap.Error(syncErr))
		}
		return false, err
	}
	if err := c.Sync(ctx); err != nil {
		c.logger.Warn("Follow-up sync failed", zap.Error(err))
	}
	return true, nil
}

// rollbackAdd reverses one optimistic AddItem: the quantity drops by one
// and the line disappears when that was its only unit.
func (c *Cart) rollbackAdd(productID string) {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ProductID != productID {
			continue
		}
		c.items[i].Quantity--
		if c.items[i].Quantity < 1 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		}
		break
	}
	c.save()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notifySubscribers(snapshot)
}

// RemoveItem deletes a line from the cart, mirroring to the server for
// authenticated sessions.
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	c.mu.Lock()
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.save()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notifySubscribers(snapshot)

	if !c.client.Authenticated() {
		return nil
	}
	if err := c.client.RemoveCartItem(ctx, productID); err != nil {
		c.logger.Warn("Remote remove failed, reconciling",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		if syncErr := c.Sync(ctx); syncErr != nil {
			c.logger.Warn("Reconcile sync failed", zap.Error(syncErr))
		}
		return err
	}
	return nil
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(ctx, productID)
	}

	c.mu.Lock()
	found := false
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return nil
	}
	c.save()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notifySubscribers(snapshot)

	if !c.client.Authenticated() {
		return nil
	}
	if err := c.client.UpdateCartItem(ctx, productID, quantity); err != nil {
		c.logger.Warn("Remote quantity update failed, reconciling",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		if syncErr := c.Sync(ctx); syncErr != nil {
			c.logger.Warn("Reconcile sync failed", zap.Error(syncErr))
		}
		return err
	}
	return nil
}

// ClearCart empties the cart locally and, for authenticated sessions,
// remotely in one batch call, then re-syncs.
func (c *Cart) ClearCart(ctx context.Context) error {
	c.mu.Lock()
	c.items = nil
	c.save()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notifySubscribers(snapshot)

	if !c.client.Authenticated() {
		return nil
	}
	err := c.client.ClearCart(ctx)
	if err != nil {
		c.logger.Warn("Remote clear failed, reconciling", zap.Error(err))
	}
	if syncErr := c.Sync(ctx); syncErr != nil {
		c.logger.Warn("Post-clear sync failed", zap.Error(syncErr))
	}
	return err
}

// Sync reconciles the local cart with the server. Anonymous sessions are a
// no-op. The merge policy is explicit: the remote line wins whenever both
// sides hold the same product, including on quantity conflicts; lines known
// only locally are kept and appended after the remote set.
func (c *Cart) Sync(ctx context.Context) error {
	if !c.client.Authenticated() {
		return nil
	}
	remote, err := c.client.FetchCart(ctx)
	if err != nil {
		c.logger.Warn("Cart sync failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	seen := make(map[string]struct{}, len(remote))
	for _, item := range remote {
		seen[item.ProductID] = struct{}{}
	}
	merged := remote
	for _, item := range c.items {
		if _, ok := seen[item.ProductID]; !ok {
			merged = append(merged, item)
		}
	}
	c.items = merged
	c.save()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notifySubscribers(snapshot)
	return nil
}

// Validate runs the pre-checkout sanity check. Local checks flag lines with
// no snapshot, out-of-stock products, and quantities above the snapshot's
// stock count; authenticated sessions append the server's findings. The
// error list is human-readable, not a taxonomy.
func (c *Cart) Validate(ctx context.Context) ValidationResult {
	c.mu.Lock()
	items := c.snapshotLocked()
	c.mu.Unlock()

	var errs []string
	for _, item := range items {
		if item.Product == nil {
			errs = append(errs, fmt.Sprintf("%s is no longer available", item.ProductID))
			continue
		}
		if !item.Product.InStock {
			errs = append(errs, fmt.Sprintf("%s is out of stock", item.Product.Name))
			continue
		}
		if item.Quantity > item.Product.StockCount {
			errs = append(errs, fmt.Sprintf("only %d of %s in stock (requested %d)",
				item.Product.StockCount, item.Product.Name, item.Quantity))
		}
	}

	if c.client.Authenticated() {
		remoteErrs, err := c.client.ValidateCart(ctx)
		if err != nil {
			c.logger.Warn("Remote cart validation failed", zap.Error(err))
		} else {
			errs = append(errs, remoteErrs...)
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
