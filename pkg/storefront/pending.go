package storefront

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// pendingItem is an add-to-cart attempt parked across the login boundary.
type pendingItem struct {
	ProductID   string           `json:"product_id"`
	Product     *ProductSnapshot `json:"product,omitempty"`
	RedirectURL string           `json:"redirect_url,omitempty"`
}

// parkPending records an anonymous add attempt in session storage together
// with the current location.
func (c *Cart) parkPending(productID string, product *ProductSnapshot) error {
	c.mu.Lock()
	redirect := c.location
	c.mu.Unlock()

	encoded, err := json.Marshal(pendingItem{
		ProductID:   productID,
		Product:     product,
		RedirectURL: redirect,
	})
	if err != nil {
		return err
	}
	return c.session.Set(PendingStorageKey, string(encoded))
}

// HasPending reports whether an add attempt is parked in session storage.
func (c *Cart) HasPending() bool {
	_, ok, err := c.session.Get(PendingStorageKey)
	return err == nil && ok
}

// ReplayPending replays a parked add attempt after login. The parked record
// is discarded whether or not the replay succeeds; there is no retry. When
// the record carries a redirect target different from currentURL, that
// target is returned so the caller can navigate back.
func (c *Cart) ReplayPending(ctx context.Context, currentURL string) (string, error) {
	raw, ok, err := c.session.Get(PendingStorageKey)
	if err != nil || !ok {
		return "", err
	}
	if err := c.session.Delete(PendingStorageKey); err != nil {
		c.logger.Warn("Failed to clear pending cart item", zap.Error(err))
	}

	var pending pendingItem
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		c.logger.Warn("Discarding corrupt pending cart item", zap.Error(err))
		return "", nil
	}

	added, err := c.AddItem(ctx, pending.ProductID, pending.Product)
	if !added {
		return "", err
	}
	if pending.RedirectURL != "" && pending.RedirectURL != currentURL {
		return pending.RedirectURL, nil
	}
	return "", nil
}
