package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WishlistItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
	Stock int             `json:"stock"`
}

// Wishlist keeps a saved-for-later list per owner.
type Wishlist struct {
	storage Storage
	mu      sync.Mutex
}

func NewWishlist(storage Storage) *Wishlist {
	return &Wishlist{storage: storage}
}

func wishlistKey(owner string) string {
	return "wishlist:" + owner
}

func (w *Wishlist) Items(ctx context.Context, owner string) ([]WishlistItem, error) {
	return load[WishlistItem](ctx, w.storage, wishlistKey(owner))
}

// Toggle adds the item when its id is absent and removes it otherwise.
// Items without an id are assigned one and always added. It reports whether
// the item is on the list afterwards.
func (w *Wishlist) Toggle(ctx context.Context, owner string, item WishlistItem) (bool, []WishlistItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := wishlistKey(owner)
	items, err := load[WishlistItem](ctx, w.storage, key)
	if err != nil {
		return false, nil, err
	}

	if item.ID == "" {
		item.ID = "product-" + uuid.NewString()
	}

	added := true
	if i := indexOf(items, item.ID, func(it WishlistItem) string { return it.ID }); i >= 0 {
		items = append(items[:i], items[i+1:]...)
		added = false
	} else {
		items = append(items, item)
	}

	if err := save(ctx, w.storage, key, items); err != nil {
		return false, nil, err
	}
	return added, items, nil
}

func (w *Wishlist) Remove(ctx context.Context, owner, id string) ([]WishlistItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := wishlistKey(owner)
	items, err := load[WishlistItem](ctx, w.storage, key)
	if err != nil {
		return nil, err
	}

	if i := indexOf(items, id, func(it WishlistItem) string { return it.ID }); i >= 0 {
		items = append(items[:i], items[i+1:]...)
		if err := save(ctx, w.storage, key, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (w *Wishlist) Clear(ctx context.Context, owner string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return save[WishlistItem](ctx, w.storage, wishlistKey(owner), nil)
}

func (w *Wishlist) Contains(ctx context.Context, owner, id string) (bool, error) {
	items, err := w.Items(ctx, owner)
	if err != nil {
		return false, err
	}
	return indexOf(items, id, func(it WishlistItem) string { return it.ID }) >= 0, nil
}

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i
		}
	}
	return -1
}
