package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// Cart keeps the shopping cart per owner.
type Cart struct {
	storage Storage
	mu      sync.Mutex
}

func NewCart(storage Storage) *Cart {
	return &Cart{storage: storage}
}

func cartKey(owner string) string {
	return "cart:" + owner
}

func (c *Cart) Items(ctx context.Context, owner string) ([]CartItem, error) {
	return load[CartItem](ctx, c.storage, cartKey(owner))
}

// Add changes the quantity of item by delta, appending it when it is not in
// the cart yet. A line whose quantity drops to zero or below is removed.
func (c *Cart) Add(ctx context.Context, owner string, item CartItem, delta int) ([]CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cartKey(owner)
	items, err := load[CartItem](ctx, c.storage, key)
	if err != nil {
		return nil, err
	}

	i := indexOf(items, item.ID, func(it CartItem) string { return it.ID })
	switch {
	case i >= 0:
		items[i].Quantity += delta
		if items[i].Quantity <= 0 {
			items = append(items[:i], items[i+1:]...)
		}
	case delta > 0:
		item.Quantity = delta
		items = append(items, item)
	}

	if err := save(ctx, c.storage, key, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Cart) Remove(ctx context.Context, owner, id string) ([]CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cartKey(owner)
	items, err := load[CartItem](ctx, c.storage, key)
	if err != nil {
		return nil, err
	}

	if i := indexOf(items, id, func(it CartItem) string { return it.ID }); i >= 0 {
		items = append(items[:i], items[i+1:]...)
		if err := save(ctx, c.storage, key, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (c *Cart) Clear(ctx context.Context, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return save[CartItem](ctx, c.storage, cartKey(owner), nil)
}

// Total is the sum of price times quantity over the cart.
func (c *Cart) Total(ctx context.Context, owner string) (decimal.Decimal, error) {
	items, err := c.Items(ctx, owner)
	if err != nil {
		return decimal.Zero, err
	}
	return Sum(items), nil
}

func Sum(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
