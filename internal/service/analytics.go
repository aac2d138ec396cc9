package service

import (
	"context"
	"time"

	"github.com/safar/storefront/internal/analytics"
	"github.com/safar/storefront/internal/store"
)

type AnalyticsService interface {
	Snapshot(ctx context.Context) (*analytics.Snapshot, error)
}

// NewAnalyticsService loads every order, product and user per call. The
// dataset is a single storefront's and fits in memory.
func NewAnalyticsService(orders OrderRepository, products ProductRepository, users UserRepository, now func() time.Time) AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &analyticsService{orders: orders, products: products, users: users, now: now}
}

type analyticsService struct {
	orders   OrderRepository
	products ProductRepository
	users    UserRepository
	now      func() time.Time
}

func (s *analyticsService) Snapshot(ctx context.Context) (*analytics.Snapshot, error) {
	page, err := s.orders.ListOrders(ctx, store.OrderFilter{})
	if err != nil {
		return nil, storageErr("load orders", err)
	}

	products, err := s.products.ListProducts(ctx, store.ProductFilter{})
	if err != nil {
		return nil, storageErr("load products", err)
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, storageErr("load users", err)
	}

	snap := analytics.Compute(s.now(), page.Items, products, users)
	return &snap, nil
}
