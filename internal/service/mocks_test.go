package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/events"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/service"
	"github.com/safar/storefront/internal/store"
	"github.com/stretchr/testify/mock"
)

type mockOrderRepository struct {
	mu     sync.Mutex
	nextID int64
	store  map[int64]*models.Order
	err    error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{store: make(map[int64]*models.Order)}
}

func (r *mockOrderRepository) CreateOrder(_ context.Context, req store.CreateOrderRequest) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}

	r.nextID++
	order := &models.Order{
		ID:            r.nextID,
		Customer:      req.Customer,
		Products:      req.Items,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
		Status:        models.OrderStatusPending,
		StatusHistory: []models.StatusEntry{{Status: models.OrderStatusPending, Timestamp: req.CreatedAt}},
		CreatedAt:     req.CreatedAt,
	}
	r.store[order.ID] = order

	copied := *order
	return &copied, nil
}

func (r *mockOrderRepository) TransitionStatus(_ context.Context, id int64, to models.OrderStatus, at time.Time, guard store.TransitionGuard) (models.OrderStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return "", r.err
	}

	order, ok := r.store[id]
	if !ok {
		return "", database.ErrOrderNotFound
	}

	from := order.Status
	if guard != nil {
		if err := guard(from, to); err != nil {
			return "", err
		}
	}

	order.Status = to
	order.StatusHistory = append(order.StatusHistory, models.StatusEntry{Status: to, Timestamp: at})
	return from, nil
}

func (r *mockOrderRepository) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	order, ok := r.store[id]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *mockOrderRepository) ListOrders(_ context.Context, filter store.OrderFilter) (*store.CursorPage[models.Order], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	if _, _, err := store.DecodeCursor(filter.Cursor); err != nil {
		return nil, store.ErrInvalidCursor
	}

	orders := []models.Order{}
	for _, o := range r.store {
		if filter.Email == "" || o.Customer.Email == filter.Email {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	return &store.CursorPage[models.Order]{Items: orders}, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) published() []events.Event {
	var out []events.Event
	for _, call := range m.Calls {
		out = append(out, call.Arguments.Get(1).(events.Event))
	}
	return out
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	args := m.Called(ctx, p)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *mockProductRepository) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	args := m.Called(ctx, p)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *mockProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *mockProductRepository) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	args := m.Called(ctx, filter)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) CreateUser(ctx context.Context, u models.User) (*models.User, error) {
	args := m.Called(ctx, u)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, email string, upd store.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, email, upd)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

var (
	_ service.OrderRepository   = &mockOrderRepository{}
	_ service.ProductRepository = &mockProductRepository{}
	_ service.UserRepository    = &mockUserRepository{}
	_ events.Publisher          = &mockPublisher{}
)
