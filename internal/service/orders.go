package service

import (
	"context"
	"errors"
	"time"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/events"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, req store.CreateOrderRequest) (*models.Order, error)
	TransitionStatus(ctx context.Context, id int64, to models.OrderStatus, at time.Time, guard store.TransitionGuard) (models.OrderStatus, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filter store.OrderFilter) (*store.CursorPage[models.Order], error)
}

// CreateOrderInput is the checkout payload. Pointer fields distinguish an
// absent value from a zero one.
type CreateOrderInput struct {
	Customer      *models.Customer  `json:"customer"`
	Products      []models.LineItem `json:"products"`
	TotalAmount   *decimal.Decimal  `json:"totalAmount"`
	PaymentMethod string            `json:"paymentMethod"`
}

type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Cancel(ctx context.Context, id int64) error
	ListByCustomerEmail(ctx context.Context, filter store.OrderFilter) (*store.CursorPage[models.Order], error)
	Get(ctx context.Context, id int64) (*models.Order, error)
}

type OrderOptions struct {
	// StrictTransitions rejects status changes outside the forward
	// lifecycle. When false any status may overwrite any other.
	StrictTransitions bool
	Now               func() time.Time
}

func NewOrderService(repo OrderRepository, publisher events.Publisher, opts OrderOptions) OrderService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &orderService{repo: repo, publisher: publisher, opts: opts}
}

type orderService struct {
	repo      OrderRepository
	publisher events.Publisher
	opts      OrderOptions
}

func (s *orderService) now() time.Time {
	return s.opts.Now().UTC().Truncate(time.Microsecond)
}

func (s *orderService) Create(ctx context.Context, in CreateOrderInput) (int64, error) {
	if err := validateOrder(in); err != nil {
		return 0, err
	}

	order, err := s.repo.CreateOrder(ctx, store.CreateOrderRequest{
		Customer:      *in.Customer,
		Items:         in.Products,
		TotalAmount:   *in.TotalAmount,
		PaymentMethod: in.PaymentMethod,
		CreatedAt:     s.now(),
	})
	if err != nil {
		if errors.Is(err, database.ErrInsufficientStock) {
			return 0, err
		}
		return 0, storageErr("create order", err)
	}

	s.publish(ctx, events.OrderCreated{
		OrderID:       order.ID,
		Customer:      order.Customer,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
	})

	return order.ID, nil
}

func validateOrder(in CreateOrderInput) error {
	if in.Customer == nil || len(in.Products) == 0 || in.TotalAmount == nil ||
		in.TotalAmount.IsZero() || in.PaymentMethod == "" {
		return invalid("Missing required fields")
	}
	if in.TotalAmount.IsNegative() {
		return invalid("totalAmount must not be negative")
	}
	if !isMoney(*in.TotalAmount) {
		return invalid("totalAmount must have at most two decimal places")
	}
	for i, li := range in.Products {
		if li.Quantity <= 0 {
			return invalid("products[%d]: quantity must be positive", i)
		}
		if li.Price.IsNegative() {
			return invalid("products[%d]: price must not be negative", i)
		}
		if !isMoney(li.Price) {
			return invalid("products[%d]: price must have at most two decimal places", i)
		}
	}
	return nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id int64, status string) error {
	to := models.OrderStatus(status)
	if !to.Valid() {
		return invalid("Invalid status value")
	}

	at := s.now()
	from, err := s.repo.TransitionStatus(ctx, id, to, at, s.strictGuard)
	if err != nil {
		return s.mapTransitionErr(err, "Order not found")
	}

	s.publish(ctx, events.OrderStatusChanged{OrderID: id, From: from, To: to, At: at})
	return nil
}

func (s *orderService) Cancel(ctx context.Context, id int64) error {
	at := s.now()
	from, err := s.repo.TransitionStatus(ctx, id, models.OrderStatusCancelled, at,
		func(from, to models.OrderStatus) error {
			if from == models.OrderStatusCancelled {
				return database.ErrAlreadyCancelled
			}
			return s.strictGuard(from, to)
		})
	if err != nil {
		return s.mapTransitionErr(err, "Order not found or already cancelled")
	}

	s.publish(ctx, events.OrderCancelled{OrderID: id, From: from, At: at})
	return nil
}

func (s *orderService) strictGuard(from, to models.OrderStatus) error {
	if s.opts.StrictTransitions && !models.CanTransition(from, to) {
		return invalid("Cannot move order from %s to %s", from, to)
	}
	return nil
}

func (s *orderService) mapTransitionErr(err error, notFoundMsg string) error {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr
	case errors.Is(err, database.ErrOrderNotFound), errors.Is(err, database.ErrAlreadyCancelled):
		return notFound(notFoundMsg)
	default:
		return storageErr("update order status", err)
	}
}

func (s *orderService) ListByCustomerEmail(ctx context.Context, filter store.OrderFilter) (*store.CursorPage[models.Order], error) {
	if filter.Limit < 0 {
		return nil, invalid("limit must not be negative")
	}

	page, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCursor) {
			return nil, invalid("Invalid cursor")
		}
		return nil, storageErr("list orders", err)
	}
	return page, nil
}

func (s *orderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return nil, notFound("Order not found")
		}
		return nil, storageErr("get order", err)
	}
	return order, nil
}

// publish never fails the calling operation.
func (s *orderService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("type", event.Type()).Warn("publish order event")
	}
}
