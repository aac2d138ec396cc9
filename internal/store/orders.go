package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type CreateOrderRequest struct {
	Customer      models.Customer
	Items         []models.LineItem
	TotalAmount   decimal.Decimal
	PaymentMethod string
	CreatedAt     time.Time
}

type OrderFilter struct {
	Email  string
	Cursor string
	// Limit of zero returns every matching order.
	Limit int
}

// TransitionGuard inspects the current status inside the update
// transaction. A non-nil error aborts the update.
type TransitionGuard func(from, to models.OrderStatus) error

type OrderStore struct {
	db             *sqlx.DB
	rejectOversell bool
}

func NewOrderStore(db *sqlx.DB, rejectOversell bool) *OrderStore {
	return &OrderStore{db: db, rejectOversell: rejectOversell}
}

type orderRow struct {
	ID              int64              `db:"id"`
	CustomerName    string             `db:"customer_name"`
	CustomerEmail   string             `db:"customer_email"`
	CustomerAddress string             `db:"customer_address"`
	CustomerPhone   string             `db:"customer_phone"`
	TotalAmount     decimal.Decimal    `db:"total_amount"`
	PaymentMethod   string             `db:"payment_method"`
	Status          models.OrderStatus `db:"status"`
	CreatedAt       time.Time          `db:"created_at"`
}

func (r orderRow) toModel() models.Order {
	return models.Order{
		ID: r.ID,
		Customer: models.Customer{
			Name:    r.CustomerName,
			Email:   r.CustomerEmail,
			Address: r.CustomerAddress,
			Phone:   r.CustomerPhone,
		},
		Products:      []models.LineItem{},
		TotalAmount:   r.TotalAmount,
		PaymentMethod: r.PaymentMethod,
		Status:        r.Status,
		StatusHistory: []models.StatusEntry{},
		CreatedAt:     r.CreatedAt,
	}
}

type lineItemRow struct {
	OrderID   int64           `db:"order_id"`
	ProductID int64           `db:"product_id"`
	Name      string          `db:"name"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
}

type statusRow struct {
	OrderID   int64              `db:"order_id"`
	Status    models.OrderStatus `db:"status"`
	ChangedAt time.Time          `db:"changed_at"`
}

const orderColumns = `id, customer_name, customer_email, customer_address, customer_phone,
	total_amount, payment_method, status, created_at`

// CreateOrder inserts the order, its line items and the seeded Pending
// history entry, then decrements stock for every line item. All of it runs
// in one serializable transaction.
func (s *OrderStore) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	var orderID int64

	err := database.WithRetry(ctx, s.db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &orderID,
			`INSERT INTO orders (customer_name, customer_email, customer_address, customer_phone,
			                     total_amount, payment_method, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id`,
			req.Customer.Name, req.Customer.Email, req.Customer.Address, req.Customer.Phone,
			req.TotalAmount, req.PaymentMethod, models.OrderStatusPending, req.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i, item := range req.Items {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, position, product_id, name, quantity, price)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				orderID, i, item.ProductID, item.Name, item.Quantity, item.Price)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		if err := appendStatus(ctx, tx, orderID, models.OrderStatusPending, req.CreatedAt); err != nil {
			return err
		}

		for _, item := range req.Items {
			if err := DecrementStock(ctx, tx, item.ProductID, item.Quantity, s.rejectOversell); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	items := make([]models.LineItem, len(req.Items))
	copy(items, req.Items)

	return &models.Order{
		ID:            orderID,
		Customer:      req.Customer,
		Products:      items,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
		Status:        models.OrderStatusPending,
		StatusHistory: []models.StatusEntry{{Status: models.OrderStatusPending, Timestamp: req.CreatedAt}},
		CreatedAt:     req.CreatedAt,
	}, nil
}

// TransitionStatus sets the order status and appends a history entry in one
// transaction. It returns the status the order had before the change.
func (s *OrderStore) TransitionStatus(ctx context.Context, id int64, to models.OrderStatus, at time.Time, guard TransitionGuard) (models.OrderStatus, error) {
	var from models.OrderStatus

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &from, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			if database.IsNoRows(err) {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order %d: %w", id, err)
		}

		if guard != nil {
			if err := guard(from, to); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, to, id); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		return appendStatus(ctx, tx, id, to, at)
	})
	if err != nil {
		return "", err
	}

	return from, nil
}

func appendStatus(ctx context.Context, tx *sqlx.Tx, orderID int64, status models.OrderStatus, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO order_status_history (order_id, status, changed_at) VALUES ($1, $2, $3)`,
		orderID, status, at)
	if err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

func (s *OrderStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []models.Order{row.toModel()}
	if err := s.loadDetails(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// ListOrders returns orders newest first, optionally restricted to one
// customer email and paginated by keyset cursor.
func (s *OrderStore) ListOrders(ctx context.Context, filter OrderFilter) (*CursorPage[models.Order], error) {
	cursor, hasCursor, err := DecodeCursor(filter.Cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var (
		where []string
		args  []any
	)
	if filter.Email != "" {
		args = append(args, filter.Email)
		where = append(where, fmt.Sprintf("customer_email = $%d", len(args)))
	}
	if hasCursor {
		args = append(args, cursor.CreatedAt, cursor.ID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit+1)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	hasMore := filter.Limit > 0 && len(rows) > filter.Limit
	if hasMore {
		rows = rows[:filter.Limit]
	}

	orders := make([]models.Order, len(rows))
	for i, row := range rows {
		orders[i] = row.toModel()
	}

	if err := s.loadDetails(ctx, orders); err != nil {
		return nil, err
	}

	page := &CursorPage[models.Order]{Items: orders, HasMore: hasMore}
	if hasMore {
		last := orders[len(orders)-1]
		page.NextCursor = EncodeCursor(OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return page, nil
}

// loadDetails fills line items and status history for the given orders in
// two queries.
func (s *OrderStore) loadDetails(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	var items []lineItemRow
	err := s.db.SelectContext(ctx, &items,
		`SELECT order_id, product_id, name, quantity, price
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, position`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}

	for _, item := range items {
		i, ok := index[item.OrderID]
		if !ok {
			continue
		}
		orders[i].Products = append(orders[i].Products, models.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	var history []statusRow
	err = s.db.SelectContext(ctx, &history,
		`SELECT order_id, status, changed_at
		 FROM order_status_history
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, id`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("get order status history: %w", err)
	}

	for _, entry := range history {
		i, ok := index[entry.OrderID]
		if !ok {
			continue
		}
		orders[i].StatusHistory = append(orders[i].StatusHistory, models.StatusEntry{
			Status:    entry.Status,
			Timestamp: entry.ChangedAt,
		})
	}

	return nil
}

// DecrementStock lowers a product's quantity by the ordered amount. A
// missing product is skipped. With requireStock set, a product without
// enough stock fails with ErrInsufficientStock; otherwise quantity may go
// negative.
func DecrementStock(ctx context.Context, tx *sqlx.Tx, productID int64, quantity int, requireStock bool) error {
	query := `UPDATE products
		 SET quantity = quantity - $1,
		     updated_at = NOW()
		 WHERE id = $2`
	if requireStock {
		query += ` AND quantity >= $1`
	}

	result, err := tx.ExecContext(ctx, query, quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	if requireStock {
		var exists bool
		err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID)
		if err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if exists {
			return database.ErrInsufficientStock
		}
	}

	log.WithField("product_id", productID).Warn("stock decrement skipped: product not found")
	return nil
}
