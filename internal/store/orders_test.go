package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

var orderCols = []string{
	"id", "customer_name", "customer_email", "customer_address", "customer_phone",
	"total_amount", "payment_method", "status", "created_at",
}

func sampleRequest(at time.Time) CreateOrderRequest {
	return CreateOrderRequest{
		Customer: models.Customer{
			Name:    "Asha Rao",
			Email:   "asha@example.com",
			Address: "12 MG Road, Pune",
			Phone:   "9876543210",
		},
		Items: []models.LineItem{
			{ProductID: 7, Name: "Brass Diya", Quantity: 2, Price: decimal.RequireFromString("120.00")},
			{ProductID: 9, Name: "Toran", Quantity: 1, Price: decimal.RequireFromString("350.50")},
		},
		TotalAmount:   decimal.RequireFromString("590.50"),
		PaymentMethod: "cash",
		CreatedAt:     at,
	}
}

func TestCreateOrder(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)
	ctx := context.Background()
	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs("Asha Rao", "asha@example.com", "12 MG Road, Pune", "9876543210",
			sqlmock.AnyArg(), "cash", "Pending", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(42, 0, 7, "Brass Diya", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(42, 1, 9, "Toran", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("INSERT INTO order_status_history").
		WithArgs(42, "Pending", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE products").WithArgs(2, 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products").WithArgs(1, 9).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := s.CreateOrder(ctx, sampleRequest(at))
	require.NoError(t, err)

	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.OrderStatusPending, order.StatusHistory[0].Status)
	assert.Equal(t, at, order.StatusHistory[0].Timestamp)
	assert.Len(t, order.Products, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderSkipsMissingProduct(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)
	at := time.Now().UTC()

	req := sampleRequest(at)
	req.Items = req.Items[:1]

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO order_status_history").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE products").WithArgs(2, 7).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := s.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectOversellRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, true)
	at := time.Now().UTC()

	req := sampleRequest(at)
	req.Items = req.Items[:1]

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO order_status_history").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("AND quantity >= \\$1").WithArgs(2, 7).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := s.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, database.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)
	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders WHERE id = \\$1 FOR UPDATE").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Pending"))
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("Processing", 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_status_history").
		WithArgs(42, "Processing", at).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	from, err := s.TransitionStatus(context.Background(), 42, models.OrderStatusProcessing, at, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, from)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err := s.TransitionStatus(context.Background(), 404, models.OrderStatusDelivered, time.Now(), nil)
	assert.ErrorIs(t, err, database.ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusGuardAborts(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Cancelled"))
	mock.ExpectRollback()

	guard := func(from, to models.OrderStatus) error {
		if from == models.OrderStatusCancelled {
			return database.ErrAlreadyCancelled
		}
		return nil
	}

	_, err := s.TransitionStatus(context.Background(), 1, models.OrderStatusCancelled, time.Now(), guard)
	assert.ErrorIs(t, err, database.ErrAlreadyCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)
	created := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM orders WHERE id = \\$1").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(42, "Asha Rao", "asha@example.com", "Pune", "98765", "590.50", "cash", "Processing", created))
	mock.ExpectQuery("FROM order_items").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "name", "quantity", "price"}).
			AddRow(42, 7, "Brass Diya", 2, "120.00").
			AddRow(42, 9, "Toran", 1, "350.50"))
	mock.ExpectQuery("FROM order_status_history").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "changed_at"}).
			AddRow(42, "Pending", created).
			AddRow(42, "Processing", created.Add(time.Hour)))

	order, err := s.GetOrder(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", order.Customer.Email)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("590.50")))
	require.Len(t, order.Products, 2)
	assert.Equal(t, "Toran", order.Products[1].Name)
	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, order.Status, order.StatusHistory[len(order.StatusHistory)-1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)

	mock.ExpectQuery("FROM orders WHERE id = \\$1").WithArgs(1).WillReturnRows(sqlmock.NewRows(orderCols))

	_, err := s.GetOrder(context.Background(), 1)
	assert.ErrorIs(t, err, database.ErrOrderNotFound)
}

func TestListOrdersByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM orders WHERE customer_email = \\$1 ORDER BY created_at DESC, id DESC$").
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(2, "Asha", "asha@example.com", "", "", "50.50", "cash", "Pending", now).
			AddRow(1, "Asha", "asha@example.com", "", "", "100.00", "card", "Delivered", now.Add(-time.Hour)))
	mock.ExpectQuery("FROM order_items").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "name", "quantity", "price"}).
			AddRow(1, 3, "Lamp", 1, "100.00").
			AddRow(2, 4, "Candle", 1, "50.50"))
	mock.ExpectQuery("FROM order_status_history").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "changed_at"}).
			AddRow(1, "Pending", now.Add(-time.Hour)).
			AddRow(1, "Delivered", now.Add(-30*time.Minute)).
			AddRow(2, "Pending", now))

	page, err := s.ListOrders(context.Background(), OrderFilter{Email: "asha@example.com"})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Items[0].ID)
	assert.Equal(t, "Candle", page.Items[0].Products[0].Name)
	assert.Len(t, page.Items[1].StatusHistory, 2)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersCursor(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM orders ORDER BY created_at DESC, id DESC LIMIT \\$1").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(3, "A", "a@example.com", "", "", "10.00", "cash", "Pending", now).
			AddRow(2, "B", "b@example.com", "", "", "20.00", "cash", "Pending", now.Add(-time.Minute)))
	mock.ExpectQuery("FROM order_items").WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "name", "quantity", "price"}))
	mock.ExpectQuery("FROM order_status_history").WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "changed_at"}))

	page, err := s.ListOrders(context.Background(), OrderFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.HasMore)

	cursor, ok, err := DecodeCursor(page.NextCursor)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), cursor.ID)
	assert.True(t, cursor.CreatedAt.Equal(now))

	mock.ExpectQuery("FROM orders WHERE \\(created_at, id\\) < \\(\\$1, \\$2\\) ORDER BY created_at DESC, id DESC LIMIT \\$3").
		WithArgs(sqlmock.AnyArg(), 3, 2).
		WillReturnRows(sqlmock.NewRows(orderCols))

	next, err := s.ListOrders(context.Background(), OrderFilter{Limit: 1, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Empty(t, next.Items)
	assert.False(t, next.HasMore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersBadCursor(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewOrderStore(db, false)

	_, err := s.ListOrders(context.Background(), OrderFilter{Cursor: "%%%"})
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestListOrdersStorageError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOrderStore(db, false)

	mock.ExpectQuery("FROM orders").WillReturnError(errors.New("connection reset"))

	_, err := s.ListOrders(context.Background(), OrderFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list orders: connection reset")
}
