package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// ProfileUpdate carries the optional profile fields; nil leaves a field
// untouched.
type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

const userColumns = `id, name, email, phone, address, created_at`

func (s *UserStore) CreateUser(ctx context.Context, u models.User) (*models.User, error) {
	user := &models.User{}

	err := s.db.GetContext(ctx, user,
		`INSERT INTO users (name, email, phone, address, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING `+userColumns,
		u.Name, u.Email, u.Phone, u.Address)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, email string, upd ProfileUpdate) (*models.User, error) {
	user := &models.User{}

	err := s.db.GetContext(ctx, user,
		`UPDATE users
		 SET name = COALESCE($1, name),
		     phone = COALESCE($2, phone),
		     address = COALESCE($3, address)
		 WHERE email = $4
		 RETURNING `+userColumns,
		upd.Name, upd.Phone, upd.Address, email)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}

	err := s.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}
