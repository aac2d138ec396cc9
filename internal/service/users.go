package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, email string, upd store.ProfileUpdate) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type ProfileInput struct {
	Email   string  `json:"email"`
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, u models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*models.User, error)
}

func NewUserService(repo UserRepository) UserService {
	return &userService{repo: repo}
}

type userService struct {
	repo UserRepository
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

func (s *userService) Create(ctx context.Context, u models.User) (*models.User, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if u.Name == "" || u.Email == "" {
		return nil, invalid("Name and email are required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return nil, invalid("Invalid email")
	}

	created, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, invalid("User already exists")
		}
		return nil, storageErr("create user", err)
	}
	return created, nil
}

func (s *userService) UpdateProfile(ctx context.Context, in ProfileInput) (*models.User, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, invalid("Email is required")
	}

	user, err := s.repo.UpdateProfile(ctx, in.Email, store.ProfileUpdate{
		Name:    in.Name,
		Phone:   in.Phone,
		Address: in.Address,
	})
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, notFound("User not found")
		}
		return nil, storageErr("update profile", err)
	}
	return user, nil
}
