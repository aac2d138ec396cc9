package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/media"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error)
}

// ProductInput carries the raw admin form values.
type ProductInput struct {
	Name        string
	Description string
	Price       string
	Quantity    string
	Category    string
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type CatalogService interface {
	Create(ctx context.Context, in ProductInput, image *ImageUpload) (*models.Product, error)
	Update(ctx context.Context, id int64, in ProductInput, image *ImageUpload) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, category, sort string) ([]models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
}

func NewCatalogService(repo ProductRepository, images media.ImageStore) CatalogService {
	return &catalogService{repo: repo, images: images}
}

type catalogService struct {
	repo   ProductRepository
	images media.ImageStore
}

func (s *catalogService) Create(ctx context.Context, in ProductInput, image *ImageUpload) (*models.Product, error) {
	product, err := parseProduct(in)
	if err != nil {
		return nil, err
	}

	if product.Image, err = s.saveImage(ctx, image); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		s.discardImage(ctx, product.Image)
		return nil, storageErr("create product", err)
	}
	return created, nil
}

func (s *catalogService) Update(ctx context.Context, id int64, in ProductInput, image *ImageUpload) (*models.Product, error) {
	product, err := parseProduct(in)
	if err != nil {
		return nil, err
	}
	product.ID = id

	if product.Image, err = s.saveImage(ctx, image); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		s.discardImage(ctx, product.Image)
		if errors.Is(err, database.ErrProductNotFound) {
			return nil, notFound("Product not found")
		}
		return nil, storageErr("update product", err)
	}
	return updated, nil
}

func (s *catalogService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return notFound("Product not found")
		}
		return storageErr("delete product", err)
	}
	return nil
}

func (s *catalogService) List(ctx context.Context, category, sort string) ([]models.Product, error) {
	order := store.ProductSort(sort)
	switch order {
	case store.SortDefault, store.SortPriceLowToHigh, store.SortPriceHighToLow:
	default:
		return nil, invalid("Unknown sort %q", sort)
	}

	products, err := s.repo.ListProducts(ctx, store.ProductFilter{Category: category, Sort: order})
	if err != nil {
		return nil, storageErr("list products", err)
	}
	return products, nil
}

func (s *catalogService) Get(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return nil, notFound("Product not found")
		}
		return nil, storageErr("get product", err)
	}
	return product, nil
}

// saveImage returns "" when no image was uploaded.
func (s *catalogService) saveImage(ctx context.Context, image *ImageUpload) (string, error) {
	if image == nil {
		return "", nil
	}

	ref, err := s.images.Save(ctx, image.Filename, image.ContentType, image.Body)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedType) {
			return "", invalid("Image must be an image file")
		}
		return "", storageErr("store image", err)
	}
	return ref, nil
}

// discardImage removes an image saved for a write that did not go through.
func (s *catalogService) discardImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), ref); err != nil {
		log.WithError(err).WithField("image", ref).Warn("discard orphaned image")
	}
}

func parseProduct(in ProductInput) (models.Product, error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	category := strings.TrimSpace(in.Category)
	rawPrice := strings.TrimSpace(in.Price)
	rawQuantity := strings.TrimSpace(in.Quantity)

	if name == "" || description == "" || rawPrice == "" || rawQuantity == "" || category == "" {
		return models.Product{}, invalid("All fields are required")
	}

	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return models.Product{}, invalid("Price must be a number")
	}
	if price.IsNegative() {
		return models.Product{}, invalid("Price must not be negative")
	}
	if !isMoney(price) {
		return models.Product{}, invalid("Price must have at most two decimal places")
	}

	quantity, err := strconv.Atoi(rawQuantity)
	if err != nil {
		return models.Product{}, invalid("Quantity must be an integer")
	}

	return models.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Quantity:    quantity,
		Category:    category,
	}, nil
}

// isMoney reports whether d fits the two-decimal money columns unchanged.
func isMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
