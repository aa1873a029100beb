package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/participium/participium-api/internal/models"
	appErrors "github.com/participium/participium-api/pkg/errors"
)

const categoryCacheKey = "catalog:categories"

type categoryStore interface {
	List(ctx context.Context) ([]models.ProblemCategory, error)
	Create(ctx context.Context, category *models.ProblemCategory) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type companyCatalogReader interface {
	ListForCategory(ctx context.Context, categoryID string) ([]models.Company, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateCategoryRequest describes an admin category creation.
type CreateCategoryRequest struct {
	Name     string  `json:"name" validate:"required"`
	OfficeID *string `json:"office_id,omitempty"`
}

// CategoryService serves the category catalog, with a Redis-backed cache in
// front of the listing since the catalog changes rarely and is read on every
// report submission form.
type CategoryService struct {
	categories categoryStore
	companies  companyCatalogReader
	cache      catalogCache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewCategoryService creates a service instance.
func NewCategoryService(categories categoryStore, companies companyCatalogReader, cache catalogCache, cacheTTL time.Duration, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &CategoryService{
		categories: categories,
		companies:  companies,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// List returns all categories, from cache when warm.
func (s *CategoryService) List(ctx context.Context) ([]models.ProblemCategory, error) {
	if s.cache != nil {
		var cached []models.ProblemCategory
		if err := s.cache.Get(ctx, categoryCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, categoryCacheKey, categories, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache categories", zap.Error(err))
		}
	}
	return categories, nil
}

// Companies returns the maintenance companies eligible for a category.
func (s *CategoryService) Companies(ctx context.Context, categoryID string) ([]models.Company, error) {
	companies, err := s.companies.ListForCategory(ctx, categoryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list companies")
	}
	return companies, nil
}

// Create adds a category and invalidates the catalog cache.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*models.ProblemCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category name is required")
	}

	exists, err := s.categories.ExistsByName(ctx, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "category already exists")
	}

	category := &models.ProblemCategory{Name: name, OfficeID: req.OfficeID}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
			s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
		}
	}
	return category, nil
}
