package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/participium/participium-api/internal/models"
)

// CategoryRepository manages problem categories and their office links.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all problem categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.ProblemCategory, error) {
	const query = `SELECT id, name, office_id, created_at FROM problem_categories ORDER BY name ASC`
	var categories []models.ProblemCategory
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID fetches a category by ID.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.ProblemCategory, error) {
	const query = `SELECT id, name, office_id, created_at FROM problem_categories WHERE id = $1`
	var category models.ProblemCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// FindWithOffice resolves a category together with its owning office. The office
// is nil when the category is not linked to one; deciding whether that is fatal
// belongs to the caller.
func (r *CategoryRepository) FindWithOffice(ctx context.Context, id string) (*models.ProblemCategory, *models.TechnicalOffice, error) {
	const query = `SELECT c.id, c.name, c.office_id, c.created_at, o.id AS o_id, o.name AS o_name
		FROM problem_categories c
		LEFT JOIN technical_offices o ON o.id = c.office_id
		WHERE c.id = $1`

	var row struct {
		models.ProblemCategory
		OID   *string `db:"o_id"`
		OName *string `db:"o_name"`
	}
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, nil, err
	}

	if row.OID == nil {
		return &row.ProblemCategory, nil, nil
	}
	office := &models.TechnicalOffice{ID: *row.OID}
	if row.OName != nil {
		office.Name = *row.OName
	}
	return &row.ProblemCategory, office, nil
}

// Create inserts a new category, optionally linked to an office.
func (r *CategoryRepository) Create(ctx context.Context, category *models.ProblemCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO problem_categories (id, name, office_id, created_at)
		VALUES (:id, :name, :office_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// ExistsByName checks whether a category with the given name already exists.
func (r *CategoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	const query = `SELECT 1 FROM problem_categories WHERE LOWER(name) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check category name: %w", err)
	}
	return true, nil
}
