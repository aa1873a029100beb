package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/participium/participium-api/internal/models"
)

// CompanyRepository reads maintenance companies and their crews' workload.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository constructs a CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// FindByID fetches a company by ID.
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*models.Company, error) {
	const query = `SELECT id, name FROM companies WHERE id = $1`
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, err
	}
	return &company, nil
}

// ListForCategory returns companies eligible for the given category.
func (r *CompanyRepository) ListForCategory(ctx context.Context, categoryID string) ([]models.Company, error) {
	const query = `SELECT c.id, c.name FROM companies c
		JOIN company_categories cc ON cc.company_id = c.id
		WHERE cc.category_id = $1
		ORDER BY c.name ASC`
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query, categoryID); err != nil {
		return nil, fmt.Errorf("list companies for category: %w", err)
	}
	return companies, nil
}

// EligibleForCategory reports whether the company services the given category.
func (r *CompanyRepository) EligibleForCategory(ctx context.Context, companyID, categoryID string) (bool, error) {
	const query = `SELECT 1 FROM company_categories WHERE company_id = $1 AND category_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, companyID, categoryID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check company eligibility: %w", err)
	}
	return true, nil
}

// MaintainersWithActiveCounts returns the company's external maintainers with
// the number of reports currently in their hands in an active status.
func (r *CompanyRepository) MaintainersWithActiveCounts(ctx context.Context, companyID string) ([]models.Candidate, error) {
	const query = `SELECT u.id, u.first_name, u.last_name,
			COUNT(r.id) FILTER (WHERE r.status NOT IN ('RESOLVED', 'REJECTED', 'PENDING_APPROVAL')) AS active_report_count
		FROM users u
		LEFT JOIN reports r ON r.external_maintainer_id = u.id
		WHERE u.company_id = $1 AND u.role = 'EXTERNAL_MAINTAINER' AND u.active
		GROUP BY u.id, u.first_name, u.last_name
		ORDER BY active_report_count ASC, u.last_name ASC, u.first_name ASC`
	var maintainers []models.Candidate
	if err := r.db.SelectContext(ctx, &maintainers, query, companyID); err != nil {
		return nil, fmt.Errorf("company maintainer workload: %w", err)
	}
	return maintainers, nil
}
