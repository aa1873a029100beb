package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/participium/participium-api/internal/models"
)

// OfficeRepository reads technical offices and their staff workload.
type OfficeRepository struct {
	db *sqlx.DB
}

// NewOfficeRepository constructs an OfficeRepository.
func NewOfficeRepository(db *sqlx.DB) *OfficeRepository {
	return &OfficeRepository{db: db}
}

// FindByID fetches a technical office by ID.
func (r *OfficeRepository) FindByID(ctx context.Context, id string) (*models.TechnicalOffice, error) {
	const query = `SELECT id, name FROM technical_offices WHERE id = $1`
	var office models.TechnicalOffice
	if err := r.db.GetContext(ctx, &office, query, id); err != nil {
		return nil, err
	}
	return &office, nil
}

// StaffWithActiveCounts returns the office's technical staff together with the
// number of reports currently assigned to each of them in an active status.
// One grouped query so the ranker always works off a single snapshot.
func (r *OfficeRepository) StaffWithActiveCounts(ctx context.Context, officeID string) ([]models.Candidate, error) {
	const query = `SELECT u.id, u.first_name, u.last_name,
			COUNT(r.id) FILTER (WHERE r.status NOT IN ('RESOLVED', 'REJECTED', 'PENDING_APPROVAL')) AS active_report_count
		FROM users u
		LEFT JOIN reports r ON r.technical_officer_id = u.id
		WHERE u.office_id = $1 AND u.role = 'TECHNICAL_STAFF' AND u.active
		GROUP BY u.id, u.first_name, u.last_name
		ORDER BY active_report_count ASC, u.last_name ASC, u.first_name ASC`
	var staff []models.Candidate
	if err := r.db.SelectContext(ctx, &staff, query, officeID); err != nil {
		return nil, fmt.Errorf("office staff workload: %w", err)
	}
	return staff, nil
}
