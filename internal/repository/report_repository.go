package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/participium/participium-api/internal/models"
)

const reportColumns = "id, title, description, latitude, longitude, address, anonymous, photos, status, rejection_reason, reporter_id, category_id, technical_officer_id, external_maintainer_id, company_id, created_at, updated_at"

// ReportRepository manages persistence for citizen reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report record.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	const query = `INSERT INTO reports (id, title, description, latitude, longitude, address, anonymous, photos, status, rejection_reason, reporter_id, category_id, technical_officer_id, external_maintainer_id, company_id, created_at, updated_at)
		VALUES (:id, :title, :description, :latitude, :longitude, :address, :anonymous, :photos, :status, :rejection_reason, :reporter_id, :category_id, :technical_officer_id, :external_maintainer_id, :company_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// FindByID fetches a report by ID.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports WHERE id = $1", reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching filters along with total count.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	base := "FROM reports WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.ReporterID != "" {
		conditions = append(conditions, fmt.Sprintf("reporter_id = $%d", len(args)+1))
		args = append(args, filter.ReporterID)
	}
	if filter.AssigneeID != "" {
		conditions = append(conditions, fmt.Sprintf("(technical_officer_id = $%d OR external_maintainer_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.AssigneeID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]string{
		"title":      "title",
		"status":     "status",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", reportColumns, base, column, order, size, offset)
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	return reports, total, nil
}

// Update applies a partial patch as a single-row update. When the patch carries
// an ExpectedStatus the write is conditional on the current status, and a stale
// snapshot surfaces as sql.ErrNoRows.
func (r *ReportRepository) Update(ctx context.Context, id string, patch models.ReportPatch) error {
	sets := []string{}
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.RejectionReason != nil {
		add("rejection_reason", *patch.RejectionReason)
	} else if patch.ClearRejectionReason {
		sets = append(sets, "rejection_reason = NULL")
	}
	if patch.TechnicalOfficerID != nil {
		add("technical_officer_id", *patch.TechnicalOfficerID)
	}
	if patch.ExternalMaintainerID != nil {
		add("external_maintainer_id", *patch.ExternalMaintainerID)
	}
	if patch.CompanyID != nil {
		add("company_id", *patch.CompanyID)
	}

	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	where := fmt.Sprintf("id = $%d", len(args))
	if patch.ExpectedStatus != nil {
		args = append(args, *patch.ExpectedStatus)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query := fmt.Sprintf("UPDATE reports SET %s WHERE %s", strings.Join(sets, ", "), where)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
