package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/participium/participium-api/internal/models"
	appErrors "github.com/participium/participium-api/pkg/errors"
)

type categoryOfficeReader interface {
	FindWithOffice(ctx context.Context, id string) (*models.ProblemCategory, *models.TechnicalOffice, error)
}

type officeStaffReader interface {
	StaffWithActiveCounts(ctx context.Context, officeID string) ([]models.Candidate, error)
}

type companyReader interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
	EligibleForCategory(ctx context.Context, companyID, categoryID string) (bool, error)
	MaintainersWithActiveCounts(ctx context.Context, companyID string) ([]models.Candidate, error)
}

// AssignmentService selects the least-loaded assignee inside the technical
// office owning a report's category, or inside an eligible maintenance company.
// It only computes the resulting patch; persisting it is the caller's job.
//
// Two concurrent calls over the same pool may pick the same winner: the contract
// is deterministic selection given a snapshot, not exclusivity across snapshots.
type AssignmentService struct {
	categories categoryOfficeReader
	offices    officeStaffReader
	companies  companyReader
	logger     *zap.Logger
}

// NewAssignmentService creates a service instance.
func NewAssignmentService(categories categoryOfficeReader, offices officeStaffReader, companies companyReader, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		categories: categories,
		offices:    offices,
		companies:  companies,
		logger:     logger,
	}
}

// AssignToTechnicalOffice picks the least-loaded staff member of the office
// owning the report's category and returns the approval patch.
func (s *AssignmentService) AssignToTechnicalOffice(ctx context.Context, report *models.Report) (*models.ReportPatch, error) {
	if report.Status != models.StatusPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Cannot assign report. Current status is '%s', expected '%s'", report.Status, models.StatusPendingApproval))
	}

	category, office, err := s.categories.FindWithOffice(ctx, report.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve category")
	}
	if office == nil {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("category '%s' is not linked to a technical office", category.Name))
	}

	staff, err := s.offices.StaffWithActiveCounts(ctx, office.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load office workload")
	}

	winner := PickLeastLoaded(staff)
	if winner == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("no technical officers in office '%s'", office.Name))
	}

	s.logger.Debug("technical assignment",
		zap.String("report_id", report.ID),
		zap.String("office_id", office.ID),
		zap.String("officer_id", winner.ID),
		zap.Int("active_reports", winner.ActiveReportCount),
	)

	status := models.StatusAssigned
	return &models.ReportPatch{
		Status:             &status,
		TechnicalOfficerID: &winner.ID,
	}, nil
}

// AssignToExternalMaintainer hands an already-triaged report to the
// least-loaded maintainer of the given company. The patch does not touch the
// report's status: hand-off never reverts triage.
func (s *AssignmentService) AssignToExternalMaintainer(ctx context.Context, report *models.Report, companyID string) (*models.ReportPatch, error) {
	if report.Status == models.StatusPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Cannot assign externally. Current status is '%s', expected an already-triaged status", report.Status))
	}

	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}

	eligible, err := s.companies.EligibleForCategory(ctx, company.ID, report.CategoryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check company eligibility")
	}
	if !eligible {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("company '%s' is not eligible for this report's category", company.Name))
	}

	maintainers, err := s.companies.MaintainersWithActiveCounts(ctx, company.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company workload")
	}

	winner := PickLeastLoaded(maintainers)
	if winner == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("no external maintainers in company '%s'", company.Name))
	}

	s.logger.Debug("external assignment",
		zap.String("report_id", report.ID),
		zap.String("company_id", company.ID),
		zap.String("maintainer_id", winner.ID),
		zap.Int("active_reports", winner.ActiveReportCount),
	)

	return &models.ReportPatch{
		ExternalMaintainerID: &winner.ID,
		CompanyID:            &company.ID,
	}, nil
}
