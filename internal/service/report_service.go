package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/participium/participium-api/internal/models"
	appErrors "github.com/participium/participium-api/pkg/errors"
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error)
	Update(ctx context.Context, id string, patch models.ReportPatch) error
}

type categoryReader interface {
	FindByID(ctx context.Context, id string) (*models.ProblemCategory, error)
}

type assignmentEngine interface {
	AssignToTechnicalOffice(ctx context.Context, report *models.Report) (*models.ReportPatch, error)
	AssignToExternalMaintainer(ctx context.Context, report *models.Report, companyID string) (*models.ReportPatch, error)
}

type transitionNotifier interface {
	DispatchTransition(ctx context.Context, t models.StatusTransition)
}

type workflowMetrics interface {
	RecordTransition(from, to models.ReportStatus)
	RecordAssignment(kind string)
}

// CreateReportRequest describes a citizen's report submission.
type CreateReportRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Latitude    float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Address     *string  `json:"address,omitempty"`
	Anonymous   bool     `json:"anonymous"`
	CategoryID  string   `json:"category_id" validate:"required"`
	Photos      []string `json:"photos" validate:"max=3,dive,required"`
}

// ReportService drives the report workflow: creation, review, status updates
// and external hand-off. Transitions are validated here; workload-based
// assignee selection is delegated to the assignment engine, and completed
// transitions are announced through the notifier.
type ReportService struct {
	reports    reportStore
	categories categoryReader
	engine     assignmentEngine
	notifier   transitionNotifier
	metrics    workflowMetrics
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReportService creates a service instance. metrics may be nil.
func NewReportService(reports reportStore, categories categoryReader, engine assignmentEngine, notifier transitionNotifier, metrics workflowMetrics, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:    reports,
		categories: categories,
		engine:     engine,
		notifier:   notifier,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Create registers a new report in PENDING_APPROVAL with no assignee and no
// rejection reason.
func (s *ReportService) Create(ctx context.Context, reporterID string, req CreateReportRequest) (*models.Report, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	if _, err := s.categories.FindByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	report := &models.Report{
		Title:       req.Title,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Anonymous:   req.Anonymous,
		Photos:      req.Photos,
		Status:      models.StatusPendingApproval,
		ReporterID:  reporterID,
		CategoryID:  req.CategoryID,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}
	return report, nil
}

// Get returns a report by ID.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	return s.load(ctx, id)
}

// List returns reports matching the filter with pagination metadata.
func (s *ReportService) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, *models.Pagination, error) {
	reports, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return reports, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Approve moves a pending report to ASSIGNED, letting the assignment engine
// choose the least-loaded officer in the owning office. Any lingering rejection
// reason is cleared.
func (s *ReportService) Approve(ctx context.Context, actor models.Actor, reportID string) (*models.Report, error) {
	if actor.Role != models.RolePROfficer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only public relations officers can review reports")
	}

	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.StatusPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Cannot accept report. Current status is '%s', expected '%s'", report.Status, models.StatusPendingApproval))
	}

	patch, err := s.engine.AssignToTechnicalOffice(ctx, report)
	if err != nil {
		return nil, err
	}
	patch.ClearRejectionReason = true
	expected := models.StatusPendingApproval
	patch.ExpectedStatus = &expected

	updated, err := s.apply(ctx, report, *patch)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(models.StatusPendingApproval, updated.Status)
		s.metrics.RecordAssignment("technical")
	}
	s.notifier.DispatchTransition(ctx, models.StatusTransition{
		ReportID:    updated.ID,
		ReportTitle: updated.Title,
		ReporterID:  updated.ReporterID,
		From:        models.StatusPendingApproval,
		To:          updated.Status,
	})
	return updated, nil
}

// Reject closes a pending report with a mandatory reason.
func (s *ReportService) Reject(ctx context.Context, actor models.Actor, reportID, reason string) (*models.Report, error) {
	if actor.Role != models.RolePROfficer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only public relations officers can review reports")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.StatusPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Cannot reject report. Current status is '%s', expected '%s'", report.Status, models.StatusPendingApproval))
	}

	status := models.StatusRejected
	expected := models.StatusPendingApproval
	updated, err := s.apply(ctx, report, models.ReportPatch{
		Status:          &status,
		RejectionReason: &reason,
		ExpectedStatus:  &expected,
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(models.StatusPendingApproval, updated.Status)
	}
	s.notifier.DispatchTransition(ctx, models.StatusTransition{
		ReportID:        updated.ID,
		ReportTitle:     updated.Title,
		ReporterID:      updated.ReporterID,
		From:            models.StatusPendingApproval,
		To:              updated.Status,
		RejectionReason: reason,
	})
	return updated, nil
}

// UpdateStatus lets the exact assigned officer or maintainer move a triaged
// report between IN_PROGRESS, SUSPENDED and RESOLVED. Ownership is checked
// before the transition table.
func (s *ReportService) UpdateStatus(ctx context.Context, actor models.Actor, reportID string, target models.ReportStatus) (*models.Report, error) {
	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureAssignee(report, actor); err != nil {
		return nil, err
	}

	switch target {
	case models.StatusInProgress, models.StatusSuspended, models.StatusResolved:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported target status '%s'", target))
	}

	if !isTriaged(report.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Cannot update report status. Current status is '%s', expected one of '%s', '%s', '%s'", report.Status, models.StatusAssigned, models.StatusInProgress, models.StatusSuspended))
	}

	expected := report.Status
	updated, err := s.apply(ctx, report, models.ReportPatch{
		Status:         &target,
		ExpectedStatus: &expected,
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(expected, updated.Status)
	}
	s.notifier.DispatchTransition(ctx, models.StatusTransition{
		ReportID:    updated.ID,
		ReportTitle: updated.Title,
		ReporterID:  updated.ReporterID,
		From:        expected,
		To:          updated.Status,
	})
	return updated, nil
}

// AssignExternal hands a triaged report to an external maintenance company.
// Only the assigned technical officer may do this; the report keeps its
// current status and gains a maintainer, so no citizen notification fires.
func (s *ReportService) AssignExternal(ctx context.Context, actor models.Actor, reportID, companyID string) (*models.Report, error) {
	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleTechnicalStaff || report.TechnicalOfficerID == nil || *report.TechnicalOfficerID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned technical officer can hand off this report")
	}

	if !isTriaged(report.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Cannot hand off report. Current status is '%s', expected one of '%s', '%s', '%s'", report.Status, models.StatusAssigned, models.StatusInProgress, models.StatusSuspended))
	}

	patch, err := s.engine.AssignToExternalMaintainer(ctx, report, companyID)
	if err != nil {
		return nil, err
	}
	expected := report.Status
	patch.ExpectedStatus = &expected

	updated, err := s.apply(ctx, report, *patch)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordAssignment("external")
	}
	return updated, nil
}

func (s *ReportService) ensureAssignee(report *models.Report, actor models.Actor) error {
	switch actor.Role {
	case models.RoleTechnicalStaff:
		if report.TechnicalOfficerID != nil && *report.TechnicalOfficerID == actor.ID {
			return nil
		}
	case models.RoleExternalMaintainer:
		if report.ExternalMaintainerID != nil && *report.ExternalMaintainerID == actor.ID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only the assigned officer or maintainer can update this report")
}

func (s *ReportService) load(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

// apply persists the patch and reloads the fully resolved report. A conditional
// write that matched no row means a concurrent transition won; surfaced as a
// conflict rather than silently retried.
func (s *ReportService) apply(ctx context.Context, report *models.Report, patch models.ReportPatch) (*models.Report, error) {
	if err := s.reports.Update(ctx, report.ID, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "report was modified concurrently, reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}
	return s.load(ctx, report.ID)
}

func isTriaged(status models.ReportStatus) bool {
	switch status {
	case models.StatusAssigned, models.StatusInProgress, models.StatusSuspended:
		return true
	default:
		return false
	}
}
