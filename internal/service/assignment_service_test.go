package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/participium/participium-api/internal/models"
	appErrors "github.com/participium/participium-api/pkg/errors"
)

type categoryReaderStub struct {
	category *models.ProblemCategory
	office   *models.TechnicalOffice
	err      error
}

func (s *categoryReaderStub) FindWithOffice(ctx context.Context, id string) (*models.ProblemCategory, *models.TechnicalOffice, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.category, s.office, nil
}

type officeReaderStub struct {
	staff []models.Candidate
	err   error
}

func (s *officeReaderStub) StaffWithActiveCounts(ctx context.Context, officeID string) ([]models.Candidate, error) {
	return s.staff, s.err
}

type companyReaderStub struct {
	company     *models.Company
	companyErr  error
	eligible    bool
	maintainers []models.Candidate
}

func (s *companyReaderStub) FindByID(ctx context.Context, id string) (*models.Company, error) {
	if s.companyErr != nil {
		return nil, s.companyErr
	}
	return s.company, nil
}

func (s *companyReaderStub) EligibleForCategory(ctx context.Context, companyID, categoryID string) (bool, error) {
	return s.eligible, nil
}

func (s *companyReaderStub) MaintainersWithActiveCounts(ctx context.Context, companyID string) ([]models.Candidate, error) {
	return s.maintainers, nil
}

func pendingReport() *models.Report {
	return &models.Report{
		ID:         "r1",
		Title:      "Broken streetlight",
		Status:     models.StatusPendingApproval,
		ReporterID: "c1",
		CategoryID: "cat1",
	}
}

func TestAssignToTechnicalOfficePicksLeastLoadedWithTieBreak(t *testing.T) {
	categories := &categoryReaderStub{
		category: &models.ProblemCategory{ID: "cat1", Name: "Roads"},
		office:   &models.TechnicalOffice{ID: "off1", Name: "Road Maintenance"},
	}
	offices := &officeReaderStub{staff: []models.Candidate{
		{ID: "u1", FirstName: "Mario", LastName: "Rossi", ActiveReportCount: 2},
		{ID: "u2", FirstName: "Anna", LastName: "Bianchi", ActiveReportCount: 2},
		{ID: "u3", FirstName: "Luca", LastName: "Verdi", ActiveReportCount: 7},
	}}

	svc := NewAssignmentService(categories, offices, &companyReaderStub{}, nil)
	patch, err := svc.AssignToTechnicalOffice(context.Background(), pendingReport())
	require.NoError(t, err)
	require.NotNil(t, patch)

	require.NotNil(t, patch.Status)
	assert.Equal(t, models.StatusAssigned, *patch.Status)
	require.NotNil(t, patch.TechnicalOfficerID)
	assert.Equal(t, "u2", *patch.TechnicalOfficerID, "Bianchi wins the tie against Rossi")
}

func TestAssignToTechnicalOfficeRejectsNonPendingReport(t *testing.T) {
	svc := NewAssignmentService(&categoryReaderStub{}, &officeReaderStub{}, &companyReaderStub{}, nil)

	report := pendingReport()
	report.Status = models.StatusAssigned

	_, err := svc.AssignToTechnicalOffice(context.Background(), report)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAssignToTechnicalOfficeUnlinkedCategoryIsConfigurationError(t *testing.T) {
	categories := &categoryReaderStub{
		category: &models.ProblemCategory{ID: "cat1", Name: "Graffiti"},
		office:   nil,
	}
	svc := NewAssignmentService(categories, &officeReaderStub{}, &companyReaderStub{}, nil)

	_, err := svc.AssignToTechnicalOffice(context.Background(), pendingReport())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Graffiti")
}

func TestAssignToTechnicalOfficeEmptyOfficeIsConflict(t *testing.T) {
	categories := &categoryReaderStub{
		category: &models.ProblemCategory{ID: "cat1", Name: "Roads"},
		office:   &models.TechnicalOffice{ID: "off1", Name: "Road Maintenance"},
	}
	svc := NewAssignmentService(categories, &officeReaderStub{staff: nil}, &companyReaderStub{}, nil)

	_, err := svc.AssignToTechnicalOffice(context.Background(), pendingReport())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Road Maintenance")
}

func TestAssignToExternalMaintainerKeepsStatusUntouched(t *testing.T) {
	companies := &companyReaderStub{
		company:  &models.Company{ID: "co1", Name: "GreenWorks"},
		eligible: true,
		maintainers: []models.Candidate{
			{ID: "m1", FirstName: "Paolo", LastName: "Neri", ActiveReportCount: 1},
			{ID: "m2", FirstName: "Elisa", LastName: "Fontana", ActiveReportCount: 0},
		},
	}
	svc := NewAssignmentService(&categoryReaderStub{}, &officeReaderStub{}, companies, nil)

	report := pendingReport()
	report.Status = models.StatusInProgress

	patch, err := svc.AssignToExternalMaintainer(context.Background(), report, "co1")
	require.NoError(t, err)
	require.NotNil(t, patch)

	assert.Nil(t, patch.Status, "hand-off must not change the report status")
	require.NotNil(t, patch.ExternalMaintainerID)
	assert.Equal(t, "m2", *patch.ExternalMaintainerID)
	require.NotNil(t, patch.CompanyID)
	assert.Equal(t, "co1", *patch.CompanyID)
}

func TestAssignToExternalMaintainerUnknownCompany(t *testing.T) {
	companies := &companyReaderStub{companyErr: sql.ErrNoRows}
	svc := NewAssignmentService(&categoryReaderStub{}, &officeReaderStub{}, companies, nil)

	report := pendingReport()
	report.Status = models.StatusAssigned

	_, err := svc.AssignToExternalMaintainer(context.Background(), report, "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAssignToExternalMaintainerIneligibleCompany(t *testing.T) {
	companies := &companyReaderStub{
		company:  &models.Company{ID: "co1", Name: "GreenWorks"},
		eligible: false,
	}
	svc := NewAssignmentService(&categoryReaderStub{}, &officeReaderStub{}, companies, nil)

	report := pendingReport()
	report.Status = models.StatusAssigned

	_, err := svc.AssignToExternalMaintainer(context.Background(), report, "co1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "not eligible")
}

func TestAssignToExternalMaintainerEmptyPoolIsConflict(t *testing.T) {
	companies := &companyReaderStub{
		company:     &models.Company{ID: "co1", Name: "GreenWorks"},
		eligible:    true,
		maintainers: nil,
	}
	svc := NewAssignmentService(&categoryReaderStub{}, &officeReaderStub{}, companies, nil)

	report := pendingReport()
	report.Status = models.StatusAssigned

	_, err := svc.AssignToExternalMaintainer(context.Background(), report, "co1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "GreenWorks")
}
