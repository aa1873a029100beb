package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/participium/participium-api/internal/models"
)

func newReportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func reportRows(id string, status models.ReportStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "latitude", "longitude", "address", "anonymous", "photos",
		"status", "rejection_reason", "reporter_id", "category_id", "technical_officer_id",
		"external_maintainer_id", "company_id", "created_at", "updated_at",
	}).AddRow(id, "Pothole", "Deep pothole on main street", 45.07, 7.68, nil, false, "{}",
		status, nil, "c1", "cat1", nil, nil, nil, time.Now(), time.Now())
}

func TestReportRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.Report{
		Title:       "Pothole",
		Description: "Deep pothole on main street",
		Latitude:    45.07,
		Longitude:   7.68,
		Status:      models.StatusPendingApproval,
		ReporterID:  "c1",
		CategoryID:  "cat1",
	}
	require.NoError(t, repo.Create(context.Background(), report))
	require.NotEmpty(t, report.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description")).
		WithArgs("r1").
		WillReturnRows(reportRows("r1", models.StatusPendingApproval))

	report, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, "r1", report.ID)
	require.Equal(t, models.StatusPendingApproval, report.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description")).
		WithArgs("PENDING_APPROVAL", "cat1").
		WillReturnRows(reportRows("r1", models.StatusPendingApproval))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("PENDING_APPROVAL", "cat1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.StatusPendingApproval
	reports, total, err := repo.List(context.Background(), models.ReportFilter{
		Status:     &status,
		CategoryID: "cat1",
	})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryConditionalUpdate(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET")).
		WithArgs("ASSIGNED", "u2", sqlmock.AnyArg(), "r1", "PENDING_APPROVAL").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.StatusAssigned
	expected := models.StatusPendingApproval
	officer := "u2"
	err := repo.Update(context.Background(), "r1", models.ReportPatch{
		Status:             &status,
		TechnicalOfficerID: &officer,
		ExpectedStatus:     &expected,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryConditionalUpdateStaleSnapshot(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	status := models.StatusRejected
	expected := models.StatusPendingApproval
	reason := "duplicate"
	err := repo.Update(context.Background(), "r1", models.ReportPatch{
		Status:          &status,
		RejectionReason: &reason,
		ExpectedStatus:  &expected,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryClearRejectionReason(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("rejection_reason = NULL")).
		WithArgs("ASSIGNED", sqlmock.AnyArg(), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.StatusAssigned
	err := repo.Update(context.Background(), "r1", models.ReportPatch{
		Status:               &status,
		ClearRejectionReason: true,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryEmptyPatchIsNoop(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	require.NoError(t, repo.Update(context.Background(), "r1", models.ReportPatch{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
