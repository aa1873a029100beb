package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newOfficeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOfficeRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newOfficeRepoMock(t)
	defer cleanup()

	repo := NewOfficeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM technical_offices")).
		WithArgs("off1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("off1", "Road Maintenance"))

	office, err := repo.FindByID(context.Background(), "off1")
	require.NoError(t, err)
	require.Equal(t, "Road Maintenance", office.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfficeRepositoryStaffWithActiveCounts(t *testing.T) {
	db, mock, cleanup := newOfficeRepoMock(t)
	defer cleanup()

	repo := NewOfficeRepository(db)
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "active_report_count"}).
		AddRow("u2", "Anna", "Bianchi", 2).
		AddRow("u1", "Mario", "Rossi", 2).
		AddRow("u3", "Luca", "Verdi", 7)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(r.id) FILTER")).
		WithArgs("off1").
		WillReturnRows(rows)

	staff, err := repo.StaffWithActiveCounts(context.Background(), "off1")
	require.NoError(t, err)
	require.Len(t, staff, 3)
	require.Equal(t, "u2", staff[0].ID)
	require.Equal(t, 2, staff[0].ActiveReportCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfficeRepositoryStaffEmptyOffice(t *testing.T) {
	db, mock, cleanup := newOfficeRepoMock(t)
	defer cleanup()

	repo := NewOfficeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(r.id) FILTER")).
		WithArgs("off-empty").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "active_report_count"}))

	staff, err := repo.StaffWithActiveCounts(context.Background(), "off-empty")
	require.NoError(t, err)
	require.Empty(t, staff)
	require.NoError(t, mock.ExpectationsWereMet())
}
