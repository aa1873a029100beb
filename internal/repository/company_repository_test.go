package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newCompanyRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCompanyRepositoryEligibility(t *testing.T) {
	db, mock, cleanup := newCompanyRepoMock(t)
	defer cleanup()

	repo := NewCompanyRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM company_categories")).
		WithArgs("co1", "cat1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	eligible, err := repo.EligibleForCategory(context.Background(), "co1", "cat1")
	require.NoError(t, err)
	require.True(t, eligible)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepositoryEligibilityMissingLink(t *testing.T) {
	db, mock, cleanup := newCompanyRepoMock(t)
	defer cleanup()

	repo := NewCompanyRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM company_categories")).
		WithArgs("co1", "cat2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	eligible, err := repo.EligibleForCategory(context.Background(), "co1", "cat2")
	require.NoError(t, err)
	require.False(t, eligible)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepositoryMaintainersWithActiveCounts(t *testing.T) {
	db, mock, cleanup := newCompanyRepoMock(t)
	defer cleanup()

	repo := NewCompanyRepository(db)
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "active_report_count"}).
		AddRow("m2", "Elisa", "Fontana", 0).
		AddRow("m1", "Paolo", "Neri", 1)
	mock.ExpectQuery(regexp.QuoteMeta("r.external_maintainer_id = u.id")).
		WithArgs("co1").
		WillReturnRows(rows)

	maintainers, err := repo.MaintainersWithActiveCounts(context.Background(), "co1")
	require.NoError(t, err)
	require.Len(t, maintainers, 2)
	require.Equal(t, "m2", maintainers[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepositoryListForCategory(t *testing.T) {
	db, mock, cleanup := newCompanyRepoMock(t)
	defer cleanup()

	repo := NewCompanyRepository(db)
	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow("co1", "GreenWorks").
		AddRow("co2", "UrbanFix")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN company_categories cc")).
		WithArgs("cat1").
		WillReturnRows(rows)

	companies, err := repo.ListForCategory(context.Background(), "cat1")
	require.NoError(t, err)
	require.Len(t, companies, 2)
	require.Equal(t, "GreenWorks", companies[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
