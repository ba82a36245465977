package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "language", "main_coach_id", "package_type",
		"package_start_date", "member_transition_date", "manual_classes_adjustment", "needs_proposal",
		"created_at", "updated_at",
	}).
		AddRow("s1", "Alice", "Moreau", "alice@example.com", "fr", nil, "pack5", "2024-01-05", nil, 0, false, time.Now(), time.Now()).
		AddRow("s2", "Bruno", "Keller", "bruno@example.com", "en", nil, "discovery", nil, nil, 1, true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM students ORDER BY created_at").WillReturnRows(rows)

	students, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, models.PackagePack5, students[0].PackageType)
	require.NotNil(t, students[0].PackageStartDate)
	assert.Equal(t, "2024-01-05", *students[0].PackageStartDate)
	assert.True(t, students[1].NeedsProposal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "Alice", "Moreau", "alice@example.com", "fr", nil, "contact",
			nil, nil, 0, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{
		FirstName:   "Alice",
		LastName:    "Moreau",
		Email:       "alice@example.com",
		Language:    "fr",
		PackageType: models.PackageContact,
	}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.False(t, student.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdatePackageStartDate(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	date := "2024-02-10"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET package_start_date = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("s1", &date, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdatePackageStartDate(context.Background(), "s1", &date))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET package_start_date = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("s2", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdatePackageStartDate(context.Background(), "s2", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
