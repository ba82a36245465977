package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
)

func newCoachRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCoachRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newCoachRepoMock(t)
	defer cleanup()
	repo := NewCoachRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "color", "availability", "absences", "created_at", "updated_at"}).
		AddRow("c1", "Marie", "#e11d48", []byte(`{"Mon":true,"Sat":true}`), "", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, name, color, availability, absences, created_at, updated_at FROM coaches ORDER BY name").
		WillReturnRows(rows)

	coaches, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, coaches, 1)
	assert.True(t, coaches[0].Availability["Mon"])
	assert.False(t, coaches[0].Availability["Thu"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoachRepositoryCreateDefaultsAvailability(t *testing.T) {
	db, mock, cleanup := newCoachRepoMock(t)
	defer cleanup()
	repo := NewCoachRepository(db)

	mock.ExpectExec("INSERT INTO coaches").
		WithArgs(sqlmock.AnyArg(), "Marie", "#e11d48", sqlmock.AnyArg(), "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	coach := &models.Coach{Name: "Marie", Color: "#e11d48"}
	require.NoError(t, repo.Create(context.Background(), coach))
	assert.NotNil(t, coach.Availability)
	assert.NoError(t, mock.ExpectationsWereMet())
}
