package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSessionRepositoryListAllAttachesRosters(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	sessionRows := sqlmock.NewRows([]string{"id", "date_str", "slot", "coach_id", "created_at", "updated_at"}).
		AddRow("sess1", "2024-03-04", "18:00", "c1", time.Now(), time.Now()).
		AddRow("sess2", "2024-03-04", "19:00", nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, date_str, slot, coach_id, created_at, updated_at FROM sessions ORDER BY date_str, slot").
		WillReturnRows(sessionRows)

	linkRows := sqlmock.NewRows([]string{"session_id", "student_id", "status", "coach_id", "position"}).
		AddRow("sess1", "stu1", "confirmed", nil, 0).
		AddRow("sess1", "stu2", "proposed", "c2", 1)
	mock.ExpectQuery("SELECT session_id, student_id, status, coach_id, position").
		WillReturnRows(linkRows)

	sessions, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Len(t, sessions[0].Students, 2)
	assert.Equal(t, models.LinkConfirmed, sessions[0].Students[0].Status)
	require.NotNil(t, sessions[0].Students[1].CoachID)
	assert.Equal(t, "c2", *sessions[0].Students[1].CoachID)
	assert.Empty(t, sessions[1].Students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "2024-03-04", "18:00", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO session_students").
		WithArgs(sqlmock.AnyArg(), "stu1", "proposed", nil, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	session := &models.Session{
		DateStr:  "2024-03-04",
		Slot:     "18:00",
		Students: []models.SessionStudent{{StudentID: "stu1", Status: models.LinkProposed}},
	}
	require.NoError(t, repo.Create(context.Background(), session))
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryReplaceRoster(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	coachID := "c1"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET coach_id = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("sess1", &coachID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session_students WHERE session_id = $1")).
		WithArgs("sess1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO session_students").
		WithArgs("sess1", "stu1", "confirmed", nil, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO session_students").
		WithArgs("sess1", "stu2", "proposed", nil, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	roster := []models.SessionStudent{
		{StudentID: "stu1", Status: models.LinkConfirmed},
		{StudentID: "stu2", Status: models.LinkProposed},
	}
	require.NoError(t, repo.ReplaceRoster(context.Background(), "sess1", &coachID, roster))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindBySlotFree(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM sessions WHERE date_str = $1 AND slot = $2")).
		WithArgs("2024-03-04", "18:00").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBySlot(context.Background(), "2024-03-04", "18:00")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session_students WHERE session_id = $1")).
		WithArgs("sess1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("sess1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "sess1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
