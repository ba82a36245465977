package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
)

type sessionStoreStub struct {
	sessions map[string]models.Session
	nextID   int
}

func newSessionStoreStub(initial ...models.Session) *sessionStoreStub {
	stub := &sessionStoreStub{sessions: map[string]models.Session{}}
	for _, s := range initial {
		stub.sessions[s.ID] = s
	}
	return stub
}

func (s *sessionStoreStub) ListAll(ctx context.Context) ([]models.Session, error) {
	var out []models.Session
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (s *sessionStoreStub) ListByDateRange(ctx context.Context, from, to string) ([]models.Session, error) {
	var out []models.Session
	for _, sess := range s.sessions {
		if sess.DateStr >= from && sess.DateStr <= to {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *sessionStoreStub) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return &sess, nil
	}
	return nil, sql.ErrNoRows
}

func (s *sessionStoreStub) FindBySlot(ctx context.Context, dateStr, slot string) (*models.Session, error) {
	for _, sess := range s.sessions {
		if sess.DateStr == dateStr && sess.Slot == slot {
			found := sess
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *sessionStoreStub) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		s.nextID++
		session.ID = "sess-" + strconv.Itoa(s.nextID)
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *sessionStoreStub) ReplaceRoster(ctx context.Context, id string, coachID *string, roster []models.SessionStudent) error {
	sess := s.sessions[id]
	sess.CoachID = coachID
	sess.Students = roster
	s.sessions[id] = sess
	return nil
}

func (s *sessionStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func newSessionServiceForTest(store *sessionStoreStub, students ...models.Student) (*SessionService, *invalidatorStub) {
	stats := &invalidatorStub{}
	svc := NewSessionService(store, newStudentStoreStub(students...), stats, nil, nil)
	return svc, stats
}

func TestScheduleSessionSlotTaken(t *testing.T) {
	store := newSessionStoreStub(models.Session{ID: "x", DateStr: "2024-06-03", Slot: "18:00"})
	svc, _ := newSessionServiceForTest(store, models.Student{ID: "s1", PackageType: models.PackageContact})

	_, err := svc.Schedule(context.Background(), ScheduleSessionRequest{
		Date:     "2024-06-03",
		Slot:     "18:00",
		Students: []RosterEntry{{StudentID: "s1", Status: "proposed"}},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSlotTaken.Code, appErr.Code)
}

func TestScheduleSessionCreates(t *testing.T) {
	store := newSessionStoreStub()
	svc, stats := newSessionServiceForTest(store, models.Student{ID: "s1", PackageType: models.PackageContact})

	session, err := svc.Schedule(context.Background(), ScheduleSessionRequest{
		Date:     "2024-06-03",
		Slot:     "19:00",
		Students: []RosterEntry{{StudentID: "s1", Status: "proposed"}},
	})
	require.NoError(t, err)
	require.Len(t, session.Students, 1)
	assert.Equal(t, models.LinkProposed, session.Students[0].Status)
	assert.Equal(t, 1, stats.calls)

	_, err = svc.Schedule(context.Background(), ScheduleSessionRequest{
		Date:     "2024-06-03",
		Slot:     "20:00",
		Students: []RosterEntry{{StudentID: "s1", Status: "proposed"}},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAssignStudentPackageLimit(t *testing.T) {
	// Discovery student already holding one confirmed lesson cannot book
	// another.
	store := newSessionStoreStub(
		models.Session{ID: "past", DateStr: "2024-05-02", Slot: "18:00", Students: []models.SessionStudent{
			{StudentID: "d1", Status: models.LinkConfirmed},
		}},
		models.Session{ID: "next", DateStr: "2024-06-06", Slot: "18:00", Students: []models.SessionStudent{
			{StudentID: "other", Status: models.LinkProposed},
		}},
	)
	svc, _ := newSessionServiceForTest(store,
		models.Student{ID: "d1", PackageType: models.PackageDiscovery},
		models.Student{ID: "m1", PackageType: models.PackageMember},
	)

	_, err := svc.AssignStudent(context.Background(), "next", AssignStudentRequest{StudentID: "d1"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPackageLimit.Code, appErr.Code)

	// Members are never limited.
	session, err := svc.AssignStudent(context.Background(), "next", AssignStudentRequest{StudentID: "m1"})
	require.NoError(t, err)
	require.NotNil(t, session.Link("m1"))
	assert.Equal(t, models.LinkProposed, session.Link("m1").Status)
}

func TestAssignStudentAlreadyRosteredIsNoop(t *testing.T) {
	store := newSessionStoreStub(models.Session{ID: "x", DateStr: "2024-06-06", Slot: "18:00", Students: []models.SessionStudent{
		{StudentID: "s1", Status: models.LinkConfirmed},
	}})
	svc, stats := newSessionServiceForTest(store, models.Student{ID: "s1", PackageType: models.PackageContact})

	session, err := svc.AssignStudent(context.Background(), "x", AssignStudentRequest{StudentID: "s1"})
	require.NoError(t, err)
	require.Len(t, session.Students, 1)
	assert.Equal(t, models.LinkConfirmed, session.Students[0].Status)
	assert.Equal(t, 0, stats.calls)
}

func TestSetStudentStatus(t *testing.T) {
	store := newSessionStoreStub(models.Session{ID: "x", DateStr: "2024-06-06", Slot: "18:00", Students: []models.SessionStudent{
		{StudentID: "s1", Status: models.LinkProposed},
	}})
	svc, _ := newSessionServiceForTest(store, models.Student{ID: "s1", PackageType: models.PackageContact})

	session, err := svc.SetStudentStatus(context.Background(), "x", "s1", SetStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, models.LinkConfirmed, session.Link("s1").Status)

	_, err = svc.SetStudentStatus(context.Background(), "x", "s1", SetStatusRequest{Status: "maybe"})
	require.Error(t, err)

	_, err = svc.SetStudentStatus(context.Background(), "x", "ghost", SetStatusRequest{Status: "confirmed"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRemoveLastStudentDeletesSession(t *testing.T) {
	store := newSessionStoreStub(models.Session{ID: "x", DateStr: "2024-06-06", Slot: "18:00", Students: []models.SessionStudent{
		{StudentID: "s1", Status: models.LinkProposed},
		{StudentID: "s2", Status: models.LinkConfirmed},
	}})
	svc, _ := newSessionServiceForTest(store,
		models.Student{ID: "s1", PackageType: models.PackageContact},
		models.Student{ID: "s2", PackageType: models.PackageContact},
	)

	session, err := svc.RemoveStudent(context.Background(), "x", "s1")
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Len(t, session.Students, 1)

	session, err = svc.RemoveStudent(context.Background(), "x", "s2")
	require.NoError(t, err)
	assert.Nil(t, session)
	_, err = svc.Get(context.Background(), "x")
	require.Error(t, err)
}

func TestUpdateSessionEmptyRosterDeletes(t *testing.T) {
	store := newSessionStoreStub(models.Session{ID: "x", DateStr: "2024-06-06", Slot: "18:00", Students: []models.SessionStudent{
		{StudentID: "s1", Status: models.LinkProposed},
	}})
	svc, _ := newSessionServiceForTest(store, models.Student{ID: "s1", PackageType: models.PackageContact})

	session, err := svc.Update(context.Background(), "x", UpdateSessionRequest{Students: nil})
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, store.sessions)
}

func TestSessionMonthGrid(t *testing.T) {
	store := newSessionStoreStub(
		models.Session{ID: "a", DateStr: "2024-03-04", Slot: "18:00"},
		models.Session{ID: "b", DateStr: "2024-03-04", Slot: "19:00"},
		// Leading cell from February is part of the six week window.
		models.Session{ID: "c", DateStr: "2024-02-26", Slot: "18:00"},
	)
	svc, _ := newSessionServiceForTest(store)

	resp, err := svc.Month(context.Background(), 2024, time.March)
	require.NoError(t, err)
	require.Len(t, resp.Days, 42)
	assert.Equal(t, "2024-02-26", resp.Days[0].Date)
	assert.False(t, resp.Days[0].InMonth)
	assert.Len(t, resp.Days[0].Sessions, 1)

	for _, day := range resp.Days {
		if day.Date == "2024-03-04" {
			assert.True(t, day.InMonth)
			assert.True(t, day.ClassDay)
			assert.Len(t, day.Sessions, 2)
		}
	}
}
