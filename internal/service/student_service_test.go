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

type studentStoreStub struct {
	students map[string]models.Student
	nextID   int
}

func newStudentStoreStub(initial ...models.Student) *studentStoreStub {
	stub := &studentStoreStub{students: map[string]models.Student{}}
	for _, s := range initial {
		stub.students[s.ID] = s
	}
	return stub
}

func (s *studentStoreStub) ListAll(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	for _, st := range s.students {
		out = append(out, st)
	}
	return out, nil
}

func (s *studentStoreStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := s.students[id]; ok {
		return &st, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentStoreStub) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		s.nextID++
		student.ID = "gen-" + strconv.Itoa(s.nextID)
	}
	s.students[student.ID] = *student
	return nil
}

func (s *studentStoreStub) Update(ctx context.Context, student *models.Student) error {
	s.students[student.ID] = *student
	return nil
}

func (s *studentStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.students, id)
	return nil
}

type invalidatorStub struct {
	calls int
}

func (i *invalidatorStub) Invalidate(ctx context.Context) { i.calls++ }

func TestStudentCreateStampsPackStartDate(t *testing.T) {
	store := newStudentStoreStub()
	stats := &invalidatorStub{}
	svc := NewStudentService(store, stats, nil, nil)
	svc.now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FirstName:   "Ana",
		PackageType: "pack5",
	})
	require.NoError(t, err)
	require.NotNil(t, student.PackageStartDate)
	assert.Equal(t, "2024-06-01", *student.PackageStartDate)
	assert.Equal(t, 1, stats.calls)

	// An explicit start date is kept.
	student, err = svc.Create(context.Background(), CreateStudentRequest{
		FirstName:        "Ben",
		PackageType:      "pack5",
		PackageStartDate: strPtr("2024-05-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", *student.PackageStartDate)

	// Other tiers get no stamp.
	student, err = svc.Create(context.Background(), CreateStudentRequest{
		FirstName:   "Cleo",
		PackageType: "discovery",
	})
	require.NoError(t, err)
	assert.Nil(t, student.PackageStartDate)
}

func TestStudentCreateRejectsBadPayload(t *testing.T) {
	svc := NewStudentService(newStudentStoreStub(), nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{FirstName: "Ana", PackageType: "gold"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Create(context.Background(), CreateStudentRequest{
		FirstName:        "Ana",
		PackageType:      "pack5",
		PackageStartDate: strPtr("01/02/2024"),
	})
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentUpdateIsPartial(t *testing.T) {
	store := newStudentStoreStub(models.Student{
		ID:          "s1",
		FirstName:   "Ana",
		LastName:    "Blanc",
		Email:       "ana@example.com",
		PackageType: models.PackageDiscovery,
	})
	svc := NewStudentService(store, nil, nil, nil)

	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{
		LastName: strPtr("Moreau"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.FirstName)
	assert.Equal(t, "Moreau", updated.LastName)
	assert.Equal(t, "ana@example.com", updated.Email)
	assert.Equal(t, models.PackageDiscovery, updated.PackageType)
}

func TestStudentUpdatePackSwitchResetsStartDate(t *testing.T) {
	store := newStudentStoreStub(models.Student{
		ID:          "s1",
		FirstName:   "Ana",
		PackageType: models.PackageDiscovery,
	})
	svc := NewStudentService(store, nil, nil, nil)
	svc.now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{
		PackageType: strPtr("pack5"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.PackageStartDate)
	assert.Equal(t, "2024-06-01", *updated.PackageStartDate)

	// Already on a pack: a later unrelated update leaves the date alone.
	updated, err = svc.Update(context.Background(), "s1", UpdateStudentRequest{
		PackageType: strPtr("pack5"),
		FirstName:   strPtr("Anna"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", *updated.PackageStartDate)

	// A supplied date wins over the stamp.
	store.students["s2"] = models.Student{ID: "s2", FirstName: "Ben", PackageType: models.PackageContact}
	updated, err = svc.Update(context.Background(), "s2", UpdateStudentRequest{
		PackageType:      strPtr("pack5"),
		PackageStartDate: strPtr("2024-04-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-15", *updated.PackageStartDate)
}

func TestStudentUpdateNotFound(t *testing.T) {
	svc := NewStudentService(newStudentStoreStub(), nil, nil, nil)

	_, err := svc.Update(context.Background(), "ghost", UpdateStudentRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentDelete(t *testing.T) {
	store := newStudentStoreStub(models.Student{ID: "s1", FirstName: "Ana", PackageType: models.PackageContact})
	stats := &invalidatorStub{}
	svc := NewStudentService(store, stats, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Equal(t, 1, stats.calls)

	err := svc.Delete(context.Background(), "s1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
