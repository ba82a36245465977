package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
)

type coachStoreStub struct {
	coaches map[string]*models.Coach
	nextID  int
}

func newCoachStoreStub(coaches ...*models.Coach) *coachStoreStub {
	s := &coachStoreStub{coaches: map[string]*models.Coach{}}
	for _, c := range coaches {
		s.coaches[c.ID] = c
	}
	return s
}

func (s *coachStoreStub) ListAll(ctx context.Context) ([]models.Coach, error) {
	out := make([]models.Coach, 0, len(s.coaches))
	for _, c := range s.coaches {
		out = append(out, *c)
	}
	return out, nil
}

func (s *coachStoreStub) FindByID(ctx context.Context, id string) (*models.Coach, error) {
	c, ok := s.coaches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (s *coachStoreStub) Create(ctx context.Context, coach *models.Coach) error {
	s.nextID++
	coach.ID = "coach-" + strconv.Itoa(s.nextID)
	s.coaches[coach.ID] = coach
	return nil
}

func (s *coachStoreStub) Update(ctx context.Context, coach *models.Coach) error {
	s.coaches[coach.ID] = coach
	return nil
}

func (s *coachStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.coaches, id)
	return nil
}

func TestCoachServiceCreateRequiresName(t *testing.T) {
	svc := NewCoachService(newCoachStoreStub(), nil, nil)

	_, err := svc.Create(context.Background(), CreateCoachRequest{Color: "#d33"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCoachServiceUpdatePartial(t *testing.T) {
	store := newCoachStoreStub(&models.Coach{
		ID:           "c1",
		Name:         "Marta",
		Color:        "#2a9",
		Availability: models.Availability{"Mon": true},
	})
	svc := NewCoachService(store, nil, nil)

	color := "#e67"
	updated, err := svc.Update(context.Background(), "c1", UpdateCoachRequest{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "Marta", updated.Name)
	assert.Equal(t, "#e67", updated.Color)
	assert.True(t, updated.Availability["Mon"])

	empty := ""
	_, err = svc.Update(context.Background(), "c1", UpdateCoachRequest{Name: &empty})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCoachServiceDeleteNotFound(t *testing.T) {
	svc := NewCoachService(newCoachStoreStub(), nil, nil)

	err := svc.Delete(context.Background(), "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
