package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
)

type coachRepository interface {
	ListAll(ctx context.Context) ([]models.Coach, error)
	FindByID(ctx context.Context, id string) (*models.Coach, error)
	Create(ctx context.Context, coach *models.Coach) error
	Update(ctx context.Context, coach *models.Coach) error
	Delete(ctx context.Context, id string) error
}

// CreateCoachRequest holds payload for registering a coach.
type CreateCoachRequest struct {
	Name         string              `json:"name" validate:"required"`
	Color        string              `json:"color"`
	Availability models.Availability `json:"availability"`
	Absences     string              `json:"absences"`
}

// UpdateCoachRequest holds a partial coach update.
type UpdateCoachRequest struct {
	Name         *string              `json:"name"`
	Color        *string              `json:"color"`
	Availability *models.Availability `json:"availability"`
	Absences     *string              `json:"absences"`
}

// CoachService handles coach use-cases.
type CoachService struct {
	repo      coachRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCoachService constructs the coach service.
func NewCoachService(repo coachRepository, validate *validator.Validate, logger *zap.Logger) *CoachService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoachService{repo: repo, validator: validate, logger: logger}
}

// List returns every coach.
func (s *CoachService) List(ctx context.Context) ([]models.Coach, error) {
	coaches, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coaches")
	}
	return coaches, nil
}

// Get returns one coach.
func (s *CoachService) Get(ctx context.Context, id string) (*models.Coach, error) {
	coach, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coach not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coach")
	}
	return coach, nil
}

// Create registers a new coach.
func (s *CoachService) Create(ctx context.Context, req CreateCoachRequest) (*models.Coach, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coach payload")
	}
	coach := &models.Coach{
		Name:         req.Name,
		Color:        req.Color,
		Availability: req.Availability,
		Absences:     req.Absences,
	}
	if err := s.repo.Create(ctx, coach); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create coach")
	}
	return coach, nil
}

// Update applies a partial update to a coach.
func (s *CoachService) Update(ctx context.Context, id string, req UpdateCoachRequest) (*models.Coach, error) {
	coach, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "coach name must not be empty")
		}
		coach.Name = *req.Name
	}
	if req.Color != nil {
		coach.Color = *req.Color
	}
	if req.Availability != nil {
		coach.Availability = *req.Availability
	}
	if req.Absences != nil {
		coach.Absences = *req.Absences
	}
	if err := s.repo.Update(ctx, coach); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coach")
	}
	return coach, nil
}

// Delete removes a coach. Sessions and students still naming it resolve the
// reference to unknown on read.
func (s *CoachService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete coach")
	}
	return nil
}
