package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
	"github.com/atelier-apps/atelier-admin-api/pkg/dates"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
)

type studentRepository interface {
	ListAll(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type statsInvalidator interface {
	Invalidate(ctx context.Context)
}

// CreateStudentRequest holds payload for registering a student.
type CreateStudentRequest struct {
	FirstName               string  `json:"first_name" validate:"required"`
	LastName                string  `json:"last_name"`
	Email                   string  `json:"email" validate:"omitempty,email"`
	Language                string  `json:"language"`
	MainCoachID             *string `json:"main_coach_id"`
	PackageType             string  `json:"package_type" validate:"required"`
	PackageStartDate        *string `json:"package_start_date"`
	MemberTransitionDate    *string `json:"member_transition_date"`
	ManualClassesAdjustment int     `json:"manual_classes_adjustment"`
	NeedsProposal           bool    `json:"needs_proposal"`
}

// UpdateStudentRequest holds a partial update: only supplied fields change.
type UpdateStudentRequest struct {
	FirstName               *string `json:"first_name"`
	LastName                *string `json:"last_name"`
	Email                   *string `json:"email" validate:"omitempty,email"`
	Language                *string `json:"language"`
	MainCoachID             *string `json:"main_coach_id"`
	PackageType             *string `json:"package_type"`
	PackageStartDate        *string `json:"package_start_date"`
	MemberTransitionDate    *string `json:"member_transition_date"`
	ManualClassesAdjustment *int    `json:"manual_classes_adjustment"`
	NeedsProposal           *bool   `json:"needs_proposal"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, stats: stats, validator: validate, logger: logger, now: time.Now}
}

// List returns the full roster.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student. Signing up straight onto a pack stamps the
// package start date with today so the lesson window opens immediately.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	packageType := models.PackageType(req.PackageType)
	if !packageType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown package type")
	}
	if err := validDatePtr(req.PackageStartDate); err != nil {
		return nil, err
	}
	if err := validDatePtr(req.MemberTransitionDate); err != nil {
		return nil, err
	}

	student := &models.Student{
		FirstName:               req.FirstName,
		LastName:                req.LastName,
		Email:                   req.Email,
		Language:                req.Language,
		MainCoachID:             req.MainCoachID,
		PackageType:             packageType,
		PackageStartDate:        req.PackageStartDate,
		MemberTransitionDate:    req.MemberTransitionDate,
		ManualClassesAdjustment: req.ManualClassesAdjustment,
		NeedsProposal:           req.NeedsProposal,
	}
	if packageType == models.PackagePack5 && student.PackageStartDate == nil {
		today := dates.FormatISO(s.now())
		student.PackageStartDate = &today
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.invalidate(ctx)
	return student, nil
}

// Update applies a partial update. Switching onto a pack from another tier
// resets the package start date to today unless the request supplies one.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.Language != nil {
		student.Language = *req.Language
	}
	if req.MainCoachID != nil {
		student.MainCoachID = nilIfEmpty(req.MainCoachID)
	}
	if req.PackageStartDate != nil {
		if err := validDatePtr(req.PackageStartDate); err != nil {
			return nil, err
		}
		student.PackageStartDate = nilIfEmpty(req.PackageStartDate)
	}
	if req.MemberTransitionDate != nil {
		if err := validDatePtr(req.MemberTransitionDate); err != nil {
			return nil, err
		}
		student.MemberTransitionDate = nilIfEmpty(req.MemberTransitionDate)
	}
	if req.ManualClassesAdjustment != nil {
		student.ManualClassesAdjustment = *req.ManualClassesAdjustment
	}
	if req.NeedsProposal != nil {
		student.NeedsProposal = *req.NeedsProposal
	}
	if req.PackageType != nil {
		packageType := models.PackageType(*req.PackageType)
		if !packageType.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown package type")
		}
		if packageType == models.PackagePack5 && student.PackageType != models.PackagePack5 && req.PackageStartDate == nil {
			today := dates.FormatISO(s.now())
			student.PackageStartDate = &today
		}
		student.PackageType = packageType
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidate(ctx)
	return student, nil
}

// Delete removes a student. Roster links naming the student are left behind
// and filtered defensively by readers.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.invalidate(ctx)
	return nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

func validDatePtr(raw *string) error {
	if raw == nil || *raw == "" {
		return nil
	}
	if _, ok := dates.ParseISO(*raw); !ok {
		return appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}
	return nil
}

func nilIfEmpty(raw *string) *string {
	if raw == nil || *raw == "" {
		return nil
	}
	return raw
}
