package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-apps/atelier-admin-api/internal/dto"
	"github.com/atelier-apps/atelier-admin-api/internal/models"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
)

type accountingStudentRepo interface {
	ListAll(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdatePackageStartDate(ctx context.Context, id string, date *string) error
}

type accountingSessionRepo interface {
	ListAll(ctx context.Context) ([]models.Session, error)
}

type accountingCoachRepo interface {
	ListAll(ctx context.Context) ([]models.Coach, error)
}

// AccountingService exposes the derivation core over the persisted entity
// collections. Every query loads a fresh snapshot and hands it to the pure
// engine functions.
type AccountingService struct {
	students accountingStudentRepo
	sessions accountingSessionRepo
	coaches  accountingCoachRepo
	logger   *zap.Logger
	now      func() time.Time
}

// NewAccountingService constructs AccountingService.
func NewAccountingService(students accountingStudentRepo, sessions accountingSessionRepo, coaches accountingCoachRepo, logger *zap.Logger) *AccountingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountingService{
		students: students,
		sessions: sessions,
		coaches:  coaches,
		logger:   logger,
		now:      time.Now,
	}
}

// Snapshot loads the full entity state the engine derives from.
func (s *AccountingService) Snapshot(ctx context.Context) (models.Snapshot, error) {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return models.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return models.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	snap := models.Snapshot{Students: students, Sessions: sessions}
	if s.coaches != nil {
		coaches, err := s.coaches.ListAll(ctx)
		if err != nil {
			return models.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coaches")
		}
		snap.Coaches = coaches
	}
	return snap, nil
}

func (s *AccountingService) studentWithSessions(ctx context.Context, studentID string) (*models.Student, []models.Session, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	return student, sessions, nil
}

// ConfirmedSessionCount returns one student's lesson count within the
// current package window.
func (s *AccountingService) ConfirmedSessionCount(ctx context.Context, studentID string) (int, error) {
	student, sessions, err := s.studentWithSessions(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return ConfirmedSessionCount(*student, sessions), nil
}

// LessonDetail returns the audit trail behind one student's lesson count.
func (s *AccountingService) LessonDetail(ctx context.Context, studentID string) (*models.LessonDetail, error) {
	student, sessions, err := s.studentWithSessions(ctx, studentID)
	if err != nil {
		return nil, err
	}
	detail := LessonDetailFor(*student, sessions)
	return &detail, nil
}

// PackageStatus reports one student's derived package state and roster rank.
func (s *AccountingService) PackageStatus(ctx context.Context, studentID string) (*dto.PackageStatusResponse, error) {
	student, sessions, err := s.studentWithSessions(ctx, studentID)
	if err != nil {
		return nil, err
	}
	today := s.now()
	return &dto.PackageStatusResponse{
		StudentID: student.ID,
		Status:    PackageStatusFor(*student, sessions, today),
		Priority:  SortPriorityFor(*student, sessions, today),
	}, nil
}

// Overview returns the full roster in triage order, each row annotated with
// progress and status.
func (s *AccountingService) Overview(ctx context.Context) ([]dto.StudentOverview, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now()
	sorted := SortStudents(snap.Students, snap.Sessions, today)

	overview := make([]dto.StudentOverview, 0, len(sorted))
	for _, student := range sorted {
		overview = append(overview, dto.StudentOverview{
			Student:     student,
			LessonCount: ConfirmedSessionCount(student, snap.Sessions),
			LessonLimit: student.PackageType.LessonLimit(),
			Status:      PackageStatusFor(student, snap.Sessions, today),
			Priority:    SortPriorityFor(student, snap.Sessions, today),
		})
	}
	return overview, nil
}

// PlanningTriage partitions upcoming roster links for the scheduling view.
func (s *AccountingService) PlanningTriage(ctx context.Context) (*models.PlanningTriage, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	triage := BuildPlanningTriage(snap, s.now())
	return &triage, nil
}

// RepairPackageDates recomputes every non-member student's package start date
// from session history and persists the ones that changed. The run is
// sequential and best-effort: a failed write is recorded and the batch moves
// on, already-applied writes stay.
func (s *AccountingService) RepairPackageDates(ctx context.Context) (*models.RepairResult, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.RepairResult{}
	for _, student := range snap.Students {
		if student.PackageType == models.PackageMember {
			continue
		}
		inferred := InferredStartDate(student, snap.Sessions)
		if equalDate(inferred, student.PackageStartDate) {
			continue
		}
		if err := s.students.UpdatePackageStartDate(ctx, student.ID, inferred); err != nil {
			s.logger.Warn("package date repair write failed",
				zap.String("student_id", student.ID),
				zap.Error(err))
			result.FailedIDs = append(result.FailedIDs, student.ID)
			continue
		}
		result.UpdatedCount++
	}

	s.logger.Info("package date repair completed",
		zap.Int("updated", result.UpdatedCount),
		zap.Int("failed", len(result.FailedIDs)))
	return result, nil
}

func equalDate(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
