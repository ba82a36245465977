package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atelier-apps/atelier-admin-api/internal/dto"
	"github.com/atelier-apps/atelier-admin-api/internal/models"
	"github.com/atelier-apps/atelier-admin-api/pkg/dates"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
)

type sessionRepository interface {
	ListAll(ctx context.Context) ([]models.Session, error)
	ListByDateRange(ctx context.Context, from, to string) ([]models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	FindBySlot(ctx context.Context, dateStr, slot string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	ReplaceRoster(ctx context.Context, id string, coachID *string, roster []models.SessionStudent) error
	Delete(ctx context.Context, id string) error
}

type sessionStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// RosterEntry is one student in a session payload.
type RosterEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Status    string  `json:"status" validate:"required"`
	CoachID   *string `json:"coach_id"`
}

// ScheduleSessionRequest creates a session in an empty calendar slot.
type ScheduleSessionRequest struct {
	Date     string        `json:"date" validate:"required"`
	Slot     string        `json:"slot" validate:"required"`
	CoachID  *string       `json:"coach_id"`
	Students []RosterEntry `json:"students" validate:"min=1,dive"`
}

// UpdateSessionRequest rewrites a session's coach and roster. An empty
// roster deletes the session.
type UpdateSessionRequest struct {
	CoachID  *string       `json:"coach_id"`
	Students []RosterEntry `json:"students" validate:"dive"`
}

// AssignStudentRequest adds one student to an existing session.
type AssignStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// SetStatusRequest changes one roster link's confirmation state.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SessionService handles calendar and roster use-cases.
type SessionService struct {
	repo      sessionRepository
	students  sessionStudentReader
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs the session service.
func NewSessionService(repo sessionRepository, students sessionStudentReader, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, students: students, stats: stats, validator: validate, logger: logger}
}

// List returns every session with its roster.
func (s *SessionService) List(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// Get returns one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Month renders the 6-week calendar grid with that range's sessions attached
// to their class days.
func (s *SessionService) Month(ctx context.Context, year int, month time.Month) (*dto.CalendarMonthResponse, error) {
	grid := dates.MonthGrid(year, month)
	from, to := grid[0].ISO, grid[len(grid)-1].ISO

	sessions, err := s.repo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	byDate := make(map[string][]models.Session)
	for _, session := range sessions {
		byDate[session.DateStr] = append(byDate[session.DateStr], session)
	}

	resp := &dto.CalendarMonthResponse{
		Year:  year,
		Month: int(month),
		Slots: models.Slots,
		Days:  make([]dto.CalendarDay, 0, len(grid)),
	}
	for _, day := range grid {
		resp.Days = append(resp.Days, dto.CalendarDay{
			Date:     day.ISO,
			InMonth:  day.InMonth,
			ClassDay: dates.IsClassDay(day.Date),
			Sessions: byDate[day.ISO],
		})
	}
	return resp, nil
}

// Schedule creates a session in an empty slot with its initial roster. New
// roster links start as proposed unless the payload says otherwise.
func (s *SessionService) Schedule(ctx context.Context, req ScheduleSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if _, ok := dates.ParseISO(req.Date); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}
	if !models.ValidSlot(req.Slot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown time slot")
	}

	if _, err := s.repo.FindBySlot(ctx, req.Date, req.Slot); err == nil {
		return nil, appErrors.Clone(appErrors.ErrSlotTaken, "")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot")
	}

	roster, err := s.buildRoster(ctx, nil, req.Students)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		DateStr:  req.Date,
		Slot:     req.Slot,
		CoachID:  nilIfEmpty(req.CoachID),
		Students: roster,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.invalidate(ctx)
	return session, nil
}

// Update rewrites the session's coach and roster. Emptying the roster
// deletes the session and returns nil.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(req.Students) == 0 {
		if err := s.deleteSession(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	roster, err := s.buildRoster(ctx, session, req.Students)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceRoster(ctx, session.ID, nilIfEmpty(req.CoachID), roster); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	s.invalidate(ctx)
	return s.Get(ctx, session.ID)
}

// AssignStudent adds a student to the session roster as proposed. Assigning
// an already-rostered student is a no-op.
func (s *SessionService) AssignStudent(ctx context.Context, sessionID string, req AssignStudentRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Link(req.StudentID) != nil {
		return session, nil
	}

	if err := s.checkPackageRoom(ctx, req.StudentID); err != nil {
		return nil, err
	}

	roster := append(session.Students, models.SessionStudent{
		StudentID: req.StudentID,
		Status:    models.LinkProposed,
	})
	if err := s.repo.ReplaceRoster(ctx, session.ID, session.CoachID, roster); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign student")
	}
	s.invalidate(ctx)
	return s.Get(ctx, session.ID)
}

// SetStudentStatus changes one roster link's confirmation state.
func (s *SessionService) SetStudentStatus(ctx context.Context, sessionID, studentID string, req SetStatusRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status := models.LinkStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown roster status")
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Link(studentID) == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not on this session")
	}

	roster := make([]models.SessionStudent, len(session.Students))
	copy(roster, session.Students)
	for i := range roster {
		if roster[i].StudentID == studentID {
			roster[i].Status = status
		}
	}
	if err := s.repo.ReplaceRoster(ctx, session.ID, session.CoachID, roster); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	s.invalidate(ctx)
	return s.Get(ctx, session.ID)
}

// RemoveStudent drops a student from the roster. Removing the last student
// deletes the session.
func (s *SessionService) RemoveStudent(ctx context.Context, sessionID, studentID string) (*models.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Link(studentID) == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not on this session")
	}

	roster := make([]models.SessionStudent, 0, len(session.Students)-1)
	for _, link := range session.Students {
		if link.StudentID != studentID {
			roster = append(roster, link)
		}
	}
	if len(roster) == 0 {
		if err := s.deleteSession(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := s.repo.ReplaceRoster(ctx, session.ID, session.CoachID, roster); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}
	s.invalidate(ctx)
	return s.Get(ctx, session.ID)
}

// Delete removes a session outright.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.deleteSession(ctx, id)
}

func (s *SessionService) deleteSession(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	s.invalidate(ctx)
	return nil
}

// buildRoster validates a roster payload and applies the package-limit guard
// to students who are new to the session.
func (s *SessionService) buildRoster(ctx context.Context, current *models.Session, entries []RosterEntry) ([]models.SessionStudent, error) {
	roster := make([]models.SessionStudent, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate student in roster")
		}
		seen[entry.StudentID] = true

		status := models.LinkStatus(entry.Status)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown roster status")
		}
		if current == nil || current.Link(entry.StudentID) == nil {
			if err := s.checkPackageRoom(ctx, entry.StudentID); err != nil {
				return nil, err
			}
		}
		roster = append(roster, models.SessionStudent{
			StudentID: entry.StudentID,
			Status:    status,
			CoachID:   nilIfEmpty(entry.CoachID),
		})
	}
	return roster, nil
}

// checkPackageRoom refuses a booking when the student's tracked package has
// no lessons left. A new booking asks for one more lesson than the current
// count already holds.
func (s *SessionService) checkPackageRoom(ctx context.Context, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	limit := student.PackageType.LessonLimit()
	if limit < 0 {
		return nil
	}
	sessions, err := s.repo.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	if ConfirmedSessionCount(*student, sessions) >= limit {
		return appErrors.Clone(appErrors.ErrPackageLimit, "")
	}
	return nil
}

func (s *SessionService) invalidate(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}
