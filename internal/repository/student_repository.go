package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
)

const studentColumns = `id, first_name, last_name, email, language, main_coach_id, package_type,
        package_start_date, member_transition_date, manual_classes_adjustment, needs_proposal, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListAll returns every student ordered by creation time. The roster is small
// enough that derivations always work from the full collection.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students ORDER BY created_at", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, first_name, last_name, email, language, main_coach_id, package_type,
        package_start_date, member_transition_date, manual_classes_adjustment, needs_proposal, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :email, :language, :main_coach_id, :package_type,
        :package_start_date, :member_transition_date, :manual_classes_adjustment, :needs_proposal, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update rewrites an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, email = :email,
        language = :language, main_coach_id = :main_coach_id, package_type = :package_type,
        package_start_date = :package_start_date, member_transition_date = :member_transition_date,
        manual_classes_adjustment = :manual_classes_adjustment, needs_proposal = :needs_proposal,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdatePackageStartDate rewrites only the package start date. Used by the
// repair routine so a batch run touches nothing else on the record.
func (r *StudentRepository) UpdatePackageStartDate(ctx context.Context, id string, date *string) error {
	const query = `UPDATE students SET package_start_date = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, date, time.Now().UTC()); err != nil {
		return fmt.Errorf("update package start date: %w", err)
	}
	return nil
}

// Delete removes a student. Session roster links referencing the student are
// left in place and filtered defensively by readers.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
