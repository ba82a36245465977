package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
)

// CoachRepository manages persistence for coach records.
type CoachRepository struct {
	db *sqlx.DB
}

// NewCoachRepository constructs a CoachRepository.
func NewCoachRepository(db *sqlx.DB) *CoachRepository {
	return &CoachRepository{db: db}
}

// ListAll returns every coach ordered by name.
func (r *CoachRepository) ListAll(ctx context.Context) ([]models.Coach, error) {
	const query = `SELECT id, name, color, availability, absences, created_at, updated_at FROM coaches ORDER BY name`
	var coaches []models.Coach
	if err := r.db.SelectContext(ctx, &coaches, query); err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}
	return coaches, nil
}

// FindByID fetches a coach by ID.
func (r *CoachRepository) FindByID(ctx context.Context, id string) (*models.Coach, error) {
	const query = `SELECT id, name, color, availability, absences, created_at, updated_at FROM coaches WHERE id = $1`
	var coach models.Coach
	if err := r.db.GetContext(ctx, &coach, query, id); err != nil {
		return nil, err
	}
	return &coach, nil
}

// Create inserts a new coach record.
func (r *CoachRepository) Create(ctx context.Context, coach *models.Coach) error {
	if coach.ID == "" {
		coach.ID = uuid.NewString()
	}
	if coach.Availability == nil {
		coach.Availability = models.Availability{}
	}
	now := time.Now().UTC()
	if coach.CreatedAt.IsZero() {
		coach.CreatedAt = now
	}
	coach.UpdatedAt = now
	const query = `INSERT INTO coaches (id, name, color, availability, absences, created_at, updated_at)
        VALUES (:id, :name, :color, :availability, :absences, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, coach); err != nil {
		return fmt.Errorf("create coach: %w", err)
	}
	return nil
}

// Update rewrites an existing coach.
func (r *CoachRepository) Update(ctx context.Context, coach *models.Coach) error {
	coach.UpdatedAt = time.Now().UTC()
	const query = `UPDATE coaches SET name = :name, color = :color, availability = :availability,
        absences = :absences, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, coach); err != nil {
		return fmt.Errorf("update coach: %w", err)
	}
	return nil
}

// Delete removes a coach. Sessions and students referencing it keep their
// dangling ids; readers resolve those to "unknown".
func (r *CoachRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM coaches WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete coach: %w", err)
	}
	return nil
}
