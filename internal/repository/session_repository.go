package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
)

// SessionRepository manages persistence for sessions and their rosters.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListAll returns every session with its roster attached.
func (r *SessionRepository) ListAll(ctx context.Context) ([]models.Session, error) {
	const query = `SELECT id, date_str, slot, coach_id, created_at, updated_at FROM sessions ORDER BY date_str, slot`
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	const linkQuery = `SELECT session_id, student_id, status, coach_id, position
        FROM session_students ORDER BY session_id, position`
	var links []models.SessionStudent
	if err := r.db.SelectContext(ctx, &links, linkQuery); err != nil {
		return nil, fmt.Errorf("list session rosters: %w", err)
	}

	return attachRosters(sessions, links), nil
}

// ListByDateRange returns sessions within [from, to] inclusive, with rosters.
func (r *SessionRepository) ListByDateRange(ctx context.Context, from, to string) ([]models.Session, error) {
	const query = `SELECT id, date_str, slot, coach_id, created_at, updated_at FROM sessions
        WHERE date_str >= $1 AND date_str <= $2 ORDER BY date_str, slot`
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, from, to); err != nil {
		return nil, fmt.Errorf("list sessions by range: %w", err)
	}

	const linkQuery = `SELECT ss.session_id, ss.student_id, ss.status, ss.coach_id, ss.position
        FROM session_students ss JOIN sessions s ON s.id = ss.session_id
        WHERE s.date_str >= $1 AND s.date_str <= $2 ORDER BY ss.session_id, ss.position`
	var links []models.SessionStudent
	if err := r.db.SelectContext(ctx, &links, linkQuery, from, to); err != nil {
		return nil, fmt.Errorf("list session rosters by range: %w", err)
	}

	return attachRosters(sessions, links), nil
}

// FindByID fetches one session with its roster.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, date_str, slot, coach_id, created_at, updated_at FROM sessions WHERE id = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}

	const linkQuery = `SELECT session_id, student_id, status, coach_id, position
        FROM session_students WHERE session_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &session.Students, linkQuery, id); err != nil {
		return nil, fmt.Errorf("load session roster: %w", err)
	}
	return &session, nil
}

// FindBySlot fetches the session occupying a (date, slot) pair, if any.
// Returns sql.ErrNoRows when the slot is free.
func (r *SessionRepository) FindBySlot(ctx context.Context, dateStr, slot string) (*models.Session, error) {
	const query = `SELECT id FROM sessions WHERE date_str = $1 AND slot = $2`
	var id string
	if err := r.db.GetContext(ctx, &id, query, dateStr, slot); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Create inserts a session and its roster in one transaction.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create session: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO sessions (id, date_str, slot, coach_id, created_at, updated_at)
        VALUES (:id, :date_str, :slot, :coach_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := insertRoster(ctx, tx, session.ID, session.Students); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create session: %w", err)
	}
	return nil
}

// ReplaceRoster rewrites the session coach and full roster atomically.
func (r *SessionRepository) ReplaceRoster(ctx context.Context, id string, coachID *string, roster []models.SessionStudent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace roster: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE sessions SET coach_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, id, coachID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	const clear = `DELETE FROM session_students WHERE session_id = $1`
	if _, err := tx.ExecContext(ctx, clear, id); err != nil {
		return fmt.Errorf("clear session roster: %w", err)
	}
	if err := insertRoster(ctx, tx, id, roster); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace roster: %w", err)
	}
	return nil
}

// Delete removes a session and its roster.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete session: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_students WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("delete session roster: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete session: %w", err)
	}
	return nil
}

func insertRoster(ctx context.Context, tx *sqlx.Tx, sessionID string, roster []models.SessionStudent) error {
	const query = `INSERT INTO session_students (session_id, student_id, status, coach_id, position)
        VALUES ($1, $2, $3, $4, $5)`
	for i, link := range roster {
		if _, err := tx.ExecContext(ctx, query, sessionID, link.StudentID, link.Status, link.CoachID, i); err != nil {
			return fmt.Errorf("insert roster entry: %w", err)
		}
	}
	return nil
}

func attachRosters(sessions []models.Session, links []models.SessionStudent) []models.Session {
	if len(sessions) == 0 {
		return sessions
	}
	byID := make(map[string]int, len(sessions))
	for i := range sessions {
		byID[sessions[i].ID] = i
	}
	for _, link := range links {
		if i, ok := byID[link.SessionID]; ok {
			sessions[i].Students = append(sessions[i].Students, link)
		}
	}
	return sessions
}
