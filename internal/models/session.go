package models

import "time"

// LinkStatus is the per-student confirmation state within a session roster.
type LinkStatus string

const (
	LinkProposed  LinkStatus = "proposed"
	LinkConfirmed LinkStatus = "confirmed"
	LinkCancelled LinkStatus = "cancelled"
)

// Valid reports whether the value is a known roster status.
func (s LinkStatus) Valid() bool {
	switch s {
	case LinkProposed, LinkConfirmed, LinkCancelled:
		return true
	}
	return false
}

// Slots are the two fixed daily lesson slots.
var Slots = []string{"18:00", "19:00"}

// ValidSlot reports whether the token is one of the fixed daily slots.
func ValidSlot(slot string) bool {
	for _, s := range Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// SessionStudent is one roster entry linking a student to a session. The
// link-level coach overrides the session default for that student only.
type SessionStudent struct {
	SessionID string     `db:"session_id" json:"-"`
	StudentID string     `db:"student_id" json:"student_id"`
	Status    LinkStatus `db:"status" json:"status"`
	CoachID   *string    `db:"coach_id" json:"coach_id,omitempty"`
	Position  int        `db:"position" json:"-"`
}

// Session is one scheduled lesson slot on a calendar day. At most one session
// exists per (date, slot) pair; a session with an empty roster is deleted.
type Session struct {
	ID        string           `db:"id" json:"id"`
	DateStr   string           `db:"date_str" json:"date"`
	Slot      string           `db:"slot" json:"slot"`
	CoachID   *string          `db:"coach_id" json:"coach_id,omitempty"`
	Students  []SessionStudent `db:"-" json:"students"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Link returns the roster entry for the given student, or nil.
func (s *Session) Link(studentID string) *SessionStudent {
	for i := range s.Students {
		if s.Students[i].StudentID == studentID {
			return &s.Students[i]
		}
	}
	return nil
}

// CoachFor resolves the coach for a roster entry: the link override wins over
// the session default.
func (s *Session) CoachFor(link SessionStudent) *string {
	if link.CoachID != nil && *link.CoachID != "" {
		return link.CoachID
	}
	if s.CoachID != nil && *s.CoachID != "" {
		return s.CoachID
	}
	return nil
}
