package dto

import "github.com/atelier-apps/atelier-admin-api/internal/models"

// CalendarDay is one grid cell with the sessions hosted on it. Sessions are
// only attached to class days (Mon/Thu/Sat) inside the requested month.
type CalendarDay struct {
	Date     string           `json:"date"`
	InMonth  bool             `json:"in_month"`
	ClassDay bool             `json:"class_day"`
	Sessions []models.Session `json:"sessions,omitempty"`
}

// CalendarMonthResponse is the 6-week grid for one month.
type CalendarMonthResponse struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Slots []string      `json:"slots"`
	Days  []CalendarDay `json:"days"`
}
