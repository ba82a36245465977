package dto

import "github.com/atelier-apps/atelier-admin-api/internal/models"

// StudentOverview is one row of the triage-ordered roster view.
type StudentOverview struct {
	Student     models.Student       `json:"student"`
	LessonCount int                  `json:"lesson_count"`
	LessonLimit int                  `json:"lesson_limit"`
	Status      models.PackageStatus `json:"status"`
	Priority    int                  `json:"priority"`
}

// PackageStatusResponse reports a single student's derived package state.
type PackageStatusResponse struct {
	StudentID string               `json:"student_id"`
	Status    models.PackageStatus `json:"status"`
	Priority  int                  `json:"priority"`
}
