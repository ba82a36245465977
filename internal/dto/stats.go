package dto

import "github.com/atelier-apps/atelier-admin-api/internal/models"

// MonthlyStatsResponse carries one year's monthly rollups. Unknown holds the
// bucket for records without a usable date; it is year-independent and only
// attached so the caller can audit totals.
type MonthlyStatsResponse struct {
	Year    int                 `json:"year"`
	Months  []models.MonthStats `json:"months"`
	Unknown *models.MonthStats  `json:"unknown,omitempty"`
}

// YearlyStatsResponse carries the all-time yearly rollups.
type YearlyStatsResponse struct {
	Years   []models.YearStats `json:"years"`
	Unknown *models.YearStats  `json:"unknown,omitempty"`
}
