package models

// PackageStatus is the derived lifecycle classification of a student's
// current package.
type PackageStatus string

const (
	// StatusActive marks a package that is open and progressing.
	StatusActive PackageStatus = "active"
	// StatusFinished marks a package whose lesson entitlement is consumed.
	StatusFinished PackageStatus = "finished"
	// StatusFuture marks a package bought but with no lesson taken yet.
	StatusFuture PackageStatus = "future"
	// StatusInactive marks a stale discovery or an inactive membership.
	StatusInactive PackageStatus = "inactive"
	// StatusExpiredActive marks an unfinished pack that went stale.
	StatusExpiredActive PackageStatus = "expired-active"
	// StatusExpiredFinished marks a finished pack left administratively open too long.
	StatusExpiredFinished PackageStatus = "expired-finished"
	// StatusUnlimited marks an active membership with no lesson cap.
	StatusUnlimited PackageStatus = "unlimited"
	// StatusNone marks tiers with no progress tracking at all.
	StatusNone PackageStatus = "none"
)

// CountedSession is one confirmed session that counts toward the student's
// current package window.
type CountedSession struct {
	Date    string  `json:"date"`
	Slot    string  `json:"slot"`
	CoachID *string `json:"coach_id,omitempty"`
}

// LessonDetail is the audit trail behind a confirmed-lesson count. The
// arithmetic always reconciles: Total == len(CountedSessions) + Adjustment.
type LessonDetail struct {
	Total           int              `json:"total"`
	Adjustment      int              `json:"adjustment"`
	CountedSessions []CountedSession `json:"counted_sessions"`
	StartDate       *string          `json:"start_date,omitempty"`
	ExcludedCount   int              `json:"excluded_count"`
}
