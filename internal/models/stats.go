package models

// UnknownBucket keys statistics entries whose source date is missing or
// unparseable. Such records are bucketed explicitly so totals stay auditable.
const UnknownBucket = "unknown"

// StudentRef names a student inside a statistics drill-down list.
type StudentRef struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AcquisitionDetail lists the students behind each acquisition counter of a
// month. Each list length equals the matching counter by construction.
type AcquisitionDetail struct {
	Discoveries []StudentRef `json:"discoveries"`
	Packs       []StudentRef `json:"packs"`
	Members     []StudentRef `json:"members"`
}

// MonthStats is one month's rollup of volume, acquisition and revenue.
type MonthStats struct {
	Key                  string            `json:"key"`
	Year                 int               `json:"year"`
	Month                int               `json:"month"`
	Sessions             int               `json:"sessions"`
	LessonParticipations int               `json:"lesson_participations"`
	NewStudents          int               `json:"new_students"`
	NewPacks             int               `json:"new_packs"`
	NewMembers           int               `json:"new_members"`
	Revenue              int               `json:"revenue"`
	Detail               AcquisitionDetail `json:"detail"`
}

// YearStats sums the monthly buckets of one calendar year.
type YearStats struct {
	Year                 int `json:"year"`
	Sessions             int `json:"sessions"`
	LessonParticipations int `json:"lesson_participations"`
	NewStudents          int `json:"new_students"`
	NewPacks             int `json:"new_packs"`
	NewMembers           int `json:"new_members"`
	Revenue              int `json:"revenue"`
}
