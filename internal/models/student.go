package models

import "time"

// PackageType is the closed set of billing tiers a student can hold.
type PackageType string

const (
	PackageContact        PackageType = "contact"
	PackageDiscovery      PackageType = "discovery"
	PackagePack5          PackageType = "pack5"
	PackageMember         PackageType = "member"
	PackageMemberInactive PackageType = "member_inactive"
)

// Valid reports whether the value is one of the known tiers.
func (p PackageType) Valid() bool {
	switch p {
	case PackageContact, PackageDiscovery, PackagePack5, PackageMember, PackageMemberInactive:
		return true
	}
	return false
}

// LessonLimit returns the number of lessons the tier entitles, or -1 when the
// tier is unlimited or untracked.
func (p PackageType) LessonLimit() int {
	switch p {
	case PackageDiscovery:
		return 1
	case PackagePack5:
		return 5
	}
	return -1
}

// Student represents a learner registered at the center. Package dates are
// stored as ISO YYYY-MM-DD strings; the accounting engine compares them
// lexicographically against session dates.
type Student struct {
	ID                      string      `db:"id" json:"id"`
	FirstName               string      `db:"first_name" json:"first_name"`
	LastName                string      `db:"last_name" json:"last_name"`
	Email                   string      `db:"email" json:"email"`
	Language                string      `db:"language" json:"language"`
	MainCoachID             *string     `db:"main_coach_id" json:"main_coach_id,omitempty"`
	PackageType             PackageType `db:"package_type" json:"package_type"`
	PackageStartDate        *string     `db:"package_start_date" json:"package_start_date,omitempty"`
	MemberTransitionDate    *string     `db:"member_transition_date" json:"member_transition_date,omitempty"`
	ManualClassesAdjustment int         `db:"manual_classes_adjustment" json:"manual_classes_adjustment"`
	NeedsProposal           bool        `db:"needs_proposal" json:"needs_proposal"`
	CreatedAt               time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time   `db:"updated_at" json:"updated_at"`
}
