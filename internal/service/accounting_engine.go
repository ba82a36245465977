package service

import (
	"sort"
	"strings"
	"time"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
	"github.com/atelier-apps/atelier-admin-api/pkg/dates"
)

// The functions in this file are the pure derivation core. They read a
// snapshot passed by the caller and never touch the store, so every result is
// deterministic for a given (snapshot, today) pair.

// countedSessionsFor collects the confirmed sessions that fall inside the
// student's current package window, sorted ascending by date then slot. The
// window opens at the stored package start date; a nil start means no filter.
// The second return value is the number of confirmed sessions excluded for
// predating the window.
func countedSessionsFor(student models.Student, sessions []models.Session) ([]models.CountedSession, int) {
	start := ""
	if student.PackageStartDate != nil {
		start = *student.PackageStartDate
	}

	var counted []models.CountedSession
	excluded := 0
	for i := range sessions {
		link := sessions[i].Link(student.ID)
		if link == nil || link.Status != models.LinkConfirmed {
			continue
		}
		if start != "" && sessions[i].DateStr < start {
			excluded++
			continue
		}
		counted = append(counted, models.CountedSession{
			Date:    sessions[i].DateStr,
			Slot:    sessions[i].Slot,
			CoachID: sessions[i].CoachFor(*link),
		})
	}

	sort.Slice(counted, func(a, b int) bool {
		if counted[a].Date != counted[b].Date {
			return counted[a].Date < counted[b].Date
		}
		return counted[a].Slot < counted[b].Slot
	})
	return counted, excluded
}

// ConfirmedSessionCount returns the student's lesson count within the current
// package window, manual adjustment included. The result may be negative; a
// negative total is a data-quality signal and is deliberately not clamped.
func ConfirmedSessionCount(student models.Student, sessions []models.Session) int {
	counted, _ := countedSessionsFor(student, sessions)
	return len(counted) + student.ManualClassesAdjustment
}

// LessonDetailFor returns the audit trail behind ConfirmedSessionCount.
// Total always equals len(CountedSessions) + Adjustment.
func LessonDetailFor(student models.Student, sessions []models.Session) models.LessonDetail {
	counted, excluded := countedSessionsFor(student, sessions)
	return models.LessonDetail{
		Total:           len(counted) + student.ManualClassesAdjustment,
		Adjustment:      student.ManualClassesAdjustment,
		CountedSessions: counted,
		StartDate:       student.PackageStartDate,
		ExcludedCount:   excluded,
	}
}

// InferredStartDate recomputes the package start date from the full confirmed
// history, ignoring any stored override. The first confirmed session ever is
// treated as a standalone discovery lesson, so with two or more sessions the
// window opens at the second one. A single session opens it there; no
// sessions means no package has begun.
func InferredStartDate(student models.Student, sessions []models.Session) *string {
	history := student
	history.PackageStartDate = nil
	counted, _ := countedSessionsFor(history, sessions)

	switch {
	case len(counted) >= 2:
		d := counted[1].Date
		return &d
	case len(counted) == 1:
		d := counted[0].Date
		return &d
	}
	return nil
}

// EffectiveStartDate resolves the date from which confirmed sessions count
// toward the current package. A stored override always wins; otherwise the
// date is inferred from history.
func EffectiveStartDate(student models.Student, sessions []models.Session) *string {
	if student.PackageStartDate != nil && *student.PackageStartDate != "" {
		return student.PackageStartDate
	}
	return InferredStartDate(student, sessions)
}

// PackageStatusFor classifies the student's current package lifecycle as of
// the given day. Unfinished packages stale after 3 months, finished packs
// after 5: an abandoned package needs follow-up sooner than a completed one
// awaiting closure.
func PackageStatusFor(student models.Student, sessions []models.Session, today time.Time) models.PackageStatus {
	switch student.PackageType {
	case models.PackageMember:
		return models.StatusUnlimited
	case models.PackageMemberInactive:
		return models.StatusInactive
	case models.PackageContact:
		return models.StatusNone
	case models.PackageDiscovery:
		return discoveryStatus(student, sessions, today)
	case models.PackagePack5:
		return pack5Status(student, sessions, today)
	}
	return models.StatusNone
}

func discoveryStatus(student models.Student, sessions []models.Session, today time.Time) models.PackageStatus {
	counted, _ := countedSessionsFor(student, sessions)
	todayISO := dates.FormatISO(today)

	// Most recent counted session already taken. Unparseable dates are left
	// out of the comparison entirely.
	last := time.Time{}
	seen := false
	for _, c := range counted {
		if c.Date >= todayISO {
			continue
		}
		t, ok := dates.ParseISO(c.Date)
		if !ok {
			continue
		}
		if !seen || t.After(last) {
			last = t
			seen = true
		}
	}
	if !seen {
		return models.StatusFuture
	}
	if dates.MonthsBefore(last, today, 3) {
		return models.StatusInactive
	}
	return models.StatusFinished
}

func pack5Status(student models.Student, sessions []models.Session, today time.Time) models.PackageStatus {
	counted, _ := countedSessionsFor(student, sessions)
	todayISO := dates.FormatISO(today)

	pastCount := 0
	for _, c := range counted {
		if c.Date < todayISO {
			pastCount++
		}
	}

	start, hasStart := time.Time{}, false
	if s := EffectiveStartDate(student, sessions); s != nil {
		start, hasStart = dates.ParseISO(*s)
	}

	if pastCount >= models.PackagePack5.LessonLimit() {
		if hasStart && dates.MonthsBefore(start, today, 5) {
			return models.StatusExpiredFinished
		}
		return models.StatusFinished
	}
	if hasStart && dates.MonthsBefore(start, today, 3) {
		return models.StatusExpiredActive
	}
	return models.StatusActive
}

// SortPriorityFor ranks a student for the roster view, ascending. Members
// lead, actionable packs and discoveries follow, inactive tiers close, and
// anything date-expired or stale sinks below all normal tiers.
func SortPriorityFor(student models.Student, sessions []models.Session, today time.Time) int {
	switch student.PackageType {
	case models.PackageMember:
		return 1
	case models.PackagePack5:
		switch pack5Status(student, sessions, today) {
		case models.StatusExpiredActive, models.StatusExpiredFinished:
			return 8
		case models.StatusFinished:
			if EffectiveStartDate(student, sessions) != nil {
				return 2
			}
			return 3
		}
		return 3
	case models.PackageDiscovery:
		switch discoveryStatus(student, sessions, today) {
		case models.StatusInactive:
			return 9
		case models.StatusFinished:
			return 4
		}
		return 5
	case models.PackageContact:
		return 6
	case models.PackageMemberInactive:
		return 7
	}
	return 9
}

// SortStudents returns the roster ordered by priority, ties broken by
// case-insensitive first name. The input slice is not mutated.
func SortStudents(students []models.Student, sessions []models.Session, today time.Time) []models.Student {
	sorted := make([]models.Student, len(students))
	copy(sorted, students)

	ranks := make(map[string]int, len(sorted))
	for _, s := range sorted {
		ranks[s.ID] = SortPriorityFor(s, sessions, today)
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		ra, rb := ranks[sorted[a].ID], ranks[sorted[b].ID]
		if ra != rb {
			return ra < rb
		}
		return strings.ToLower(sorted[a].FirstName) < strings.ToLower(sorted[b].FirstName)
	})
	return sorted
}

// BuildPlanningTriage partitions upcoming work for the scheduling sidebar.
// Future roster links land in one of three tiers; a student appears at most
// once per tier but may appear in several. Links naming an unknown student
// are skipped.
func BuildPlanningTriage(snap models.Snapshot, today time.Time) models.PlanningTriage {
	triage := models.PlanningTriage{
		AwaitingProposal:     []models.Student{},
		AwaitingConfirmation: []models.TriageItem{},
		AwaitingCoach:        []models.TriageItem{},
		Confirmed:            []models.TriageItem{},
	}

	for _, s := range snap.Students {
		if s.NeedsProposal {
			triage.AwaitingProposal = append(triage.AwaitingProposal, s)
		}
	}

	sessions := make([]models.Session, len(snap.Sessions))
	copy(sessions, snap.Sessions)
	sort.Slice(sessions, func(a, b int) bool {
		if sessions[a].DateStr != sessions[b].DateStr {
			return sessions[a].DateStr < sessions[b].DateStr
		}
		return sessions[a].Slot < sessions[b].Slot
	})

	todayISO := dates.FormatISO(today)
	seenConfirmation := map[string]bool{}
	seenCoach := map[string]bool{}
	seenConfirmed := map[string]bool{}

	for i := range sessions {
		if sessions[i].DateStr < todayISO {
			continue
		}
		for _, link := range sessions[i].Students {
			student := snap.StudentByID(link.StudentID)
			if student == nil {
				continue
			}
			item := models.TriageItem{Student: *student, Session: sessions[i]}
			switch {
			case link.Status == models.LinkProposed:
				if !seenConfirmation[student.ID] {
					seenConfirmation[student.ID] = true
					triage.AwaitingConfirmation = append(triage.AwaitingConfirmation, item)
				}
			case link.Status == models.LinkConfirmed && sessions[i].CoachFor(link) == nil:
				if !seenCoach[student.ID] {
					seenCoach[student.ID] = true
					triage.AwaitingCoach = append(triage.AwaitingCoach, item)
				}
			case link.Status == models.LinkConfirmed:
				if !seenConfirmed[student.ID] {
					seenConfirmed[student.ID] = true
					triage.Confirmed = append(triage.Confirmed, item)
				}
			}
		}
	}
	return triage
}
