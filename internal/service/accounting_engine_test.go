package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-apps/atelier-admin-api/internal/models"
)

func strPtr(s string) *string { return &s }

func sessionOn(date, slot, studentID string, status models.LinkStatus) models.Session {
	return models.Session{
		ID:      date + "-" + slot,
		DateStr: date,
		Slot:    slot,
		Students: []models.SessionStudent{
			{SessionID: date + "-" + slot, StudentID: studentID, Status: status},
		},
	}
}

func TestConfirmedSessionCountNoFilter(t *testing.T) {
	student := models.Student{ID: "s1", PackageType: models.PackagePack5}
	sessions := []models.Session{
		sessionOn("2024-01-02", "18:00", "s1", models.LinkConfirmed),
		sessionOn("2024-01-09", "18:00", "s1", models.LinkConfirmed),
		sessionOn("2024-01-16", "18:00", "s1", models.LinkProposed),
		sessionOn("2024-01-18", "18:00", "other", models.LinkConfirmed),
	}

	// No stored start date means no date filter, proposed links never count.
	assert.Equal(t, 2, ConfirmedSessionCount(student, sessions))
}

func TestConfirmedSessionCountWindowAndAdjustment(t *testing.T) {
	student := models.Student{
		ID:                      "s1",
		PackageType:             models.PackagePack5,
		PackageStartDate:        strPtr("2024-01-09"),
		ManualClassesAdjustment: -1,
	}
	sessions := []models.Session{
		sessionOn("2024-01-02", "18:00", "s1", models.LinkConfirmed),
		sessionOn("2024-01-09", "18:00", "s1", models.LinkConfirmed),
		sessionOn("2024-01-16", "18:00", "s1", models.LinkConfirmed),
	}

	// 2024-01-02 predates the window; the adjustment applies unclamped.
	assert.Equal(t, 1, ConfirmedSessionCount(student, sessions))

	student.ManualClassesAdjustment = -5
	assert.Equal(t, -3, ConfirmedSessionCount(student, sessions))
}

func TestLessonDetailReconciles(t *testing.T) {
	student := models.Student{
		ID:                      "s1",
		PackageType:             models.PackagePack5,
		PackageStartDate:        strPtr("2024-01-09"),
		ManualClassesAdjustment: 2,
	}
	sessions := []models.Session{
		sessionOn("2024-01-16", "19:00", "s1", models.LinkConfirmed),
		sessionOn("2024-01-02", "18:00", "s1", models.LinkConfirmed),
		sessionOn("2024-01-09", "18:00", "s1", models.LinkConfirmed),
	}

	detail := LessonDetailFor(student, sessions)
	assert.Equal(t, detail.Total, len(detail.CountedSessions)+detail.Adjustment)
	assert.Equal(t, 4, detail.Total)
	assert.Equal(t, 1, detail.ExcludedCount)
	require.Len(t, detail.CountedSessions, 2)
	assert.Equal(t, "2024-01-09", detail.CountedSessions[0].Date)
	assert.Equal(t, "2024-01-16", detail.CountedSessions[1].Date)
	require.NotNil(t, detail.StartDate)
	assert.Equal(t, "2024-01-09", *detail.StartDate)
}

func TestEffectiveStartDateSecondSessionRule(t *testing.T) {
	student := models.Student{ID: "s1", PackageType: models.PackagePack5}

	two := []models.Session{
		sessionOn("2024-01-05", "18:00", "s1", models.LinkConfirmed),
		sessionOn("2024-02-10", "18:00", "s1", models.LinkConfirmed),
	}
	got := EffectiveStartDate(student, two)
	require.NotNil(t, got)
	assert.Equal(t, "2024-02-10", *got)

	one := two[:1]
	got = EffectiveStartDate(student, one)
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-05", *got)

	assert.Nil(t, EffectiveStartDate(student, nil))

	student.PackageStartDate = strPtr("2024-03-01")
	got = EffectiveStartDate(student, two)
	require.NotNil(t, got)
	assert.Equal(t, "2024-03-01", *got)
}

func TestInferredStartDateIgnoresOverride(t *testing.T) {
	student := models.Student{
		ID:               "s1",
		PackageType:      models.PackagePack5,
		PackageStartDate: strPtr("2024-03-01"),
	}
	sessions := []models.Session{
		sessionOn("2024-01-02", "18:00", "s1", models.LinkConfirmed),
		sessionOn("2024-01-09", "18:00", "s1", models.LinkConfirmed),
		sessionOn("2024-01-16", "18:00", "s1", models.LinkConfirmed),
	}

	got := InferredStartDate(student, sessions)
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-09", *got)
}

func TestConfirmedSessionCountUsesStoredStartNotInferred(t *testing.T) {
	student := models.Student{ID: "a", PackageType: models.PackagePack5}
	sessions := []models.Session{
		sessionOn("2024-01-02", "18:00", "a", models.LinkConfirmed),
		sessionOn("2024-01-09", "18:00", "a", models.LinkConfirmed),
		sessionOn("2024-01-16", "18:00", "a", models.LinkConfirmed),
	}

	inferred := EffectiveStartDate(student, sessions)
	require.NotNil(t, inferred)
	assert.Equal(t, "2024-01-09", *inferred)

	// Stored start date is nil, so all three confirmed sessions count even
	// though the inferred window opens later.
	assert.Equal(t, 3, ConfirmedSessionCount(student, sessions))
}

func TestPackageStatusFixedTypes(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, models.StatusUnlimited,
		PackageStatusFor(models.Student{ID: "m", PackageType: models.PackageMember}, nil, today))
	assert.Equal(t, models.StatusInactive,
		PackageStatusFor(models.Student{ID: "mi", PackageType: models.PackageMemberInactive}, nil, today))
	assert.Equal(t, models.StatusNone,
		PackageStatusFor(models.Student{ID: "c", PackageType: models.PackageContact}, nil, today))
}

func TestDiscoveryStatus(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	student := models.Student{ID: "d", PackageType: models.PackageDiscovery}

	assert.Equal(t, models.StatusFuture, PackageStatusFor(student, nil, today))

	upcoming := []models.Session{sessionOn("2024-06-10", "18:00", "d", models.LinkConfirmed)}
	assert.Equal(t, models.StatusFuture, PackageStatusFor(student, upcoming, today))

	recent := []models.Session{sessionOn("2024-04-15", "18:00", "d", models.LinkConfirmed)}
	assert.Equal(t, models.StatusFinished, PackageStatusFor(student, recent, today))

	stale := []models.Session{sessionOn("2024-01-15", "18:00", "d", models.LinkConfirmed)}
	assert.Equal(t, models.StatusInactive, PackageStatusFor(student, stale, today))
}

func TestPack5Status(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	fiveFrom := func(first string) []models.Session {
		start, _ := time.Parse("2006-01-02", first)
		var sessions []models.Session
		for i := 0; i < 5; i++ {
			date := start.AddDate(0, 0, i*7).Format("2006-01-02")
			sessions = append(sessions, sessionOn(date, "18:00", "p", models.LinkConfirmed))
		}
		return sessions
	}

	// Finished with start 4 months back stays finished.
	student := models.Student{ID: "p", PackageType: models.PackagePack5, PackageStartDate: strPtr("2024-02-01")}
	assert.Equal(t, models.StatusFinished, PackageStatusFor(student, fiveFrom("2024-02-01"), today))

	// Finished with start more than 5 months back is expired.
	student.PackageStartDate = strPtr("2023-12-15")
	assert.Equal(t, models.StatusExpiredFinished, PackageStatusFor(student, fiveFrom("2023-12-15"), today))

	// Unfinished pack stales after 3 months.
	student.PackageStartDate = strPtr("2024-02-20")
	partial := fiveFrom("2024-02-20")[:2]
	assert.Equal(t, models.StatusExpiredActive, PackageStatusFor(student, partial, today))

	// Unfinished and fresh stays active.
	student.PackageStartDate = strPtr("2024-04-20")
	fresh := []models.Session{sessionOn("2024-04-20", "18:00", "p", models.LinkConfirmed)}
	assert.Equal(t, models.StatusActive, PackageStatusFor(student, fresh, today))
}

func TestSortPriorityOrdering(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	member := models.Student{ID: "m", FirstName: "Marc", PackageType: models.PackageMember}
	finishedPack := models.Student{ID: "p", FirstName: "Paula", PackageType: models.PackagePack5, PackageStartDate: strPtr("2024-03-01")}
	activeDiscovery := models.Student{ID: "d", FirstName: "Dina", PackageType: models.PackageDiscovery}
	contact := models.Student{ID: "c", FirstName: "Carl", PackageType: models.PackageContact}

	var sessions []models.Session
	for i := 0; i < 5; i++ {
		date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i*7).Format("2006-01-02")
		sessions = append(sessions, sessionOn(date, "18:00", "p", models.LinkConfirmed))
	}

	sorted := SortStudents([]models.Student{contact, activeDiscovery, finishedPack, member}, sessions, today)
	ids := []string{sorted[0].ID, sorted[1].ID, sorted[2].ID, sorted[3].ID}
	assert.Equal(t, []string{"m", "p", "d", "c"}, ids)
}

func TestSortPriorityDemotions(t *testing.T) {
	today := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	// Pack expired on dates sinks to 8, stale discovery to the very bottom.
	expiredPack := models.Student{ID: "p", PackageType: models.PackagePack5, PackageStartDate: strPtr("2024-01-10")}
	packSessions := []models.Session{sessionOn("2024-01-10", "18:00", "p", models.LinkConfirmed)}
	assert.Equal(t, 8, SortPriorityFor(expiredPack, packSessions, today))

	staleDiscovery := models.Student{ID: "d", PackageType: models.PackageDiscovery}
	discoverySessions := []models.Session{sessionOn("2024-01-10", "18:00", "d", models.LinkConfirmed)}
	assert.Equal(t, 9, SortPriorityFor(staleDiscovery, discoverySessions, today))

	inactiveMember := models.Student{ID: "mi", PackageType: models.PackageMemberInactive}
	assert.Equal(t, 7, SortPriorityFor(inactiveMember, nil, today))
}

func TestSortStudentsTiebreakIsCaseInsensitive(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := models.Student{ID: "1", FirstName: "alice", PackageType: models.PackageContact}
	b := models.Student{ID: "2", FirstName: "Bob", PackageType: models.PackageContact}
	c := models.Student{ID: "3", FirstName: "Zoe", PackageType: models.PackageContact}

	sorted := SortStudents([]models.Student{c, b, a}, nil, today)
	assert.Equal(t, []string{"1", "2", "3"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}

func TestBuildPlanningTriage(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	coach := "c1"

	snap := models.Snapshot{
		Students: []models.Student{
			{ID: "s1", FirstName: "Ana"},
			{ID: "s2", FirstName: "Ben", NeedsProposal: true},
			{ID: "s3", FirstName: "Cleo"},
		},
		Sessions: []models.Session{
			// Past session, never triaged.
			{ID: "past", DateStr: "2024-05-20", Slot: "18:00", Students: []models.SessionStudent{
				{StudentID: "s1", Status: models.LinkProposed},
			}},
			{ID: "f1", DateStr: "2024-06-03", Slot: "18:00", Students: []models.SessionStudent{
				{StudentID: "s1", Status: models.LinkProposed},
				{StudentID: "s3", Status: models.LinkConfirmed},
			}},
			{ID: "f2", DateStr: "2024-06-06", Slot: "18:00", CoachID: &coach, Students: []models.SessionStudent{
				{StudentID: "s1", Status: models.LinkProposed},
				{StudentID: "s3", Status: models.LinkConfirmed},
				{StudentID: "ghost", Status: models.LinkConfirmed},
			}},
		},
	}

	triage := BuildPlanningTriage(snap, today)

	require.Len(t, triage.AwaitingProposal, 1)
	assert.Equal(t, "s2", triage.AwaitingProposal[0].ID)

	// s1 has two future proposed links but appears once, on the earliest.
	require.Len(t, triage.AwaitingConfirmation, 1)
	assert.Equal(t, "s1", triage.AwaitingConfirmation[0].Student.ID)
	assert.Equal(t, "f1", triage.AwaitingConfirmation[0].Session.ID)

	// s3 is confirmed without a coach on f1 and with one on f2; the tiers
	// are independent so it appears in both.
	require.Len(t, triage.AwaitingCoach, 1)
	assert.Equal(t, "s3", triage.AwaitingCoach[0].Student.ID)
	assert.Equal(t, "f1", triage.AwaitingCoach[0].Session.ID)

	require.Len(t, triage.Confirmed, 1)
	assert.Equal(t, "s3", triage.Confirmed[0].Student.ID)
	assert.Equal(t, "f2", triage.Confirmed[0].Session.ID)
}

func TestBuildPlanningTriageLinkCoachOverride(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	coach := "c1"

	snap := models.Snapshot{
		Students: []models.Student{{ID: "s1", FirstName: "Ana"}},
		Sessions: []models.Session{
			{ID: "f1", DateStr: "2024-06-03", Slot: "18:00", Students: []models.SessionStudent{
				{StudentID: "s1", Status: models.LinkConfirmed, CoachID: &coach},
			}},
		},
	}

	triage := BuildPlanningTriage(snap, today)
	assert.Empty(t, triage.AwaitingCoach)
	require.Len(t, triage.Confirmed, 1)
}
