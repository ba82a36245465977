package models

// Snapshot is an immutable view of the three entity collections. The
// accounting engine and statistics aggregator only ever read from a snapshot
// passed in by the caller; they never touch the store directly.
type Snapshot struct {
	Students []Student
	Coaches  []Coach
	Sessions []Session
}

// StudentByID looks up a student in the snapshot, nil when absent. Dangling
// references resolve to nil rather than failing.
func (s Snapshot) StudentByID(id string) *Student {
	for i := range s.Students {
		if s.Students[i].ID == id {
			return &s.Students[i]
		}
	}
	return nil
}

// CoachByID looks up a coach in the snapshot, nil when absent.
func (s Snapshot) CoachByID(id string) *Coach {
	for i := range s.Coaches {
		if s.Coaches[i].ID == id {
			return &s.Coaches[i]
		}
	}
	return nil
}
