package models

// TriageItem pairs a student with one of their upcoming sessions.
type TriageItem struct {
	Student Student `json:"student"`
	Session Session `json:"session"`
}

// PlanningTriage partitions upcoming work for the scheduling view. A student
// appears at most once per tier but may appear in several tiers.
type PlanningTriage struct {
	AwaitingProposal     []Student    `json:"awaiting_proposal"`
	AwaitingConfirmation []TriageItem `json:"awaiting_confirmation"`
	AwaitingCoach        []TriageItem `json:"awaiting_coach"`
	Confirmed            []TriageItem `json:"confirmed"`
}

// RepairResult reports the outcome of a package-date repair run.
type RepairResult struct {
	UpdatedCount int      `json:"updated_count"`
	FailedIDs    []string `json:"failed_ids,omitempty"`
}
