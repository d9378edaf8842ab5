package models

// JobInput is the argument of the RunJob workflow and activity
type JobInput struct {
	RunID string   `json:"run_id"`
	Job   string   `json:"job"`
	Items []string `json:"items,omitempty"`
}

// JobSummary aggregates per-item outcomes of one batch job run
type JobSummary struct {
	Researched int `json:"researched"`
	Generated  int `json:"generated"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}
