package events

import "time"

const ImportLifecycleTopic = "companydb.import.lifecycle.v1"

type ImportCompletedEvent struct {
	EventType         string    `json:"event_type"`
	JobID             string    `json:"job_id"`
	Filename          string    `json:"filename"`
	ProcessedLines    int       `json:"processed_lines"`
	SkippedLines      int       `json:"skipped_lines"`
	CompaniesImported int       `json:"companies_imported"`
	PersonsImported   int       `json:"persons_imported"`
	Degraded          bool      `json:"degraded"`
	OccurredAt        time.Time `json:"occurred_at"`
}

type ImportFailedEvent struct {
	EventType    string    `json:"event_type"`
	JobID        string    `json:"job_id"`
	Filename     string    `json:"filename"`
	ErrorMessage string    `json:"error_message"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type ReindexCompletedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
}
