package importjob

import (
	"time"

	"github.com/google/uuid"
)

// Status is the import job state machine. Terminal states are final; the
// only legal paths are pending, running, finalizing, completed in order,
// and failed from any non-terminal state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusFinalizing Status = "finalizing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving to the given state is legal.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to == StatusFinalizing || to == StatusCompleted || to == StatusFailed
	case StatusFinalizing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

type ImportJob struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename          string    `gorm:"column:filename;type:text;not null"`
	Status            Status    `gorm:"column:status;type:varchar(20);not null;default:pending"`
	TotalLines *int `gorm:"column:total_lines"`
	// ProcessedLines counts successfully parsed records; SkippedLines counts
	// blank or malformed ones. The two together account for every physical
	// line of the file, so processed + skipped == total on a finished run.
	ProcessedLines    int       `gorm:"column:processed_lines;not null;default:0"`
	SkippedLines      int       `gorm:"column:skipped_lines;not null;default:0"`
	CompaniesImported int       `gorm:"column:companies_imported;not null;default:0"`
	PersonsImported   int       `gorm:"column:persons_imported;not null;default:0"`
	// SearchSyncError records a non-fatal search indexing failure so an
	// operator knows to trigger a reindex. Degraded flags an index
	// drop/recreate failure; relational data is still correct.
	SearchSyncError *string   `gorm:"column:search_sync_error;type:text"`
	Degraded        bool      `gorm:"column:degraded;not null;default:false"`
	ErrorMessage    *string   `gorm:"column:error_message;type:text"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (ImportJob) TableName() string {
	return "import_job"
}
