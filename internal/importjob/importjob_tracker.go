package importjob

import (
	"context"

	"github.com/google/uuid"
)

// Tracker is the pipeline's window into job state: progress counters after
// each batch and the finalizing marker around the index rebuild.
type Tracker struct {
	repo Repository
}

func NewTracker(repo Repository) *Tracker {
	return &Tracker{repo: repo}
}

func (t *Tracker) Progress(ctx context.Context, jobID uuid.UUID, processed, companies, persons int) error {
	return t.repo.UpdateProgress(ctx, jobID, processed, companies, persons)
}

func (t *Tracker) Finalizing(ctx context.Context, jobID uuid.UUID) error {
	return t.repo.SetStatus(ctx, jobID, StatusFinalizing)
}
