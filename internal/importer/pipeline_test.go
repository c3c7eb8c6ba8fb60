package importer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/importer"
	"github.com/Lasher77/CompanyDB/internal/shared/apperror"
)

func writeDump(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.jsonl")
	assert.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func newTestPipeline(
	batchSize int,
	companies *fakeCompanyStore,
	persons *fakePersonStore,
	tracker *fakeTracker,
	indexes *fakeIndexController,
	syncer importer.SearchSyncer,
) *importer.Pipeline {
	return importer.NewPipeline(batchSize, companies, persons, tracker, indexes, syncer, zap.NewNop())
}

func TestPipelineRunFullImport(t *testing.T) {
	path := writeDump(t,
		`{"id":"C1","rawName":"Old Name","relatedPersons":{"items":[{"person":{"id":"P1"},"roles":[{"type":"GESCHAEFTSFUEHRER"}]}]}}`,
		`{"id":"C2","rawName":"Beta AG","relatedPersons":{"items":[{"person":{"id":"P2"},"description":"Prokurist"}]}}`,
		`{"id":"C1","rawName":"New Name","relatedPersons":{"items":[{"person":{"id":"P1"},"roles":[{"type":"GESCHAEFTSFUEHRER"}]}]}}`,
		``,
		`{broken`,
	)

	companies := &fakeCompanyStore{
		existingIDsFn: func(ctx context.Context, ids []string) (map[string]struct{}, error) {
			return map[string]struct{}{"C2": {}}, nil
		},
	}
	persons := &fakePersonStore{}
	tracker := &fakeTracker{}
	indexes := &fakeIndexController{}
	syncer := &fakeSyncer{}

	p := newTestPipeline(0, companies, persons, tracker, indexes, syncer)
	res, err := p.Run(context.Background(), uuid.New(), path)
	assert.NoError(t, err)

	// Three valid lines, the blank and the malformed one skipped.
	assert.Equal(t, 3, res.ProcessedLines)
	assert.Equal(t, 2, res.SkippedLines)
	assert.Equal(t, 2, res.CompaniesImported)
	assert.Equal(t, 2, res.PersonsImported)
	assert.Nil(t, res.SearchSyncErr)
	assert.Nil(t, res.IndexErr)

	// C1 was new, C2 already existed.
	if assert.Len(t, companies.inserted, 1) {
		assert.Equal(t, "C1", companies.inserted[0].CompanyID)
		// The later C1 line replaced the earlier one.
		assert.Equal(t, "New Name", *companies.inserted[0].RawName)
	}
	if assert.Len(t, companies.updated, 1) {
		assert.Equal(t, "C2", companies.updated[0].CompanyID)
	}

	assert.Len(t, persons.inserted, 2)
	assert.Empty(t, persons.updated)

	// Duplicate (C1, P1, role) collapsed to one row.
	assert.Len(t, companies.roles, 2)

	assert.Equal(t, 1, indexes.drops)
	assert.Equal(t, 1, indexes.recreates)
	assert.Equal(t, 1, tracker.finalizing)

	// Search sync ran after persistence, over everything touched.
	assert.ElementsMatch(t, []string{"C1", "C2"}, syncer.companyIDs)
	assert.ElementsMatch(t, []string{"P1", "P2"}, syncer.personIDs)

	// Progress counters only ever grow.
	prev := progressSnapshot{}
	for _, snap := range tracker.snapshots {
		assert.GreaterOrEqual(t, snap.processed, prev.processed)
		assert.GreaterOrEqual(t, snap.companies, prev.companies)
		assert.GreaterOrEqual(t, snap.persons, prev.persons)
		prev = snap
	}
	if assert.NotEmpty(t, tracker.snapshots) {
		last := tracker.snapshots[len(tracker.snapshots)-1]
		assert.Equal(t, 3, last.processed)
		assert.Equal(t, 2, last.companies)
		assert.Equal(t, 2, last.persons)
	}
}

func TestPipelineBatchFailureNamesBatch(t *testing.T) {
	path := writeDump(t,
		`{"id":"C1"}`,
		`{"id":"C2"}`,
		`{"id":"C3"}`,
	)

	calls := 0
	companies := &fakeCompanyStore{
		insertManyFn: func(ctx context.Context, rows []company.Company) error {
			calls++
			if calls == 2 {
				return errors.New("deadlock detected")
			}
			return nil
		},
	}
	tracker := &fakeTracker{}
	indexes := &fakeIndexController{}

	p := newTestPipeline(1, companies, &fakePersonStore{}, tracker, indexes, nil)
	_, err := p.Run(context.Background(), uuid.New(), path)
	assert.Error(t, err)

	var appErr *apperror.AppError
	if assert.True(t, errors.As(err, &appErr)) {
		assert.Equal(t, apperror.CodePersistenceFailed, appErr.Code)
		assert.Contains(t, appErr.Message, "batch 1")
	}

	// The first batch stays committed; indexes come back even on failure.
	assert.Len(t, companies.inserted, 1)
	assert.Equal(t, 1, indexes.recreates)
	assert.Equal(t, 0, tracker.finalizing)

	// Progress reflects only the committed batch.
	if assert.NotEmpty(t, tracker.snapshots) {
		last := tracker.snapshots[len(tracker.snapshots)-1]
		assert.Equal(t, 1, last.processed)
		assert.Equal(t, 1, last.companies)
	}
}

func TestPipelineSearchSyncFailureIsNotFatal(t *testing.T) {
	path := writeDump(t, `{"id":"C1"}`)

	syncer := &fakeSyncer{
		syncCompaniesFn: func(ctx context.Context, ids []string) error {
			return errors.New("opensearch unavailable")
		},
	}
	tracker := &fakeTracker{}

	p := newTestPipeline(0, &fakeCompanyStore{}, &fakePersonStore{}, tracker, &fakeIndexController{}, syncer)
	res, err := p.Run(context.Background(), uuid.New(), path)

	assert.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedLines)
	assert.Equal(t, 1, tracker.finalizing)

	var appErr *apperror.AppError
	if assert.True(t, errors.As(res.SearchSyncErr, &appErr)) {
		assert.Equal(t, apperror.CodeSearchSyncFailed, appErr.Code)
	}
}

func TestPipelineMarksFinalizingBeforeSearchSync(t *testing.T) {
	path := writeDump(t, `{"id":"C1"}`)

	tracker := &fakeTracker{}
	syncer := &fakeSyncer{}
	syncer.syncCompaniesFn = func(ctx context.Context, ids []string) error {
		// The job is already finalizing while search reconciles.
		assert.Equal(t, 1, tracker.finalizing)
		return nil
	}

	p := newTestPipeline(0, &fakeCompanyStore{}, &fakePersonStore{}, tracker, &fakeIndexController{}, syncer)
	_, err := p.Run(context.Background(), uuid.New(), path)

	assert.NoError(t, err)
	assert.NotEmpty(t, syncer.companyIDs)
}

func TestPipelineReportsProgressDuringRoleBatches(t *testing.T) {
	path := writeDump(t,
		`{"id":"C1","relatedPersons":{"items":[{"person":{"id":"P1"},"roles":[{"type":"GESCHAEFTSFUEHRER"}]},{"person":{"id":"P2"},"roles":[{"type":"PROKURIST"}]}]}}`,
	)

	tracker := &fakeTracker{}

	// Batch size 1: one company batch, two person batches, two role batches.
	p := newTestPipeline(1, &fakeCompanyStore{}, &fakePersonStore{}, tracker, &fakeIndexController{}, nil)
	_, err := p.Run(context.Background(), uuid.New(), path)
	assert.NoError(t, err)

	// Each role batch writes a progress heartbeat too.
	assert.Len(t, tracker.snapshots, 5)
	last := tracker.snapshots[len(tracker.snapshots)-1]
	assert.Equal(t, 1, last.processed)
	assert.Equal(t, 2, last.persons)
}

func TestPipelineIndexDropFailureContinues(t *testing.T) {
	path := writeDump(t, `{"id":"C1"}`)

	indexes := &fakeIndexController{
		dropFn: func(ctx context.Context) error { return errors.New("lock timeout") },
	}
	companies := &fakeCompanyStore{}

	p := newTestPipeline(0, companies, &fakePersonStore{}, &fakeTracker{}, indexes, nil)
	res, err := p.Run(context.Background(), uuid.New(), path)

	assert.NoError(t, err)
	assert.Len(t, companies.inserted, 1)

	var appErr *apperror.AppError
	if assert.True(t, errors.As(res.IndexErr, &appErr)) {
		assert.Equal(t, apperror.CodeIndexMaintenanceFailed, appErr.Code)
	}
	assert.Equal(t, 1, indexes.recreates)
}

func TestPipelineWithoutSearchSyncer(t *testing.T) {
	path := writeDump(t, `{"id":"C1"}`)

	p := newTestPipeline(0, &fakeCompanyStore{}, &fakePersonStore{}, &fakeTracker{}, &fakeIndexController{}, nil)
	res, err := p.Run(context.Background(), uuid.New(), path)

	assert.NoError(t, err)
	assert.Nil(t, res.SearchSyncErr)
}

func TestPipelineMissingFile(t *testing.T) {
	p := newTestPipeline(0, &fakeCompanyStore{}, &fakePersonStore{}, &fakeTracker{}, &fakeIndexController{}, nil)
	_, err := p.Run(context.Background(), uuid.New(), filepath.Join(t.TempDir(), "missing.jsonl"))

	var appErr *apperror.AppError
	if assert.True(t, errors.As(err, &appErr)) {
		assert.Equal(t, apperror.CodeIOError, appErr.Code)
	}
}

func TestPipelineCancelledContext(t *testing.T) {
	path := writeDump(t, `{"id":"C1"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	indexes := &fakeIndexController{}
	companies := &fakeCompanyStore{}

	p := newTestPipeline(0, companies, &fakePersonStore{}, &fakeTracker{}, indexes, nil)
	_, err := p.Run(ctx, uuid.New(), path)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, companies.inserted)
	assert.Equal(t, 1, indexes.recreates)
}

func TestPipelineRerunIsIdempotent(t *testing.T) {
	path := writeDump(t,
		`{"id":"C1","relatedPersons":{"items":[{"person":{"id":"P1"},"roles":[{"type":"GESCHAEFTSFUEHRER"}]}]}}`,
	)

	// Second run: everything already exists, so only updates happen.
	companies := &fakeCompanyStore{
		existingIDsFn: func(ctx context.Context, ids []string) (map[string]struct{}, error) {
			return map[string]struct{}{"C1": {}}, nil
		},
	}
	persons := &fakePersonStore{
		existingIDsFn: func(ctx context.Context, ids []string) (map[string]struct{}, error) {
			return map[string]struct{}{"P1": {}}, nil
		},
	}

	p := newTestPipeline(0, companies, persons, &fakeTracker{}, &fakeIndexController{}, nil)
	res, err := p.Run(context.Background(), uuid.New(), path)

	assert.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedLines)
	assert.Equal(t, 1, res.CompaniesImported)
	assert.Equal(t, 1, res.PersonsImported)

	assert.Empty(t, companies.inserted)
	assert.Len(t, companies.updated, 1)
	assert.Empty(t, persons.inserted)
	assert.Len(t, persons.updated, 1)
	assert.Len(t, companies.roles, 1)
}
