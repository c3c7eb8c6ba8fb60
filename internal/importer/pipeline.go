package importer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/person"
	"github.com/Lasher77/CompanyDB/internal/shared/apperror"
)

// Result is what a finished (or fatally stopped) run reports back to the job
// controller. SearchSyncErr and IndexErr are non-fatal and recorded on the
// job; a non-nil error from Run is fatal.
type Result struct {
	ProcessedLines    int
	SkippedLines      int
	CompaniesImported int
	PersonsImported   int
	SearchSyncErr     error
	IndexErr          error
}

type Pipeline struct {
	batchSize int
	parser    *Parser
	companies CompanyStore
	persons   PersonStore
	jobs      JobTracker
	indexes   IndexController
	search    SearchSyncer // nil disables search sync entirely
	logger    *zap.Logger
}

func NewPipeline(
	batchSize int,
	companies CompanyStore,
	persons PersonStore,
	jobs JobTracker,
	indexes IndexController,
	search SearchSyncer,
	logger *zap.Logger,
) *Pipeline {
	if batchSize <= 0 {
		batchSize = 5000
	}
	return &Pipeline{
		batchSize: batchSize,
		parser:    NewParser(logger),
		companies: companies,
		persons:   persons,
		jobs:      jobs,
		indexes:   indexes,
		search:    search,
		logger:    logger.Named("importer.pipeline"),
	}
}

// uniqueRecord is one company after collapsing duplicate ids within the
// file. lines counts how many source lines it absorbed so the processed
// counter still reflects every valid line.
type uniqueRecord struct {
	rec   Record
	lines int
}

type progress struct {
	processed int
	companies int
	persons   int
	batch     int // running batch index across all write phases
}

// Run executes one import end to end: parse once, resolve existing ids in
// bulk, partition, write in fixed-size batches with the secondary indexes
// dropped, then reconcile the search index. Batches already committed stay
// committed when a later batch fails.
func (p *Pipeline) Run(ctx context.Context, jobID uuid.UUID, path string) (res Result, err error) {
	parsed, readErr := p.parser.ReadFile(path)
	if readErr != nil {
		return res, apperror.Wrap(readErr, apperror.CodeIOError,
			"cannot read import file", http.StatusInternalServerError)
	}

	res.SkippedLines = parsed.Skipped

	uniques := collapseRecords(parsed.Records)
	records := make([]Record, len(uniques))
	for i, u := range uniques {
		records[i] = u.rec
	}

	resolution, resErr := NewResolver(p.companies, p.persons).Resolve(ctx, records)
	if resErr != nil {
		return res, resErr
	}

	roles := BuildRelationships(records)
	persons := collectPersons(records)

	var newCompanies, updCompanies []company.Company
	var newWeights, updWeights []int
	for _, u := range uniques {
		row := companyRow(u.rec, jobID)
		if resolution.CompanyExists(u.rec.CompanyID) {
			updCompanies = append(updCompanies, row)
			updWeights = append(updWeights, u.lines)
		} else {
			newCompanies = append(newCompanies, row)
			newWeights = append(newWeights, u.lines)
		}
	}

	var newPersons, updPersons []person.Person
	for _, row := range persons {
		if resolution.PersonExists(row.PersonID) {
			updPersons = append(updPersons, row)
		} else {
			newPersons = append(newPersons, row)
		}
	}

	p.logger.Info("import resolved",
		zap.String("job_id", jobID.String()),
		zap.Int("companies_new", len(newCompanies)),
		zap.Int("companies_existing", len(updCompanies)),
		zap.Int("persons_new", len(newPersons)),
		zap.Int("persons_existing", len(updPersons)),
		zap.Int("roles", len(roles)),
	)

	if dropErr := p.indexes.DropSecondary(ctx); dropErr != nil {
		res.IndexErr = apperror.Wrap(dropErr, apperror.CodeIndexMaintenanceFailed,
			"dropping secondary indexes failed", http.StatusInternalServerError)
		p.logger.Warn("continuing with secondary indexes in place", zap.Error(dropErr))
	}
	// Rebuild runs on the failure path too; CREATE IF NOT EXISTS makes it
	// safe after a partial drop.
	defer func() {
		if recErr := p.indexes.Recreate(ctx); recErr != nil && res.IndexErr == nil {
			res.IndexErr = apperror.Wrap(recErr, apperror.CodeIndexMaintenanceFailed,
				"recreating secondary indexes failed", http.StatusInternalServerError)
		}
	}()

	var prog progress

	if err = p.writeCompanies(ctx, jobID, "company insert", newCompanies, newWeights, p.companies.InsertMany, &prog); err != nil {
		return res, err
	}
	if err = p.writeCompanies(ctx, jobID, "company update", updCompanies, updWeights, p.companies.UpdateMany, &prog); err != nil {
		return res, err
	}
	if err = p.writePersons(ctx, jobID, "person insert", newPersons, p.persons.InsertMany, &prog); err != nil {
		return res, err
	}
	if err = p.writePersons(ctx, jobID, "person update", updPersons, p.persons.UpdateMany, &prog); err != nil {
		return res, err
	}
	if err = p.writeRoles(ctx, jobID, roles, &prog); err != nil {
		return res, err
	}

	res.ProcessedLines = prog.processed
	res.CompaniesImported = prog.companies
	res.PersonsImported = prog.persons

	// Finalizing covers everything after the relational writes: the search
	// reconciliation below plus the deferred index rebuild.
	if finErr := p.jobs.Finalizing(ctx, jobID); finErr != nil {
		p.logger.Warn("marking job finalizing failed", zap.Error(finErr))
	}

	if p.search != nil {
		res.SearchSyncErr = p.syncSearch(ctx, uniques, persons)
	}

	return res, nil
}

// collapseRecords keeps one record per company id; a later line in the file
// fully replaces an earlier one.
func collapseRecords(records []Record) []uniqueRecord {
	byID := make(map[string]int, len(records))
	var out []uniqueRecord

	for _, rec := range records {
		if i, ok := byID[rec.CompanyID]; ok {
			out[i].rec = rec
			out[i].lines++
			continue
		}
		byID[rec.CompanyID] = len(out)
		out = append(out, uniqueRecord{rec: rec, lines: 1})
	}

	return out
}

// collectPersons dedupes embedded persons across the whole file, last
// occurrence winning, preserving first-seen order.
func collectPersons(records []Record) []person.Person {
	byID := make(map[string]int)
	var out []person.Person

	for _, rec := range records {
		for _, rp := range rec.Persons {
			row := personRow(rp)
			if i, ok := byID[rp.PersonID]; ok {
				out[i] = row
				continue
			}
			byID[rp.PersonID] = len(out)
			out = append(out, row)
		}
	}

	return out
}

func (p *Pipeline) writeCompanies(
	ctx context.Context,
	jobID uuid.UUID,
	op string,
	rows []company.Company,
	weights []int,
	write func(context.Context, []company.Company) error,
	prog *progress,
) error {
	for start := 0; start < len(rows); start += p.batchSize {
		end := min(start+p.batchSize, len(rows))
		batch := prog.batch
		prog.batch++

		if err := yield(ctx); err != nil {
			return err
		}
		if err := write(ctx, rows[start:end]); err != nil {
			return apperror.Wrap(err, apperror.CodePersistenceFailed,
				fmt.Sprintf("%s batch %d failed", op, batch), http.StatusInternalServerError)
		}

		for _, w := range weights[start:end] {
			prog.processed += w
		}
		prog.companies += end - start
		p.report(ctx, jobID, prog)
	}
	return nil
}

func (p *Pipeline) writePersons(
	ctx context.Context,
	jobID uuid.UUID,
	op string,
	rows []person.Person,
	write func(context.Context, []person.Person) error,
	prog *progress,
) error {
	for start := 0; start < len(rows); start += p.batchSize {
		end := min(start+p.batchSize, len(rows))
		batch := prog.batch
		prog.batch++

		if err := yield(ctx); err != nil {
			return err
		}
		if err := write(ctx, rows[start:end]); err != nil {
			return apperror.Wrap(err, apperror.CodePersistenceFailed,
				fmt.Sprintf("%s batch %d failed", op, batch), http.StatusInternalServerError)
		}

		prog.persons += end - start
		p.report(ctx, jobID, prog)
	}
	return nil
}

func (p *Pipeline) writeRoles(ctx context.Context, jobID uuid.UUID, rows []company.CompanyPerson, prog *progress) error {
	for start := 0; start < len(rows); start += p.batchSize {
		end := min(start+p.batchSize, len(rows))
		batch := prog.batch
		prog.batch++

		if err := yield(ctx); err != nil {
			return err
		}
		if err := p.companies.UpsertRoles(ctx, rows[start:end]); err != nil {
			return apperror.Wrap(err, apperror.CodePersistenceFailed,
				fmt.Sprintf("role upsert batch %d failed", batch), http.StatusInternalServerError)
		}

		// The counters do not change here, but the write keeps the job's
		// updated_at moving so pollers can tell a long role phase from a
		// stalled run.
		p.report(ctx, jobID, prog)
	}
	return nil
}

// syncSearch pushes company and person documents for everything this run
// touched. The first failure is kept for the job record; remaining batches
// are still attempted so a transient error does not abandon the whole sync.
func (p *Pipeline) syncSearch(ctx context.Context, uniques []uniqueRecord, persons []person.Person) error {
	var firstErr error

	for start := 0; start < len(uniques); start += p.batchSize {
		end := min(start+p.batchSize, len(uniques))

		ids := make([]string, 0, end-start)
		for _, u := range uniques[start:end] {
			ids = append(ids, u.rec.CompanyID)
		}
		if err := p.search.SyncCompanies(ctx, ids); err != nil {
			p.logger.Warn("company search sync batch failed", zap.Error(err))
			if firstErr == nil {
				firstErr = apperror.Wrap(err, apperror.CodeSearchSyncFailed,
					"company search sync failed", http.StatusInternalServerError)
			}
		}
	}

	for start := 0; start < len(persons); start += p.batchSize {
		end := min(start+p.batchSize, len(persons))

		ids := make([]string, 0, end-start)
		for _, row := range persons[start:end] {
			ids = append(ids, row.PersonID)
		}
		if err := p.search.SyncPersons(ctx, ids); err != nil {
			p.logger.Warn("person search sync batch failed", zap.Error(err))
			if firstErr == nil {
				firstErr = apperror.Wrap(err, apperror.CodeSearchSyncFailed,
					"person search sync failed", http.StatusInternalServerError)
			}
		}
	}

	return firstErr
}

// report persists the counters after a batch; pollers see monotonic
// progress. A failed progress write is logged, not fatal: the next batch
// catches the counters up.
func (p *Pipeline) report(ctx context.Context, jobID uuid.UUID, prog *progress) {
	if err := p.jobs.Progress(ctx, jobID, prog.processed, prog.companies, prog.persons); err != nil {
		p.logger.Warn("persisting job progress failed", zap.Error(err))
	}
}

// yield is the explicit suspension point between batches.
func yield(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func companyRow(rec Record, jobID uuid.UUID) company.Company {
	jid := jobID
	return company.Company{
		ImportJobID:       &jid,
		CompanyID:         rec.CompanyID,
		RawName:           rec.RawName,
		LegalName:         rec.LegalName,
		LegalForm:         rec.LegalForm,
		Status:            rec.Status,
		Terminated:        rec.Terminated,
		RegisterUniqueKey: rec.RegisterUniqueKey,
		RegisterID:        rec.RegisterID,
		AddressCity:       rec.AddressCity,
		AddressPostalCode: rec.AddressPostalCode,
		AddressCountry:    rec.AddressCountry,
		LastUpdateTime:    rec.LastUpdateTime,
		FullRecord:        rec.FullRecord,
	}
}

func personRow(rp RelatedPerson) person.Person {
	return person.Person{
		PersonID:    rp.PersonID,
		FirstName:   rp.FirstName,
		LastName:    rp.LastName,
		BirthYear:   rp.BirthYear,
		AddressCity: rp.AddressCity,
		FullRecord:  rp.FullRecord,
	}
}
