package search

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/person"
)

// Reader contracts against the relational store. One joined query serves a
// whole batch; nothing here queries per entity.

type CompanyReader interface {
	FindByCompanyIDs(ctx context.Context, companyIDs []string) ([]company.Company, error)
	FindRolesForCompanies(ctx context.Context, companyIDs []string) ([]company.RolePerson, error)
	FindRolesForPersons(ctx context.Context, personIDs []string) ([]company.RoleCompany, error)
	StreamAll(ctx context.Context, chunkSize int, fn func(rows []company.Company) error) error
}

type PersonReader interface {
	FindByPersonIDs(ctx context.Context, personIDs []string) ([]person.Person, error)
	StreamAll(ctx context.Context, chunkSize int, fn func(rows []person.Person) error) error
}

// SyncWriter reconciles freshly persisted entities into the search index in
// bulk. It satisfies the import pipeline's SearchSyncer contract.
type SyncWriter struct {
	backend   Backend
	companies CompanyReader
	persons   PersonReader
	batchSize int
	logger    *zap.Logger

	mu      sync.Mutex
	ensured bool
}

func NewSyncWriter(
	backend Backend,
	companies CompanyReader,
	persons PersonReader,
	batchSize int,
	logger *zap.Logger,
) *SyncWriter {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &SyncWriter{
		backend:   backend,
		companies: companies,
		persons:   persons,
		batchSize: batchSize,
		logger:    logger.Named("search.sync"),
	}
}

// ensureIndices creates the indices with their mappings before the first
// bulk write. Without it a fresh cluster would auto-create the indices with
// dynamic mappings and lose the analyzer setup. A failure is retried on the
// next sync call.
func (w *SyncWriter) ensureIndices(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ensured {
		return nil
	}
	if err := w.backend.EnsureIndices(ctx); err != nil {
		return err
	}
	w.ensured = true
	return nil
}

func (w *SyncWriter) SyncCompanies(ctx context.Context, companyIDs []string) error {
	if err := w.ensureIndices(ctx); err != nil {
		return err
	}

	rows, err := w.companies.FindByCompanyIDs(ctx, companyIDs)
	if err != nil {
		return err
	}
	roles, err := w.companies.FindRolesForCompanies(ctx, companyIDs)
	if err != nil {
		return err
	}

	byCompany := make(map[string][]company.RolePerson)
	for _, r := range roles {
		byCompany[r.CompanyID] = append(byCompany[r.CompanyID], r)
	}

	items := make([]BulkItem, 0, len(rows))
	for _, c := range rows {
		items = append(items, BulkItem{
			ID:  c.CompanyID,
			Doc: BuildCompanyDocument(c, byCompany[c.CompanyID]),
		})
	}

	return w.upsert(ctx, CompanyIndex, items)
}

func (w *SyncWriter) SyncPersons(ctx context.Context, personIDs []string) error {
	if err := w.ensureIndices(ctx); err != nil {
		return err
	}

	rows, err := w.persons.FindByPersonIDs(ctx, personIDs)
	if err != nil {
		return err
	}
	roles, err := w.companies.FindRolesForPersons(ctx, personIDs)
	if err != nil {
		return err
	}

	byPerson := make(map[string][]company.RoleCompany)
	for _, r := range roles {
		byPerson[r.PersonID] = append(byPerson[r.PersonID], r)
	}

	items := make([]BulkItem, 0, len(rows))
	for _, p := range rows {
		items = append(items, BulkItem{
			ID:  p.PersonID,
			Doc: BuildPersonDocument(p, byPerson[p.PersonID]),
		})
	}

	return w.upsert(ctx, PersonIndex, items)
}

// upsert splits items into the search batch size, which is configured
// independently of the relational batch size.
func (w *SyncWriter) upsert(ctx context.Context, index string, items []BulkItem) error {
	for start := 0; start < len(items); start += w.batchSize {
		end := min(start+w.batchSize, len(items))
		if err := w.backend.BulkUpsert(ctx, index, items[start:end]); err != nil {
			return err
		}
		w.logger.Debug("indexed batch",
			zap.String("index", index),
			zap.Int("count", end-start),
		)
	}
	return nil
}
