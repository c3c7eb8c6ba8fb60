package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/person"
)

// Reindexer rebuilds the whole search index from the relational store. It
// streams both tables with chunked cursors, so memory stays bounded no
// matter how many rows exist, and resolves relations with one joined query
// per chunk. Re-running it overwrites documents in place.
type Reindexer struct {
	backend   Backend
	companies CompanyReader
	persons   PersonReader
	chunkSize int
	logger    *zap.Logger
}

func NewReindexer(
	backend Backend,
	companies CompanyReader,
	persons PersonReader,
	chunkSize int,
	logger *zap.Logger,
) *Reindexer {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &Reindexer{
		backend:   backend,
		companies: companies,
		persons:   persons,
		chunkSize: chunkSize,
		logger:    logger.Named("search.reindex"),
	}
}

func (r *Reindexer) Run(ctx context.Context) error {
	if err := r.backend.EnsureIndices(ctx); err != nil {
		return err
	}

	var companiesIndexed, personsIndexed int

	err := r.companies.StreamAll(ctx, r.chunkSize, func(rows []company.Company) error {
		ids := make([]string, len(rows))
		for i, c := range rows {
			ids[i] = c.CompanyID
		}

		roles, err := r.companies.FindRolesForCompanies(ctx, ids)
		if err != nil {
			return err
		}
		byCompany := make(map[string][]company.RolePerson)
		for _, role := range roles {
			byCompany[role.CompanyID] = append(byCompany[role.CompanyID], role)
		}

		items := make([]BulkItem, 0, len(rows))
		for _, c := range rows {
			items = append(items, BulkItem{
				ID:  c.CompanyID,
				Doc: BuildCompanyDocument(c, byCompany[c.CompanyID]),
			})
		}

		if err := r.backend.BulkUpsert(ctx, CompanyIndex, items); err != nil {
			return err
		}
		companiesIndexed += len(items)
		return nil
	})
	if err != nil {
		return err
	}

	err = r.persons.StreamAll(ctx, r.chunkSize, func(rows []person.Person) error {
		ids := make([]string, len(rows))
		for i, p := range rows {
			ids[i] = p.PersonID
		}

		roles, err := r.companies.FindRolesForPersons(ctx, ids)
		if err != nil {
			return err
		}
		byPerson := make(map[string][]company.RoleCompany)
		for _, role := range roles {
			byPerson[role.PersonID] = append(byPerson[role.PersonID], role)
		}

		items := make([]BulkItem, 0, len(rows))
		for _, p := range rows {
			items = append(items, BulkItem{
				ID:  p.PersonID,
				Doc: BuildPersonDocument(p, byPerson[p.PersonID]),
			})
		}

		if err := r.backend.BulkUpsert(ctx, PersonIndex, items); err != nil {
			return err
		}
		personsIndexed += len(items)
		return nil
	})
	if err != nil {
		return err
	}

	if err := r.backend.Refresh(ctx, CompanyIndex, PersonIndex); err != nil {
		return err
	}

	r.logger.Info("reindex completed",
		zap.Int("companies", companiesIndexed),
		zap.Int("persons", personsIndexed),
	)
	return nil
}
