package importer

import (
	"context"
	"net/http"

	"github.com/Lasher77/CompanyDB/internal/shared/apperror"
)

// Resolution holds the membership sets for this import pass. Everything the
// rest of the pipeline asks ("does this id exist?") is an O(1) map lookup;
// no per-record queries happen after Resolve returns.
type Resolution struct {
	Companies map[string]struct{}
	Persons   map[string]struct{}
}

func (r Resolution) CompanyExists(id string) bool {
	_, ok := r.Companies[id]
	return ok
}

func (r Resolution) PersonExists(id string) bool {
	_, ok := r.Persons[id]
	return ok
}

type Resolver struct {
	companies CompanyStore
	persons   PersonStore
}

func NewResolver(companies CompanyStore, persons PersonStore) *Resolver {
	return &Resolver{companies: companies, persons: persons}
}

// Resolve issues one bulk existence probe per entity kind over every id seen
// in the parsed records. A store failure here is fatal to the job.
func (r *Resolver) Resolve(ctx context.Context, records []Record) (Resolution, error) {
	companyIDs := make([]string, 0, len(records))
	seenCompanies := make(map[string]struct{}, len(records))
	var personIDs []string
	seenPersons := make(map[string]struct{})

	for _, rec := range records {
		if _, ok := seenCompanies[rec.CompanyID]; !ok {
			seenCompanies[rec.CompanyID] = struct{}{}
			companyIDs = append(companyIDs, rec.CompanyID)
		}
		for _, rp := range rec.Persons {
			if _, ok := seenPersons[rp.PersonID]; !ok {
				seenPersons[rp.PersonID] = struct{}{}
				personIDs = append(personIDs, rp.PersonID)
			}
		}
	}

	existingCompanies, err := r.companies.ExistingIDs(ctx, companyIDs)
	if err != nil {
		return Resolution{}, apperror.Wrap(err, apperror.CodeResolutionFailed,
			"company existence check failed", http.StatusInternalServerError)
	}

	existingPersons, err := r.persons.ExistingIDs(ctx, personIDs)
	if err != nil {
		return Resolution{}, apperror.Wrap(err, apperror.CodeResolutionFailed,
			"person existence check failed", http.StatusInternalServerError)
	}

	return Resolution{
		Companies: existingCompanies,
		Persons:   existingPersons,
	}, nil
}
