package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/person"
)

// Store contracts the pipeline writes through. The gorm repositories satisfy
// them; tests plug in fakes.

type CompanyStore interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	InsertMany(ctx context.Context, rows []company.Company) error
	UpdateMany(ctx context.Context, rows []company.Company) error
	UpsertRoles(ctx context.Context, rows []company.CompanyPerson) error
}

type PersonStore interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	InsertMany(ctx context.Context, rows []person.Person) error
	UpdateMany(ctx context.Context, rows []person.Person) error
}

// JobTracker persists progress so pollers see monotonic counters while the
// job runs. Finalizing marks the index-rebuild window.
type JobTracker interface {
	Progress(ctx context.Context, jobID uuid.UUID, processed, companies, persons int) error
	Finalizing(ctx context.Context, jobID uuid.UUID) error
}

// SearchSyncer pushes freshly persisted entities to the search index.
// Failures are non-fatal to the relational import.
type SearchSyncer interface {
	SyncCompanies(ctx context.Context, companyIDs []string) error
	SyncPersons(ctx context.Context, personIDs []string) error
}

// IndexController brackets the bulk write, removing non-essential secondary
// indexes up front and rebuilding them afterwards. Uniqueness constraints
// are never touched.
type IndexController interface {
	DropSecondary(ctx context.Context) error
	Recreate(ctx context.Context) error
}
