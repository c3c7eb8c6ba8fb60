package importer_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/person"
)

type fakeCompanyStore struct {
	existingIDsFn func(ctx context.Context, ids []string) (map[string]struct{}, error)
	insertManyFn  func(ctx context.Context, rows []company.Company) error
	updateManyFn  func(ctx context.Context, rows []company.Company) error
	upsertRolesFn func(ctx context.Context, rows []company.CompanyPerson) error

	inserted []company.Company
	updated  []company.Company
	roles    []company.CompanyPerson
}

func (f *fakeCompanyStore) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	if f.existingIDsFn != nil {
		return f.existingIDsFn(ctx, ids)
	}
	return map[string]struct{}{}, nil
}

func (f *fakeCompanyStore) InsertMany(ctx context.Context, rows []company.Company) error {
	if f.insertManyFn != nil {
		if err := f.insertManyFn(ctx, rows); err != nil {
			return err
		}
	}
	f.inserted = append(f.inserted, rows...)
	return nil
}

func (f *fakeCompanyStore) UpdateMany(ctx context.Context, rows []company.Company) error {
	if f.updateManyFn != nil {
		if err := f.updateManyFn(ctx, rows); err != nil {
			return err
		}
	}
	f.updated = append(f.updated, rows...)
	return nil
}

func (f *fakeCompanyStore) UpsertRoles(ctx context.Context, rows []company.CompanyPerson) error {
	if f.upsertRolesFn != nil {
		if err := f.upsertRolesFn(ctx, rows); err != nil {
			return err
		}
	}
	f.roles = append(f.roles, rows...)
	return nil
}

type fakePersonStore struct {
	existingIDsFn func(ctx context.Context, ids []string) (map[string]struct{}, error)
	insertManyFn  func(ctx context.Context, rows []person.Person) error
	updateManyFn  func(ctx context.Context, rows []person.Person) error

	inserted []person.Person
	updated  []person.Person
}

func (f *fakePersonStore) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	if f.existingIDsFn != nil {
		return f.existingIDsFn(ctx, ids)
	}
	return map[string]struct{}{}, nil
}

func (f *fakePersonStore) InsertMany(ctx context.Context, rows []person.Person) error {
	if f.insertManyFn != nil {
		if err := f.insertManyFn(ctx, rows); err != nil {
			return err
		}
	}
	f.inserted = append(f.inserted, rows...)
	return nil
}

func (f *fakePersonStore) UpdateMany(ctx context.Context, rows []person.Person) error {
	if f.updateManyFn != nil {
		if err := f.updateManyFn(ctx, rows); err != nil {
			return err
		}
	}
	f.updated = append(f.updated, rows...)
	return nil
}

type progressSnapshot struct {
	processed int
	companies int
	persons   int
}

type fakeTracker struct {
	snapshots  []progressSnapshot
	finalizing int
}

func (f *fakeTracker) Progress(ctx context.Context, jobID uuid.UUID, processed, companies, persons int) error {
	f.snapshots = append(f.snapshots, progressSnapshot{processed, companies, persons})
	return nil
}

func (f *fakeTracker) Finalizing(ctx context.Context, jobID uuid.UUID) error {
	f.finalizing++
	return nil
}

type fakeIndexController struct {
	dropFn     func(ctx context.Context) error
	recreateFn func(ctx context.Context) error

	drops     int
	recreates int
}

func (f *fakeIndexController) DropSecondary(ctx context.Context) error {
	f.drops++
	if f.dropFn != nil {
		return f.dropFn(ctx)
	}
	return nil
}

func (f *fakeIndexController) Recreate(ctx context.Context) error {
	f.recreates++
	if f.recreateFn != nil {
		return f.recreateFn(ctx)
	}
	return nil
}

type fakeSyncer struct {
	syncCompaniesFn func(ctx context.Context, ids []string) error
	syncPersonsFn   func(ctx context.Context, ids []string) error

	companyIDs []string
	personIDs  []string
}

func (f *fakeSyncer) SyncCompanies(ctx context.Context, ids []string) error {
	f.companyIDs = append(f.companyIDs, ids...)
	if f.syncCompaniesFn != nil {
		return f.syncCompaniesFn(ctx, ids)
	}
	return nil
}

func (f *fakeSyncer) SyncPersons(ctx context.Context, ids []string) error {
	f.personIDs = append(f.personIDs, ids...)
	if f.syncPersonsFn != nil {
		return f.syncPersonsFn(ctx, ids)
	}
	return nil
}
