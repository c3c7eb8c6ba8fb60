package person_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/person"
)

func strPtr(s string) *string { return &s }

type fakePersonRepository struct {
	findByPersonIDFn func(ctx context.Context, personID string) (*person.Person, error)
	searchFn         func(ctx context.Context, query string, limit, offset int) ([]person.Person, int64, error)
}

func (f *fakePersonRepository) WithTx(tx *gorm.DB) person.Repository { return f }

func (f *fakePersonRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return nil, nil
}

func (f *fakePersonRepository) InsertMany(ctx context.Context, rows []person.Person) error {
	return nil
}

func (f *fakePersonRepository) UpdateMany(ctx context.Context, rows []person.Person) error {
	return nil
}

func (f *fakePersonRepository) FindByPersonID(ctx context.Context, personID string) (*person.Person, error) {
	return f.findByPersonIDFn(ctx, personID)
}

func (f *fakePersonRepository) FindByPersonIDs(ctx context.Context, personIDs []string) ([]person.Person, error) {
	return nil, nil
}

func (f *fakePersonRepository) Search(ctx context.Context, query string, limit, offset int) ([]person.Person, int64, error) {
	return f.searchFn(ctx, query, limit, offset)
}

func (f *fakePersonRepository) StreamAll(ctx context.Context, chunkSize int, fn func(rows []person.Person) error) error {
	return nil
}

// roleRepo only serves FindRolesForPersons; everything else is unused here.
type roleRepo struct {
	fakeRoles []company.RoleCompany
}

func (r *roleRepo) WithTx(tx *gorm.DB) company.Repository { return r }
func (r *roleRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return nil, nil
}
func (r *roleRepo) InsertMany(ctx context.Context, rows []company.Company) error { return nil }
func (r *roleRepo) UpdateMany(ctx context.Context, rows []company.Company) error { return nil }
func (r *roleRepo) UpsertRoles(ctx context.Context, rows []company.CompanyPerson) error {
	return nil
}
func (r *roleRepo) FindByCompanyID(ctx context.Context, companyID string) (*company.Company, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *roleRepo) FindByCompanyIDs(ctx context.Context, companyIDs []string) ([]company.Company, error) {
	return nil, nil
}
func (r *roleRepo) FindRolesForCompanies(ctx context.Context, companyIDs []string) ([]company.RolePerson, error) {
	return nil, nil
}
func (r *roleRepo) FindRolesForPersons(ctx context.Context, personIDs []string) ([]company.RoleCompany, error) {
	return r.fakeRoles, nil
}
func (r *roleRepo) Search(ctx context.Context, f company.SearchFilter) ([]company.Company, int64, error) {
	return nil, 0, nil
}
func (r *roleRepo) StreamAll(ctx context.Context, chunkSize int, fn func(rows []company.Company) error) error {
	return nil
}

func TestGetByPersonIDReturnsCompanies(t *testing.T) {
	repo := &fakePersonRepository{
		findByPersonIDFn: func(ctx context.Context, personID string) (*person.Person, error) {
			return &person.Person{
				PersonID:  "P1",
				FirstName: strPtr("Max"),
				LastName:  strPtr("Muster"),
			}, nil
		},
	}
	companies := &roleRepo{
		fakeRoles: []company.RoleCompany{
			{PersonID: "P1", CompanyID: "C1", RawName: strPtr("Acme GmbH"), RoleType: "GESCHAEFTSFUEHRER"},
		},
	}

	svc := person.NewService(repo, companies, zap.NewNop())
	detail, err := svc.GetByPersonID(context.Background(), "P1")
	assert.NoError(t, err)

	assert.Equal(t, "P1", detail.PersonID)
	if assert.Len(t, detail.Companies, 1) {
		assert.Equal(t, "C1", detail.Companies[0].CompanyID)
		assert.Equal(t, "Acme GmbH", *detail.Companies[0].CompanyName)
	}
}

func TestGetByPersonIDNotFound(t *testing.T) {
	repo := &fakePersonRepository{
		findByPersonIDFn: func(ctx context.Context, personID string) (*person.Person, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := person.NewService(repo, &roleRepo{}, zap.NewNop())
	_, err := svc.GetByPersonID(context.Background(), "missing")
	assert.ErrorIs(t, err, person.ErrPersonNotFound)
}

func TestPersonListPassesQuery(t *testing.T) {
	repo := &fakePersonRepository{
		searchFn: func(ctx context.Context, query string, limit, offset int) ([]person.Person, int64, error) {
			assert.Equal(t, "muster", query)
			assert.Equal(t, 10, limit)
			assert.Equal(t, 10, offset)
			return []person.Person{{PersonID: "P1"}}, 11, nil
		},
	}

	svc := person.NewService(repo, &roleRepo{}, zap.NewNop())
	rows, total, err := svc.List(context.Background(), person.ListPersonsQuery{
		Query: "muster",
		Page:  2,
		Limit: 10,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(11), total)
	assert.Len(t, rows, 1)
}
