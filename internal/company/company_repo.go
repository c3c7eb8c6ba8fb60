package company

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// existenceChunkSize bounds the IN-list of the id probe so a 700k-id import
// does not produce a single unbounded statement.
const existenceChunkSize = 5000

//go:generate mockgen -source=company_repo.go -destination=mock/company_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	InsertMany(ctx context.Context, rows []Company) error
	UpdateMany(ctx context.Context, rows []Company) error
	UpsertRoles(ctx context.Context, rows []CompanyPerson) error
	FindByCompanyID(ctx context.Context, companyID string) (*Company, error)
	FindByCompanyIDs(ctx context.Context, companyIDs []string) ([]Company, error)
	FindRolesForCompanies(ctx context.Context, companyIDs []string) ([]RolePerson, error)
	FindRolesForPersons(ctx context.Context, personIDs []string) ([]RoleCompany, error)
	Search(ctx context.Context, f SearchFilter) ([]Company, int64, error)
	StreamAll(ctx context.Context, chunkSize int, fn func(rows []Company) error) error
}

type SearchFilter struct {
	Query     string
	Status    string
	LegalForm string
	City      string
	Limit     int
	Offset    int
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))

	for start := 0; start < len(ids); start += existenceChunkSize {
		end := start + existenceChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		var found []string
		err := r.db.WithContext(ctx).
			Model(&Company{}).
			Where("company_id IN ?", ids[start:end]).
			Pluck("company_id", &found).Error
		if err != nil {
			return nil, err
		}
		for _, id := range found {
			existing[id] = struct{}{}
		}
	}

	return existing, nil
}

func (r *repository) InsertMany(ctx context.Context, rows []Company) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(&rows).Error
	if isUniqueViolation(err) {
		// The existence probe ran before this write, so a duplicate here
		// means a concurrent import touched the same ids.
		return fmt.Errorf("company batch raced a concurrent import: %w", err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// UpdateMany refreshes rows known to exist via a single upsert statement;
// the conflict branch is always taken, so this is an update-many in one
// round trip rather than one UPDATE per row.
func (r *repository) UpdateMany(ctx context.Context, rows []Company) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"import_job_id", "raw_name", "legal_name", "legal_form", "status",
			"terminated", "register_unique_key", "register_id", "address_city",
			"address_postal_code", "address_country", "last_update_time",
			"full_record",
		}),
	}).Create(&rows).Error
}

func (r *repository) UpsertRoles(ctx context.Context, rows []CompanyPerson) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "company_id"}, {Name: "person_id"}, {Name: "role_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"role_description", "role_date"}),
	}).Create(&rows).Error
}

func (r *repository) FindByCompanyID(ctx context.Context, companyID string) (*Company, error) {
	var c Company
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindByCompanyIDs(ctx context.Context, companyIDs []string) ([]Company, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	var rows []Company
	err := r.db.WithContext(ctx).
		Where("company_id IN ?", companyIDs).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindRolesForCompanies(ctx context.Context, companyIDs []string) ([]RolePerson, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	var rows []RolePerson
	err := r.db.WithContext(ctx).Raw(`
		SELECT cp.company_id, cp.person_id, p.first_name, p.last_name,
		       cp.role_type, cp.role_description, cp.role_date
		FROM company_person cp
		JOIN person p ON p.person_id = cp.person_id
		WHERE cp.company_id IN ?
	`, companyIDs).Scan(&rows).Error
	return rows, err
}

func (r *repository) FindRolesForPersons(ctx context.Context, personIDs []string) ([]RoleCompany, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	var rows []RoleCompany
	err := r.db.WithContext(ctx).Raw(`
		SELECT cp.person_id, cp.company_id, c.raw_name, c.legal_name,
		       cp.role_type, cp.role_date
		FROM company_person cp
		JOIN company c ON c.company_id = cp.company_id
		WHERE cp.person_id IN ?
	`, personIDs).Scan(&rows).Error
	return rows, err
}

func (r *repository) Search(ctx context.Context, f SearchFilter) ([]Company, int64, error) {
	q := r.db.WithContext(ctx).Model(&Company{})

	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where(
			"raw_name ILIKE ? OR legal_name ILIKE ? OR company_id = ? OR register_unique_key = ? OR register_id ILIKE ?",
			like, like, f.Query, f.Query, like,
		)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.LegalForm != "" {
		q = q.Where("legal_form ILIKE ?", "%"+f.LegalForm+"%")
	}
	if f.City != "" {
		q = q.Where("address_city ILIKE ?", "%"+f.City+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []Company
	err := q.Order("legal_name").Offset(f.Offset).Limit(f.Limit).Find(&rows).Error
	return rows, total, err
}

// StreamAll walks the company table with a forward-only chunked read so a
// full reindex never materializes the table in memory.
func (r *repository) StreamAll(ctx context.Context, chunkSize int, fn func(rows []Company) error) error {
	var chunk []Company
	return r.db.WithContext(ctx).
		Order("id").
		FindInBatches(&chunk, chunkSize, func(tx *gorm.DB, _ int) error {
			return fn(chunk)
		}).Error
}
