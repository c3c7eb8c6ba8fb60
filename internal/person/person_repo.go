package person

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const existenceChunkSize = 5000

//go:generate mockgen -source=person_repo.go -destination=mock/person_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	InsertMany(ctx context.Context, rows []Person) error
	UpdateMany(ctx context.Context, rows []Person) error
	FindByPersonID(ctx context.Context, personID string) (*Person, error)
	FindByPersonIDs(ctx context.Context, personIDs []string) ([]Person, error)
	Search(ctx context.Context, query string, limit, offset int) ([]Person, int64, error)
	StreamAll(ctx context.Context, chunkSize int, fn func(rows []Person) error) error
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
			Model(&Person{}).
			Where("person_id IN ?", ids[start:end]).
			Pluck("person_id", &found).Error
		if err != nil {
			return nil, err
		}
		for _, id := range found {
			existing[id] = struct{}{}
		}
	}

	return existing, nil
}

func (r *repository) InsertMany(ctx context.Context, rows []Person) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(&rows).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("person batch raced a concurrent import: %w", err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repository) UpdateMany(ctx context.Context, rows []Person) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "person_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_name", "last_name", "birth_year", "address_city", "full_record",
		}),
	}).Create(&rows).Error
}

func (r *repository) FindByPersonID(ctx context.Context, personID string) (*Person, error) {
	var p Person
	err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindByPersonIDs(ctx context.Context, personIDs []string) ([]Person, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	var rows []Person
	err := r.db.WithContext(ctx).
		Where("person_id IN ?", personIDs).
		Find(&rows).Error
	return rows, err
}

func (r *repository) Search(ctx context.Context, query string, limit, offset int) ([]Person, int64, error) {
	q := r.db.WithContext(ctx).Model(&Person{})

	if query != "" {
		like := "%" + query + "%"
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR person_id = ?", like, like, query)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []Person
	err := q.Order("last_name, first_name").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

func (r *repository) StreamAll(ctx context.Context, chunkSize int, fn func(rows []Person) error) error {
	var chunk []Person
	return r.db.WithContext(ctx).
		Order("id").
		FindInBatches(&chunk, chunkSize, func(tx *gorm.DB, _ int) error {
			return fn(chunk)
		}).Error
}
