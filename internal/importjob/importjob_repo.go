package importjob

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=importjob_repo.go -destination=mock/importjob_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, job *ImportJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*ImportJob, error)
	FindAll(ctx context.Context) ([]ImportJob, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateProgress(ctx context.Context, id uuid.UUID, processed, companies, persons int) error
	Update(ctx context.Context, job *ImportJob) error
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

func (r *repository) Create(ctx context.Context, job *ImportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*ImportJob, error) {
	var job ImportJob
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) FindAll(ctx context.Context) ([]ImportJob, error) {
	var jobs []ImportJob
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return r.db.WithContext(ctx).
		Model(&ImportJob{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) UpdateProgress(ctx context.Context, id uuid.UUID, processed, companies, persons int) error {
	return r.db.WithContext(ctx).
		Model(&ImportJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed_lines":    processed,
			"companies_imported": companies,
			"persons_imported":   persons,
		}).Error
}

func (r *repository) Update(ctx context.Context, job *ImportJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}
