package person

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/shared/apperror"
)

var ErrPersonNotFound = apperror.New(
	apperror.CodeNotFound,
	"Person not found",
	http.StatusNotFound,
)

//go:generate mockgen -source=person_service.go -destination=mock/person_service_mock.go -package=mock
type Service interface {
	GetByPersonID(ctx context.Context, personID string) (PersonDetailResponse, error)
	List(ctx context.Context, q ListPersonsQuery) ([]PersonSummary, int64, error)
}

type service struct {
	repo        Repository
	companyRepo company.Repository
	logger      *zap.Logger
}

func NewService(repo Repository, companyRepo company.Repository, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		companyRepo: companyRepo,
		logger:      logger.Named("person.service"),
	}
}

func (s *service) GetByPersonID(ctx context.Context, personID string) (PersonDetailResponse, error) {
	if personID == "" {
		return PersonDetailResponse{}, apperror.RequiredField("person_id")
	}

	p, err := s.repo.FindByPersonID(ctx, personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PersonDetailResponse{}, ErrPersonNotFound
		}
		return PersonDetailResponse{}, err
	}

	roles, err := s.companyRepo.FindRolesForPersons(ctx, []string{personID})
	if err != nil {
		return PersonDetailResponse{}, err
	}

	return mapToDetail(*p, roles), nil
}

func (s *service) List(ctx context.Context, q ListPersonsQuery) ([]PersonSummary, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Page < 1 {
		q.Page = 1
	}

	rows, total, err := s.repo.Search(ctx, q.Query, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PersonSummary, len(rows))
	for i, row := range rows {
		res[i] = mapToSummary(row)
	}
	return res, total, nil
}
