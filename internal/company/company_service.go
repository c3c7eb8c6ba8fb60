package company

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lasher77/CompanyDB/internal/shared/apperror"
)

var ErrCompanyNotFound = apperror.New(
	apperror.CodeNotFound,
	"Company not found",
	http.StatusNotFound,
)

//go:generate mockgen -source=company_service.go -destination=mock/company_service_mock.go -package=mock
type Service interface {
	GetByCompanyID(ctx context.Context, companyID string) (CompanyDetailResponse, error)
	List(ctx context.Context, q ListCompaniesQuery) ([]CompanySummary, int64, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger.Named("company.service")}
}

func (s *service) GetByCompanyID(ctx context.Context, companyID string) (CompanyDetailResponse, error) {
	if companyID == "" {
		return CompanyDetailResponse{}, apperror.RequiredField("company_id")
	}

	c, err := s.repo.FindByCompanyID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CompanyDetailResponse{}, ErrCompanyNotFound
		}
		return CompanyDetailResponse{}, err
	}

	roles, err := s.repo.FindRolesForCompanies(ctx, []string{companyID})
	if err != nil {
		return CompanyDetailResponse{}, err
	}

	return mapToDetail(*c, roles), nil
}

func (s *service) List(ctx context.Context, q ListCompaniesQuery) ([]CompanySummary, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Page < 1 {
		q.Page = 1
	}

	rows, total, err := s.repo.Search(ctx, SearchFilter{
		Query:     q.Query,
		Status:    q.Status,
		LegalForm: q.LegalForm,
		City:      q.City,
		Limit:     q.Limit,
		Offset:    (q.Page - 1) * q.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	res := make([]CompanySummary, len(rows))
	for i, row := range rows {
		res[i] = mapToSummary(row)
	}
	return res, total, nil
}
