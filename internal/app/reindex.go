package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/config"
	"github.com/Lasher77/CompanyDB/internal/person"
	"github.com/Lasher77/CompanyDB/internal/search"
	"github.com/Lasher77/CompanyDB/internal/shared/connection"
)

// RunReindex rebuilds both search indices from PostgreSQL and exits. Meant
// for operators after a restore or a mapping change.
func RunReindex(ctx context.Context) error {
	logger := zap.L().Named("app.reindex")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.Database.Host,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.Port,
		cfg.Database.SSLMode,
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	osClient, err := connection.ConnectOpenSearchWithRetry(cfg.Search.Address, 5)
	if err != nil {
		return err
	}

	reindexer := search.NewReindexer(
		search.NewBackend(osClient),
		company.NewRepository(gormDB),
		person.NewRepository(gormDB),
		cfg.Search.BatchSize,
		logger,
	)

	return reindexer.Run(ctx)
}
