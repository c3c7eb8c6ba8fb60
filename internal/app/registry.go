package app

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lasher77/CompanyDB/internal/company"
	"github.com/Lasher77/CompanyDB/internal/config"
	"github.com/Lasher77/CompanyDB/internal/health"
	"github.com/Lasher77/CompanyDB/internal/importer"
	"github.com/Lasher77/CompanyDB/internal/importjob"
	"github.com/Lasher77/CompanyDB/internal/messaging/kafka"
	"github.com/Lasher77/CompanyDB/internal/middleware"
	"github.com/Lasher77/CompanyDB/internal/person"
	"github.com/Lasher77/CompanyDB/internal/search"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
	searchBackend search.Backend,
	cfg config.Config,
) error {
	logger := zap.L()

	// --- Repositories ---
	companyRepo := company.NewRepository(gormDB)
	personRepo := person.NewRepository(gormDB)
	jobRepo := importjob.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- Import pipeline ---
	// searchSyncer and reindexer stay nil interfaces when search is off so
	// the pipeline and service skip those phases cleanly.
	var searchSyncer importer.SearchSyncer
	var reindexer importjob.ReindexRunner
	if searchBackend != nil {
		searchSyncer = search.NewSyncWriter(searchBackend, companyRepo, personRepo, cfg.Search.BatchSize, logger)
		reindexer = search.NewReindexer(searchBackend, companyRepo, personRepo, cfg.Search.BatchSize, logger)
	}

	pipeline := importer.NewPipeline(
		cfg.Import.BatchSize,
		companyRepo,
		personRepo,
		importjob.NewTracker(jobRepo),
		importer.NewIndexController(gormDB, logger),
		searchSyncer,
		logger,
	)

	// --- Services ---
	jobService := importjob.NewService(
		gormDB,
		jobRepo,
		pipeline,
		reindexer,
		outboxRepo,
		cfg.Import.DataDirectory,
		logger,
	)
	companyService := company.NewService(companyRepo, logger)
	personService := person.NewService(personRepo, companyRepo, logger)

	// --- Handlers ---
	jobHandler := importjob.NewHandler(jobService)
	companyHandler := company.NewHandler(companyService)
	personHandler := person.NewHandler(personService)
	healthHandler := health.NewHandler(gormDB, searchBackend, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		importjob.RegisterRoutes(api, jobHandler, middleware.Idempotency(rdb))
		company.RegisterRoutes(api, companyHandler)
		person.RegisterRoutes(api, personHandler)
	}

	health.RegisterRoutes(router, healthHandler)

	return nil
}
