package app

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Lasher77/CompanyDB/internal/config"
	"github.com/Lasher77/CompanyDB/internal/search"
	"github.com/Lasher77/CompanyDB/internal/shared/connection"
)

// BuildApp wires infrastructure and modules into the router and returns the
// loaded config so main can start the server.
func BuildApp(router *gin.Engine) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
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
		return config.Config{}, err
	}
	zap.L().Info("database connection established")

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return config.Config{}, err
	}
	zap.L().Info("redis connection established")

	// Search is optional. The import pipeline and the API keep working
	// without it; only search sync and reindexing are disabled.
	var searchBackend search.Backend
	if cfg.Search.Enabled {
		osClient, err := connection.ConnectOpenSearchWithRetry(cfg.Search.Address, 5)
		if err != nil {
			return config.Config{}, err
		}
		searchBackend = search.NewBackend(osClient)
		zap.L().Info("opensearch connection established")
	} else {
		zap.L().Warn("search indexing disabled")
	}

	if err := registerModules(router, gormDB, redisClient, searchBackend, cfg); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}
