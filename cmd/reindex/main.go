package main

import (
	"context"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Lasher77/CompanyDB/internal/app"
	"github.com/Lasher77/CompanyDB/internal/shared/apperror"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	if err := app.RunReindex(context.Background()); err != nil {
		logger.Fatal("reindex failed", zap.Error(err))
	}
	logger.Info("reindex finished")
}
