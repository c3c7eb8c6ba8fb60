package health

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lasher77/CompanyDB/internal/search"
)

type HealthResponse struct {
	Status     string `json:"status"`
	Postgres   string `json:"postgres"`
	OpenSearch string `json:"opensearch"`
}

type Handler struct {
	db     *gorm.DB
	search search.Backend // nil when search indexing is disabled
	logger *zap.Logger
}

func NewHandler(db *gorm.DB, backend search.Backend, logger *zap.Logger) *Handler {
	return &Handler{db: db, search: backend, logger: logger.Named("health.handler")}
}

// Check reports the reachability of each backing service. The endpoint
// answers 200 even when degraded so load balancers can read the body.
func (h *Handler) Check(c *gin.Context) {
	ctx := c.Request.Context()

	postgres := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		postgres = fmt.Sprintf("error: %s", err)
	}

	opensearch := "disabled"
	if h.search != nil {
		opensearch = "ok"
		if err := h.search.Ping(ctx); err != nil {
			opensearch = fmt.Sprintf("error: %s", err)
		}
	}

	overall := "ok"
	if postgres != "ok" || (h.search != nil && opensearch != "ok") {
		overall = "degraded"
	}

	if overall == "degraded" {
		h.logger.Warn("health check degraded",
			zap.String("postgres", postgres),
			zap.String("opensearch", opensearch),
		)
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:     overall,
		Postgres:   postgres,
		OpenSearch: opensearch,
	})
}

func RegisterRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.Check)
}
