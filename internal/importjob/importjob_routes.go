package importjob

import (
	"github.com/gin-gonic/gin"

	"github.com/Lasher77/CompanyDB/internal/middleware"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	idempotency gin.HandlerFunc,
) {
	imports := r.Group("/imports")
	imports.Use(middleware.ContextMiddleware())
	{
		imports.GET("", handler.GetAll)
		imports.GET("/files", handler.ListFiles)
		imports.GET("/:id", handler.GetByID)
		imports.POST("", idempotency, handler.Create)
		imports.POST("/reindex", handler.Reindex)
	}
}
