package company

import (
	"github.com/gin-gonic/gin"

	"github.com/Lasher77/CompanyDB/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	companies := r.Group("/companies")
	companies.Use(middleware.ContextMiddleware())
	{
		companies.GET("", handler.GetAll)
		companies.GET("/:company_id", handler.GetByID)
	}
}
