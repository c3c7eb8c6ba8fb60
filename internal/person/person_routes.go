package person

import (
	"github.com/gin-gonic/gin"

	"github.com/Lasher77/CompanyDB/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	persons := r.Group("/persons")
	persons.Use(middleware.ContextMiddleware())
	{
		persons.GET("", handler.GetAll)
		persons.GET("/:person_id", handler.GetByID)
	}
}
