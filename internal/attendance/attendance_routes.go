package attendance

import (
	"go-hrm/internal/middleware"
	"go-hrm/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	records := r.Group("/attendance")
	records.Use(middleware.AuthMiddleware())
	{
		records.GET("", middleware.RBACAuthorize(rbacService, "attendance", "read"), handler.GetDaily)
		records.POST("", middleware.RBACAuthorize(rbacService, "attendance", "create"), handler.Record)
		records.GET("/punctuality/:employee_id", middleware.RBACAuthorize(rbacService, "attendance", "read"), handler.GetPunctuality)
	}

	summaries := r.Group("/attendance-summaries")
	summaries.Use(middleware.AuthMiddleware())
	{
		summaries.GET("/:employee_id", middleware.RBACAuthorize(rbacService, "attendance", "read"), handler.GetSummary)
		summaries.POST("/aggregate", middleware.RBACAuthorize(rbacService, "attendance", "aggregate"), handler.Aggregate)
	}
}
