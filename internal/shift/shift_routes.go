package shift

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
	shifts := r.Group("/shifts")
	shifts.Use(middleware.AuthMiddleware())
	{
		shifts.GET("", middleware.RBACAuthorize(rbacService, "shift", "read"), handler.GetAll)
		shifts.GET("/:id", middleware.RBACAuthorize(rbacService, "shift", "read"), handler.GetByID)
		shifts.POST("", middleware.RBACAuthorize(rbacService, "shift", "manage"), handler.Create)
		shifts.PUT("/:id", middleware.RBACAuthorize(rbacService, "shift", "manage"), handler.Update)
		shifts.DELETE("/:id", middleware.RBACAuthorize(rbacService, "shift", "manage"), handler.Delete)
	}
}
