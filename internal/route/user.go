package route

import (
	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/controller"
	"github.com/SeakMengs/DocControl/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Users(r *gin.RouterGroup, uc *controller.UserController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/users")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.GET("/me", uc.GetMe)
	}

	admin := v1.Group("")
	admin.Use(middleware.RequirePermission(constant.PermissionUserAdmin))
	{
		admin.GET("", uc.GetUserList)
		admin.PUT("/:userId/assignment", uc.AssignRoleAndDepartment)
	}
}
