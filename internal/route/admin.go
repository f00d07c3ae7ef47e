package route

import (
	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/controller"
	"github.com/SeakMengs/DocControl/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Departments(r *gin.RouterGroup, dc *controller.DepartmentController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/departments")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.GET("", dc.GetDepartmentList)
	}

	admin := v1.Group("")
	admin.Use(middleware.RequirePermission(constant.PermissionUserAdmin))
	{
		admin.POST("", dc.CreateDepartment)
		admin.PUT("/:departmentId", dc.UpdateDepartment)
		admin.DELETE("/:departmentId", dc.DeleteDepartment)
	}
}

func V1_Roles(r *gin.RouterGroup, rc *controller.RoleController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/roles")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.GET("", rc.GetRoleList)
		v1.GET("/permissions", rc.GetPermissionList)
	}

	admin := v1.Group("")
	admin.Use(middleware.RequirePermission(constant.PermissionUserAdmin))
	{
		admin.POST("", rc.CreateRole)
		admin.PUT("/:roleId", rc.UpdateRole)
		admin.DELETE("/:roleId", rc.DeleteRole)
	}
}
