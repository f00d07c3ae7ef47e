package route

import (
	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/controller"
	"github.com/SeakMengs/DocControl/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_SharePoint(r *gin.RouterGroup, sc *controller.SharePointController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/sharepoint")
	v1.Use(middleware.AuthMiddleware, middleware.RequirePermission(constant.PermissionSharePointAdmin))
	{
		v1.GET("/config", sc.GetOrgConfig)
		v1.PUT("/config", sc.UpsertOrgConfig)
	}
}
