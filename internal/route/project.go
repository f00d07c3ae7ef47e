package route

import (
	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/controller"
	"github.com/SeakMengs/DocControl/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Projects(r *gin.RouterGroup, pc *controller.ProjectController, dc *controller.DocumentController, sc *controller.SharePointController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/projects")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.GET("", pc.GetProjectList)
		v1.GET("/:projectId", pc.GetProjectById)
		v1.GET("/:projectId/documents", middleware.RequirePermission(constant.PermissionDocumentRead), dc.GetDocumentList)
		v1.GET("/:projectId/custom-fields/:fieldId/source-candidates", pc.GetSourceCandidates)
		v1.POST("/:projectId/custom-fields/compute", pc.ComputeCustomFields)
	}

	manage := v1.Group("")
	manage.Use(middleware.RequirePermission(constant.PermissionProjectManage))
	{
		manage.POST("", pc.CreateProject)
		manage.PATCH("/:projectId", pc.UpdateProject)
		manage.DELETE("/:projectId", pc.DeleteProject)
		manage.PUT("/:projectId/custom-fields", pc.UpdateCustomFields)

		manage.GET("/:projectId/sharepoint-configs", sc.GetProjectConfigs)
		manage.POST("/:projectId/sharepoint-configs", sc.CreateProjectConfig)
		manage.PUT("/:projectId/sharepoint-configs/:configId", sc.UpdateProjectConfig)
		manage.DELETE("/:projectId/sharepoint-configs/:configId", sc.DeleteProjectConfig)
	}
}
