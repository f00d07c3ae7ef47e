package route

import (
	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/controller"
	"github.com/SeakMengs/DocControl/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Documents(r *gin.RouterGroup, dc *controller.DocumentController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/documents")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.POST("/upload", middleware.RequirePermission(constant.PermissionDocumentUpload), dc.UploadDocument)
		v1.POST("/versions", middleware.RequirePermission(constant.PermissionDocumentUpload), dc.UploadVersion)

		v1.GET("/:documentId", middleware.RequirePermission(constant.PermissionDocumentRead), dc.GetDocumentById)
		v1.PATCH("/:documentId", middleware.RequirePermission(constant.PermissionDocumentUpdate), dc.UpdateDocument)
		v1.GET("/:documentId/versions", middleware.RequirePermission(constant.PermissionDocumentRead), dc.GetDocumentVersions)
		v1.GET("/:documentId/activity", middleware.RequirePermission(constant.PermissionDocumentRead), dc.GetDocumentActivity)
	}
}
