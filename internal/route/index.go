package route

import (
	"github.com/SeakMengs/DocControl/internal/controller"
	"github.com/SeakMengs/DocControl/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Index mounts the unauthenticated endpoints on the engine root.
func Index(r *gin.Engine, ic *controller.IndexController, gatherer prometheus.Gatherer) {
	r.GET("/", ic.Index)
	r.GET("/health", ic.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// Register mounts every versioned group under /api.
func Register(r *gin.Engine, c *controller.Controller, mw *middleware.Middleware, gatherer prometheus.Gatherer) {
	Index(r, c.Index, gatherer)

	api := r.Group("/api")
	V1_Projects(api, c.Project, c.Document, c.SharePoint, mw)
	V1_Documents(api, c.Document, mw)
	V1_SharePoint(api, c.SharePoint, mw)
	V1_Departments(api, c.Department, mw)
	V1_Roles(api, c.Role, mw)
	V1_Users(api, c.User, mw)
}
