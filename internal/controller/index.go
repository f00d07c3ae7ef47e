package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/gin-gonic/gin"
)

type IndexController struct {
	*baseController
}

func (ic IndexController) Index(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"message": "Welcome to the DocControl api",
	})
}

// Health reports whether the database answers a ping.
func (ic IndexController) Health(ctx *gin.Context) {
	sqlDB, err := ic.app.Repository.DB.DB()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusServiceUnavailable, "Database unavailable", util.GenerateErrorMessages(err), nil)
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		ic.app.Logger.Warnf("Health check failed: %v", err)
		util.ResponseFailed(ctx, http.StatusServiceUnavailable, "Database unavailable", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"status":      "ok",
		"database":    "ok",
		"objectStore": ic.app.S3 != nil,
	})
}
