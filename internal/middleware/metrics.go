package middleware

import (
	"time"

	"github.com/SeakMengs/DocControl/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records HTTP metrics by route pattern, skipping /metrics and /health.
func (m Middleware) Metrics(ctx *gin.Context) {
	if m.app.Metrics == nil || metrics.ShouldSkipEndpoint(ctx.Request.URL.Path) {
		ctx.Next()
		return
	}

	start := time.Now()
	ctx.Next()

	m.app.Metrics.RecordHTTPRequest(
		ctx.Request.Method,
		ctx.FullPath(),
		ctx.Writer.Status(),
		time.Since(start),
	)
}
