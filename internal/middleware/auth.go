package middleware

import (
	"net/http"

	"github.com/SeakMengs/DocControl/internal/auth"
	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/gin-gonic/gin"
)

func (m Middleware) AuthMiddleware(ctx *gin.Context) {
	token, err := util.ReadAuthToken(ctx, m.app.Config.Auth.COOKIE_NAME)
	if err != nil {
		m.app.Logger.Debugf("Failed to read token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err, "unauthorized"), nil)
		return
	}

	claim, err := m.app.JWTService.VerifyJwtToken(token)
	if err != nil {
		m.app.Logger.Debugf("Failed to verify token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid token", util.GenerateErrorMessages(err, "unauthorized"), nil)
		return
	}

	ctx.Set(AUTH_USER_KEY, claim.JWTPayload)
	ctx.Next()
}

// RequirePermission must run after AuthMiddleware. The permissions come from the
// user's role at request time, so a role change applies without a new token.
func (m Middleware) RequirePermission(required ...constant.Permission) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, ok := ctx.Get(AUTH_USER_KEY)
		payload, isPayload := value.(auth.JWTPayload)
		if !ok || !isPayload {
			util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", nil, nil)
			return
		}

		granted, err := m.app.Repository.User.GetPermissions(ctx, nil, payload.UserID)
		if err != nil {
			m.app.Logger.Debugf("Failed to load permissions of %s: %v", payload.UserID, err)
			util.ResponseFailed(ctx, http.StatusForbidden, "Forbidden", util.GenerateErrorMessages(err, "permission"), nil)
			return
		}

		if !util.HasPermission(granted, required) {
			util.ResponseFailed(ctx, http.StatusForbidden, "You do not have permission to perform this action", nil, nil)
			return
		}

		ctx.Next()
	}
}
