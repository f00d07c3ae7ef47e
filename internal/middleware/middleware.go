package middleware

import (
	appcontext "github.com/SeakMengs/DocControl/internal/app_context"
	ratelimiter "github.com/SeakMengs/DocControl/internal/rate_limiter"
)

// AUTH_USER_KEY is the gin context key holding the verified auth.JWTPayload.
const AUTH_USER_KEY = "user"

type Middleware struct {
	rateLimiter *ratelimiter.FixedWindowRateLimiter
	app         *appcontext.Application
}

func NewMiddleware(app *appcontext.Application,
	rateLimiter *ratelimiter.FixedWindowRateLimiter,
) *Middleware {
	return &Middleware{app: app, rateLimiter: rateLimiter}
}
