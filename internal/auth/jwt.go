package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/SeakMengs/DocControl/internal/config"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var ErrInvalidToken = errors.New("invalid session token")

type JWT struct {
	logger    *zap.SugaredLogger
	jwtSecret string
	ttl       time.Duration
}

type JWTInterface interface {
	GenerateToken(payload JWTPayload) (string, error)
	VerifyJwtToken(token string) (*JWTClaims, error)
}

func NewJwt(cfg config.AuthConfig, logger *zap.SugaredLogger) *JWT {
	ttl := cfg.TOKEN_TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &JWT{
		jwtSecret: cfg.JWT_SECRET,
		ttl:       ttl,
		logger:    util.NopLoggerIfNil(logger),
	}
}

// JWTPayload is the identity carried by the session cookie.
type JWTPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type JWTClaims struct {
	JWTPayload
	jwt.RegisteredClaims
}

func (j JWT) GenerateToken(payload JWTPayload) (string, error) {
	j.logger.Debugf("Generate session token for user: %s", payload.UserID)

	now := time.Now()
	claims := JWTClaims{
		JWTPayload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return token, nil
}

func (j JWT) VerifyJwtToken(token string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(j.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		j.logger.Debugf("Failed to verify jwt token. Error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !parsedToken.Valid {
		j.logger.Debug("Jwt token is not valid")
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: userId is missing", ErrInvalidToken)
	}

	return claims, nil
}
