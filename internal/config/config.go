package config

import (
	"strings"
	"time"

	"github.com/SeakMengs/DocControl/internal/env"
)

type Config struct {
	Port        string
	ENV         string
	DB          DatabaseConfig
	RateLimiter RateLimiterConfig
	Mail        MailConfig
	Auth        AuthConfig
	Minio       MinioConfig
	Graph       GraphConfig
	Redis       RedisConfig
	Secret      SecretConfig
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type AuthConfig struct {
	JWT_SECRET  string
	COOKIE_NAME string
	// TOKEN_TTL is only used when this service mints tokens itself (cmd/token and tests).
	TOKEN_TTL time.Duration
}

type DatabaseConfig struct {
	DB_HOST      string
	DB_PORT      string
	DB_DATABASE  string
	DB_USERNAME  string
	DB_PASSWORD  string
	DB_SSLMODE   string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  string
}

type MailConfig struct {
	SEND_GRID  SendGridConfig
	FROM_EMAIL string
	Enabled    bool
}

type SendGridConfig struct {
	API_KEY string
}

type MinioConfig struct {
	ENDPOINT   string
	ACCESS_KEY string
	SECRET_KEY string
	BUCKET     string
	USE_SSL    bool
}

// GraphConfig controls how the service talks to Microsoft Graph and how it
// obtains access tokens. The dev and fallback knobs are ignored in production.
type GraphConfig struct {
	BaseURL     string
	LoginURL    string
	HTTPTimeout time.Duration

	DevToken                       string
	ConditionalAccessFallbackToken string
	EmergencyFallback              bool
}

type RedisConfig struct {
	URL       string
	KeyPrefix string
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type SecretConfig struct {
	// KEY is a base64 encoded 32 byte key used to seal SharePoint client secrets.
	KEY string
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

func GetConfig() Config {
	rateLimiteTimeFrame, err := time.ParseDuration(env.GetString("RATE_LIMIT_TIME_FRAME", "1m"))
	if err != nil {
		rateLimiteTimeFrame = 60 * time.Second
	}

	return Config{
		Port: env.GetString("PORT", "8080"),
		ENV:  env.GetString("ENV", "development"),
		DB: DatabaseConfig{
			DB_HOST:      env.GetString("DB_HOST", "127.0.0.1"),
			DB_PORT:      env.GetString("DB_PORT", "5432"),
			DB_USERNAME:  env.GetString("DB_USERNAME", "root"),
			DB_PASSWORD:  env.GetString("DB_PASSWORD", ""),
			DB_DATABASE:  env.GetString("DB_DATABASE", "doccontrol"),
			DB_SSLMODE:   env.GetString("DB_SSLMODE", "disable"),
			MaxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 30),
			MaxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 30),
			MaxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
		// By default if not specified, we allow 5000 requests per minute on all routes
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame: env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 5000),
			TimeFrame:            rateLimiteTimeFrame,
			Enabled:              env.GetBool("RATE_LIMIT_ENABLED", true),
		},
		Mail: MailConfig{
			FROM_EMAIL: env.GetString("MAIL_FROM_MAIL", ""),
			Enabled:    env.GetBool("MAIL_ENABLED", false),
			SEND_GRID: SendGridConfig{
				API_KEY: env.GetString("MAIL_SEND_GRID_API_KEY", ""),
			},
		},
		Auth: AuthConfig{
			JWT_SECRET:  env.GetString("AUTH_JWT_SECRET", ""),
			COOKIE_NAME: env.GetString("AUTH_COOKIE_NAME", "auth-token"),
			TOKEN_TTL:   env.GetDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
		Minio: MinioConfig{
			ENDPOINT:   env.GetString("MINIO_ENDPOINT", "127.0.0.1:9000"),
			ACCESS_KEY: env.GetString("MINIO_ACCESS_KEY", ""),
			SECRET_KEY: env.GetString("MINIO_SECRET_KEY", ""),
			BUCKET:     env.GetString("MINIO_BUCKET", "doccontrol"),
			USE_SSL:    env.GetBool("MINIO_USE_SSL", false),
		},
		Graph: GraphConfig{
			BaseURL:                        env.GetString("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),
			LoginURL:                       env.GetString("GRAPH_LOGIN_URL", "https://login.microsoftonline.com"),
			HTTPTimeout:                    env.GetDuration("GRAPH_HTTP_TIMEOUT", 60*time.Second),
			DevToken:                       env.GetString("SHAREPOINT_DEV_TOKEN", ""),
			ConditionalAccessFallbackToken: env.GetString("SHAREPOINT_FALLBACK_TOKEN", ""),
			EmergencyFallback:              env.GetBool("SHAREPOINT_EMERGENCY_FALLBACK", false),
		},
		Redis: RedisConfig{
			URL:       env.GetString("REDIS_URL", ""),
			KeyPrefix: env.GetString("REDIS_KEY_PREFIX", "doccontrol:"),
		},
		Secret: SecretConfig{
			KEY: env.GetString("SECRET_KEY", ""),
		},
	}
}
