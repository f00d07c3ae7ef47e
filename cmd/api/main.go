package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcontext "github.com/SeakMengs/DocControl/internal/app_context"
	"github.com/SeakMengs/DocControl/internal/auth"
	"github.com/SeakMengs/DocControl/internal/config"
	"github.com/SeakMengs/DocControl/internal/controller"
	"github.com/SeakMengs/DocControl/internal/database"
	"github.com/SeakMengs/DocControl/internal/env"
	filestorage "github.com/SeakMengs/DocControl/internal/file_storage"
	"github.com/SeakMengs/DocControl/internal/mailer"
	"github.com/SeakMengs/DocControl/internal/metrics"
	"github.com/SeakMengs/DocControl/internal/middleware"
	ratelimiter "github.com/SeakMengs/DocControl/internal/rate_limiter"
	"github.com/SeakMengs/DocControl/internal/repository"
	"github.com/SeakMengs/DocControl/internal/route"
	"github.com/SeakMengs/DocControl/internal/secret"
	"github.com/SeakMengs/DocControl/internal/tokencache"
	"github.com/SeakMengs/DocControl/internal/upload"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/SeakMengs/DocControl/pkg/sharepoint"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Running %s on port %s in %s mode \n", util.GetAppName(), cfg.Port, cfg.ENV)

	appMetrics := metrics.New(logger)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected \n")

	if err := database.RegisterMetricsCallbacks(db, appMetrics); err != nil {
		logger.Panic(err)
	}

	// Object storage only backs the version fallback, so the api still starts without it.
	var s3 *minio.Client
	var objectStore upload.ObjectStore
	if cfg.Minio.ACCESS_KEY != "" {
		s3, err = filestorage.NewMinioClient(&cfg.Minio)
		if err != nil {
			logger.Error("Error connecting to minio")
			logger.Panic(err)
		}
		objectStore = filestorage.NewMinioStore(s3, cfg.Minio.BUCKET)
	} else {
		logger.Warn("MINIO_ACCESS_KEY is not set, object storage fallback is disabled")
	}

	if err := util.RegisterCustomValidations(); err != nil {
		logger.Panic(err)
	}

	var secretBox *secret.Box
	if cfg.Secret.KEY != "" {
		secretBox, err = secret.NewBox(cfg.Secret.KEY)
		if err != nil {
			logger.Panic(err)
		}
	} else if cfg.IsProduction() {
		logger.Panic("SECRET_KEY is required in production")
	} else {
		logger.Warn("SECRET_KEY is not set, SharePoint client secrets are stored as plain text")
	}

	var tokenCache sharepoint.TokenCache
	if cfg.Redis.Enabled() {
		redisCache, err := tokencache.NewRedisCache(cfg.Redis.URL, cfg.Redis.KeyPrefix)
		if err != nil {
			logger.Panic(err)
		}
		defer redisCache.Close()
		tokenCache = redisCache
		logger.Info("Graph tokens are cached in redis \n")
	}

	graphHTTP := &http.Client{Timeout: cfg.Graph.HTTPTimeout}
	graph := sharepoint.NewClient(
		sharepoint.WithBaseURL(cfg.Graph.BaseURL),
		sharepoint.WithHTTPClient(graphHTTP),
		sharepoint.WithRecorder(appMetrics),
		sharepoint.WithLogger(logger),
	)
	tokens := sharepoint.NewTokenPolicy(sharepoint.PolicyConfig{
		LoginURL:          cfg.Graph.LoginURL,
		DevToken:          cfg.Graph.DevToken,
		FallbackToken:     cfg.Graph.ConditionalAccessFallbackToken,
		EmergencyFallback: cfg.Graph.EmergencyFallback,
		HTTPClient:        graphHTTP,
		Cache:             tokenCache,
		Recorder:          appMetrics,
		Logger:            logger,
	}, cfg.IsProduction())
	logger.Infof("Graph token mode: %s \n", tokens.Mode())

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	mail := mailer.NewSendgrid(cfg.Mail.SEND_GRID.API_KEY, cfg.Mail.FROM_EMAIL, cfg.IsProduction(), cfg.Mail.Enabled, logger)
	jwtService := auth.NewJwt(cfg.Auth, logger)
	repo := repository.NewRepository(db, logger)
	app := appcontext.Application{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		Mailer:     mail,
		JWTService: jwtService,
		S3:         s3,
		Metrics:    appMetrics,
		SecretBox:  secretBox,
		Uploader:   upload.NewOrchestrator(graph, tokens, appMetrics, logger),
		Versions:   upload.NewVersionUploader(graph, tokens, objectStore, appMetrics, logger),
	}

	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	// multipart uploads above this size spill to temp files
	r.MaxMultipartMemory = 32 << 20

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.Metrics)
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)
	route.Register(r, _controller, _middleware, prometheus.DefaultGatherer)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + app.Config.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panicf("Error running server: %v \n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// in-flight uploads get the same budget as a slow Graph call
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Graph.HTTPTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
}
