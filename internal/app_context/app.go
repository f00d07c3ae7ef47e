package appcontext

import (
	"github.com/SeakMengs/DocControl/internal/auth"
	"github.com/SeakMengs/DocControl/internal/config"
	"github.com/SeakMengs/DocControl/internal/mailer"
	"github.com/SeakMengs/DocControl/internal/metrics"
	"github.com/SeakMengs/DocControl/internal/repository"
	"github.com/SeakMengs/DocControl/internal/secret"
	"github.com/SeakMengs/DocControl/internal/upload"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository provides access to data storage operations.
	Repository *repository.Repository

	// Mailer sends the upload failure report.
	Mailer mailer.Client

	// JWTService verifies the session cookie.
	JWTService auth.JWTInterface

	// S3 may be nil when object storage is not configured.
	S3 *minio.Client

	Metrics *metrics.Metrics

	// SecretBox seals SharePoint client secrets at rest.
	SecretBox *secret.Box

	// Uploader sends a new document to every enabled SharePoint destination.
	Uploader *upload.Orchestrator

	// Versions replaces the content of an uploaded document.
	Versions *upload.VersionUploader
}
