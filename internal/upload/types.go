package upload

import (
	"context"
	"errors"
	"io"

	"github.com/SeakMengs/DocControl/pkg/sharepoint"
)

var (
	ErrOrgConfigNotFound   = errors.New("SharePoint is not configured for this organization")
	ErrNoEnabledConfigs    = errors.New("no enabled SharePoint configurations for this project")
	ErrAllSiteURLsInvalid  = errors.New("every enabled SharePoint configuration has an invalid site URL")
	ErrAllUploadsFailed    = errors.New("upload failed for every SharePoint configuration")
	ErrObjectStoreDisabled = errors.New("object storage fallback is not configured")
)

// GraphClient is the part of the Graph client used for multi destination uploads.
type GraphClient interface {
	GetSite(ctx context.Context, token, siteURL string) (*sharepoint.Site, error)
	ListDrives(ctx context.Context, token, siteID string) ([]sharepoint.Drive, error)
	UploadContent(ctx context.Context, token, driveID, itemPath string, content io.Reader, size int64, contentType string) (*sharepoint.DriveItem, error)
	AppendRow(ctx context.Context, token, driveID, sheetPath string, values []any) (string, error)
}

// VersionGraphClient is the part of the Graph client used to replace document content.
type VersionGraphClient interface {
	GetSite(ctx context.Context, token, siteURL string) (*sharepoint.Site, error)
	ListDrives(ctx context.Context, token, siteID string) ([]sharepoint.Drive, error)
	UpdateContentByID(ctx context.Context, token, driveID, itemID string, content io.Reader, size int64, contentType string) (*sharepoint.DriveItem, error)
	GetItemByPath(ctx context.Context, token, driveID, itemPath string) (*sharepoint.DriveItem, error)
	CreateOrReplace(ctx context.Context, token, driveID, itemPath string, content io.Reader, size int64, contentType string) (*sharepoint.DriveItem, error)
}

type Recorder interface {
	RecordDestinationUpload(success bool)
	RecordDocumentUpload(successes, failures int)
	RecordExcelLogFailure()
	RecordTokenFallback(source string)
}

type nopRecorder struct{}

func (nopRecorder) RecordDestinationUpload(bool)  {}
func (nopRecorder) RecordDocumentUpload(int, int) {}
func (nopRecorder) RecordExcelLogFailure()        {}
func (nopRecorder) RecordTokenFallback(string)    {}

// Destination is one enabled project SharePoint configuration.
type Destination struct {
	ID                    string
	Name                  string
	SiteURL               string
	DocumentLibrary       string
	FolderPath            string
	ExcelSheetPath        string
	IsExcelLoggingEnabled bool
}

type File struct {
	Name        string
	ContentType string
	Content     []byte
}

func (f File) Size() int64 {
	return int64(len(f.Content))
}

type UploadResult struct {
	ConfigID       string `json:"configId"`
	ConfigName     string `json:"configName"`
	SharePointPath string `json:"sharePointPath"`
	SharePointID   string `json:"sharePointId"`
	DownloadURL    string `json:"downloadUrl"`
	WebURL         string `json:"webUrl,omitempty"`
	DriveID        string `json:"driveId"`
}

type UploadError struct {
	ConfigID   string `json:"configId"`
	ConfigName string `json:"configName"`
	Error      string `json:"error"`
}

type Summary struct {
	TotalConfigurations int `json:"totalConfigurations"`
	SuccessfulUploads   int `json:"successfulUploads"`
	FailedUploads       int `json:"failedUploads"`
}

// Outcome aggregates per destination results in configuration order.
type Outcome struct {
	Results []UploadResult `json:"uploadResults"`
	Errors  []UploadError  `json:"uploadErrors"`
}

// Primary is the first successful upload.
func (o Outcome) Primary() (UploadResult, bool) {
	if len(o.Results) == 0 {
		return UploadResult{}, false
	}
	return o.Results[0], true
}

func (o Outcome) Summary() Summary {
	return Summary{
		TotalConfigurations: len(o.Results) + len(o.Errors),
		SuccessfulUploads:   len(o.Results),
		FailedUploads:       len(o.Errors),
	}
}
