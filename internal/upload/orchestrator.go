package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SeakMengs/DocControl/pkg/fieldrule"
	"github.com/SeakMengs/DocControl/pkg/sharepoint"
	"go.uber.org/zap"
)

// Request is a single file going to every enabled destination of a project.
type Request struct {
	File         File
	Credentials  sharepoint.Credentials
	Destinations []Destination
	UploadedBy   string
	// Fields and Values feed the Excel log row.
	Fields []fieldrule.CustomField
	Values fieldrule.Values
}

type Orchestrator struct {
	graph   GraphClient
	tokens  sharepoint.TokenProvider
	metrics Recorder
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewOrchestrator(graph GraphClient, tokens sharepoint.TokenProvider, metrics Recorder, logger *zap.SugaredLogger) *Orchestrator {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Orchestrator{graph: graph, tokens: tokens, metrics: metrics, logger: logger, now: time.Now}
}

// CheckDestinations rejects a request up front when there is nothing to upload to
// or when not a single destination has a usable site URL.
func CheckDestinations(destinations []Destination) error {
	if len(destinations) == 0 {
		return ErrNoEnabledConfigs
	}
	for _, d := range destinations {
		if _, err := sharepoint.ParseSiteURL(d.SiteURL); err == nil {
			return nil
		}
	}
	return ErrAllSiteURLsInvalid
}

// UploadAll uploads the file to each destination in order. A failing destination
// is recorded and the loop moves on. The returned error is ErrAllUploadsFailed
// when nothing succeeded, the Outcome is populated either way.
func (o *Orchestrator) UploadAll(ctx context.Context, req Request) (Outcome, error) {
	outcome := Outcome{
		Results: make([]UploadResult, 0, len(req.Destinations)),
		Errors:  make([]UploadError, 0),
	}

	for _, dest := range req.Destinations {
		if err := ctx.Err(); err != nil {
			outcome.Errors = append(outcome.Errors, UploadError{ConfigID: dest.ID, ConfigName: dest.Name, Error: err.Error()})
			o.metrics.RecordDestinationUpload(false)
			continue
		}

		result, err := o.uploadOne(ctx, req, dest)
		if err != nil {
			o.logger.Warnf("Upload of %s to SharePoint config %s (%s) failed: %v", req.File.Name, dest.Name, dest.ID, err)
			outcome.Errors = append(outcome.Errors, UploadError{ConfigID: dest.ID, ConfigName: dest.Name, Error: err.Error()})
			o.metrics.RecordDestinationUpload(false)
			continue
		}

		o.metrics.RecordDestinationUpload(true)
		outcome.Results = append(outcome.Results, result)
	}

	o.metrics.RecordDocumentUpload(len(outcome.Results), len(outcome.Errors))

	if len(outcome.Results) == 0 {
		return outcome, ErrAllUploadsFailed
	}
	return outcome, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, req Request, dest Destination) (UploadResult, error) {
	tok, err := o.tokens.Token(ctx, req.Credentials)
	if err != nil {
		return UploadResult{}, err
	}
	if !tok.IsIssued() {
		o.metrics.RecordTokenFallback(string(tok.Source))
	}

	site, err := o.graph.GetSite(ctx, tok.AccessToken, dest.SiteURL)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to resolve site: %w", err)
	}

	drives, err := o.graph.ListDrives(ctx, tok.AccessToken, site.ID)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to list document libraries: %w", err)
	}
	drive, err := sharepoint.ResolveLibrary(drives, dest.DocumentLibrary)
	if err != nil {
		return UploadResult{}, err
	}

	itemPath := sharepoint.JoinItemPath(dest.FolderPath, req.File.Name)
	item, err := o.graph.UploadContent(ctx, tok.AccessToken, drive.ID, itemPath, bytes.NewReader(req.File.Content), req.File.Size(), req.File.ContentType)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to upload file: %w", err)
	}

	if dest.IsExcelLoggingEnabled && dest.ExcelSheetPath != "" {
		o.logToExcel(ctx, tok.AccessToken, drive.ID, dest, req)
	}

	return UploadResult{
		ConfigID:       dest.ID,
		ConfigName:     dest.Name,
		SharePointPath: drive.Name + "/" + itemPath,
		SharePointID:   item.ID,
		DownloadURL:    item.DownloadURL,
		WebURL:         item.WebURL,
		DriveID:        drive.ID,
	}, nil
}

// logToExcel appends the metadata row. Failures never affect the upload result.
func (o *Orchestrator) logToExcel(ctx context.Context, token, driveID string, dest Destination, req Request) {
	row := LogRow(req.File.Name, req.UploadedBy, o.now(), req.Fields, req.Values)
	address, err := o.graph.AppendRow(ctx, token, driveID, dest.ExcelSheetPath, row)
	if err != nil {
		o.metrics.RecordExcelLogFailure()
		if errors.Is(err, sharepoint.ErrInvalidSheetPath) {
			o.logger.Warnf("Skipping Excel log for config %s: %v", dest.Name, err)
			return
		}
		o.logger.Errorf("Failed to write Excel log row for config %s: %v", dest.Name, err)
		return
	}
	o.logger.Debugf("Excel log row written at %s for config %s", address, dest.Name)
}

// LogRow is the Excel log row: file name, uploader, upload date, then every custom
// field in definition order.
func LogRow(fileName, uploadedBy string, uploadedAt time.Time, fields []fieldrule.CustomField, values fieldrule.Values) []any {
	row := make([]any, 0, 3+len(fields))
	row = append(row, fileName, uploadedBy, uploadedAt.Format("2006-01-02"))
	for _, f := range fields {
		row = append(row, fieldrule.FormatForSheet(f, values[f.ID]))
	}
	return row
}
