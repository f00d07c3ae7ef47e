package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/mailer"
	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/internal/upload"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/SeakMengs/DocControl/pkg/docmeta"
	"github.com/SeakMengs/DocControl/pkg/docversion"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentController struct {
	*baseController
}

var (
	ErrFileRequired       = errors.New("file is required")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrInvalidTags        = errors.New("tags must be a JSON array of strings")
	ErrInvalidFieldValues = errors.New("customFieldValues must be a JSON object")
)

// UploadResponse is written at the top level so clients read uploadResults and
// uploadErrors without unwrapping data.
type UploadResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	Document      *model.Document       `json:"document"`
	UploadResults []upload.UploadResult `json:"uploadResults"`
	UploadErrors  []upload.UploadError  `json:"uploadErrors"`
	Summary       upload.Summary        `json:"summary"`
}

type SharePointInfo struct {
	StorageProvider constant.StorageProvider `json:"storageProvider"`
	Strategy        upload.VersionStrategy   `json:"strategy"`
	TokenSource     string                   `json:"tokenSource,omitempty"`
	DriveID         string                   `json:"driveId,omitempty"`
	ItemID          string                   `json:"itemId,omitempty"`
	WebURL          string                   `json:"webUrl,omitempty"`
	DownloadURL     string                   `json:"downloadUrl,omitempty"`
	Bucket          string                   `json:"bucket,omitempty"`
	ObjectKey       string                   `json:"objectKey,omitempty"`
}

type VersionResponse struct {
	Success        bool                   `json:"success"`
	Message        string                 `json:"message"`
	Document       *model.Document        `json:"document"`
	Version        *model.DocumentVersion `json:"version"`
	SharePointInfo SharePointInfo         `json:"sharePointInfo"`
}

func readFormFile(fh *multipart.FileHeader) (upload.File, error) {
	src, err := fh.Open()
	if err != nil {
		return upload.File{}, err
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return upload.File{}, err
	}

	return upload.File{
		Name:        util.SanitizeFileName(fh.Filename),
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, ErrInvalidTags
	}
	return tags, nil
}

func parseFieldValues(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, ErrInvalidFieldValues
	}
	return values, nil
}

// logActivity never fails the request.
func (dc DocumentController) logActivity(ctx context.Context, action constant.DocumentAction, description string, details map[string]any, documentId, projectId, userId string) {
	err := dc.app.Repository.ActivityLog.Create(ctx, nil, &model.DocumentActivityLog{
		Action:      action,
		Description: description,
		Details:     datatypes.JSONMap(details),
		DocumentID:  documentId,
		ProjectID:   projectId,
		UserID:      userId,
	})
	if err != nil {
		dc.app.Logger.Errorf("Failed to write activity log %s for document %s: %v", action, documentId, err)
	}
}

func (dc DocumentController) reportFailures(user *model.User, project *model.Project, fileName string, outcome upload.Outcome) {
	if len(outcome.Errors) == 0 {
		return
	}

	summary := outcome.Summary()
	failures := make([]mailer.UploadFailure, 0, len(outcome.Errors))
	for _, e := range outcome.Errors {
		failures = append(failures, mailer.UploadFailure{Destination: e.ConfigName, Error: e.Error})
	}

	mailer.SendAsync(dc.app.Mailer, dc.app.Logger, mailer.UPLOAD_REPORT_TEMPLATE, user.FullName(), user.Email, mailer.UploadReport{
		RecipientName: user.FullName(),
		FileName:      fileName,
		ProjectTitle:  project.Title,
		UploadedAt:    time.Now(),
		Total:         summary.TotalConfigurations,
		Successful:    summary.SuccessfulUploads,
		Failed:        summary.FailedUploads,
		Failures:      failures,
	})
}

func (dc DocumentController) UploadDocument(ctx *gin.Context) {
	type Request struct {
		ProjectID         string `form:"projectId" binding:"required,strNotEmpty"`
		Description       string `form:"description" binding:"omitempty,max=2000"`
		Tags              string `form:"tags"`
		CustomFieldValues string `form:"customFieldValues"`
	}
	var body Request

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	project, user, ok := dc.userProject(ctx, body.ProjectID)
	if !ok {
		return
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "No file uploaded", util.GenerateErrorMessages(ErrFileRequired, "file"), nil)
		return
	}

	tags, err := parseTags(body.Tags)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid tags", util.GenerateErrorMessages(err, "tags"), nil)
		return
	}

	rawValues, err := parseFieldValues(body.CustomFieldValues)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid custom field values", util.GenerateErrorMessages(err, "customFieldValues"), nil)
		return
	}

	engine, err := project.FieldEngine()
	if err != nil {
		dc.app.Logger.Errorf("Stored custom fields of project %s are invalid: %v", project.ID, err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Project custom fields are invalid", util.GenerateErrorMessages(err, "customFields"), nil)
		return
	}

	values := engine.FillMissing(engine.Normalize(rawValues))
	if err := engine.Validate(values); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid custom field values", util.GenerateErrorMessages(err), nil)
		return
	}

	file, err := readFormFile(fh)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to read file", util.GenerateErrorMessages(err, "file"), nil)
		return
	}

	info, err := docmeta.Inspect(file.Name, file.ContentType, file.Content)
	if err != nil {
		dc.app.Logger.Warnf("Failed to read page count of %s: %v", file.Name, err)
	}
	file.ContentType = info.MimeType

	orgConfig, err := dc.app.Repository.SharePointConfig.GetOrgConfig(ctx, nil, user.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, upload.ErrOrgConfigNotFound.Error(), util.GenerateErrorMessages(upload.ErrOrgConfigNotFound, "sharePointConfig"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get SharePoint configuration", util.GenerateErrorMessages(err), nil)
		return
	}

	creds, err := dc.credentials(orgConfig)
	if err != nil {
		dc.app.Logger.Errorf("Failed to open client secret of organization %s: %v", user.OrganizationID, err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to read SharePoint credentials", util.GenerateErrorMessages(err, "sharePointConfig"), nil)
		return
	}

	configs, err := dc.app.Repository.SharePointConfig.ListProjectConfigs(ctx, nil, project.ID, true)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get SharePoint configurations", util.GenerateErrorMessages(err), nil)
		return
	}

	destinations := toDestinations(configs, orgConfig.DocumentLibrary)
	if err := upload.CheckDestinations(destinations); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, err.Error(), util.GenerateErrorMessages(err, "sharePointConfigs"), nil)
		return
	}

	outcome, err := dc.app.Uploader.UploadAll(ctx, upload.Request{
		File:         file,
		Credentials:  creds,
		Destinations: destinations,
		UploadedBy:   user.FullName(),
		Fields:       engine.Fields(),
		Values:       values,
	})
	dc.reportFailures(user, project, file.Name, outcome)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, UploadResponse{
			Success:       false,
			Message:       err.Error(),
			UploadResults: outcome.Results,
			UploadErrors:  outcome.Errors,
			Summary:       outcome.Summary(),
		})
		ctx.Abort()
		return
	}

	primary, _ := outcome.Primary()
	results, err := json.Marshal(outcome.Results)
	if err != nil {
		results = []byte("[]")
	}

	document, err := dc.app.Repository.Document.Create(ctx, nil, &model.Document{
		FileName:           file.Name,
		Description:        body.Description,
		Tags:               tags,
		MimeType:           info.MimeType,
		Size:               info.Size,
		PageCount:          info.PageCount,
		CustomFieldValues:  datatypes.JSONMap(values),
		SharePointConfigID: primary.ConfigID,
		SharePointID:       primary.SharePointID,
		SharePointDriveID:  primary.DriveID,
		SharePointPath:     primary.SharePointPath,
		DownloadURL:        primary.DownloadURL,
		WebURL:             primary.WebURL,
		UploadResults:      datatypes.JSON(results),
		ProjectID:          project.ID,
		UploadedByID:       user.ID,
	})
	if err != nil {
		dc.app.Logger.Errorf("File %s reached SharePoint but the document record failed: %v", file.Name, err)
		ctx.JSON(http.StatusInternalServerError, UploadResponse{
			Success:       false,
			Message:       "Failed to save document",
			UploadResults: outcome.Results,
			UploadErrors:  outcome.Errors,
			Summary:       outcome.Summary(),
		})
		ctx.Abort()
		return
	}

	summary := outcome.Summary()
	dc.logActivity(ctx, constant.DocumentActionUploaded,
		fmt.Sprintf("Uploaded %s to %d of %d SharePoint destinations", file.Name, summary.SuccessfulUploads, summary.TotalConfigurations),
		map[string]any{
			"version":           document.CurrentVersion,
			"successfulUploads": summary.SuccessfulUploads,
			"failedUploads":     summary.FailedUploads,
		},
		document.ID, project.ID, user.ID)

	ctx.JSON(http.StatusCreated, UploadResponse{
		Success:       true,
		Message:       constant.REQUEST_SUCCESSFUL,
		Document:      document,
		UploadResults: outcome.Results,
		UploadErrors:  outcome.Errors,
		Summary:       summary,
	})
	ctx.Abort()
}

// documentOfUser loads a document whose project belongs to the user's organization.
func (dc DocumentController) documentOfUser(ctx *gin.Context, documentId string) (*model.Document, *model.Project, *model.User, bool) {
	document, err := dc.app.Repository.Document.GetById(ctx, nil, documentId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Document not found", util.GenerateErrorMessages(ErrDocumentNotFound, "documentId"), nil)
			return nil, nil, nil, false
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get document", util.GenerateErrorMessages(err), nil)
		return nil, nil, nil, false
	}

	project, user, ok := dc.userProject(ctx, document.ProjectID)
	if !ok {
		return nil, nil, nil, false
	}

	return document, project, user, true
}

func (dc DocumentController) UploadVersion(ctx *gin.Context) {
	type Request struct {
		DocumentID     string `form:"documentId" binding:"required,strNotEmpty"`
		UserID         string `form:"userId"`
		VersionType    string `form:"versionType" binding:"omitempty,oneof=minor major"`
		ChangesSummary string `form:"changesSummary" binding:"omitempty,max=2000"`
		CustomVersion  string `form:"customVersion" binding:"omitempty,cmax=20"`
	}
	var body Request

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	if body.VersionType == "" {
		body.VersionType = string(docversion.Minor)
	}

	document, project, user, ok := dc.documentOfUser(ctx, body.DocumentID)
	if !ok {
		return
	}
	if body.UserID != "" && body.UserID != user.ID {
		dc.app.Logger.Debugf("Version upload names user %s, recording authenticated user %s", body.UserID, user.ID)
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "No file uploaded", util.GenerateErrorMessages(ErrFileRequired, "file"), nil)
		return
	}

	newVersion, err := docversion.Resolve(document.CurrentVersion, docversion.BumpType(body.VersionType), body.CustomVersion)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid version", util.GenerateErrorMessages(err, "versionType"), nil)
		return
	}

	file, err := readFormFile(fh)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to read file", util.GenerateErrorMessages(err, "file"), nil)
		return
	}
	info, _ := docmeta.Inspect(file.Name, file.ContentType, file.Content)
	file.ContentType = info.MimeType

	orgConfig, err := dc.app.Repository.SharePointConfig.GetOrgConfig(ctx, nil, user.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, upload.ErrOrgConfigNotFound.Error(), util.GenerateErrorMessages(upload.ErrOrgConfigNotFound, "sharePointConfig"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get SharePoint configuration", util.GenerateErrorMessages(err), nil)
		return
	}

	creds, err := dc.credentials(orgConfig)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to read SharePoint credentials", util.GenerateErrorMessages(err, "sharePointConfig"), nil)
		return
	}

	target := upload.VersionTarget{
		Credentials:     creds,
		DocumentLibrary: orgConfig.DocumentLibrary,
		DriveID:         document.SharePointDriveID,
		ItemID:          document.SharePointID,
		ObjectDirectory: util.GetDocumentVersionDirectoryPath(project.ID, document.ID, newVersion),
	}
	if destination := dc.primaryDestination(ctx, project.ID, document.SharePointConfigID); destination != nil {
		target.SiteURL = destination.SiteURL
		target.FolderPath = destination.FolderPath
		if destination.DocumentLibrary != "" {
			target.DocumentLibrary = destination.DocumentLibrary
		}
	}
	// The new content keeps the name of the document so path lookups find the item.
	file.Name = document.FileName

	result, err := dc.app.Versions.Upload(ctx, target, file)
	if err != nil {
		dc.app.Logger.Errorf("Version %s of document %s failed: %v", newVersion, document.ID, err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to upload new version", util.GenerateErrorMessages(err, "file"), nil)
		return
	}

	version := &model.DocumentVersion{
		DocumentID:      document.ID,
		Version:         newVersion,
		ChangesSummary:  body.ChangesSummary,
		StorageProvider: result.StorageProvider,
		Size:            file.Size(),
		UploadedByID:    user.ID,
	}
	spInfo := SharePointInfo{
		StorageProvider: result.StorageProvider,
		Strategy:        result.Strategy,
		TokenSource:     string(result.TokenSource),
		DriveID:         result.DriveID,
	}

	if result.Item != nil {
		version.SharePointID = result.Item.ID
		version.DownloadURL = result.Item.DownloadURL
		spInfo.ItemID = result.Item.ID
		spInfo.WebURL = result.Item.WebURL
		spInfo.DownloadURL = result.Item.DownloadURL
	}

	if result.Object != nil {
		stored, err := dc.app.Repository.File.Create(ctx, nil, &model.File{
			FileName:       file.Name,
			UniqueFileName: result.Object.Key,
			BucketName:     result.Object.Bucket,
			ContentType:    file.ContentType,
			Size:           result.Object.Size,
		})
		if err != nil {
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to save stored file", util.GenerateErrorMessages(err), nil)
			return
		}
		version.FileID = &stored.ID
		spInfo.Bucket = result.Object.Bucket
		spInfo.ObjectKey = result.Object.Key
	}

	version, err = dc.app.Repository.DocumentVersion.CreateAndBump(ctx, nil, version)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to save version", util.GenerateErrorMessages(err), nil)
		return
	}

	updated, err := dc.app.Repository.Document.GetById(ctx, nil, document.ID)
	if err != nil {
		updated = document
	}

	dc.logActivity(ctx, constant.DocumentActionVersionUploaded,
		fmt.Sprintf("Uploaded version %s", newVersion),
		map[string]any{
			"version":         newVersion,
			"previousVersion": document.CurrentVersion,
			"storageProvider": string(result.StorageProvider),
			"strategy":        string(result.Strategy),
			"changesSummary":  body.ChangesSummary,
		},
		document.ID, project.ID, user.ID)

	ctx.JSON(http.StatusCreated, VersionResponse{
		Success:        true,
		Message:        constant.REQUEST_SUCCESSFUL,
		Document:       updated,
		Version:        version,
		SharePointInfo: spInfo,
	})
	ctx.Abort()
}

// primaryDestination finds the configuration the document was first uploaded to,
// or the first enabled one when it is gone.
func (dc DocumentController) primaryDestination(ctx context.Context, projectId, configId string) *model.ProjectSharePointConfig {
	if configId != "" {
		if cfg, err := dc.app.Repository.SharePointConfig.GetProjectConfig(ctx, nil, projectId, configId); err == nil {
			return cfg
		}
	}

	configs, err := dc.app.Repository.SharePointConfig.ListProjectConfigs(ctx, nil, projectId, true)
	if err != nil || len(configs) == 0 {
		return nil
	}
	return &configs[0]
}

func (dc DocumentController) GetDocumentList(ctx *gin.Context) {
	type Request struct {
		Page     uint   `form:"page" binding:"omitempty"`
		PageSize uint   `form:"pageSize" binding:"omitempty"`
		Search   string `form:"search" binding:"omitempty"`
	}
	var params Request

	if err := ctx.ShouldBindQuery(&params); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	params.Page, params.PageSize = util.NormalizePage(params.Page, params.PageSize)

	project, _, ok := dc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	documents, total, err := dc.app.Repository.Document.ListByProject(ctx, nil, project.ID, params.Search, params.Page, params.PageSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get document list", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(documents) == 0 {
		documents = []model.Document{}
	}

	util.ResponseSuccess(ctx, gin.H{
		"total":     total,
		"documents": documents,
		"page":      params.Page,
		"pageSize":  params.PageSize,
		"totalPage": util.CalculateTotalPage(total, params.PageSize),
		"search":    params.Search,
	})
}

func (dc DocumentController) GetDocumentById(ctx *gin.Context) {
	document, _, _, ok := dc.documentOfUser(ctx, ctx.Param("documentId"))
	if !ok {
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"document": document,
	})
}

func (dc DocumentController) UpdateDocument(ctx *gin.Context) {
	type Request struct {
		Description *string        `json:"description" binding:"omitempty,max=2000"`
		Tags        []string       `json:"tags"`
		Values      map[string]any `json:"customFieldValues"`
		ChangedKey  string         `json:"changedKey"`
	}
	var body Request

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	document, project, user, ok := dc.documentOfUser(ctx, ctx.Param("documentId"))
	if !ok {
		return
	}

	engine, err := project.FieldEngine()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Project custom fields are invalid", util.GenerateErrorMessages(err, "customFields"), nil)
		return
	}

	description := document.Description
	if body.Description != nil {
		description = *body.Description
	}
	tags := []string(document.Tags)
	if body.Tags != nil {
		tags = body.Tags
	}

	values := document.Values().Clone()
	if body.Values != nil {
		values = engine.Normalize(body.Values)
		if body.ChangedKey != "" {
			values = engine.UpdateRuleBasedFields(values, body.ChangedKey)
		} else {
			values = engine.FillMissing(values)
		}
		if err := engine.Validate(values); err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid custom field values", util.GenerateErrorMessages(err), nil)
			return
		}
	}

	updated, err := dc.app.Repository.Document.UpdateMetadata(ctx, nil, document.ID, description, tags, values)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update document", util.GenerateErrorMessages(err), nil)
		return
	}

	dc.logActivity(ctx, constant.DocumentActionUpdated, "Updated document metadata", map[string]any{
		"descriptionChanged": description != document.Description,
		"valuesChanged":      body.Values != nil,
	}, document.ID, project.ID, user.ID)

	util.ResponseSuccess(ctx, gin.H{
		"document": updated,
	})
}

func (dc DocumentController) GetDocumentVersions(ctx *gin.Context) {
	document, _, _, ok := dc.documentOfUser(ctx, ctx.Param("documentId"))
	if !ok {
		return
	}

	versions, err := dc.app.Repository.DocumentVersion.ListByDocument(ctx, nil, document.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get versions", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(versions) == 0 {
		versions = []model.DocumentVersion{}
	}

	// Object store copies get a short lived link in place of a SharePoint url.
	if dc.app.S3 != nil {
		for i := range versions {
			if versions[i].File == nil || versions[i].DownloadURL != "" {
				continue
			}
			url, err := versions[i].File.ToPresignedUrl(ctx, dc.app.S3)
			if err != nil {
				dc.app.Logger.Warnf("Failed to presign version %s: %v", versions[i].ID, err)
				continue
			}
			versions[i].DownloadURL = url
		}
	}

	util.ResponseSuccess(ctx, gin.H{
		"currentVersion": document.CurrentVersion,
		"versions":       versions,
	})
}

func (dc DocumentController) GetDocumentActivity(ctx *gin.Context) {
	document, _, _, ok := dc.documentOfUser(ctx, ctx.Param("documentId"))
	if !ok {
		return
	}

	logs, err := dc.app.Repository.ActivityLog.GetByDocumentId(ctx, nil, document.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get activity", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(logs) == 0 {
		logs = []model.DocumentActivityLog{}
	}

	util.ResponseSuccess(ctx, gin.H{
		"activity": logs,
	})
}
