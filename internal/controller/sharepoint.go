package controller

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/SeakMengs/DocControl/pkg/sharepoint"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SharePointController struct {
	*baseController
}

var ErrSharePointConfigNotFound = errors.New("SharePoint configuration not found")

// orgConfigView never exposes the client secret.
type orgConfigView struct {
	*model.OrgSharePointConfig
	HasClientSecret bool `json:"hasClientSecret"`
}

func (sc SharePointController) GetOrgConfig(ctx *gin.Context) {
	user, ok := sc.currentUser(ctx)
	if !ok {
		return
	}

	cfg, err := sc.app.Repository.SharePointConfig.GetOrgConfig(ctx, nil, user.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "SharePoint is not configured", util.GenerateErrorMessages(ErrSharePointConfigNotFound, "sharePointConfig"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get SharePoint configuration", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"config": orgConfigView{OrgSharePointConfig: cfg, HasClientSecret: cfg.ClientSecret != ""},
	})
}

// UpsertOrgConfig seals the client secret before it is stored. An empty secret keeps the stored one.
func (sc SharePointController) UpsertOrgConfig(ctx *gin.Context) {
	type Request struct {
		TenantID        string `json:"tenantId" binding:"required,strNotEmpty"`
		ClientID        string `json:"clientId" binding:"required,strNotEmpty"`
		ClientSecret    string `json:"clientSecret"`
		DocumentLibrary string `json:"documentLibrary" binding:"omitempty,max=255"`
	}
	var body Request

	user, ok := sc.currentUser(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	sealed := body.ClientSecret
	if sealed != "" && sc.app.SecretBox != nil {
		var err error
		sealed, err = sc.app.SecretBox.Seal(body.ClientSecret)
		if err != nil {
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to encrypt client secret", util.GenerateErrorMessages(err), nil)
			return
		}
	}

	cfg, err := sc.app.Repository.SharePointConfig.UpsertOrgConfig(ctx, nil, &model.OrgSharePointConfig{
		OrganizationID:  user.OrganizationID,
		TenantID:        body.TenantID,
		ClientID:        body.ClientID,
		ClientSecret:    sealed,
		DocumentLibrary: body.DocumentLibrary,
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to save SharePoint configuration", util.GenerateErrorMessages(err, "clientSecret"), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"config": orgConfigView{OrgSharePointConfig: cfg, HasClientSecret: cfg.ClientSecret != ""},
	})
}

type projectConfigRequest struct {
	Name                  string `json:"name" binding:"required,strNotEmpty,max=100"`
	SiteURL               string `json:"siteUrl" binding:"required,url"`
	DocumentLibrary       string `json:"documentLibrary" binding:"omitempty,max=255"`
	FolderPath            string `json:"folderPath" binding:"omitempty,max=1024"`
	ExcelSheetPath        string `json:"excelSheetPath" binding:"omitempty,max=1024"`
	IsExcelLoggingEnabled bool   `json:"isExcelLoggingEnabled"`
	IsEnabled             *bool  `json:"isEnabled"`
}

func (r projectConfigRequest) validate() error {
	if r.IsExcelLoggingEnabled {
		if _, _, err := sharepoint.ParseSheetPath(r.ExcelSheetPath); err != nil {
			return err
		}
	}
	return nil
}

func (sc SharePointController) GetProjectConfigs(ctx *gin.Context) {
	project, _, ok := sc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	configs, err := sc.app.Repository.SharePointConfig.ListProjectConfigs(ctx, nil, project.ID, false)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get SharePoint configurations", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(configs) == 0 {
		configs = []model.ProjectSharePointConfig{}
	}

	type configView struct {
		model.ProjectSharePointConfig
		IsSiteURLValid bool `json:"isSiteUrlValid"`
	}
	views := make([]configView, 0, len(configs))
	for _, c := range configs {
		_, err := sharepoint.ParseSiteURL(c.SiteURL)
		views = append(views, configView{ProjectSharePointConfig: c, IsSiteURLValid: err == nil})
	}

	util.ResponseSuccess(ctx, gin.H{
		"configs": views,
	})
}

func (sc SharePointController) CreateProjectConfig(ctx *gin.Context) {
	var body projectConfigRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	if err := body.validate(); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid Excel sheet path", util.GenerateErrorMessages(err, "excelSheetPath"), nil)
		return
	}

	project, _, ok := sc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	enabled := true
	if body.IsEnabled != nil {
		enabled = *body.IsEnabled
	}

	cfg, err := sc.app.Repository.SharePointConfig.CreateProjectConfig(ctx, nil, &model.ProjectSharePointConfig{
		ProjectID:             project.ID,
		Name:                  body.Name,
		SiteURL:               body.SiteURL,
		DocumentLibrary:       body.DocumentLibrary,
		FolderPath:            body.FolderPath,
		ExcelSheetPath:        body.ExcelSheetPath,
		IsExcelLoggingEnabled: body.IsExcelLoggingEnabled,
		IsEnabled:             enabled,
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to create SharePoint configuration", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccessWithStatus(ctx, http.StatusCreated, gin.H{
		"config": cfg,
	})
}

func (sc SharePointController) UpdateProjectConfig(ctx *gin.Context) {
	var body projectConfigRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	if err := body.validate(); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid Excel sheet path", util.GenerateErrorMessages(err, "excelSheetPath"), nil)
		return
	}

	project, _, ok := sc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	cfg, err := sc.app.Repository.SharePointConfig.GetProjectConfig(ctx, nil, project.ID, ctx.Param("configId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "SharePoint configuration not found", util.GenerateErrorMessages(ErrSharePointConfigNotFound, "configId"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get SharePoint configuration", util.GenerateErrorMessages(err), nil)
		return
	}

	cfg.Name = body.Name
	cfg.SiteURL = body.SiteURL
	cfg.DocumentLibrary = body.DocumentLibrary
	cfg.FolderPath = body.FolderPath
	cfg.ExcelSheetPath = body.ExcelSheetPath
	cfg.IsExcelLoggingEnabled = body.IsExcelLoggingEnabled
	if body.IsEnabled != nil {
		cfg.IsEnabled = *body.IsEnabled
	}

	updated, err := sc.app.Repository.SharePointConfig.UpdateProjectConfig(ctx, nil, cfg)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update SharePoint configuration", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"config": updated,
	})
}

func (sc SharePointController) DeleteProjectConfig(ctx *gin.Context) {
	project, _, ok := sc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	configId := ctx.Param("configId")
	if err := sc.app.Repository.SharePointConfig.DeleteProjectConfig(ctx, nil, project.ID, configId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "SharePoint configuration not found", util.GenerateErrorMessages(ErrSharePointConfigNotFound, "configId"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to delete SharePoint configuration", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"configId": configId,
	})
}
