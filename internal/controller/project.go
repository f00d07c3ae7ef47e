package controller

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/SeakMengs/DocControl/pkg/fieldrule"
	"github.com/gin-gonic/gin"
)

type ProjectController struct {
	*baseController
}

var ErrFieldNotFound = errors.New("custom field not found")

type GetProjectsRequest struct {
	Page     uint   `json:"page" form:"page" binding:"omitempty"`
	PageSize uint   `json:"pageSize" form:"pageSize" binding:"omitempty"`
	Search   string `json:"search" form:"search" binding:"omitempty"`
}

func (pc ProjectController) CreateProject(ctx *gin.Context) {
	type Request struct {
		Title        string                  `json:"title" form:"title" binding:"required,strNotEmpty,max=100"`
		Description  string                  `json:"description" form:"description" binding:"omitempty,max=2000"`
		CustomFields []fieldrule.CustomField `json:"customFields"`
	}
	var body Request

	user, ok := pc.currentUser(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if _, err := fieldrule.NewEngine(body.CustomFields); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid custom fields", util.GenerateErrorMessages(err, "customFields"), nil)
		return
	}

	project, err := pc.app.Repository.Project.Create(ctx, nil, &model.Project{
		Title:          body.Title,
		Description:    body.Description,
		OrganizationID: user.OrganizationID,
		CustomFields:   body.CustomFields,
		OwnerID:        user.ID,
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to create project", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccessWithStatus(ctx, http.StatusCreated, gin.H{
		"project": project,
	})
}

func (pc ProjectController) GetProjectById(ctx *gin.Context) {
	project, _, ok := pc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"project": project,
	})
}

func (pc ProjectController) GetProjectList(ctx *gin.Context) {
	var params GetProjectsRequest

	user, ok := pc.currentUser(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindQuery(&params); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	params.Page, params.PageSize = util.NormalizePage(params.Page, params.PageSize)

	projects, total, err := pc.app.Repository.Project.List(ctx, nil, user.OrganizationID, params.Search, params.Page, params.PageSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get project list", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(projects) == 0 {
		projects = []model.Project{}
	}

	util.ResponseSuccess(ctx, gin.H{
		"total":     total,
		"projects":  projects,
		"page":      params.Page,
		"pageSize":  params.PageSize,
		"totalPage": util.CalculateTotalPage(total, params.PageSize),
		"search":    params.Search,
	})
}

func (pc ProjectController) UpdateProject(ctx *gin.Context) {
	type Request struct {
		Title       string `json:"title" form:"title" binding:"required,strNotEmpty,max=100"`
		Description string `json:"description" form:"description" binding:"omitempty,max=2000"`
	}
	var body Request

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	project, _, ok := pc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	updated, err := pc.app.Repository.Project.Update(ctx, nil, project.ID, body.Title, body.Description)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update project", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"project": updated,
	})
}

func (pc ProjectController) DeleteProject(ctx *gin.Context) {
	project, _, ok := pc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	if err := pc.app.Repository.Project.Delete(ctx, nil, project.ID); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to delete project", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"projectId": project.ID,
	})
}

// UpdateCustomFields replaces the field set. A set with a cycle is rejected.
func (pc ProjectController) UpdateCustomFields(ctx *gin.Context) {
	type Request struct {
		CustomFields []fieldrule.CustomField `json:"customFields"`
	}
	var body Request

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	project, _, ok := pc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	if _, err := fieldrule.NewEngine(body.CustomFields); err != nil {
		message := "Invalid custom fields"
		if errors.Is(err, fieldrule.ErrCircularFieldDependency) {
			message = "Custom fields contain a circular dependency"
		}
		util.ResponseFailed(ctx, http.StatusBadRequest, message, util.GenerateErrorMessages(err, "customFields"), nil)
		return
	}

	if err := pc.app.Repository.Project.UpdateCustomFields(ctx, nil, project.ID, body.CustomFields); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update custom fields", util.GenerateErrorMessages(err), nil)
		return
	}

	fields := body.CustomFields
	if fields == nil {
		fields = []fieldrule.CustomField{}
	}
	util.ResponseSuccess(ctx, gin.H{
		"customFields": fields,
	})
}

// GetSourceCandidates lists the fields that can feed fieldId without creating a cycle.
func (pc ProjectController) GetSourceCandidates(ctx *gin.Context) {
	project, _, ok := pc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	fieldId := ctx.Param("fieldId")
	found := false
	for _, f := range project.CustomFields {
		if f.ID == fieldId {
			found = true
			break
		}
	}
	if !found {
		util.ResponseFailed(ctx, http.StatusNotFound, "Custom field not found", util.GenerateErrorMessages(ErrFieldNotFound, "fieldId"), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"fieldId":    fieldId,
		"candidates": fieldrule.SourceCandidates(project.CustomFields, fieldId),
		"dependents": fieldrule.DependentsOf(project.CustomFields, fieldId),
	})
}

// ComputeCustomFields runs the rule engine for a form. Without values the form is seeded
// from defaults, with a changedKey only the fields reading from it are recomputed.
func (pc ProjectController) ComputeCustomFields(ctx *gin.Context) {
	type Request struct {
		Values     map[string]any `json:"values"`
		ChangedKey string         `json:"changedKey"`
	}
	var body Request

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	project, _, ok := pc.userProject(ctx, ctx.Param("projectId"))
	if !ok {
		return
	}

	engine, err := project.FieldEngine()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Project custom fields are invalid", util.GenerateErrorMessages(err, "customFields"), nil)
		return
	}

	var values fieldrule.Values
	if body.Values == nil {
		values = engine.Seed()
	} else {
		values = engine.UpdateRuleBasedFields(engine.Normalize(body.Values), body.ChangedKey)
	}

	util.ResponseSuccess(ctx, gin.H{
		"values": values,
	})
}
