package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RoleController struct {
	*baseController
}

type roleRequest struct {
	Name        string   `json:"name" binding:"required,strNotEmpty,max=100"`
	Description string   `json:"description" binding:"omitempty,max=1000"`
	Permissions []string `json:"permissions"`
}

func (r roleRequest) validate() error {
	if unknown := util.UnknownPermissions(r.Permissions); len(unknown) > 0 {
		return fmt.Errorf("unknown permissions: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func (r roleRequest) permissions() []string {
	if r.Permissions == nil {
		return []string{}
	}
	return r.Permissions
}

func (rc RoleController) GetRoleList(ctx *gin.Context) {
	roles, err := rc.app.Repository.Role.List(ctx, nil)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get roles", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(roles) == 0 {
		roles = []model.Role{}
	}

	util.ResponseSuccess(ctx, gin.H{
		"roles": roles,
	})
}

// GetPermissionList lists every permission a role may grant.
func (rc RoleController) GetPermissionList(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"permissions": constant.AllPermissions,
	})
}

func (rc RoleController) CreateRole(ctx *gin.Context) {
	var body roleRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	if err := body.validate(); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid permissions", util.GenerateErrorMessages(err, "permissions"), nil)
		return
	}

	role, err := rc.app.Repository.Role.Create(ctx, nil, &model.Role{
		Name:        body.Name,
		Description: body.Description,
		Permissions: body.permissions(),
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to create role", util.GenerateErrorMessages(err, "name"), nil)
		return
	}

	util.ResponseSuccessWithStatus(ctx, http.StatusCreated, gin.H{
		"role": role,
	})
}

func (rc RoleController) UpdateRole(ctx *gin.Context) {
	var body roleRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	if err := body.validate(); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid permissions", util.GenerateErrorMessages(err, "permissions"), nil)
		return
	}

	role, err := rc.app.Repository.Role.Update(ctx, nil, ctx.Param("roleId"), body.Name, body.Description, body.permissions())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Role not found", util.GenerateErrorMessages(ErrRoleNotFound, "roleId"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to update role", util.GenerateErrorMessages(err, "name"), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"role": role,
	})
}

func (rc RoleController) DeleteRole(ctx *gin.Context) {
	roleId := ctx.Param("roleId")

	if err := rc.app.Repository.Role.Delete(ctx, nil, roleId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Role not found", util.GenerateErrorMessages(ErrRoleNotFound, "roleId"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to delete role", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"roleId": roleId,
	})
}
