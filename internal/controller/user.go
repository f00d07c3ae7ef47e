package controller

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	*baseController
}

var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrDepartmentNotFound = errors.New("department not found")
)

func (uc UserController) GetMe(ctx *gin.Context) {
	user, ok := uc.currentUser(ctx)
	if !ok {
		return
	}

	permissions := []string{}
	if user.Role != nil {
		permissions = user.Role.Permissions
	}

	util.ResponseSuccess(ctx, gin.H{
		"user":        user,
		"permissions": permissions,
	})
}

func (uc UserController) GetUserList(ctx *gin.Context) {
	user, ok := uc.currentUser(ctx)
	if !ok {
		return
	}

	users, err := uc.app.Repository.User.ListByOrganization(ctx, nil, user.OrganizationID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get users", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(users) == 0 {
		users = []model.User{}
	}

	util.ResponseSuccess(ctx, gin.H{
		"users": users,
	})
}

// AssignRoleAndDepartment replaces both links of a user in the caller's organization.
func (uc UserController) AssignRoleAndDepartment(ctx *gin.Context) {
	type Request struct {
		RoleID       *string `json:"roleId"`
		DepartmentID *string `json:"departmentId"`
	}
	var body Request

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	caller, ok := uc.currentUser(ctx)
	if !ok {
		return
	}

	target, err := uc.app.Repository.User.GetById(ctx, nil, ctx.Param("userId"))
	if err != nil || target.OrganizationID != caller.OrganizationID {
		if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "User not found", util.GenerateErrorMessages(gorm.ErrRecordNotFound, "userId"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get user", util.GenerateErrorMessages(err), nil)
		return
	}

	if body.RoleID != nil && *body.RoleID != "" {
		if _, err := uc.app.Repository.Role.GetById(ctx, nil, *body.RoleID); err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Role not found", util.GenerateErrorMessages(ErrRoleNotFound, "roleId"), nil)
			return
		}
	} else {
		body.RoleID = nil
	}

	if body.DepartmentID != nil && *body.DepartmentID != "" {
		if _, err := uc.app.Repository.Department.GetById(ctx, nil, *body.DepartmentID); err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Department not found", util.GenerateErrorMessages(ErrDepartmentNotFound, "departmentId"), nil)
			return
		}
	} else {
		body.DepartmentID = nil
	}

	if err := uc.app.Repository.User.AssignRoleAndDepartment(ctx, nil, target.ID, body.RoleID, body.DepartmentID); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update user", util.GenerateErrorMessages(err), nil)
		return
	}

	updated, err := uc.app.Repository.User.GetById(ctx, nil, target.ID)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get user", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"user": updated,
	})
}
