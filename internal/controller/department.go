package controller

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DepartmentController struct {
	*baseController
}

type departmentRequest struct {
	Name        string `json:"name" binding:"required,strNotEmpty,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

func (dc DepartmentController) GetDepartmentList(ctx *gin.Context) {
	departments, err := dc.app.Repository.Department.List(ctx, nil)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get departments", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(departments) == 0 {
		departments = []model.Department{}
	}

	util.ResponseSuccess(ctx, gin.H{
		"departments": departments,
	})
}

func (dc DepartmentController) CreateDepartment(ctx *gin.Context) {
	var body departmentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	department, err := dc.app.Repository.Department.Create(ctx, nil, &model.Department{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to create department", util.GenerateErrorMessages(err, "name"), nil)
		return
	}

	util.ResponseSuccessWithStatus(ctx, http.StatusCreated, gin.H{
		"department": department,
	})
}

func (dc DepartmentController) UpdateDepartment(ctx *gin.Context) {
	var body departmentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	department, err := dc.app.Repository.Department.Update(ctx, nil, ctx.Param("departmentId"), body.Name, body.Description)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Department not found", util.GenerateErrorMessages(ErrDepartmentNotFound, "departmentId"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to update department", util.GenerateErrorMessages(err, "name"), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"department": department,
	})
}

func (dc DepartmentController) DeleteDepartment(ctx *gin.Context) {
	departmentId := ctx.Param("departmentId")

	if err := dc.app.Repository.Department.Delete(ctx, nil, departmentId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Department not found", util.GenerateErrorMessages(ErrDepartmentNotFound, "departmentId"), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to delete department", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"departmentId": departmentId,
	})
}
