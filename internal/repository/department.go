package repository

import (
	"context"

	constant "github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/model"
	"gorm.io/gorm"
)

type DepartmentRepository struct {
	*baseRepository
}

func (dr DepartmentRepository) Create(ctx context.Context, tx *gorm.DB, department *model.Department) (*model.Department, error) {
	dr.logger.Debugf("Create department with data: %v \n", department)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.Department{}).Create(department).Error; err != nil {
		return department, err
	}

	return department, nil
}

func (dr DepartmentRepository) GetById(ctx context.Context, tx *gorm.DB, departmentId string) (*model.Department, error) {
	dr.logger.Debugf("Get department by id: %s \n", departmentId)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var department model.Department
	if err := db.WithContext(ctx).Model(&model.Department{}).Where("id = ?", departmentId).First(&department).Error; err != nil {
		return nil, err
	}

	return &department, nil
}

func (dr DepartmentRepository) List(ctx context.Context, tx *gorm.DB) ([]model.Department, error) {
	dr.logger.Debug("List departments")

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var departments []model.Department
	if err := db.WithContext(ctx).Model(&model.Department{}).Order("name asc").Find(&departments).Error; err != nil {
		return nil, err
	}

	return departments, nil
}

func (dr DepartmentRepository) Update(ctx context.Context, tx *gorm.DB, departmentId string, name, description string) (*model.Department, error) {
	dr.logger.Debugf("Update department %s with name: %s \n", departmentId, name)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.Department{}).Where("id = ?", departmentId).
		Updates(map[string]any{"name": name, "description": description})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return dr.GetById(ctx, tx, departmentId)
}

func (dr DepartmentRepository) Delete(ctx context.Context, tx *gorm.DB, departmentId string) error {
	dr.logger.Debugf("Delete department: %s \n", departmentId)

	db := dr.getDB(tx)
	return dr.withTx(db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		if err := tx.WithContext(ctx).Model(&model.User{}).Where("department_id = ?", departmentId).
			Update("department_id", nil).Error; err != nil {
			return err
		}

		res := tx.WithContext(ctx).Where("id = ?", departmentId).Delete(&model.Department{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
