package repository

import (
	"context"

	constant "github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RoleRepository struct {
	*baseRepository
}

func (rr RoleRepository) Create(ctx context.Context, tx *gorm.DB, role *model.Role) (*model.Role, error) {
	rr.logger.Debugf("Create role with data: %v \n", role)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if role.Permissions == nil {
		role.Permissions = datatypes.JSONSlice[string]{}
	}
	if err := db.WithContext(ctx).Model(&model.Role{}).Create(role).Error; err != nil {
		return role, err
	}

	return role, nil
}

func (rr RoleRepository) GetById(ctx context.Context, tx *gorm.DB, roleId string) (*model.Role, error) {
	rr.logger.Debugf("Get role by id: %s \n", roleId)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var role model.Role
	if err := db.WithContext(ctx).Model(&model.Role{}).Where("id = ?", roleId).First(&role).Error; err != nil {
		return nil, err
	}

	return &role, nil
}

func (rr RoleRepository) List(ctx context.Context, tx *gorm.DB) ([]model.Role, error) {
	rr.logger.Debug("List roles")

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var roles []model.Role
	if err := db.WithContext(ctx).Model(&model.Role{}).Order("name asc").Find(&roles).Error; err != nil {
		return nil, err
	}

	return roles, nil
}

func (rr RoleRepository) Update(ctx context.Context, tx *gorm.DB, roleId string, name, description string, permissions []string) (*model.Role, error) {
	rr.logger.Debugf("Update role %s with permissions: %v \n", roleId, permissions)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.Role{}).Where("id = ?", roleId).Updates(map[string]any{
		"name":        name,
		"description": description,
		"permissions": datatypes.JSONSlice[string](permissions),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return rr.GetById(ctx, tx, roleId)
}

func (rr RoleRepository) Delete(ctx context.Context, tx *gorm.DB, roleId string) error {
	rr.logger.Debugf("Delete role: %s \n", roleId)

	db := rr.getDB(tx)
	return rr.withTx(db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		if err := tx.WithContext(ctx).Model(&model.User{}).Where("role_id = ?", roleId).
			Update("role_id", nil).Error; err != nil {
			return err
		}

		res := tx.WithContext(ctx).Where("id = ?", roleId).Delete(&model.Role{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
