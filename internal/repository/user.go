package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	constant "github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	*baseRepository
}

func (ur UserRepository) GetById(ctx context.Context, tx *gorm.DB, userId string) (*model.User, error) {
	ur.logger.Debugf("Get user by id: %s \n", userId)

	db := ur.getDB(tx)
	var user *model.User

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).Preload("Role").Preload("Department").
		Where(&model.User{BaseModel: model.BaseModel{ID: userId}}).First(&user).Error; err != nil {
		return user, err
	}

	return user, nil
}

func (ur UserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*model.User, error) {
	ur.logger.Debugf("Get user by email: %s \n", email)

	db := ur.getDB(tx)
	var user *model.User

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).Where(&model.User{Email: email}).First(&user).Error; err != nil {
		return user, err
	}

	return user, nil
}

func (ur UserRepository) Create(ctx context.Context, tx *gorm.DB, newUser *model.User) (*model.User, error) {
	ur.logger.Debugf("Create user with data: %v \n", newUser)

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.User{}).Create(newUser).Error; err != nil {
		return newUser, err
	}

	return newUser, nil
}

// CheckDupAndCreate creates the user unless the email is already taken.
func (ur UserRepository) CheckDupAndCreate(ctx context.Context, tx *gorm.DB, newUser *model.User) (*model.User, error) {
	ur.logger.Debugf("Get user and create user with data (Transaction): %v \n", newUser)

	db := ur.getDB(tx)
	txErr := ur.withTx(db, func(tx *gorm.DB) error {
		existingUser, err := ur.GetByEmail(ctx, tx, newUser.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existingUser != nil && existingUser.ID != "" {
			return fmt.Errorf("user with email %s already exists", strings.ToLower(newUser.Email))
		}

		_, err = ur.Create(ctx, tx, newUser)
		return err
	})

	return newUser, txErr
}

func (ur UserRepository) ListByOrganization(ctx context.Context, tx *gorm.DB, organizationId string) ([]model.User, error) {
	ur.logger.Debugf("List users of organization: %s \n", organizationId)

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var users []model.User
	if err := db.WithContext(ctx).Model(&model.User{}).Preload("Role").Preload("Department").
		Where(&model.User{OrganizationID: organizationId}).
		Order("email asc").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// AssignRoleAndDepartment sets both links, a nil id clears the link.
func (ur UserRepository) AssignRoleAndDepartment(ctx context.Context, tx *gorm.DB, userId string, roleId, departmentId *string) error {
	ur.logger.Debugf("Assign role %v and department %v to user %s \n", roleId, departmentId, userId)

	db := ur.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId).
		Updates(map[string]any{"role_id": roleId, "department_id": departmentId})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetPermissions returns the permissions granted by the user's role.
func (ur UserRepository) GetPermissions(ctx context.Context, tx *gorm.DB, userId string) ([]string, error) {
	user, err := ur.GetById(ctx, tx, userId)
	if err != nil {
		return nil, err
	}
	if user.Role == nil {
		return []string{}, nil
	}
	return user.Role.Permissions, nil
}
