package repository

import (
	"context"
	"strings"

	constant "github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/pkg/fieldrule"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	*baseRepository
}

func (pr ProjectRepository) Create(ctx context.Context, tx *gorm.DB, project *model.Project) (*model.Project, error) {
	pr.logger.Debugf("Create project with data: %v \n", project)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if project.CustomFields == nil {
		project.CustomFields = datatypes.JSONSlice[fieldrule.CustomField]{}
	}
	if err := db.WithContext(ctx).Omit("Owner").Create(project).Error; err != nil {
		return project, err
	}

	return project, nil
}

func (pr ProjectRepository) GetById(ctx context.Context, tx *gorm.DB, projectId string) (*model.Project, error) {
	pr.logger.Debugf("Get project by id: %s \n", projectId)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var project model.Project
	if err := db.WithContext(ctx).Model(&model.Project{}).Preload("Owner").
		Where("id = ?", projectId).First(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// GetByIdInOrganization only finds projects of the given organization.
func (pr ProjectRepository) GetByIdInOrganization(ctx context.Context, tx *gorm.DB, projectId, organizationId string) (*model.Project, error) {
	pr.logger.Debugf("Get project %s of organization %s \n", projectId, organizationId)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var project model.Project
	if err := db.WithContext(ctx).Model(&model.Project{}).Preload("Owner").
		Where("id = ? AND organization_id = ?", projectId, organizationId).First(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

func (pr ProjectRepository) List(ctx context.Context, tx *gorm.DB, organizationId, search string, page, pageSize uint) ([]model.Project, int64, error) {
	pr.logger.Debugf("List projects of organization %s with search: %s \n", organizationId, search)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.Project{}).Where("organization_id = ?", organizationId)
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []model.Project
	if err := query.Preload("Owner").Order("created_at desc").
		Offset(offset(page, pageSize)).Limit(int(pageSize)).Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (pr ProjectRepository) Update(ctx context.Context, tx *gorm.DB, projectId, title, description string) (*model.Project, error) {
	pr.logger.Debugf("Update project %s with title: %s \n", projectId, title)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", projectId).
		Updates(map[string]any{"title": title, "description": description})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return pr.GetById(ctx, tx, projectId)
}

// UpdateCustomFields replaces the field set. Callers validate it with fieldrule.NewEngine first.
func (pr ProjectRepository) UpdateCustomFields(ctx context.Context, tx *gorm.DB, projectId string, fields []fieldrule.CustomField) error {
	pr.logger.Debugf("Update custom fields of project %s, %d fields \n", projectId, len(fields))

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if fields == nil {
		fields = []fieldrule.CustomField{}
	}
	res := db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", projectId).
		Update("custom_fields", datatypes.JSONSlice[fieldrule.CustomField](fields))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (pr ProjectRepository) Delete(ctx context.Context, tx *gorm.DB, projectId string) error {
	pr.logger.Debugf("Delete project: %s \n", projectId)

	db := pr.getDB(tx)
	return pr.withTx(db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		documentIds := tx.Model(&model.Document{}).Select("id").Where("project_id = ?", projectId)
		if err := tx.WithContext(ctx).Where("document_id IN (?)", documentIds).Delete(&model.DocumentVersion{}).Error; err != nil {
			return err
		}
		for _, m := range []any{&model.DocumentActivityLog{}, &model.Document{}, &model.ProjectSharePointConfig{}} {
			if err := tx.WithContext(ctx).Where("project_id = ?", projectId).Delete(m).Error; err != nil {
				return err
			}
		}

		res := tx.WithContext(ctx).Where("id = ?", projectId).Delete(&model.Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
