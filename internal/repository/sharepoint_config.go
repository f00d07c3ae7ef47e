package repository

import (
	"context"
	"errors"

	constant "github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/model"
	"gorm.io/gorm"
)

type SharePointConfigRepository struct {
	*baseRepository
}

func (sr SharePointConfigRepository) GetOrgConfig(ctx context.Context, tx *gorm.DB, organizationId string) (*model.OrgSharePointConfig, error) {
	sr.logger.Debugf("Get SharePoint config of organization: %s \n", organizationId)

	db := sr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var cfg model.OrgSharePointConfig
	if err := db.WithContext(ctx).Model(&model.OrgSharePointConfig{}).
		Where("organization_id = ?", organizationId).First(&cfg).Error; err != nil {
		return nil, err
	}

	return &cfg, nil
}

// UpsertOrgConfig creates or replaces the organization config. An empty ClientSecret
// keeps the stored secret so clients can edit other fields without resending it.
func (sr SharePointConfigRepository) UpsertOrgConfig(ctx context.Context, tx *gorm.DB, cfg *model.OrgSharePointConfig) (*model.OrgSharePointConfig, error) {
	sr.logger.Debugf("Upsert SharePoint config of organization: %s \n", cfg.OrganizationID)

	db := sr.getDB(tx)
	err := sr.withTx(db, func(tx *gorm.DB) error {
		existing, err := sr.GetOrgConfig(ctx, tx, cfg.OrganizationID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		if existing == nil {
			if cfg.ClientSecret == "" {
				return errors.New("client secret is required")
			}
			return tx.WithContext(ctx).Create(cfg).Error
		}

		updates := map[string]any{
			"tenant_id":        cfg.TenantID,
			"client_id":        cfg.ClientID,
			"document_library": cfg.DocumentLibrary,
		}
		if cfg.ClientSecret != "" {
			updates["client_secret"] = cfg.ClientSecret
		}
		if err := tx.WithContext(ctx).Model(&model.OrgSharePointConfig{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return err
		}
		cfg.ID = existing.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sr.GetOrgConfig(ctx, tx, cfg.OrganizationID)
}

// ListProjectConfigs returns every destination of a project in configuration order.
func (sr SharePointConfigRepository) ListProjectConfigs(ctx context.Context, tx *gorm.DB, projectId string, enabledOnly bool) ([]model.ProjectSharePointConfig, error) {
	sr.logger.Debugf("List SharePoint configs of project %s, enabled only: %v \n", projectId, enabledOnly)

	db := sr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.ProjectSharePointConfig{}).Where("project_id = ?", projectId)
	if enabledOnly {
		query = query.Where("is_enabled = ?", true)
	}

	var configs []model.ProjectSharePointConfig
	if err := query.Order("position asc").Order("created_at asc").Find(&configs).Error; err != nil {
		return nil, err
	}

	return configs, nil
}

func (sr SharePointConfigRepository) GetProjectConfig(ctx context.Context, tx *gorm.DB, projectId, configId string) (*model.ProjectSharePointConfig, error) {
	sr.logger.Debugf("Get SharePoint config %s of project %s \n", configId, projectId)

	db := sr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var cfg model.ProjectSharePointConfig
	if err := db.WithContext(ctx).Model(&model.ProjectSharePointConfig{}).
		Where("id = ? AND project_id = ?", configId, projectId).First(&cfg).Error; err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CreateProjectConfig appends the destination after the existing ones.
func (sr SharePointConfigRepository) CreateProjectConfig(ctx context.Context, tx *gorm.DB, cfg *model.ProjectSharePointConfig) (*model.ProjectSharePointConfig, error) {
	sr.logger.Debugf("Create SharePoint config with data: %v \n", cfg)

	db := sr.getDB(tx)
	err := sr.withTx(db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		var count int64
		if err := tx.WithContext(ctx).Model(&model.ProjectSharePointConfig{}).
			Where("project_id = ?", cfg.ProjectID).Count(&count).Error; err != nil {
			return err
		}
		cfg.Position = int(count)

		return tx.WithContext(ctx).Omit("Project").Create(cfg).Error
	})
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (sr SharePointConfigRepository) UpdateProjectConfig(ctx context.Context, tx *gorm.DB, cfg *model.ProjectSharePointConfig) (*model.ProjectSharePointConfig, error) {
	sr.logger.Debugf("Update SharePoint config with data: %v \n", cfg)

	db := sr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.ProjectSharePointConfig{}).
		Where("id = ? AND project_id = ?", cfg.ID, cfg.ProjectID).
		Updates(map[string]any{
			"name":                     cfg.Name,
			"site_url":                 cfg.SiteURL,
			"document_library":         cfg.DocumentLibrary,
			"folder_path":              cfg.FolderPath,
			"excel_sheet_path":         cfg.ExcelSheetPath,
			"is_excel_logging_enabled": cfg.IsExcelLoggingEnabled,
			"is_enabled":               cfg.IsEnabled,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return sr.GetProjectConfig(ctx, tx, cfg.ProjectID, cfg.ID)
}

func (sr SharePointConfigRepository) DeleteProjectConfig(ctx context.Context, tx *gorm.DB, projectId, configId string) error {
	sr.logger.Debugf("Delete SharePoint config %s of project %s \n", configId, projectId)

	db := sr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Where("id = ? AND project_id = ?", configId, projectId).Delete(&model.ProjectSharePointConfig{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
