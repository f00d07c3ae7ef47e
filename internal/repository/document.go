package repository

import (
	"context"
	"strings"

	constant "github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	*baseRepository
}

func (dr DocumentRepository) Create(ctx context.Context, tx *gorm.DB, document *model.Document) (*model.Document, error) {
	dr.logger.Debugf("Create document %s in project %s \n", document.FileName, document.ProjectID)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if document.CurrentVersion == "" {
		document.CurrentVersion = constant.InitialDocumentVersion
	}
	if document.Tags == nil {
		document.Tags = datatypes.JSONSlice[string]{}
	}
	if document.CustomFieldValues == nil {
		document.CustomFieldValues = datatypes.JSONMap{}
	}
	if err := db.WithContext(ctx).Omit("Project", "UploadedBy").Create(document).Error; err != nil {
		return document, err
	}

	return document, nil
}

func (dr DocumentRepository) GetById(ctx context.Context, tx *gorm.DB, documentId string) (*model.Document, error) {
	dr.logger.Debugf("Get document by id: %s \n", documentId)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var document model.Document
	if err := db.WithContext(ctx).Model(&model.Document{}).Preload("UploadedBy").
		Where("id = ?", documentId).First(&document).Error; err != nil {
		return nil, err
	}

	return &document, nil
}

func (dr DocumentRepository) ListByProject(ctx context.Context, tx *gorm.DB, projectId, search string, page, pageSize uint) ([]model.Document, int64, error) {
	dr.logger.Debugf("List documents of project %s with search: %s \n", projectId, search)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.Document{}).Where("project_id = ?", projectId)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(file_name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var documents []model.Document
	if err := query.Preload("UploadedBy").Order("created_at desc").Order("id asc").
		Offset(offset(page, pageSize)).Limit(int(pageSize)).Find(&documents).Error; err != nil {
		return nil, 0, err
	}

	return documents, total, nil
}

// UpdateMetadata saves the user editable parts of a document.
func (dr DocumentRepository) UpdateMetadata(ctx context.Context, tx *gorm.DB, documentId, description string, tags []string, values map[string]any) (*model.Document, error) {
	dr.logger.Debugf("Update metadata of document: %s \n", documentId)

	db := dr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if tags == nil {
		tags = []string{}
	}
	res := db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", documentId).Updates(map[string]any{
		"description":         description,
		"tags":                datatypes.JSONSlice[string](tags),
		"custom_field_values": datatypes.JSONMap(values),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return dr.GetById(ctx, tx, documentId)
}
