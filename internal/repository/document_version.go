package repository

import (
	"context"

	constant "github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/model"
	"gorm.io/gorm"
)

type DocumentVersionRepository struct {
	*baseRepository
}

// CreateAndBump stores the version and moves the document's current version,
// size and primary SharePoint reference to it in one transaction.
func (vr DocumentVersionRepository) CreateAndBump(ctx context.Context, tx *gorm.DB, version *model.DocumentVersion) (*model.DocumentVersion, error) {
	vr.logger.Debugf("Create version %s of document %s \n", version.Version, version.DocumentID)

	db := vr.getDB(tx)
	err := vr.withTx(db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()

		var last int
		if err := tx.WithContext(ctx).Model(&model.DocumentVersion{}).
			Where("document_id = ?", version.DocumentID).
			Select("COALESCE(MAX(sequence), 0)").Scan(&last).Error; err != nil {
			return err
		}
		version.Sequence = last + 1

		if err := tx.WithContext(ctx).Omit("Document", "File", "UploadedBy").Create(version).Error; err != nil {
			return err
		}

		updates := map[string]any{
			"current_version": version.Version,
			"size":            version.Size,
		}
		if version.StorageProvider == constant.StorageProviderSharePoint {
			if version.SharePointID != "" {
				updates["share_point_id"] = version.SharePointID
			}
			if version.DownloadURL != "" {
				updates["download_url"] = version.DownloadURL
			}
		}

		res := tx.WithContext(ctx).Model(&model.Document{}).Where("id = ?", version.DocumentID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return version, nil
}

func (vr DocumentVersionRepository) ListByDocument(ctx context.Context, tx *gorm.DB, documentId string) ([]model.DocumentVersion, error) {
	vr.logger.Debugf("List versions of document: %s \n", documentId)

	db := vr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var versions []model.DocumentVersion
	if err := db.WithContext(ctx).Model(&model.DocumentVersion{}).Preload("UploadedBy").Preload("File").
		Where("document_id = ?", documentId).
		Order("sequence desc").Find(&versions).Error; err != nil {
		return nil, err
	}

	return versions, nil
}
