package repository

import (
	"context"
	"time"

	constant "github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/model"
	"gorm.io/gorm"
)

type ActivityLogRepository struct {
	*baseRepository
}

func (alr ActivityLogRepository) Create(ctx context.Context, tx *gorm.DB, log *model.DocumentActivityLog) error {
	alr.logger.Debugf("Create activity log %s for document %s \n", log.Action, log.DocumentID)

	db := alr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	return db.WithContext(ctx).Omit("User").Create(log).Error
}

func (alr ActivityLogRepository) GetByDocumentId(ctx context.Context, tx *gorm.DB, documentId string) ([]model.DocumentActivityLog, error) {
	alr.logger.Debugf("Get activity logs by document id: %s", documentId)

	db := alr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var logs []model.DocumentActivityLog
	if err := db.WithContext(ctx).Model(&model.DocumentActivityLog{}).Preload("User").
		Where(model.DocumentActivityLog{DocumentID: documentId}).
		Order("timestamp asc").Find(&logs).Error; err != nil {
		return logs, err
	}

	return logs, nil
}
