package repository

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type baseRepository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

type Repository struct {
	// DB can be used for transaction. Example usage:
	// tx := r.DB.Begin()
	// defer tx.Commit()
	// Then pass tx to the repository function. and use tx.Rollback() if error occurred
	DB               *gorm.DB
	User             *UserRepository
	Department       *DepartmentRepository
	Role             *RoleRepository
	Project          *ProjectRepository
	SharePointConfig *SharePointConfigRepository
	Document         *DocumentRepository
	DocumentVersion  *DocumentVersionRepository
	ActivityLog      *ActivityLogRepository
	File             *FileRepository
}

func newBaseRepository(db *gorm.DB, logger *zap.SugaredLogger) *baseRepository {
	return &baseRepository{db: db, logger: logger}
}

func NewRepository(db *gorm.DB, logger *zap.SugaredLogger) *Repository {
	br := newBaseRepository(db, logger)

	return &Repository{
		DB:               db,
		User:             &UserRepository{baseRepository: br},
		Department:       &DepartmentRepository{baseRepository: br},
		Role:             &RoleRepository{baseRepository: br},
		Project:          &ProjectRepository{baseRepository: br},
		SharePointConfig: &SharePointConfigRepository{baseRepository: br},
		Document:         &DocumentRepository{baseRepository: br},
		DocumentVersion:  &DocumentVersionRepository{baseRepository: br},
		ActivityLog:      &ActivityLogRepository{baseRepository: br},
		File:             &FileRepository{baseRepository: br},
	}
}

// GORM runs single writes in a transaction already, withTx is for multi statement units.
// Docs: https://gorm.io/docs/transactions.html
func (b baseRepository) withTx(db *gorm.DB, fn func(*gorm.DB) error) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})

	if err != nil {
		b.logger.Errorf("withTx Transaction error: %v", err)
	}

	return err
}

func (b baseRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}

	return b.db
}

func offset(page, pageSize uint) int {
	if page == 0 {
		page = 1
	}
	return int((page - 1) * pageSize)
}
