package model

import "github.com/SeakMengs/DocControl/internal/constant"

type DocumentVersion struct {
	BaseModel
	DocumentID      string                   `gorm:"type:text;not null;uniqueIndex:idx_document_version_sequence" json:"documentId"`
	// Sequence numbers the versions of a document in upload order, starting at 1.
	Sequence        int                      `gorm:"not null;default:0;uniqueIndex:idx_document_version_sequence" json:"sequence"`
	Document        Document                 `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Version         string                   `gorm:"type:varchar(20);not null" json:"version"`
	ChangesSummary  string                   `gorm:"type:text" json:"changesSummary"`
	StorageProvider constant.StorageProvider `gorm:"type:text;not null" json:"storageProvider"`
	SharePointID    string                   `gorm:"type:text" json:"sharePointId"`
	DownloadURL     string                   `gorm:"type:text" json:"downloadUrl"`
	Size            int64                    `gorm:"type:bigint;not null" json:"size"`

	// FileID points at the object store copy when SharePoint was not used.
	FileID *string `gorm:"type:text" json:"fileId"`
	File   *File   `gorm:"constraint:OnDelete:SET NULL" json:"file,omitempty"`

	UploadedByID string `gorm:"type:text;not null" json:"uploadedById"`
	UploadedBy   User   `gorm:"foreignKey:UploadedByID" json:"uploadedBy"`
}

func (dv DocumentVersion) TableName() string {
	return "document_versions"
}
