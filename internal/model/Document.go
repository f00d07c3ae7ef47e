package model

import (
	"github.com/SeakMengs/DocControl/pkg/fieldrule"
	"gorm.io/datatypes"
)

type Document struct {
	BaseModel
	FileName    string                      `gorm:"type:text;not null" json:"fileName"`
	Description string                      `gorm:"type:text" json:"description"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	MimeType    string                      `gorm:"type:text" json:"mimeType"`
	Size        int64                       `gorm:"type:bigint;not null" json:"size"`
	PageCount   *int                        `json:"pageCount"`

	// CustomFieldValues is keyed by custom field id.
	CustomFieldValues datatypes.JSONMap `json:"customFieldValues"`
	CurrentVersion    string            `gorm:"type:varchar(20);not null;default:'1.0'" json:"currentVersion"`

	// Primary SharePoint location, the first successful destination.
	SharePointConfigID string `gorm:"type:text" json:"sharePointConfigId"`
	SharePointID       string `gorm:"type:text" json:"sharePointId"`
	SharePointDriveID  string `gorm:"type:text" json:"sharePointDriveId"`
	SharePointPath     string `gorm:"type:text" json:"sharePointPath"`
	DownloadURL        string `gorm:"type:text" json:"downloadUrl"`
	WebURL             string `gorm:"type:text" json:"webUrl"`
	// UploadResults keeps every destination result for audit.
	UploadResults datatypes.JSON `json:"uploadResults"`

	ProjectID    string  `gorm:"type:text;not null;index" json:"projectId"`
	Project      Project `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UploadedByID string  `gorm:"type:text;not null" json:"uploadedById"`
	UploadedBy   User    `gorm:"foreignKey:UploadedByID" json:"uploadedBy"`
}

func (d Document) TableName() string {
	return "documents"
}

func (d Document) Values() fieldrule.Values {
	return fieldrule.Values(d.CustomFieldValues)
}
