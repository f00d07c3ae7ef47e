package model

import (
	"time"

	"github.com/SeakMengs/DocControl/internal/constant"
	"gorm.io/datatypes"
)

type DocumentActivityLog struct {
	BaseModel
	Action      constant.DocumentAction `gorm:"type:text;not null;" json:"action"`
	Description string                  `gorm:"type:text;not null;" json:"description"`
	Details     datatypes.JSONMap       `json:"details"`
	Timestamp   time.Time               `gorm:"not null;index" json:"timestamp"`

	DocumentID string `gorm:"type:text;not null;index" json:"documentId"`
	ProjectID  string `gorm:"type:text;not null;index" json:"projectId"`
	UserID     string `gorm:"type:text;not null" json:"userId"`
	User       User   `json:"user"`
}

func (l DocumentActivityLog) TableName() string {
	return "document_activity_logs"
}
