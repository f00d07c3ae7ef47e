package model

import (
	"github.com/SeakMengs/DocControl/pkg/fieldrule"
	"gorm.io/datatypes"
)

type Project struct {
	BaseModel
	Title          string `gorm:"type:varchar(100);not null;" json:"title" form:"title" binding:"required"`
	Description    string `gorm:"type:text" json:"description" form:"description"`
	OrganizationID string `gorm:"type:text;not null;index" json:"organizationId" form:"organizationId"`

	// CustomFields is the ordered field set documents of this project fill in.
	CustomFields datatypes.JSONSlice[fieldrule.CustomField] `json:"customFields" form:"customFields"`

	OwnerID string `gorm:"type:text;not null" json:"ownerId" form:"ownerId"`
	Owner   User   `gorm:"foreignKey:OwnerID" json:"owner" form:"owner"`
}

func (p Project) TableName() string {
	return "projects"
}

func (p Project) FieldEngine() (*fieldrule.Engine, error) {
	return fieldrule.NewEngine(p.CustomFields)
}
