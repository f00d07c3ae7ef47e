package model

import "gorm.io/datatypes"

type Role struct {
	BaseModel
	Name        string                     `gorm:"type:varchar(100);not null;uniqueIndex" json:"name" form:"name" binding:"required,strNotEmpty,max=100"`
	Description string                     `gorm:"type:text" json:"description" form:"description"`
	Permissions datatypes.JSONSlice[string] `json:"permissions" form:"permissions"`
}

func (r Role) TableName() string {
	return "roles"
}
