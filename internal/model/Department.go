package model

type Department struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name" form:"name" binding:"required,strNotEmpty,max=100"`
	Description string `gorm:"type:text" json:"description" form:"description"`
}

func (d Department) TableName() string {
	return "departments"
}
